package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/himalayan-naturals/storefront-backend/internal/referrals"
	"github.com/himalayan-naturals/storefront-backend/internal/users"
	"github.com/himalayan-naturals/storefront-backend/internal/wallet"
	pkgAuth "github.com/himalayan-naturals/storefront-backend/pkg/auth"
	"github.com/himalayan-naturals/storefront-backend/pkg/auth/session"
	"github.com/himalayan-naturals/storefront-backend/pkg/config"
	"github.com/himalayan-naturals/storefront-backend/pkg/db"
	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox/payloads"
	"github.com/himalayan-naturals/storefront-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	// SignupBonusDescription labels the welcome credit on the ledger.
	SignupBonusDescription = "Welcome Bonus: New Account"
)

// Service opens, rotates and closes sessions.
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*SessionResponse, error)
	Login(ctx context.Context, req LoginRequest) (*SessionResponse, error)
	Guest(ctx context.Context) (*SessionResponse, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
	Me(ctx context.Context, claims *pkgAuth.AccessTokenClaims) (*MeResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, kind session.Kind) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	users       *users.Repository
	profiles    users.Service
	referrals   referrals.Service
	ledger      *wallet.Ledger
	outbox      outbox.Emitter
	tx          txRunner
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	signupBonus decimal.Decimal
	logg        *logger.Logger
	now         func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Users          *users.Repository
	Profiles       users.Service
	Referrals      referrals.Service
	Ledger         *wallet.Ledger
	Outbox         outbox.Emitter
	Tx             txRunner
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	SignupBonus    decimal.Decimal
	Logger         *logger.Logger
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Users == nil:
		return nil, fmt.Errorf("users repository is required")
	case params.Profiles == nil:
		return nil, fmt.Errorf("users service is required")
	case params.Referrals == nil:
		return nil, fmt.Errorf("referrals service is required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("wallet ledger is required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter is required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner is required")
	case params.SessionManager == nil:
		return nil, fmt.Errorf("session manager is required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case !params.SignupBonus.IsPositive():
		return nil, fmt.Errorf("signup bonus must be positive")
	}
	return &service{
		users:       params.Users,
		profiles:    params.Profiles,
		referrals:   params.Referrals,
		ledger:      params.Ledger,
		outbox:      params.Outbox,
		tx:          params.Tx,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		signupBonus: params.SignupBonus,
		logg:        params.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Signup creates the identity, its profile and the welcome credit in one
// transaction. The referral code is generated afterwards so collisions can be
// retried, and a referral code is applied last; a rejected code is reported
// on the response without undoing the account.
func (s *service) Signup(ctx context.Context, req SignupRequest) (*SessionResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := users.NormalizeEmail(req.Email)
	if name == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and email are required")
	}
	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}

	now := s.now()
	userID := uuid.New()
	var bonus *wallet.Posting
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		if err := repo.CreateIdentity(ctx, &models.Identity{
			ID:           userID,
			Email:        email,
			PasswordHash: hash,
			CreatedAt:    now,
		}); err != nil {
			if db.IsUniqueViolation(err, users.EmailUniqueConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create identity")
		}

		created, err := s.profiles.EnsureProfile(ctx, tx, &models.Profile{
			ID:            userID,
			Name:          name,
			Email:         email,
			Role:          enums.RoleUser,
			WalletBalance: decimal.Zero,
			CreatedAt:     now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create profile")
		}
		if !created {
			s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "auth.signup.profile_exists")
		}

		bonus, err = s.ledger.Credit(ctx, tx, wallet.Entry{
			UserID:      userID,
			Amount:      s.signupBonus,
			Description: SignupBonusDescription,
			Type:        enums.WalletTxSignupBonus,
			Actor:       &outbox.ActorRef{UserID: userID, Role: string(enums.RoleUser)},
		})
		return err
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "signup")
		}
		return nil, err
	}
	s.ledger.Observe(bonus)

	ctx = s.logg.WithUserID(ctx, userID.String())
	code, err := s.referrals.EnsureCode(ctx, userID)
	if err != nil {
		// The account exists; the code is generated again on the next /me.
		s.logg.Error(ctx, "auth.signup.referral_code_failed", err)
	}

	resp := &SessionResponse{}
	if raw := strings.TrimSpace(req.ReferralCode); raw != "" {
		result, err := s.referrals.ApplyReferral(ctx, userID, raw)
		if err != nil {
			resp.ReferralError = publicMessage(err)
			s.logg.Warn(s.logg.WithField(ctx, "referral_error", resp.ReferralError), "auth.signup.referral_rejected")
		} else {
			resp.Referral = result
		}
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserSignedUp,
			AggregateType: enums.AggregateProfile,
			AggregateID:   userID.String(),
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.RoleUser)},
			Data: payloads.UserSignedUpEvent{
				UserID:       userID,
				ReferralCode: code,
				SignupBonus:  bonus.Transaction.Amount,
				Referred:     resp.Referral != nil,
			},
		})
	}); err != nil {
		s.logg.Error(ctx, "auth.signup.event_failed", err)
	}

	pair, err := s.issue(ctx, userID, enums.RoleUser, session.KindAccount, now)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp.TokenPair = *pair
	resp.User = profile
	s.logg.Info(ctx, "auth.signup")
	return resp, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*SessionResponse, error) {
	identity, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	profile, err := s.users.FindProfile(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, identity.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}

	ctx = s.logg.WithUserID(ctx, identity.ID.String())
	if profile.ReferralCode == nil || *profile.ReferralCode == "" {
		code, err := s.referrals.EnsureCode(ctx, identity.ID)
		if err != nil {
			s.logg.Error(ctx, "auth.login.referral_code_failed", err)
		} else {
			profile.ReferralCode = &code
		}
	}

	pair, err := s.issue(ctx, identity.ID, profile.Role, session.KindAccount, now)
	if err != nil {
		return nil, err
	}
	s.logg.Info(ctx, "auth.login")
	return &SessionResponse{TokenPair: *pair, User: users.FromModel(profile)}, nil
}

// Guest mints a session for a random id. Nothing is persisted for guests.
func (s *service) Guest(ctx context.Context) (*SessionResponse, error) {
	id := uuid.New()
	pair, err := s.issue(ctx, id, enums.RoleGuest, session.KindGuest, s.now())
	if err != nil {
		return nil, err
	}
	return &SessionResponse{TokenPair: *pair, Guest: guestDTO(id)}, nil
}

// Refresh rotates the session bound to the access token's jti. Account roles
// are re-read so an admin demotion takes effect on the next refresh.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}

	role := claims.Role
	if !claims.IsGuest() {
		profile, err := s.users.FindProfile(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
		}
		role = profile.Role
	}

	accessID, newRefresh, err := s.session.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	signed, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID: claims.UserID,
		Role:   role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenPair{AccessToken: signed, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// Me returns the session's profile, generating the referral code if the
// profile predates it.
func (s *service) Me(ctx context.Context, claims *pkgAuth.AccessTokenClaims) (*MeResponse, error) {
	if claims == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if claims.IsGuest() {
		return &MeResponse{Role: enums.RoleGuest, Guest: guestDTO(claims.UserID)}, nil
	}
	if _, err := s.referrals.EnsureCode(ctx, claims.UserID); err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, err
		}
		s.logg.Error(s.logg.WithUserID(ctx, claims.UserID.String()), "auth.me.referral_code_failed", err)
	}
	profile, err := s.profiles.GetProfile(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return &MeResponse{Role: profile.Role, User: profile}, nil
}

func (s *service) issue(ctx context.Context, userID uuid.UUID, role enums.Role, kind session.Kind, now time.Time) (*TokenPair, error) {
	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID, kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	input := users.NormalizeEmail(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	identity, err := s.users.FindIdentityByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup identity")
	}

	valid, err := security.VerifyPassword(password, identity.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return identity, nil
}

func publicMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return "referral could not be applied"
}
