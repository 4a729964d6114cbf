package referrals

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/himalayan-naturals/storefront-backend/internal/users"
	"github.com/himalayan-naturals/storefront-backend/internal/wallet"
	"github.com/himalayan-naturals/storefront-backend/pkg/db"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox/payloads"
)

const maxCodeAttempts = 5

// Result describes an applied referral.
type Result struct {
	ReferrerID uuid.UUID       `json:"referrerId"`
	Bonus      decimal.Decimal `json:"bonus"`
}

// Service links new users to their referrer and pays the referral bonus.
type Service interface {
	// EnsureCode returns the user's referral code, generating one on first use.
	EnsureCode(ctx context.Context, userID uuid.UUID) (string, error)
	ApplyReferral(ctx context.Context, newUserID uuid.UUID, code string) (*Result, error)
	ListReferred(ctx context.Context, referrerID uuid.UUID) ([]users.ReferredUserDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type bonusSource interface {
	ReferralBonus(ctx context.Context) decimal.Decimal
}

type service struct {
	users   *users.Repository
	ledger  *wallet.Ledger
	bonus   bonusSource
	outbox  outbox.Emitter
	tx      txRunner
	logg    *logger.Logger
	digitFn func() int
}

// ServiceParams groups the referral service dependencies.
type ServiceParams struct {
	Users    *users.Repository
	Ledger   *wallet.Ledger
	Settings bonusSource
	Outbox   outbox.Emitter
	Tx       txRunner
	Logger   *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Users == nil:
		return nil, fmt.Errorf("users repository required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("wallet ledger required")
	case params.Settings == nil:
		return nil, fmt.Errorf("settings source required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		users:   params.Users,
		ledger:  params.Ledger,
		bonus:   params.Settings,
		outbox:  params.Outbox,
		tx:      params.Tx,
		logg:    params.Logger,
		digitFn: randomDigits,
	}, nil
}

// EnsureCode runs outside a transaction so a colliding code can be retried
// with a fresh suffix.
func (s *service) EnsureCode(ctx context.Context, userID uuid.UUID) (string, error) {
	profile, err := s.users.FindProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}
	if profile.ReferralCode != nil && *profile.ReferralCode != "" {
		return *profile.ReferralCode, nil
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := NewCode(profile.Name, s.digitFn)
		updated, err := s.users.SetReferralCode(ctx, userID, code)
		if err != nil {
			if db.IsUniqueViolation(err, users.ReferralCodeUniqueConstraint) {
				continue
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save referral code")
		}
		if updated {
			return code, nil
		}
		// Another request stored a code first.
		current, err := s.users.FindProfile(ctx, userID)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload profile")
		}
		if current.ReferralCode != nil {
			return *current.ReferralCode, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique referral code")
}

// ApplyReferral links newUserID to the owner of code and credits the owner
// with the configured bonus in one transaction.
func (s *service) ApplyReferral(ctx context.Context, newUserID uuid.UUID, code string) (*Result, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidReferral, "Invalid Referral Code")
	}

	// read before the transaction so a settings failure cannot abort it
	bonus := s.bonus.ReferralBonus(ctx)

	var (
		result  *Result
		posting *wallet.Posting
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		referrer, err := repo.FindProfileByReferralCode(ctx, normalized)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeInvalidReferral, "Invalid Referral Code")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup referral code")
		}
		if referrer.ID == newUserID {
			return pkgerrors.New(pkgerrors.CodeInvalidReferral, "Cannot refer yourself")
		}

		newUser, err := repo.LockProfile(ctx, newUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock profile")
		}
		if newUser.ReferredBy != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "Referral already applied")
		}
		linked, err := repo.SetReferredBy(ctx, newUserID, referrer.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link referrer")
		}
		if !linked {
			return pkgerrors.New(pkgerrors.CodeConflict, "Referral already applied")
		}

		actor := &outbox.ActorRef{UserID: newUserID, Role: string(enums.RoleUser)}
		posting, err = s.ledger.Credit(ctx, tx, wallet.Entry{
			UserID:      referrer.ID,
			Amount:      bonus,
			Description: bonusDescription(newUserID),
			Type:        enums.WalletTxReferralBonus,
			Actor:       actor,
		})
		if err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReferralApplied,
			AggregateType: enums.AggregateProfile,
			AggregateID:   newUserID.String(),
			Actor:         actor,
			Data: payloads.ReferralAppliedEvent{
				ReferrerID: referrer.ID,
				ReferredID: newUserID,
				Code:       normalized,
				Bonus:      posting.Transaction.Amount,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue referral event")
		}

		result = &Result{ReferrerID: referrer.ID, Bonus: posting.Transaction.Amount}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply referral")
		}
		return nil, err
	}

	s.ledger.Observe(posting)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":     newUserID.String(),
		"referrer_id": result.ReferrerID.String(),
		"bonus":       result.Bonus.StringFixed(2),
	}), "referrals.applied")
	return result, nil
}

func (s *service) ListReferred(ctx context.Context, referrerID uuid.UUID) ([]users.ReferredUserDTO, error) {
	rows, err := s.users.ListReferredBy(ctx, referrerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list referred users")
	}
	out := make([]users.ReferredUserDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, users.ReferredUserDTO{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt})
	}
	return out, nil
}

func bonusDescription(newUserID uuid.UUID) string {
	return "Bonus for referring user " + newUserID.String()[:5] + "..."
}
