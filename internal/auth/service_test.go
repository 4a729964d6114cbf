package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/himalayan-naturals/storefront-backend/internal/referrals"
	"github.com/himalayan-naturals/storefront-backend/internal/settings"
	"github.com/himalayan-naturals/storefront-backend/internal/users"
	"github.com/himalayan-naturals/storefront-backend/internal/wallet"
	pkgAuth "github.com/himalayan-naturals/storefront-backend/pkg/auth"
	"github.com/himalayan-naturals/storefront-backend/pkg/auth/session"
	"github.com/himalayan-naturals/storefront-backend/pkg/config"
	"github.com/himalayan-naturals/storefront-backend/pkg/db/dbtest"
	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox"
)

var testJWT = config.JWTConfig{
	Secret:                 "secret",
	Issuer:                 "himalayan-naturals",
	ExpirationMinutes:      30,
	RefreshTokenTTLMinutes: 600,
}

type storedSession struct {
	kind  session.Kind
	token string
}

type memorySessions struct {
	sessions map[string]storedSession
	seq      int
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]storedSession{}}
}

func (m *memorySessions) Generate(_ context.Context, accessID string, kind session.Kind) (string, error) {
	m.seq++
	token := "refresh-" + uuid.NewString()
	m.sessions[accessID] = storedSession{kind: kind, token: token}
	return token, nil
}

func (m *memorySessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := m.sessions[oldAccessID]
	if !ok || stored.token != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(m.sessions, oldAccessID)
	accessID := session.NewAccessID()
	token, err := m.Generate(ctx, accessID, stored.kind)
	return accessID, token, err
}

func (m *memorySessions) Revoke(_ context.Context, accessID string) error {
	delete(m.sessions, accessID)
	return nil
}

type authFixture struct {
	conn     *gorm.DB
	svc      *service
	sessions *memorySessions
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	logg := logger.New(logger.Options{ServiceName: "auth-test", Output: io.Discard})
	emitter := outbox.NewService(outbox.NewRepository(conn), nil)
	ledger, err := wallet.NewLedger(wallet.NewRepository(conn), emitter, nil)
	require.NoError(t, err)
	usersRepo := users.NewRepository(conn)
	profiles, err := users.NewService(usersRepo, client, logg)
	require.NoError(t, err)
	settingsSvc, err := settings.NewService(settings.NewRepository(conn), decimal.NewFromInt(200), logg)
	require.NoError(t, err)
	referralSvc, err := referrals.NewService(referrals.ServiceParams{
		Users:    usersRepo,
		Ledger:   ledger,
		Settings: settingsSvc,
		Outbox:   emitter,
		Tx:       client,
		Logger:   logg,
	})
	require.NoError(t, err)

	sessions := newMemorySessions()
	svc, err := NewService(ServiceParams{
		Users:          usersRepo,
		Profiles:       profiles,
		Referrals:      referralSvc,
		Ledger:         ledger,
		Outbox:         emitter,
		Tx:             client,
		SessionManager: sessions,
		JWTConfig:      testJWT,
		PasswordConfig: config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		SignupBonus:    decimal.NewFromInt(200),
		Logger:         logg,
	})
	require.NoError(t, err)
	return authFixture{conn: conn, svc: svc.(*service), sessions: sessions}
}

func (f authFixture) signup(t *testing.T, name, email, code string) *SessionResponse {
	t.Helper()
	resp, err := f.svc.Signup(context.Background(), SignupRequest{
		Name:         name,
		Email:        email,
		Password:     "namaste123",
		ReferralCode: code,
	})
	require.NoError(t, err)
	return resp
}

func TestSignupCreditsWelcomeBonusAndGeneratesCode(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.signup(t, "Pema Sherpa", "  Pema@Example.com ", "")

	require.NotNil(t, resp.User)
	assert.Equal(t, "pema@example.com", resp.User.Email)
	assert.Equal(t, enums.RoleUser, resp.User.Role)
	assert.True(t, resp.User.WalletBalance.Equal(decimal.NewFromInt(200)))
	require.NotNil(t, resp.User.ReferralCode)
	assert.Regexp(t, `^PEM\d{4}$`, *resp.User.ReferralCode)
	assert.Empty(t, resp.ReferralError)

	var txs []models.WalletTransaction
	require.NoError(t, f.conn.Where("user_id = ?", resp.User.ID).Find(&txs).Error)
	require.Len(t, txs, 1)
	assert.Equal(t, enums.WalletTxSignupBonus, txs[0].Type)
	assert.Equal(t, SignupBonusDescription, txs[0].Description)

	var signedUp int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventUserSignedUp).Count(&signedUp).Error)
	assert.EqualValues(t, 1, signedUp)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Contains(t, f.sessions.sessions, claims.ID)
}

func TestSignupDuplicateEmailIsConflict(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "Pema", "pema@example.com", "")

	_, err := f.svc.Signup(context.Background(), SignupRequest{Name: "Other", Email: "PEMA@example.com", Password: "namaste123"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	var profiles int64
	require.NoError(t, f.conn.Model(&models.Profile{}).Count(&profiles).Error)
	assert.EqualValues(t, 1, profiles)
}

func TestSignupWithReferralCreditsReferrer(t *testing.T) {
	f := newAuthFixture(t)
	referrer := f.signup(t, "Tashi", "tashi@example.com", "")

	resp := f.signup(t, "Dawa", "dawa@example.com", *referrer.User.ReferralCode)

	require.NotNil(t, resp.Referral)
	assert.Equal(t, referrer.User.ID, resp.Referral.ReferrerID)
	require.NotNil(t, resp.User.ReferredBy)
	assert.Equal(t, referrer.User.ID, *resp.User.ReferredBy)

	var owner models.Profile
	require.NoError(t, f.conn.First(&owner, "id = ?", referrer.User.ID).Error)
	assert.True(t, owner.WalletBalance.Equal(decimal.NewFromInt(400)), "got %s", owner.WalletBalance)
}

func TestSignupInvalidReferralStillCreatesAccount(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.signup(t, "Dawa", "dawa@example.com", "NOPE0000")

	assert.Equal(t, "Invalid Referral Code", resp.ReferralError)
	assert.Nil(t, resp.Referral)
	assert.NotEmpty(t, resp.AccessToken)
	assert.True(t, resp.User.WalletBalance.Equal(decimal.NewFromInt(200)))
}

func TestLoginChecksPassword(t *testing.T) {
	f := newAuthFixture(t)
	created := f.signup(t, "Pema", "pema@example.com", "")

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "pema@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = f.svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "namaste123"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	resp, err := f.svc.Login(context.Background(), LoginRequest{Email: " PEMA@example.com", Password: "namaste123"})
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, resp.User.ID)

	var identity models.Identity
	require.NoError(t, f.conn.First(&identity, "id = ?", created.User.ID).Error)
	assert.NotNil(t, identity.LastLoginAt)
}

func TestLoginGeneratesMissingReferralCode(t *testing.T) {
	f := newAuthFixture(t)
	created := f.signup(t, "Sonam", "sonam@example.com", "")
	require.NoError(t, f.conn.Model(&models.Profile{}).Where("id = ?", created.User.ID).Update("referral_code", nil).Error)

	resp, err := f.svc.Login(context.Background(), LoginRequest{Email: "sonam@example.com", Password: "namaste123"})
	require.NoError(t, err)
	require.NotNil(t, resp.User.ReferralCode)
	assert.Regexp(t, `^SON\d{4}$`, *resp.User.ReferralCode)

	var stored models.Profile
	require.NoError(t, f.conn.First(&stored, "id = ?", created.User.ID).Error)
	require.NotNil(t, stored.ReferralCode)
	assert.Equal(t, *resp.User.ReferralCode, *stored.ReferralCode)
}

func TestLoginCarriesAdminRole(t *testing.T) {
	f := newAuthFixture(t)
	created := f.signup(t, "Admin", "admin@example.com", "")
	require.NoError(t, f.conn.Model(&models.Profile{}).Where("id = ?", created.User.ID).Update("role", enums.RoleAdmin).Error)

	resp, err := f.svc.Login(context.Background(), LoginRequest{Email: "admin@example.com", Password: "namaste123"})
	require.NoError(t, err)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleAdmin, claims.Role)
}

func TestGuestSessionPersistsNothing(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.Guest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, resp.Guest)
	assert.Nil(t, resp.User)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsGuest())
	assert.Equal(t, session.KindGuest, f.sessions.sessions[claims.ID].kind)

	var profiles int64
	require.NoError(t, f.conn.Model(&models.Profile{}).Count(&profiles).Error)
	assert.Zero(t, profiles)

	me, err := f.svc.Me(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleGuest, me.Role)
	assert.Nil(t, me.User)
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newAuthFixture(t)
	created := f.signup(t, "Pema", "pema@example.com", "")
	old, err := pkgAuth.ParseAccessToken(testJWT, created.AccessToken)
	require.NoError(t, err)

	pair, err := f.svc.Refresh(context.Background(), created.AccessToken, created.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, created.RefreshToken, pair.RefreshToken)
	assert.NotContains(t, f.sessions.sessions, old.ID)

	_, err = f.svc.Refresh(context.Background(), created.AccessToken, created.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	f.svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	guest, err := f.svc.Guest(context.Background())
	require.NoError(t, err)
	f.svc.now = func() time.Time { return time.Now().UTC() }

	pair, err := f.svc.Refresh(context.Background(), guest.AccessToken, guest.RefreshToken)
	require.NoError(t, err)

	claims, err := pkgAuth.ParseAccessToken(testJWT, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, guest.Guest.ID, claims.UserID)
	assert.True(t, claims.IsGuest())
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	created := f.signup(t, "Pema", "pema@example.com", "")
	claims, err := pkgAuth.ParseAccessToken(testJWT, created.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), claims.ID))
	assert.NotContains(t, f.sessions.sessions, claims.ID)
}

func TestMeGeneratesMissingReferralCode(t *testing.T) {
	f := newAuthFixture(t)
	id := uuid.New()
	require.NoError(t, f.conn.Create(&models.Profile{
		ID:            id,
		Name:          "Legacy",
		Email:         "legacy@example.com",
		Role:          enums.RoleUser,
		WalletBalance: decimal.Zero,
	}).Error)

	me, err := f.svc.Me(context.Background(), &pkgAuth.AccessTokenClaims{UserID: id, Role: enums.RoleUser})
	require.NoError(t, err)
	require.NotNil(t, me.User.ReferralCode)
	assert.Regexp(t, `^LEG\d{4}$`, *me.User.ReferralCode)
}
