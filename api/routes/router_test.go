package routes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/himalayan-naturals/storefront-backend/api/controllers"
	"github.com/himalayan-naturals/storefront-backend/internal/cart"
	"github.com/himalayan-naturals/storefront-backend/internal/promos"
	"github.com/himalayan-naturals/storefront-backend/internal/pricing"
	pkgAuth "github.com/himalayan-naturals/storefront-backend/pkg/auth"
	"github.com/himalayan-naturals/storefront-backend/pkg/auth/session"
	"github.com/himalayan-naturals/storefront-backend/pkg/config"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/types"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubCartService struct{}

func (stubCartService) Items(ctx context.Context, ownerID uuid.UUID) ([]types.CartItem, error) {
	return []types.CartItem{}, nil
}

func (stubCartService) AddItem(ctx context.Context, owner cart.Owner, input cart.AddItemInput) ([]types.CartItem, error) {
	return nil, nil
}

func (stubCartService) UpdateQuantity(ctx context.Context, owner cart.Owner, input cart.UpdateQuantityInput) ([]types.CartItem, error) {
	return nil, nil
}

func (stubCartService) RemoveItem(ctx context.Context, owner cart.Owner, key cart.LineKey) ([]types.CartItem, error) {
	return nil, nil
}

func (stubCartService) Clear(ctx context.Context, ownerID uuid.UUID) error {
	return nil
}

func (stubCartService) Quote(ctx context.Context, ownerID uuid.UUID, couponCode string) (*cart.QuoteDTO, error) {
	return &cart.QuoteDTO{}, nil
}

type stubPromoService struct{}

func (stubPromoService) List(ctx context.Context) ([]promos.PromoDTO, error) {
	return []promos.PromoDTO{}, nil
}

func (stubPromoService) ActiveCoupons(ctx context.Context) ([]pricing.Coupon, error) {
	return nil, nil
}

func (stubPromoService) Resolve(ctx context.Context, raw string) (*pricing.Coupon, error) {
	return &pricing.Coupon{Code: "WELCOME10", Type: enums.PromoPercent}, nil
}

func (stubPromoService) Create(ctx context.Context, input promos.CreateInput) (*promos.PromoDTO, error) {
	return nil, errors.New("not implemented")
}

func (stubPromoService) Update(ctx context.Context, id uuid.UUID, input promos.UpdateInput) (*promos.PromoDTO, error) {
	return nil, errors.New("not implemented")
}

func (stubPromoService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config, ready map[string]controllers.Pinger) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		Ready:    ready,
		Sessions: stubSessions{},
		Cart:     stubCartService{},
		Promos:   stubPromoService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, map[string]controllers.Pinger{"db": stubPinger{}, "redis": stubPinger{}})

	if resp := serve(router, http.MethodGet, "/health/live", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected live 200 got %d", resp.Code)
	}
	if resp := serve(router, http.MethodGet, "/health/ready", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected ready 200 got %d", resp.Code)
	}

	down := newTestRouter(cfg, map[string]controllers.Pinger{"redis": stubPinger{err: errors.New("down")}})
	if resp := serve(down, http.MethodGet, "/health/ready", ""); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected ready 503 got %d", resp.Code)
	}
}

func TestPublicRoutesNeedNoToken(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/promos/validate", strings.NewReader(`{"code":"welcome10"}`))
		resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for coupon validation got %d", resp.Code)
	}
}

func TestCartRequiresSession(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)

	if resp := serve(router, http.MethodGet, "/api/v1/cart", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
	if resp := serve(router, http.MethodGet, "/api/v1/cart", buildToken(t, cfg, enums.RoleGuest)); resp.Code != http.StatusOK {
		t.Fatalf("expected guest cart 200 got %d", resp.Code)
	}
}

func TestAccountRoutesRejectGuests(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)

	for _, path := range []string{"/api/v1/orders", "/api/v1/wallet", "/api/v1/me", "/api/v1/referrals"} {
		if resp := serve(router, http.MethodGet, path, buildToken(t, cfg, enums.RoleGuest)); resp.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403 for guest got %d", path, resp.Code)
		}
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)

	if resp := serve(router, http.MethodGet, "/api/admin/v1/promos", buildToken(t, cfg, enums.RoleUser)); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}
	if resp := serve(router, http.MethodGet, "/api/admin/v1/promos", buildToken(t, cfg, enums.RoleAdmin)); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestNilServiceAnswersInternalError(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	if resp := serve(router, http.MethodGet, "/api/v1/products", ""); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 with no product service got %d", resp.Code)
	}
}
