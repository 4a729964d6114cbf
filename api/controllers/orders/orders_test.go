package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/himalayan-naturals/storefront-backend/api/middleware"
	internalorders "github.com/himalayan-naturals/storefront-backend/internal/orders"
	pkgAuth "github.com/himalayan-naturals/storefront-backend/pkg/auth"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox"
	"github.com/himalayan-naturals/storefront-backend/pkg/pagination"
)

type stubOrdersService struct {
	order        *internalorders.OrderDTO
	err          error
	lastActor    internalorders.Actor
	lastCheckout internalorders.CheckoutInput
	lastUserID   uuid.UUID
	lastOrderID  string
	lastAdmin    internalorders.AdminListParams
	lastUpdate   internalorders.AdminUpdateInput
	lastRef      *outbox.ActorRef
}

func (s *stubOrdersService) PlaceOrder(ctx context.Context, draft internalorders.Draft, payerID *uuid.UUID) (*internalorders.OrderDTO, error) {
	panic("not implemented")
}

func (s *stubOrdersService) Checkout(ctx context.Context, actor internalorders.Actor, input internalorders.CheckoutInput) (*internalorders.OrderDTO, error) {
	s.lastActor = actor
	s.lastCheckout = input
	return s.order, s.err
}

func (s *stubOrdersService) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[internalorders.OrderDTO], error) {
	s.lastUserID = userID
	if s.err != nil {
		return nil, s.err
	}
	return &pagination.Page[internalorders.OrderDTO]{Items: []internalorders.OrderDTO{*s.order}}, nil
}

func (s *stubOrdersService) GetMine(ctx context.Context, userID uuid.UUID, orderID string) (*internalorders.OrderDTO, error) {
	s.lastUserID = userID
	s.lastOrderID = orderID
	return s.order, s.err
}

func (s *stubOrdersService) AdminList(ctx context.Context, params internalorders.AdminListParams) (*pagination.Page[internalorders.OrderDTO], error) {
	s.lastAdmin = params
	return &pagination.Page[internalorders.OrderDTO]{Items: []internalorders.OrderDTO{}}, s.err
}

func (s *stubOrdersService) AdminGet(ctx context.Context, orderID string) (*internalorders.OrderDTO, error) {
	s.lastOrderID = orderID
	return s.order, s.err
}

func (s *stubOrdersService) AdminUpdate(ctx context.Context, orderID string, input internalorders.AdminUpdateInput, actor *outbox.ActorRef) (*internalorders.OrderDTO, error) {
	s.lastOrderID = orderID
	s.lastUpdate = input
	s.lastRef = actor
	return s.order, s.err
}

func (s *stubOrdersService) Delete(ctx context.Context, orderID string) error {
	s.lastOrderID = orderID
	return s.err
}

func sampleOrder() *internalorders.OrderDTO {
	return &internalorders.OrderDTO{
		ID:            "ORD-1740825000000",
		Total:         decimal.RequireFromString("113.00"),
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodWallet,
	}
}

func withClaims(req *http.Request, role enums.Role) (*http.Request, uuid.UUID) {
	id := uuid.New()
	claims := &pkgAuth.AccessTokenClaims{UserID: id, Role: role}
	return req.WithContext(middleware.WithClaims(req.Context(), claims)), id
}

func withOrderParam(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

const checkoutBody = `{
	"customerDetails": {"name":"Asha","email":"asha@example.com","phone":"9800000000","address":"Thamel","city":"Kathmandu"},
	"paymentMethod": "Wallet",
	"couponCode": "WELCOME10"
}`

func TestCheckoutForwardsActorAndBody(t *testing.T) {
	svc := &stubOrdersService{order: sampleOrder()}
	req, userID := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(checkoutBody)), enums.RoleUser)

	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastActor.UserID != userID || svc.lastActor.Role != enums.RoleUser {
		t.Fatalf("unexpected actor %+v", svc.lastActor)
	}
	if svc.lastCheckout.CouponCode != "WELCOME10" || svc.lastCheckout.CustomerDetails.City != "Kathmandu" {
		t.Fatalf("unexpected input %+v", svc.lastCheckout)
	}

	var envelope struct {
		Data internalorders.OrderDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.ID != "ORD-1740825000000" {
		t.Fatalf("unexpected order id %s", envelope.Data.ID)
	}
}

func TestCheckoutRejectsMissingCustomerFields(t *testing.T) {
	svc := &stubOrdersService{order: sampleOrder()}
	body := `{"customerDetails":{"name":"Asha"},"paymentMethod":"COD"}`
	req, _ := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)), enums.RoleGuest)

	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutMapsInsufficientBalance(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeInsufficientBalance, "Insufficient Balance")}
	req, _ := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(checkoutBody)), enums.RoleUser)

	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Insufficient Balance") {
		t.Fatalf("expected ledger message, got %s", resp.Body.String())
	}
}

func TestListScopesToCaller(t *testing.T) {
	svc := &stubOrdersService{order: sampleOrder()}
	req, userID := withClaims(httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=10", nil), enums.RoleUser)

	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastUserID != userID {
		t.Fatalf("listed orders for wrong user")
	}
}

func TestDetailPassesOrderID(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	req, _ := withClaims(httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-1", nil), enums.RoleUser)
	req = withOrderParam(req, "ORD-1")

	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if svc.lastOrderID != "ORD-1" {
		t.Fatalf("unexpected order id %q", svc.lastOrderID)
	}
}

func TestAdminListRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?status=Lost", nil)

	resp := httptest.NewRecorder()
	AdminList(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminListForwardsStatus(t *testing.T) {
	svc := &stubOrdersService{}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?status=Shipped", nil)

	resp := httptest.NewRecorder()
	AdminList(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastAdmin.Status != "Shipped" || svc.lastAdmin.Limit != pagination.DefaultLimit {
		t.Fatalf("unexpected params %+v", svc.lastAdmin)
	}
}

func TestAdminUpdateCarriesActor(t *testing.T) {
	svc := &stubOrdersService{order: sampleOrder()}
	req, adminID := withClaims(httptest.NewRequest(http.MethodPatch, "/api/admin/v1/orders/ORD-1", strings.NewReader(`{"status":"Cancelled"}`)), enums.RoleAdmin)
	req = withOrderParam(req, "ORD-1")

	resp := httptest.NewRecorder()
	AdminUpdate(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastUpdate.Status == nil || *svc.lastUpdate.Status != "Cancelled" {
		t.Fatalf("status not forwarded")
	}
	if svc.lastRef == nil || svc.lastRef.UserID != adminID || svc.lastRef.Role != "admin" {
		t.Fatalf("unexpected actor %+v", svc.lastRef)
	}
}

func TestAdminUpdateRequiresAField(t *testing.T) {
	svc := &stubOrdersService{order: sampleOrder()}
	req, _ := withClaims(httptest.NewRequest(http.MethodPatch, "/api/admin/v1/orders/ORD-1", strings.NewReader(`{}`)), enums.RoleAdmin)
	req = withOrderParam(req, "ORD-1")

	resp := httptest.NewRecorder()
	AdminUpdate(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
