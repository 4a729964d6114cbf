package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/himalayan-naturals/storefront-backend/internal/pricing"
	"github.com/himalayan-naturals/storefront-backend/internal/wallet"
	"github.com/himalayan-naturals/storefront-backend/pkg/db"
	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/metrics"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox/payloads"
	"github.com/himalayan-naturals/storefront-backend/pkg/pagination"
	"github.com/himalayan-naturals/storefront-backend/pkg/types"
)

const (
	rejectInsufficientBalance = "insufficient_balance"
	rejectInvalidCoupon       = "invalid_coupon"
	rejectGuestWallet         = "guest_wallet"
)

// PaymentDescription is the ledger description of a wallet order payment.
func PaymentDescription(orderID string) string {
	return "Order Payment: " + orderID
}

const orderIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewOrderID formats ORD-<unix-ms>-<suffix>. The suffix separates orders
// placed in the same millisecond.
func NewOrderID(placedAt time.Time, suffix string) string {
	return fmt.Sprintf("ORD-%d-%s", placedAt.UnixMilli(), suffix)
}

func orderIDSuffix() string {
	b := make([]byte, 4)
	for i := range b {
		b[i] = orderIDAlphabet[rand.IntN(len(orderIDAlphabet))]
	}
	return string(b)
}

// RefundDescription is the ledger description of a cancelled order refund.
func RefundDescription(orderID string) string {
	return "Order Refund: " + orderID
}

// Service places orders and exposes them to customers and admins.
type Service interface {
	// PlaceOrder persists a priced draft and, for wallet payments, debits the
	// payer in the same transaction.
	PlaceOrder(ctx context.Context, draft Draft, payerID *uuid.UUID) (*OrderDTO, error)
	// Checkout prices the actor's cart and places it as an order.
	Checkout(ctx context.Context, actor Actor, input CheckoutInput) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[OrderDTO], error)
	GetMine(ctx context.Context, userID uuid.UUID, orderID string) (*OrderDTO, error)
	AdminList(ctx context.Context, params AdminListParams) (*pagination.Page[OrderDTO], error)
	AdminGet(ctx context.Context, orderID string) (*OrderDTO, error)
	AdminUpdate(ctx context.Context, orderID string, input AdminUpdateInput, actor *outbox.ActorRef) (*OrderDTO, error)
	Delete(ctx context.Context, orderID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartStore interface {
	Items(ctx context.Context, ownerID uuid.UUID) ([]types.CartItem, error)
	Clear(ctx context.Context, ownerID uuid.UUID) error
}

type couponResolver interface {
	Resolve(ctx context.Context, code string) (*pricing.Coupon, error)
}

type service struct {
	repo    Repository
	ledger  *wallet.Ledger
	outbox  outbox.Emitter
	tx      txRunner
	cart    cartStore
	coupons couponResolver
	taxRate decimal.Decimal
	logg    *logger.Logger
	metrics *metrics.LedgerMetrics
	now     func() time.Time
	suffix  func() string
}

// ServiceParams groups the order service dependencies.
type ServiceParams struct {
	Repo    Repository
	Ledger  *wallet.Ledger
	Outbox  outbox.Emitter
	Tx      txRunner
	Cart    cartStore
	Coupons couponResolver
	TaxRate decimal.Decimal
	Logger  *logger.Logger
	Metrics *metrics.LedgerMetrics
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("wallet ledger required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Cart == nil:
		return nil, fmt.Errorf("cart store required")
	case params.Coupons == nil:
		return nil, fmt.Errorf("coupon resolver required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.TaxRate.IsNegative():
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	return &service{
		repo:    params.Repo,
		ledger:  params.Ledger,
		outbox:  params.Outbox,
		tx:      params.Tx,
		cart:    params.Cart,
		coupons: params.Coupons,
		taxRate: params.TaxRate,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     time.Now,
		suffix:  orderIDSuffix,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, draft Draft, payerID *uuid.UUID) (*OrderDTO, error) {
	if len(draft.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if !draft.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	for _, item := range draft.Items {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
	}
	breakdown := draft.Breakdown.Rounded()
	if breakdown.Total.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must not be negative")
	}

	payWithWallet := draft.PaymentMethod == enums.PaymentMethodWallet
	if payWithWallet && payerID == nil {
		s.metrics.OrderRejected(rejectGuestWallet)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please login to use wallet")
	}

	customer, err := json.Marshal(draft.Customer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode customer details")
	}
	items, err := json.Marshal(draft.Items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order items")
	}

	placedAt := s.now().UTC()
	order := models.Order{
		ID:              NewOrderID(placedAt, s.suffix()),
		UserID:          payerID,
		CustomerDetails: customer,
		Items:           items,
		Subtotal:        breakdown.Subtotal,
		Discount:        breakdown.Discount,
		Tax:             breakdown.Tax,
		Total:           breakdown.Total,
		Status:          enums.OrderStatusPending,
		PaymentMethod:   draft.PaymentMethod,
		Date:            placedAt,
		CreatedAt:       placedAt,
		UpdatedAt:       placedAt,
	}
	if breakdown.CouponCode != "" {
		code := breakdown.CouponCode
		order.CouponCode = &code
	}

	var posting *wallet.Posting
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if payWithWallet {
			balance, err := s.ledger.LockedBalance(ctx, tx, *payerID)
			if err != nil {
				return err
			}
			if balance.LessThan(order.Total) {
				s.metrics.OrderRejected(rejectInsufficientBalance)
				return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "Insufficient Balance").
					WithDetails(map[string]string{
						"balance":  balance.StringFixed(2),
						"required": order.Total.StringFixed(2),
					})
			}
		}

		if err := s.repo.WithTx(tx).Create(ctx, &order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order id already in use, retry checkout")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if payWithWallet && order.Total.IsPositive() {
			debit, err := s.ledger.Debit(ctx, tx, wallet.Entry{
				UserID:      *payerID,
				Amount:      order.Total,
				Description: PaymentDescription(order.ID),
				Type:        enums.WalletTxPurchase,
				Actor:       actorRef(payerID),
			})
			if err != nil {
				return err
			}
			posting = debit
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(payerID),
			Data: payloads.OrderPlacedEvent{
				OrderID:       order.ID,
				UserID:        payerID,
				PaymentMethod: order.PaymentMethod,
				CouponCode:    breakdown.CouponCode,
				ItemCount:     len(draft.Items),
				Subtotal:      order.Subtotal,
				Discount:      order.Discount,
				Tax:           order.Tax,
				Total:         order.Total,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
		}
		return nil, err
	}

	s.metrics.OrderPlaced(string(order.PaymentMethod))
	s.ledger.Observe(posting)
	logCtx := s.logg.WithOrderID(ctx, order.ID)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"payment_method": order.PaymentMethod,
		"total":          order.Total.StringFixed(2),
	})
	s.logg.Info(logCtx, "orders.placed")

	dto, err := FromModel(order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order")
	}
	return &dto, nil
}

func (s *service) Checkout(ctx context.Context, actor Actor, input CheckoutInput) (*OrderDTO, error) {
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}

	items, err := s.cart.Items(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
	}

	var coupon *pricing.Coupon
	if strings.TrimSpace(input.CouponCode) != "" {
		coupon, err = s.coupons.Resolve(ctx, input.CouponCode)
		if err != nil {
			if errors.Is(err, pricing.ErrInvalidCoupon) {
				s.metrics.OrderRejected(rejectInvalidCoupon)
			}
			return nil, err
		}
	}

	order, err := s.PlaceOrder(ctx, Draft{
		Customer:      input.CustomerDetails,
		Items:         items,
		Breakdown:     pricing.Quote(pricing.LinesFromCart(items), coupon, s.taxRate),
		PaymentMethod: method,
	}, actor.payer())
	if err != nil {
		return nil, err
	}

	if err := s.cart.Clear(ctx, actor.UserID); err != nil {
		warnCtx := s.logg.WithOrderID(ctx, order.ID)
		warnCtx = s.logg.WithField(warnCtx, "error", err.Error())
		s.logg.Warn(warnCtx, "orders.checkout.clear_cart_failed")
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[OrderDTO], error) {
	return s.list(ctx, ListFilter{UserID: &userID}, params)
}

func (s *service) GetMine(ctx context.Context, userID uuid.UUID, orderID string) (*OrderDTO, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) AdminList(ctx context.Context, params AdminListParams) (*pagination.Page[OrderDTO], error) {
	filter := ListFilter{}
	if strings.TrimSpace(params.Status) != "" {
		status, err := enums.ParseOrderStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter.Status = &status
	}
	return s.list(ctx, filter, params.Params)
}

func (s *service) AdminGet(ctx context.Context, orderID string) (*OrderDTO, error) {
	return s.find(ctx, orderID)
}

func (s *service) AdminUpdate(ctx context.Context, orderID string, input AdminUpdateInput, actor *outbox.ActorRef) (*OrderDTO, error) {
	updates := map[string]any{}
	var nextStatus *enums.OrderStatus
	if input.Status != nil {
		status, err := enums.ParseOrderStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		nextStatus = &status
		updates["status"] = status
	}
	if input.PaymentMethod != nil {
		method, err := enums.ParsePaymentMethod(*input.PaymentMethod)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
		}
		updates["payment_method"] = method
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	var (
		updated models.Order
		refund  *wallet.Posting
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.LockByID(ctx, orderID)
		if err != nil {
			return mapLookupError(err)
		}
		previous := current.Status

		if err := repo.Update(ctx, orderID, updates); err != nil {
			return mapLookupError(err)
		}
		reloaded, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return mapLookupError(err)
		}
		updated = *reloaded

		if nextStatus == nil || *nextStatus == previous {
			return nil
		}
		if *nextStatus == enums.OrderStatusCancelled {
			refund, err = s.refundOnce(ctx, tx, updated, actor)
			if err != nil {
				return err
			}
		}

		event := payloads.OrderStatusChangedEvent{OrderID: orderID, From: previous, To: *nextStatus}
		if refund != nil {
			amount := refund.Transaction.Amount
			event.RefundAmount = &amount
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         actor,
			Data:          event,
		})
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		return nil, err
	}

	s.ledger.Observe(refund)
	logCtx := s.logg.WithOrderID(ctx, orderID)
	logCtx = s.logg.WithField(logCtx, "status", updated.Status)
	s.logg.Info(logCtx, "orders.updated")

	dto, err := FromModel(updated)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order")
	}
	return &dto, nil
}

// refundOnce credits the payer of a wallet-paid order when it is cancelled.
// Nothing is credited unless the payment entry exists and no refund was
// recorded before, so reopening and cancelling again is a no-op.
func (s *service) refundOnce(ctx context.Context, tx *gorm.DB, order models.Order, actor *outbox.ActorRef) (*wallet.Posting, error) {
	if order.UserID == nil || !order.Total.IsPositive() {
		return nil, nil
	}
	paid, err := s.ledger.HasEntry(ctx, tx, *order.UserID, enums.WalletTxPurchase, PaymentDescription(order.ID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up order payment")
	}
	if !paid {
		return nil, nil
	}
	refunded, err := s.ledger.HasEntry(ctx, tx, *order.UserID, enums.WalletTxRefund, RefundDescription(order.ID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up order refund")
	}
	if refunded {
		return nil, nil
	}
	return s.ledger.Credit(ctx, tx, wallet.Entry{
		UserID:      *order.UserID,
		Amount:      order.Total,
		Description: RefundDescription(order.ID),
		Type:        enums.WalletTxRefund,
		Actor:       actor,
	})
}

func (s *service) Delete(ctx context.Context, orderID string) error {
	deleted, err := s.repo.Delete(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID), "orders.deleted")
	return nil
}

func (s *service) find(ctx context.Context, orderID string) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return nil, mapLookupError(err)
	}
	dto, err := FromModel(*order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order")
	}
	return &dto, nil
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (*pagination.Page[OrderDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter.Cursor = cursor
	filter.Limit = pagination.LimitWithBuffer(params.Limit)

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page := pagination.Trim(rows, params.Limit, orderCursor)
	items := make([]OrderDTO, 0, len(page.Items))
	for _, row := range page.Items {
		dto, err := FromModel(row)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order")
		}
		items = append(items, dto)
	}
	return &pagination.Page[OrderDTO]{Items: items, NextCursor: page.NextCursor}, nil
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func actorRef(userID *uuid.UUID) *outbox.ActorRef {
	if userID == nil {
		return nil
	}
	return &outbox.ActorRef{UserID: *userID, Role: string(enums.RoleUser)}
}
