package router

import (
	"context"
	"fmt"

	"github.com/himalayan-naturals/storefront-backend/internal/analytics/types"
	analyticswriter "github.com/himalayan-naturals/storefront-backend/internal/analytics/writer"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox/payloads"
)

type orderPlacedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderPlacedHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderPlacedHandler{writer: writer, logg: logg}
}

func (h *orderPlacedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderPlacedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for order_placed")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":     envelope.EventType,
		"order_id":       event.OrderID,
		"payment_method": event.PaymentMethod,
		"total":          event.Total.StringFixed(2),
	})

	row, err := baseOrderRow(envelope, event.OrderID, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order row", err)
		return err
	}
	if event.UserID != nil {
		row.UserID = stringPtr(event.UserID.String())
	}
	row.PaymentMethod = stringPtr(string(event.PaymentMethod))
	row.CouponCode = stringPtr(event.CouponCode)
	row.ItemCount = int64Ptr(int64(event.ItemCount))
	row.Subtotal = decimalPtr(event.Subtotal)
	row.Discount = decimalPtr(event.Discount)
	row.Tax = decimalPtr(event.Tax)
	row.Total = decimalPtr(event.Total)

	if err := h.writer.InsertOrderEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order row", err)
		return err
	}
	h.logg.Info(logCtx, "order_placed handler inserted order row")
	return nil
}

type orderStatusChangedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderStatusChangedHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderStatusChangedHandler{writer: writer, logg: logg}
}

func (h *orderStatusChangedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderStatusChangedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for order_status_changed")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type": envelope.EventType,
		"order_id":   event.OrderID,
		"from":       event.From,
		"to":         event.To,
	})

	row, err := baseOrderRow(envelope, event.OrderID, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order row", err)
		return err
	}
	row.FromStatus = stringPtr(string(event.From))
	row.ToStatus = stringPtr(string(event.To))
	if event.RefundAmount != nil {
		row.RefundAmount = decimalPtr(*event.RefundAmount)
	}

	if err := h.writer.InsertOrderEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order row", err)
		return err
	}
	h.logg.Info(logCtx, "order_status_changed handler inserted order row")
	return nil
}

func baseOrderRow(envelope types.Envelope, orderID string, payload any) (types.OrderEventRow, error) {
	payloadJSON, err := analyticswriter.EncodeJSON(payload)
	if err != nil {
		return types.OrderEventRow{}, fmt.Errorf("encode payload json: %w", err)
	}
	if orderID == "" {
		orderID = envelope.AggregateID
	}
	return types.OrderEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt.UTC(),
		OrderID:    orderID,
		Payload:    payloadJSON,
	}, nil
}
