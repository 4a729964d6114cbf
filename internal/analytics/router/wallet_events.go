package router

import (
	"context"
	"fmt"

	"github.com/himalayan-naturals/storefront-backend/internal/analytics/types"
	analyticswriter "github.com/himalayan-naturals/storefront-backend/internal/analytics/writer"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox/payloads"
)

type walletTransactionHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newWalletTransactionHandler(writer Writer, logg *logger.Logger) Handler {
	return &walletTransactionHandler{writer: writer, logg: logg}
}

func (h *walletTransactionHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.WalletTransactionRecordedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for wallet_transaction_recorded")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":     envelope.EventType,
		"transaction_id": event.TransactionID.String(),
		"user_id":        event.UserID.String(),
		"type":           event.Type,
	})

	payloadJSON, err := analyticswriter.EncodeJSON(event)
	if err != nil {
		h.logg.Error(logCtx, "failed to encode wallet payload", err)
		return fmt.Errorf("encode payload json: %w", err)
	}

	row := types.WalletEventRow{
		EventID:       envelope.EventID,
		OccurredAt:    envelope.OccurredAt.UTC(),
		TransactionID: event.TransactionID.String(),
		UserID:        event.UserID.String(),
		Type:          string(event.Type),
		Amount:        event.Amount.StringFixed(2),
		BalanceAfter:  event.BalanceAfter.StringFixed(2),
		Description:   stringPtr(event.Description),
		Payload:       payloadJSON,
	}

	if err := h.writer.InsertWalletEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert wallet row", err)
		return err
	}
	h.logg.Info(logCtx, "wallet_transaction_recorded handler inserted wallet row")
	return nil
}
