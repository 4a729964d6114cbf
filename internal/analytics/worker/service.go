package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/himalayan-naturals/storefront-backend/internal/analytics/router"
	"github.com/himalayan-naturals/storefront-backend/internal/analytics/types"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/metrics"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox"
)

const consumerName = "analytics"

// Handler routes a decoded storefront event to its analytics sink.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope) error
}

type HandlerFunc func(ctx context.Context, envelope types.Envelope) error

func (fn HandlerFunc) Handle(ctx context.Context, envelope types.Envelope) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, envelope)
}

type deduper interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// outcome is what happened to one delivery. Only outcomeRetry nacks.
type outcome string

const (
	outcomeHandled   outcome = "handled"
	outcomeDuplicate outcome = "duplicate"
	outcomeDropped   outcome = "dropped"
	outcomeRetry     outcome = "retry"
)

func (o outcome) retry() bool { return o == outcomeRetry }

type ServiceParams struct {
	Subscriber *gcppubsub.Subscriber
	Handler    Handler
	Dedupe     deduper
	Logger     *logger.Logger
	Metrics    *metrics.ConsumerMetrics
}

// Service consumes order and wallet events and feeds them to BigQuery.
// Each event id is marked in Redis before handling and unmarked when the
// handler fails, so a redelivery gets another attempt.
type Service struct {
	subscriber *gcppubsub.Subscriber
	handler    Handler
	dedupe     deduper
	logg       *logger.Logger
	metrics    *metrics.ConsumerMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Subscriber == nil:
		return nil, errors.New("analytics subscriber is required")
	case params.Handler == nil:
		return nil, errors.New("analytics handler is required")
	case params.Dedupe == nil:
		return nil, errors.New("idempotency manager is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	}
	return &Service{
		subscriber: params.Subscriber,
		handler:    params.Handler,
		dedupe:     params.Dedupe,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// Run blocks until ctx is canceled or the subscriber fails.
func (s *Service) Run(ctx context.Context) error {
	return s.subscriber.Receive(ctx, func(msgCtx context.Context, msg *gcppubsub.Message) {
		result := s.process(msgCtx, msg)
		s.metrics.IncMessage(consumerName, string(result))
		if result.retry() {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) outcome {
	ctx = s.logg.WithField(ctx, "message_id", msg.ID)

	envelope, err := s.buildEnvelope(msg)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dropping malformed analytics message")
		return outcomeDropped
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":       envelope.EventID,
		"event_type":     envelope.EventType,
		"aggregate_type": envelope.AggregateType,
		"aggregate_id":   envelope.AggregateID,
	})

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		s.logg.Warn(ctx, "dropping analytics message with non-uuid event id")
		return outcomeDropped
	}

	seen, err := s.dedupe.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		s.logg.Error(ctx, "idempotency check failed", err)
		return outcomeRetry
	}
	if seen {
		s.logg.Debug(ctx, "analytics event already processed")
		return outcomeDuplicate
	}

	err = s.handler.Handle(ctx, *envelope)
	switch {
	case err == nil:
		s.logg.Info(ctx, "analytics event handled")
		return outcomeHandled
	case errors.Is(err, router.ErrUnsupportedEventType):
		// keep the mark: redelivery cannot make the type known
		s.logg.Warn(ctx, "unsupported analytics event")
		return outcomeDropped
	default:
		s.logg.Error(ctx, "analytics handler failed", err)
		if delErr := s.dedupe.Delete(ctx, consumerName, eventID); delErr != nil {
			s.logg.Error(ctx, "failed to clear idempotency mark", delErr)
		}
		return outcomeRetry
	}
}

// attrs reads trimmed Pub/Sub attributes set by the outbox publisher.
type attrs map[string]string

func (a attrs) get(key string) string { return strings.TrimSpace(a[key]) }

// buildEnvelope prefers the stored payload envelope and falls back to the
// publisher attributes for event id and timestamp.
func (s *Service) buildEnvelope(msg *gcppubsub.Message) (*types.Envelope, error) {
	var stored outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &stored); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}
	a := attrs(msg.Attributes)

	eventType, err := enums.ParseOutboxEventType(a.get("event_type"))
	if err != nil {
		return nil, fmt.Errorf("event_type: %w", err)
	}
	aggregateType, err := enums.ParseOutboxAggregateType(a.get("aggregate_type"))
	if err != nil {
		return nil, fmt.Errorf("aggregate_type: %w", err)
	}
	aggregateID := a.get("aggregate_id")
	if aggregateID == "" {
		return nil, errors.New("aggregate_id missing")
	}

	eventID := strings.TrimSpace(stored.EventID)
	if eventID == "" {
		eventID = a.get("event_id")
	}
	if eventID == "" {
		return nil, errors.New("event_id missing")
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		if parsed, err := time.Parse(time.RFC3339Nano, a.get("created_at")); err == nil {
			occurredAt = parsed
		}
	}

	return &types.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    occurredAt.UTC(),
		Payload:       stored.Data,
	}, nil
}
