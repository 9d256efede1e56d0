package event

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"customer-health/internal/infrastructure/monitoring"
	"customer-health/internal/pkg/apperrors"

	amqp "github.com/rabbitmq/amqp091-go"
)

// WarmupRoutingKeys are the events after which a customer's cached report is
// stale.
var WarmupRoutingKeys = []string{RoutingKeyCustomerCreated, RoutingKeyEngagementRecorded}

// WarmFunc recomputes and caches the health report of one customer.
type WarmFunc func(ctx context.Context, customerID int64) error

type CacheWarmupHandler struct {
	warm   WarmFunc
	logger *slog.Logger
}

func NewCacheWarmupHandler(warm WarmFunc, logger *slog.Logger) *CacheWarmupHandler {
	if warm == nil {
		panic("event: NewCacheWarmupHandler requires a warm func")
	}
	return &CacheWarmupHandler{
		warm:   warm,
		logger: logger.With("component", "CacheWarmupHandler"),
	}
}

func (h *CacheWarmupHandler) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	logCtx := h.logger.With(slog.Uint64("deliveryTag", d.DeliveryTag), slog.String("routingKey", d.RoutingKey))

	var customerID int64
	switch d.RoutingKey {
	case RoutingKeyCustomerCreated:
		var evt CustomerCreatedEvent
		if err := json.Unmarshal(d.Body, &evt); err != nil {
			h.discard(ctx, logCtx, d, "malformed", err)
			return
		}
		customerID = evt.CustomerID
	case RoutingKeyEngagementRecorded:
		var evt EngagementRecordedEvent
		if err := json.Unmarshal(d.Body, &evt); err != nil {
			h.discard(ctx, logCtx, d, "malformed", err)
			return
		}
		customerID = evt.CustomerID
	default:
		logCtx.WarnContext(ctx, "Unknown routing key, rejecting")
		_ = d.Reject(false)
		monitoring.Consumer.MessagesTotal.WithLabelValues(d.RoutingKey, "rejected").Inc()
		return
	}

	logCtx = logCtx.With(slog.Int64("customerID", customerID))
	if err := h.warm(ctx, customerID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			// Customer is gone; nothing to warm.
			h.ack(ctx, logCtx, d, "skipped")
		case errors.Is(err, apperrors.ErrStorageUnavailable) && !d.Redelivered:
			logCtx.WarnContext(ctx, "Storage unavailable, requeueing once", "error", err)
			_ = d.Nack(false, true)
			monitoring.Consumer.MessagesTotal.WithLabelValues(d.RoutingKey, "requeued").Inc()
		default:
			h.discard(ctx, logCtx, d, "failed", err)
		}
		return
	}

	h.ack(ctx, logCtx, d, "warmed")
}

func (h *CacheWarmupHandler) ack(ctx context.Context, logCtx *slog.Logger, d amqp.Delivery, outcome string) {
	if err := d.Ack(false); err != nil {
		logCtx.ErrorContext(ctx, "Failed to acknowledge message", "error", err)
		return
	}
	monitoring.Consumer.MessagesTotal.WithLabelValues(d.RoutingKey, outcome).Inc()
	logCtx.DebugContext(ctx, "Message acknowledged", "outcome", outcome)
}

func (h *CacheWarmupHandler) discard(ctx context.Context, logCtx *slog.Logger, d amqp.Delivery, outcome string, err error) {
	logCtx.ErrorContext(ctx, "Dropping message", "outcome", outcome, "error", err)
	_ = d.Nack(false, false)
	monitoring.Consumer.MessagesTotal.WithLabelValues(d.RoutingKey, outcome).Inc()
}
