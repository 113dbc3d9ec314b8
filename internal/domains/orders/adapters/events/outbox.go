package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/outbox"
)

var _ ports.EventRecorder = (*OutboxRecorder)(nil)

// OutboxRecorder writes order events to the outbox, keyed by order id.
type OutboxRecorder struct {
	store outbox.Store
	topic string
}

// NewOutboxRecorder publishes to topic through store.
func NewOutboxRecorder(store outbox.Store, topic string) *OutboxRecorder {
	return &OutboxRecorder{store: store, topic: topic}
}

func (r *OutboxRecorder) Record(ctx context.Context, events ...domain.Event) error {
	messages := make([]outbox.Message, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		messages = append(messages, outbox.Message{
			ID:        uuid.NewString(),
			Topic:     r.topic,
			Key:       event.OrderID,
			EventType: string(event.Type),
			Payload:   payload,
			CreatedAt: event.OccurredAt,
		})
	}
	return r.store.Append(ctx, messages...)
}
