// Package outbox stores integration events next to the state change that
// produced them and relays them to a broker once the transaction commits.
package outbox

import (
	"context"
	"encoding/json"
	"time"
)

// Message is one pending integration event.
type Message struct {
	ID          string
	Topic       string
	Key         string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// Store persists outbox messages. Append joins the caller's transaction when one is carried by ctx.
type Store interface {
	Append(ctx context.Context, messages ...Message) error
	FetchPending(ctx context.Context, limit int) ([]Message, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
}

// Publisher delivers a message to the broker.
type Publisher interface {
	Publish(ctx context.Context, message Message) error
}
