package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultBatchSize    = 100
	defaultPollInterval = 2 * time.Second
)

// Relay polls the store and hands pending messages to a publisher.
type Relay struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// RelayOption customizes a Relay.
type RelayOption func(*Relay)

// WithLogger sets the relay logger.
func WithLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithInterval sets the poll interval.
func WithInterval(interval time.Duration) RelayOption {
	return func(r *Relay) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithBatchSize caps the number of messages fetched per poll.
func WithBatchSize(size int) RelayOption {
	return func(r *Relay) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

// NewRelay constructs a relay between store and publisher.
func NewRelay(store Store, publisher Publisher, opts ...RelayOption) *Relay {
	r := &Relay{
		store:     store,
		publisher: publisher,
		logger:    slog.Default(),
		interval:  defaultPollInterval,
		batchSize: defaultBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil {
				r.logger.LogAttrs(ctx, slog.LevelWarn, "outbox flush failed", slog.String("error", err.Error()))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Flush publishes one batch in creation order and returns how many messages were delivered.
// The batch stops at the first failure so later events for the same key are never
// published ahead of an earlier one. Undelivered messages are retried on the next poll.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	messages, err := r.store.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	delivered := 0
	for _, msg := range messages {
		if err := r.publisher.Publish(ctx, msg); err != nil {
			return delivered, fmt.Errorf("publish outbox message %s (%s): %w", msg.ID, msg.EventType, err)
		}
		if err := r.store.MarkPublished(ctx, msg.ID, r.now()); err != nil {
			return delivered, fmt.Errorf("mark outbox message %s published: %w", msg.ID, err)
		}
		delivered++
	}
	return delivered, nil
}

// LogPublisher writes messages to the logger. Used when no broker is configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, message Message) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "outbox message",
		slog.String("outbox.id", message.ID),
		slog.String("outbox.topic", message.Topic),
		slog.String("outbox.key", message.Key),
		slog.String("outbox.event_type", message.EventType),
	)
	return nil
}
