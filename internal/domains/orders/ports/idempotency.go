package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIdempotencyConflict indicates the same key was used with a different payload.
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	// ErrIdempotencyKeyExists is returned by Save when the key is already recorded.
	ErrIdempotencyKeyExists = errors.New("idempotency key already recorded")
)

// IdempotencyRecord ties a client-supplied key to the order it produced.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderID     string
	CreatedAt   time.Time
}

// IdempotencyStore persists checkout idempotency keys.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save inserts the record, joining the caller's transaction. An existing key yields ErrIdempotencyKeyExists.
	Save(ctx context.Context, record IdempotencyRecord) error
}
