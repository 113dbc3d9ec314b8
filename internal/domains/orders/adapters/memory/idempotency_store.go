package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps checkout idempotency keys in memory.
type IdempotencyStore struct {
	records sync.Map
}

// NewIdempotencyStore constructs an empty store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	val, ok := s.records.Load(key)
	if !ok {
		return nil, nil
	}
	rec := val.(ports.IdempotencyRecord)
	return &rec, nil
}

func (s *IdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) error {
	record.Key = strings.TrimSpace(record.Key)
	if record.Key == "" {
		return nil
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if _, loaded := s.records.LoadOrStore(record.Key, record); loaded {
		return ports.ErrIdempotencyKeyExists
	}
	return nil
}
