package outbox

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps messages in process for local runs and tests.
type MemoryStore struct {
	mu       sync.Mutex
	messages map[string]Message
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: map[string]Message{}}
}

func (s *MemoryStore) Append(_ context.Context, messages ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range messages {
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = time.Now().UTC()
		}
		s.messages[msg.ID] = msg
	}
	return nil
}

func (s *MemoryStore) FetchPending(_ context.Context, limit int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := make([]Message, 0)
	for _, msg := range s.messages {
		if msg.PublishedAt == nil {
			pending = append(pending, msg)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *MemoryStore) MarkPublished(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil
	}
	published := at
	msg.PublishedAt = &published
	s.messages[id] = msg
	return nil
}

// All returns every stored message ordered by creation time.
func (s *MemoryStore) All() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, 0, len(s.messages))
	for _, msg := range s.messages {
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
