package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	clock  func() time.Time
}

// Option customizes the repository.
type Option func(*Repository)

// WithClock overrides the clock used for UpdatedAt.
func WithClock(clock func() time.Time) Option {
	return func(r *Repository) {
		if clock != nil {
			r.clock = clock
		}
	}
}

func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		orders: map[string]*domain.Order{},
		clock:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	clone := order.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[clone.ID]; exists {
		return nil, errors.New("order already exists")
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = r.clock()
	}
	if clone.UpdatedAt.IsZero() {
		clone.UpdatedAt = clone.CreatedAt
	}
	r.orders[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		list = append(list, order.Clone())
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// Update runs mutate on a copy while holding the write lock and swaps it in on success.
func (r *Repository) Update(_ context.Context, id string, mutate ports.Mutation) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	working := current.Clone()
	changed, err := mutate(working)
	if err != nil {
		return nil, err
	}
	if !changed {
		return current.Clone(), nil
	}
	if working.PaymentReference != "" && working.PaymentReference != current.PaymentReference {
		for otherID, other := range r.orders {
			if otherID != id && other.PaymentReference == working.PaymentReference {
				return nil, ports.ErrPaymentReferenceTaken
			}
		}
	}
	r.orders[id] = working
	return working.Clone(), nil
}
