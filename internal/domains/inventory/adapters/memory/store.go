package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/inventory/ports"
)

var (
	_ ports.Catalog = (*Store)(nil)
	_ ports.Ledger  = (*Store)(nil)
)

// Store is an in-memory catalog and stock ledger. One mutex serializes every
// reservation so check-then-decrement is atomic.
type Store struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	clock    func() time.Time
}

// Option customizes the store.
type Option func(*Store)

// WithClock overrides the clock used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewStore constructs an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		products: map[string]*domain.Product{},
		clock:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) UpsertProduct(_ context.Context, product *domain.Product) error {
	if product == nil {
		return errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return err
	}
	clone := product.Clone()
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.products[clone.ID]; ok {
		clone.CreatedAt = existing.CreatedAt
	} else if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}
	clone.UpdatedAt = now
	s.products[clone.ID] = clone
	return nil
}

func (s *Store) GetProducts(_ context.Context, ids []string) (map[string]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			out[id] = product.Clone()
		}
	}
	return out, nil
}

func (s *Store) ListProducts(_ context.Context) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*domain.Product, 0, len(s.products))
	for _, product := range s.products {
		list = append(list, product.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *Store) Reserve(_ context.Context, lines []domain.Line) error {
	normalized, err := domain.NormalizeLines(lines)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stock := make(map[string]int, len(normalized))
	for _, line := range normalized {
		product, ok := s.products[line.ProductID]
		if !ok {
			return fmt.Errorf("%w: %s", ports.ErrProductNotFound, line.ProductID)
		}
		stock[line.ProductID] = product.Stock
	}
	if err := domain.CheckAvailability(normalized, stock); err != nil {
		return err
	}
	now := s.clock()
	for _, line := range normalized {
		product := s.products[line.ProductID]
		product.Stock -= line.Quantity
		product.UpdatedAt = now
	}
	return nil
}

func (s *Store) Release(_ context.Context, lines []domain.Line) error {
	normalized, err := domain.NormalizeLines(lines)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range normalized {
		if _, ok := s.products[line.ProductID]; !ok {
			return fmt.Errorf("%w: %s", ports.ErrProductNotFound, line.ProductID)
		}
	}
	now := s.clock()
	for _, line := range normalized {
		product := s.products[line.ProductID]
		product.Stock += line.Quantity
		product.UpdatedAt = now
	}
	return nil
}

func (s *Store) Available(_ context.Context, productID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[productID]
	if !ok {
		return 0, ports.ErrProductNotFound
	}
	return product.Stock, nil
}
