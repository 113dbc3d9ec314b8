package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/inventory/ports"
)

func seeded(t *testing.T, stock map[string]int) *Store {
	t.Helper()
	store := NewStore()
	for id, qty := range stock {
		require.NoError(t, store.UpsertProduct(context.Background(), &domain.Product{
			ID:    id,
			Name:  "Product " + id,
			Price: decimal.NewFromInt(10),
			Stock: qty,
		}))
	}
	return store
}

func TestReserveDecrementsEveryLine(t *testing.T) {
	ctx := context.Background()
	store := seeded(t, map[string]int{"a": 5, "b": 2})

	require.NoError(t, store.Reserve(ctx, []domain.Line{{ProductID: "a", Quantity: 3}, {ProductID: "b", Quantity: 2}}))

	a, _ := store.Available(ctx, "a")
	b, _ := store.Available(ctx, "b")
	assert.Equal(t, 2, a)
	assert.Equal(t, 0, b)
}

func TestReserveIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := seeded(t, map[string]int{"a": 5, "b": 1})

	err := store.Reserve(ctx, []domain.Line{{ProductID: "a", Quantity: 2}, {ProductID: "b", Quantity: 2}})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	require.Equal(t, []domain.Shortage{{ProductID: "b", Requested: 2, Available: 1}}, stockErr.Shortages)

	a, _ := store.Available(ctx, "a")
	b, _ := store.Available(ctx, "b")
	assert.Equal(t, 5, a)
	assert.Equal(t, 1, b)
}

func TestReserveUnknownProduct(t *testing.T) {
	store := seeded(t, map[string]int{"a": 5})
	err := store.Reserve(context.Background(), []domain.Line{{ProductID: "a", Quantity: 1}, {ProductID: "zzz", Quantity: 1}})
	require.ErrorIs(t, err, ports.ErrProductNotFound)

	a, _ := store.Available(context.Background(), "a")
	assert.Equal(t, 5, a)
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	ctx := context.Background()
	store := seeded(t, map[string]int{"a": 5})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.Reserve(ctx, []domain.Line{{ProductID: "a", Quantity: 3}})
		}(i)
	}
	wg.Wait()

	succeeded, short := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, short)
	remaining, _ := store.Available(ctx, "a")
	assert.Equal(t, 2, remaining)
}

func TestReleaseReturnsStock(t *testing.T) {
	ctx := context.Background()
	store := seeded(t, map[string]int{"a": 5})
	require.NoError(t, store.Reserve(ctx, []domain.Line{{ProductID: "a", Quantity: 4}}))
	require.NoError(t, store.Release(ctx, []domain.Line{{ProductID: "a", Quantity: 4}}))

	a, _ := store.Available(ctx, "a")
	assert.Equal(t, 5, a)
}
