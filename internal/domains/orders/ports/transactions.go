package ports

import (
	"context"
	"sync"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

// Transactor groups store writes into one atomic unit.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactorFunc adapts a function to Transactor.
type TransactorFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f TransactorFunc) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// Serialized runs each fn under one mutex. Memory adapters have no transactions,
// so checkouts and status changes against them are applied one at a time.
func Serialized() Transactor {
	var mu sync.Mutex
	return TransactorFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
		mu.Lock()
		defer mu.Unlock()
		return fn(ctx)
	})
}

// EventRecorder stores integration events alongside the state change that produced them.
type EventRecorder interface {
	Record(ctx context.Context, events ...domain.Event) error
}
