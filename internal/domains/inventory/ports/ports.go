package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
)

// ErrProductNotFound is returned when a requested product does not exist.
var ErrProductNotFound = errors.New("product not found")

// Catalog reads product data used for pricing.
type Catalog interface {
	GetProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	UpsertProduct(ctx context.Context, product *domain.Product) error
}

// Ledger owns stock counters.
//
// Reserve decrements every line or none of them. It fails with
// *domain.InsufficientStockError naming all short lines, or ErrProductNotFound.
// Release returns previously reserved units. Both join the caller's
// transaction when one is carried by ctx.
type Ledger interface {
	Reserve(ctx context.Context, lines []domain.Line) error
	Release(ctx context.Context, lines []domain.Line) error
	Available(ctx context.Context, productID string) (int, error)
}
