package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidProductID = errors.New("product id is required")
	ErrInvalidName      = errors.New("product name is required")
	ErrInvalidPrice     = errors.New("product price must not be negative")
	ErrInvalidStock     = errors.New("product stock must not be negative")
	ErrUnknownSize      = errors.New("product size is not offered")
)

// Size is a purchasable variant of a product with its own price.
type Size struct {
	Name       string          `json:"name" yaml:"name"`
	Dimensions string          `json:"dimensions" yaml:"dimensions"`
	Price      decimal.Decimal `json:"price" yaml:"price"`
}

// Product is a catalog entry plus the stock counter owned by the ledger.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Sizes       []Size
	Categories  []string
	Tags        []string
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate enforces catalog invariants.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidProductID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	for _, size := range p.Sizes {
		if size.Price.IsNegative() {
			return ErrInvalidPrice
		}
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// UnitPrice resolves the price charged for one unit. An empty size selects the base price.
func (p *Product) UnitPrice(size string) (decimal.Decimal, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		return p.Price, nil
	}
	for _, s := range p.Sizes {
		if strings.EqualFold(s.Name, size) {
			return s.Price, nil
		}
	}
	return decimal.Zero, ErrUnknownSize
}

// Clone returns a deep copy.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Sizes = append([]Size(nil), p.Sizes...)
	clone.Categories = append([]string(nil), p.Categories...)
	clone.Tags = append([]string(nil), p.Tags...)
	return &clone
}
