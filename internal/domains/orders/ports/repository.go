package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrPaymentReferenceTaken means another order already holds the capture reference.
	ErrPaymentReferenceTaken = errors.New("payment reference already recorded on another order")
)

// ListFilter scopes List. An empty UserID lists every order.
type ListFilter struct {
	UserID string
}

// Mutation edits a locked order. Returning false leaves the stored row untouched.
type Mutation func(order *domain.Order) (bool, error)

// Repository persists orders.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// List returns matching orders newest first.
	List(ctx context.Context, filter ListFilter) ([]*domain.Order, error)
	// Update loads the order under a write lock, runs mutate, and persists the
	// lifecycle columns when mutate reports a change. It returns the resulting order.
	Update(ctx context.Context, id string, mutate Mutation) (*domain.Order, error)
}
