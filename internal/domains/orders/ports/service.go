package ports

import (
	"context"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/shared/auth"
)

// Service exposes order use cases to adapters.
type Service interface {
	CreateOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*domain.Order, error)
	ListOrders(ctx context.Context, principal auth.Principal) ([]*domain.Order, error)
	GetOrder(ctx context.Context, principal auth.Principal, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, input ordertypes.UpdateStatusInput) (*domain.Order, error)
	CapturePayment(ctx context.Context, input ordertypes.CapturePaymentInput) (*ordertypes.CaptureResult, error)
}

// CheckoutOrchestrator places orders, durably when a workflow engine is available.
type CheckoutOrchestrator interface {
	PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*domain.Order, error)
}
