package checkout

import (
	"context"
	"errors"
	"strings"

	"go.temporal.io/sdk/activity"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

// PlaceOrderActivityName reserves stock and persists a pending order.
const PlaceOrderActivityName = "orders.activities.PlaceOrder"

// Activities groups the checkout activities.
type Activities struct {
	orders orderports.Service
}

// NewActivities wires the order service into the activity bundle.
func NewActivities(orders orderports.Service) *Activities {
	return &Activities{orders: orders}
}

// PlaceOrder runs checkout. Every attempt carries an idempotency key, falling back
// to the workflow id, so a retry after a committed attempt replays that order.
func (a *Activities) PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*orderdomain.Order, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.orders == nil {
		logger.Error("checkout activity not initialized")
		return nil, errors.New("checkout activity not initialized")
	}
	if strings.TrimSpace(input.IdempotencyKey) == "" {
		input.IdempotencyKey = activity.GetInfo(ctx).WorkflowExecution.ID
	}
	logger.Info("PlaceOrder activity started", "userId", input.Principal.UserID, "lines", len(input.Items))
	order, err := a.orders.CreateOrder(ctx, input)
	if err != nil {
		logger.Error("PlaceOrder activity failed", "userId", input.Principal.UserID, "error", err)
		return nil, EncodeError(err)
	}
	logger.Info("PlaceOrder activity completed", "orderId", order.ID)
	return order, nil
}
