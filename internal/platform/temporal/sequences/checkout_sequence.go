package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	checkoutactivities "github.com/Apurer/go-gin-storefront/internal/platform/temporal/activities/checkout"
)

// RunCheckoutSequence executes the activities that turn a checkout request into a pending order.
func RunCheckoutSequence(ctx workflow.Context, input ordertypes.PlaceOrderInput) (*orderdomain.Order, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("checkout sequence started", "userId", input.Principal.UserID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}

	var order orderdomain.Order
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), checkoutactivities.PlaceOrderActivityName, input).Get(ctx, &order)
	if err != nil {
		logger.Error("checkout sequence failed", "userId", input.Principal.UserID, "error", err)
		return nil, err
	}
	logger.Info("checkout sequence placed order", "orderId", order.ID)
	return &order, nil
}
