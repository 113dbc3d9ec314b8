package checkout

import (
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/platform/temporal/sequences"
)

const (
	// CheckoutWorkflowName is the public identifier for registering the workflow.
	CheckoutWorkflowName = "orders.workflows.Checkout"
	// CheckoutTaskQueue is the queue consumed by the worker processing checkouts.
	CheckoutTaskQueue = "ORDER_CHECKOUT"
)

// CheckoutWorkflowInput captures the checkout request.
type CheckoutWorkflowInput struct {
	Command ordertypes.PlaceOrderInput
	TraceID string
}

// CheckoutWorkflow places one order.
func CheckoutWorkflow(ctx workflow.Context, input CheckoutWorkflowInput) (*orderdomain.Order, error) {
	logger := workflow.GetLogger(ctx)
	userID := input.Command.Principal.UserID
	logger.Info("CheckoutWorkflow started", withTraceID(input.TraceID, "userId", userID)...)
	order, err := sequences.RunCheckoutSequence(ctx, input.Command)
	if err != nil {
		logger.Error("CheckoutWorkflow failed", withTraceID(input.TraceID, "userId", userID, "error", err)...)
		return nil, err
	}
	logger.Info("CheckoutWorkflow completed", withTraceID(input.TraceID, "orderId", order.ID)...)
	return order, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
