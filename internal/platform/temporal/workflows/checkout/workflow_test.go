package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	inventorydomain "github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
	orderapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	checkoutactivities "github.com/Apurer/go-gin-storefront/internal/platform/temporal/activities/checkout"
	"github.com/Apurer/go-gin-storefront/internal/shared/auth"
)

type stubOrders struct {
	orderports.Service
	order *orderdomain.Order
	err   error
	calls int
}

func (s *stubOrders) CreateOrder(context.Context, ordertypes.PlaceOrderInput) (*orderdomain.Order, error) {
	s.calls++
	return s.order, s.err
}

func newEnv(t *testing.T, orders orderports.Service) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflowWithOptions(CheckoutWorkflow, workflow.RegisterOptions{Name: CheckoutWorkflowName})
	acts := checkoutactivities.NewActivities(orders)
	env.RegisterActivityWithOptions(acts.PlaceOrder, activity.RegisterOptions{Name: checkoutactivities.PlaceOrderActivityName})
	return env
}

func checkoutInput() CheckoutWorkflowInput {
	return CheckoutWorkflowInput{
		Command: ordertypes.PlaceOrderInput{
			Principal:      auth.Principal{UserID: "u1"},
			Items:          []ordertypes.ItemInput{{ProductID: "p1", Quantity: 1}},
			IdempotencyKey: "key-1",
		},
		TraceID: "trace",
	}
}

func TestCheckoutWorkflowReturnsPlacedOrder(t *testing.T) {
	orders := &stubOrders{order: &orderdomain.Order{ID: "ord-1", UserID: "u1", Status: orderdomain.StatusPending}}
	env := newEnv(t, orders)

	env.ExecuteWorkflow(CheckoutWorkflowName, checkoutInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var order orderdomain.Order
	require.NoError(t, env.GetWorkflowResult(&order))
	assert.Equal(t, "ord-1", order.ID)
	assert.Equal(t, orderdomain.StatusPending, order.Status)
	assert.Equal(t, 1, orders.calls)
}

func TestCheckoutWorkflowDoesNotRetryShortages(t *testing.T) {
	orders := &stubOrders{err: &inventorydomain.InsufficientStockError{Shortages: []inventorydomain.Shortage{{ProductID: "p1", Requested: 3, Available: 2}}}}
	env := newEnv(t, orders)

	env.ExecuteWorkflow(CheckoutWorkflowName, checkoutInput())

	require.True(t, env.IsWorkflowCompleted())
	err := checkoutactivities.DecodeError(env.GetWorkflowError())
	require.Error(t, err)
	assert.True(t, errors.Is(err, inventorydomain.ErrInsufficientStock))
	var stockErr *inventorydomain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, []inventorydomain.Shortage{{ProductID: "p1", Requested: 3, Available: 2}}, stockErr.Shortages)
	assert.Equal(t, 1, orders.calls)
}

func TestCheckoutWorkflowDoesNotRetryInvalidInput(t *testing.T) {
	orders := &stubOrders{err: orderapp.ErrInvalidInput}
	env := newEnv(t, orders)

	env.ExecuteWorkflow(CheckoutWorkflowName, checkoutInput())

	err := checkoutactivities.DecodeError(env.GetWorkflowError())
	assert.ErrorIs(t, err, orderapp.ErrInvalidInput)
	assert.Equal(t, 1, orders.calls)
}
