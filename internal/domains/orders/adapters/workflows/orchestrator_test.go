package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	checkoutworkflows "github.com/Apurer/go-gin-storefront/internal/platform/temporal/workflows/checkout"
	"github.com/Apurer/go-gin-storefront/internal/shared/auth"
)

type recordingService struct {
	ports.Service
	calls int
}

func (s *recordingService) CreateOrder(_ context.Context, input ordertypes.PlaceOrderInput) (*domain.Order, error) {
	s.calls++
	return &domain.Order{ID: "ord-1", UserID: input.Principal.UserID}, nil
}

func TestInlineCheckoutDelegates(t *testing.T) {
	svc := &recordingService{}
	order, err := NewInlineCheckout(svc).PlaceOrder(context.Background(), ordertypes.PlaceOrderInput{Principal: auth.Principal{UserID: "u1"}})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.ID)
	assert.Equal(t, 1, svc.calls)
}

func TestInlineCheckoutNotConfigured(t *testing.T) {
	var o *InlineCheckout
	_, err := o.PlaceOrder(context.Background(), ordertypes.PlaceOrderInput{})
	require.Error(t, err)
}

func workflowID(t *testing.T, input ordertypes.PlaceOrderInput) string {
	t.Helper()
	id, err := buildCheckoutWorkflowID(input)
	require.NoError(t, err)
	return id
}

func TestCheckoutWorkflowIDIsScopedByUser(t *testing.T) {
	a := workflowID(t, ordertypes.PlaceOrderInput{Principal: auth.Principal{UserID: "u1"}, IdempotencyKey: "k"})
	b := workflowID(t, ordertypes.PlaceOrderInput{Principal: auth.Principal{UserID: "u2"}, IdempotencyKey: "k"})
	again := workflowID(t, ordertypes.PlaceOrderInput{Principal: auth.Principal{UserID: "u1"}, IdempotencyKey: " k "})

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
	assert.Contains(t, a, "order-checkout-idem-")

	random := workflowID(t, ordertypes.PlaceOrderInput{Principal: auth.Principal{UserID: "u1"}})
	assert.NotEqual(t, random, workflowID(t, ordertypes.PlaceOrderInput{Principal: auth.Principal{UserID: "u1"}}))
}

func TestCheckoutWorkflowIDSeparatesPayloadsUnderOneKey(t *testing.T) {
	one := ordertypes.PlaceOrderInput{
		Principal:      auth.Principal{UserID: "u1"},
		Items:          []ordertypes.ItemInput{{ProductID: "tee", Quantity: 1}},
		IdempotencyKey: "k",
	}
	two := one
	two.Items = []ordertypes.ItemInput{{ProductID: "tee", Quantity: 4}}

	assert.NotEqual(t, workflowID(t, one), workflowID(t, two))
	assert.Equal(t, workflowID(t, one), workflowID(t, one))
}

func TestTemporalCheckoutKeysKeylessCheckoutByWorkflowID(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	var options client.StartWorkflowOptions
	var started checkoutworkflows.CheckoutWorkflowInput
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, checkoutworkflows.CheckoutWorkflowName, mock.Anything).
		Run(func(args mock.Arguments) {
			options = args.Get(1).(client.StartWorkflowOptions)
			started = args.Get(3).(checkoutworkflows.CheckoutWorkflowInput)
		}).
		Return(run, nil)
	run.On("Get", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(1).(*domain.Order) = domain.Order{ID: "ord-1"}
		}).
		Return(nil)

	order, err := NewTemporalCheckout(c).PlaceOrder(context.Background(), ordertypes.PlaceOrderInput{Principal: auth.Principal{UserID: "u1"}})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.ID)
	assert.Contains(t, options.ID, "order-checkout-")
	assert.Equal(t, options.ID, started.Command.IdempotencyKey)
	assert.Equal(t, checkoutworkflows.CheckoutTaskQueue, options.TaskQueue)
	c.AssertExpectations(t)
	run.AssertExpectations(t)
}

func TestTemporalCheckoutKeepsClientKey(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	var started checkoutworkflows.CheckoutWorkflowInput
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, checkoutworkflows.CheckoutWorkflowName, mock.Anything).
		Run(func(args mock.Arguments) {
			started = args.Get(3).(checkoutworkflows.CheckoutWorkflowInput)
		}).
		Return(run, nil)
	run.On("Get", mock.Anything, mock.Anything).Return(nil)

	_, err := NewTemporalCheckout(c).PlaceOrder(context.Background(), ordertypes.PlaceOrderInput{
		Principal:      auth.Principal{UserID: "u1"},
		IdempotencyKey: "client-key",
	})
	require.NoError(t, err)
	assert.Equal(t, "client-key", started.Command.IdempotencyKey)
}

func TestTemporalCheckoutAttachesToRunningCheckout(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	input := ordertypes.PlaceOrderInput{Principal: auth.Principal{UserID: "u1"}, IdempotencyKey: "k"}
	id := workflowID(t, input)
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, checkoutworkflows.CheckoutWorkflowName, mock.Anything).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "req-1", "run-1"))
	c.On("GetWorkflow", mock.Anything, id, "run-1").Return(run)
	run.On("Get", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(1).(*domain.Order) = domain.Order{ID: "ord-running"}
		}).
		Return(nil)

	order, err := NewTemporalCheckout(c).PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "ord-running", order.ID)
	c.AssertExpectations(t)
}

func TestTemporalCheckoutReturnsStartFailure(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, checkoutworkflows.CheckoutWorkflowName, mock.Anything).
		Return(nil, errors.New("frontend unavailable"))

	_, err := NewTemporalCheckout(c).PlaceOrder(context.Background(), ordertypes.PlaceOrderInput{Principal: auth.Principal{UserID: "u1"}})
	require.EqualError(t, err, "frontend unavailable")
}
