package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	orderapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	checkoutactivities "github.com/Apurer/go-gin-storefront/internal/platform/temporal/activities/checkout"
	checkoutworkflows "github.com/Apurer/go-gin-storefront/internal/platform/temporal/workflows/checkout"
)

var (
	_ ports.CheckoutOrchestrator = (*TemporalCheckout)(nil)
	_ ports.CheckoutOrchestrator = (*InlineCheckout)(nil)
)

// TemporalCheckout runs checkouts as Temporal workflows.
type TemporalCheckout struct {
	client    client.Client
	taskQueue string
}

// NewTemporalCheckout wires a Temporal client into the orchestrator.
func NewTemporalCheckout(c client.Client) *TemporalCheckout {
	return &TemporalCheckout{client: c, taskQueue: checkoutworkflows.CheckoutTaskQueue}
}

// PlaceOrder starts the checkout workflow and waits for the placed order.
// A keyless checkout is keyed by its workflow id so activity retries replay
// instead of placing the order twice.
func (o *TemporalCheckout) PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*domain.Order, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal checkout not configured")
	}
	workflowID, err := buildCheckoutWorkflowID(input)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.IdempotencyKey) == "" {
		input.IdempotencyKey = workflowID
	}
	options := client.StartWorkflowOptions{
		ID:                                       workflowID,
		TaskQueue:                                o.taskQueue,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		checkoutworkflows.CheckoutWorkflowName,
		checkoutworkflows.CheckoutWorkflowInput{Command: input, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		// Same caller, key and payload: attach to the checkout already in flight.
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var order domain.Order
	if err := run.Get(ctx, &order); err != nil {
		return nil, checkoutactivities.DecodeError(err)
	}
	return &order, nil
}

// InlineCheckout calls the service directly. Used when Temporal is disabled and in tests.
type InlineCheckout struct {
	service ports.Service
}

// NewInlineCheckout wraps the order service for synchronous execution.
func NewInlineCheckout(service ports.Service) *InlineCheckout {
	return &InlineCheckout{service: service}
}

// PlaceOrder delegates to the service.
func (o *InlineCheckout) PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*domain.Order, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline checkout not configured")
	}
	return o.service.CreateOrder(ctx, input)
}

// buildCheckoutWorkflowID derives the id from caller, key and payload fingerprint.
// A payload reusing someone's key gets its own workflow and meets the service's
// idempotency conflict instead of the other checkout's order.
func buildCheckoutWorkflowID(input ordertypes.PlaceOrderInput) (string, error) {
	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" {
		return fmt.Sprintf("order-checkout-%s", uuid.NewString()), nil
	}
	fingerprint, err := orderapp.FingerprintPlaceOrder(input)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("order-checkout-idem-%s", hashIdempotencyKey(input.Principal.UserID+":"+key+":"+fingerprint)), nil
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
