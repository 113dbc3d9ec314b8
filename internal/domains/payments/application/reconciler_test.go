package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventorymemory "github.com/Apurer/go-gin-storefront/internal/domains/inventory/adapters/memory"
	inventorydomain "github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
	ordermemory "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/memory"
	orderapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
	"github.com/Apurer/go-gin-storefront/internal/shared/auth"
)

type stubDecoder struct {
	event domain.PaymentEvent
	err   error
	calls int
}

func (d *stubDecoder) Decode([]byte) (domain.PaymentEvent, error) {
	d.calls++
	return d.event, d.err
}

func accept() ports.Verifier {
	return ports.VerifierFunc(func(context.Context, domain.Delivery) error { return nil })
}

func reject() ports.Verifier {
	return ports.VerifierFunc(func(context.Context, domain.Delivery) error { return ports.ErrSignatureInvalid })
}

func newOrders(t *testing.T) (*orderapp.Service, *orderdomain.Order) {
	t.Helper()
	ctx := context.Background()
	stock := inventorymemory.NewStore()
	require.NoError(t, stock.UpsertProduct(ctx, &inventorydomain.Product{ID: "tee", Name: "Tee", Price: decimal.NewFromInt(20), Stock: 10}))
	svc := orderapp.NewService(ordermemory.NewRepository(), stock, stock)
	order, err := svc.CreateOrder(ctx, ordertypes.PlaceOrderInput{
		Principal: auth.Principal{UserID: "buyer"},
		Items:     []ordertypes.ItemInput{{ProductID: "tee", Quantity: 1}},
		ShippingAddress: orderdomain.ShippingAddress{
			FullName: "A B", AddressLine1: "1 Road", City: "Town", State: "ST", PostalCode: "00000", Country: "US", Phone: "555",
		},
		PaymentMethod: orderdomain.PaymentMethodPayPal,
	})
	require.NoError(t, err)
	return svc, order
}

func captured(orderID string) domain.PaymentEvent {
	return domain.PaymentEvent{ID: "evt-1", Type: domain.EventPaymentCaptured, OrderReference: orderID, PaymentReference: "CAP-1"}
}

func TestApplyCaptureIsIdempotent(t *testing.T) {
	orders, order := newOrders(t)
	r := NewReconciler(orders, WithProvider("PayPal", accept(), &stubDecoder{event: captured(order.ID)}))
	delivery := domain.Delivery{Provider: "paypal", Body: []byte(`{}`)}

	outcome, err := r.Apply(context.Background(), delivery)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, outcome)

	first, err := orders.GetOrder(context.Background(), auth.Principal{UserID: "buyer"}, order.ID)
	require.NoError(t, err)
	require.NotNil(t, first.PaidAt)

	outcome, err = r.Apply(context.Background(), delivery)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeDuplicate, outcome)

	second, err := orders.GetOrder(context.Background(), auth.Principal{UserID: "buyer"}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusProcessing, second.Status)
	assert.True(t, second.IsPaid)
	assert.Equal(t, first.PaidAt, second.PaidAt)
	assert.Equal(t, "CAP-1", second.PaymentReference)
}

func TestApplyRejectsUnverifiedBeforeDecoding(t *testing.T) {
	orders, order := newOrders(t)
	decoder := &stubDecoder{event: captured(order.ID)}
	r := NewReconciler(orders, WithProvider("paypal", reject(), decoder))

	_, err := r.Apply(context.Background(), domain.Delivery{Provider: "paypal"})
	require.ErrorIs(t, err, ErrUntrustedEvent)
	assert.Zero(t, decoder.calls)

	unchanged, err := orders.GetOrder(context.Background(), auth.Principal{UserID: "buyer"}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPending, unchanged.Status)
}

func TestApplyTransientVerificationFailure(t *testing.T) {
	orders, _ := newOrders(t)
	boom := errors.New("paypal unreachable")
	r := NewReconciler(orders, WithProvider("paypal", ports.VerifierFunc(func(context.Context, domain.Delivery) error { return boom }), &stubDecoder{}))

	_, err := r.Apply(context.Background(), domain.Delivery{Provider: "paypal"})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUntrustedEvent)
}

func TestApplyErrors(t *testing.T) {
	orders, _ := newOrders(t)
	ctx := context.Background()

	_, err := NewReconciler(orders).Apply(ctx, domain.Delivery{Provider: "stripe"})
	require.ErrorIs(t, err, ErrUnknownProvider)

	malformed := NewReconciler(orders, WithProvider("paypal", accept(), &stubDecoder{err: errors.New("bad json")}))
	_, err = malformed.Apply(ctx, domain.Delivery{Provider: "paypal"})
	require.ErrorIs(t, err, ErrMalformedEvent)

	noOrder := NewReconciler(orders, WithProvider("paypal", accept(), &stubDecoder{event: domain.PaymentEvent{ID: "evt", Type: domain.EventPaymentCaptured, PaymentReference: "CAP"}}))
	_, err = noOrder.Apply(ctx, domain.Delivery{Provider: "paypal"})
	require.ErrorIs(t, err, ErrMalformedEvent)

	missing := NewReconciler(orders, WithProvider("paypal", accept(), &stubDecoder{event: captured("does-not-exist")}))
	_, err = missing.Apply(ctx, domain.Delivery{Provider: "paypal"})
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestApplyIgnoresOtherEvents(t *testing.T) {
	orders, order := newOrders(t)
	r := NewReconciler(orders, WithProvider("paypal", accept(), &stubDecoder{event: domain.PaymentEvent{ID: "evt", Type: "paypal.payment.capture.refunded"}}))

	outcome, err := r.Apply(context.Background(), domain.Delivery{Provider: "paypal"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnored, outcome)

	unchanged, err := orders.GetOrder(context.Background(), auth.Principal{UserID: "buyer"}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPending, unchanged.Status)
}

func TestApplyCaptureOnCancelledOrderIsIgnored(t *testing.T) {
	orders, order := newOrders(t)
	_, err := orders.UpdateStatus(context.Background(), ordertypes.UpdateStatusInput{
		Principal: auth.Principal{UserID: "admin", IsAdmin: true},
		OrderID:   order.ID,
		Status:    orderdomain.StatusCancelled,
	})
	require.NoError(t, err)
	r := NewReconciler(orders, WithProvider("paypal", accept(), &stubDecoder{event: captured(order.ID)}))

	outcome, err := r.Apply(context.Background(), domain.Delivery{Provider: "paypal"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnored, outcome)
}

func TestApplyPropagatesPaymentReferenceConflict(t *testing.T) {
	_, order := newOrders(t)
	stub := stubOrderPayments{err: orderports.ErrPaymentReferenceTaken}
	r := NewReconciler(stub, WithProvider("paypal", accept(), &stubDecoder{event: captured(order.ID)}))

	_, err := r.Apply(context.Background(), domain.Delivery{Provider: "paypal"})
	require.ErrorIs(t, err, orderports.ErrPaymentReferenceTaken)
}

type stubOrderPayments struct {
	err error
}

func (s stubOrderPayments) CapturePayment(context.Context, ordertypes.CapturePaymentInput) (*ordertypes.CaptureResult, error) {
	return nil, s.err
}
