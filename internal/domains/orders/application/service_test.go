package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventorymemory "github.com/Apurer/go-gin-storefront/internal/domains/inventory/adapters/memory"
	inventorydomain "github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
	ordermemory "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/memory"
	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/shared/auth"
)

var (
	buyer  = auth.Principal{UserID: "buyer-1"}
	other  = auth.Principal{UserID: "buyer-2"}
	admin  = auth.Principal{UserID: "admin-1", IsAdmin: true}
	origin = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

type recordedEvents struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordedEvents) Record(_ context.Context, events ...domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *recordedEvents) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc    *Service
	stock  *inventorymemory.Store
	orders *ordermemory.Repository
	events *recordedEvents
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	stock := inventorymemory.NewStore()
	require.NoError(t, stock.UpsertProduct(ctx, &inventorydomain.Product{
		ID:    "tee",
		Name:  "Linen Tee",
		Price: decimal.RequireFromString("19.99"),
		Stock: 5,
	}))
	require.NoError(t, stock.UpsertProduct(ctx, &inventorydomain.Product{
		ID:    "print",
		Name:  "Art Print",
		Price: decimal.RequireFromString("12.50"),
		Sizes: []inventorydomain.Size{
			{Name: "S", Dimensions: "20x30", Price: decimal.RequireFromString("12.50")},
			{Name: "L", Dimensions: "50x70", Price: decimal.RequireFromString("15.00")},
		},
		Stock: 3,
	}))

	tick := origin
	var clockMu sync.Mutex
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		tick = tick.Add(time.Minute)
		return tick
	}

	orders := ordermemory.NewRepository()
	events := &recordedEvents{}
	base := []Option{
		WithClock(clock),
		WithEventRecorder(events),
		WithIdempotencyStore(ordermemory.NewIdempotencyStore()),
	}
	return &fixture{
		svc:    NewService(orders, stock, stock, append(base, opts...)...),
		stock:  stock,
		orders: orders,
		events: events,
	}
}

func (f *fixture) available(t *testing.T, id string) int {
	t.Helper()
	qty, err := f.stock.Available(context.Background(), id)
	require.NoError(t, err)
	return qty
}

func address() domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName:     "Ada Lovelace",
		AddressLine1: "12 Analytical Row",
		City:         "London",
		State:        "Greater London",
		PostalCode:   "N1 9GU",
		Country:      "UK",
		Phone:        "+44 20 0000 0000",
	}
}

func checkout(principal auth.Principal, items ...ordertypes.ItemInput) ordertypes.PlaceOrderInput {
	return ordertypes.PlaceOrderInput{
		Principal:       principal,
		Items:           items,
		ShippingAddress: address(),
		PaymentMethod:   domain.PaymentMethodPayPal,
	}
}

func (f *fixture) place(t *testing.T, input ordertypes.PlaceOrderInput) *domain.Order {
	t.Helper()
	order, err := f.svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	return order
}

func TestCreateOrder_PricesServerSideAndReservesStock(t *testing.T) {
	f := newFixture(t)
	input := checkout(buyer,
		ordertypes.ItemInput{ProductID: "tee", Quantity: 2},
		ordertypes.ItemInput{ProductID: "print", Size: "L", Quantity: 1},
	)
	input.ClientTotals = &ordertypes.ClientTotals{Total: decimal.RequireFromString("1.00")}

	order := f.place(t, input)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, buyer.UserID, order.UserID)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.False(t, order.IsPaid)
	assert.False(t, order.IsShipped)
	assert.False(t, order.IsDelivered)
	assert.Nil(t, order.PaidAt)
	assert.Equal(t, "54.98", order.Totals.Items.StringFixed(2))
	assert.Equal(t, "10.00", order.Totals.Shipping.StringFixed(2))
	assert.Equal(t, "4.40", order.Totals.Tax.StringFixed(2))
	assert.Equal(t, "69.38", order.Totals.Total().StringFixed(2))
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Linen Tee", order.Items[0].Name)
	assert.Equal(t, "15.00", order.Items[1].UnitPrice.StringFixed(2))

	assert.Equal(t, 3, f.available(t, "tee"))
	assert.Equal(t, 2, f.available(t, "print"))
	assert.Equal(t, []domain.EventType{domain.EventOrderCreated}, f.events.types())

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
}

func TestCreateOrder_InsufficientStockChangesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), checkout(buyer,
		ordertypes.ItemInput{ProductID: "tee", Quantity: 1},
		ordertypes.ItemInput{ProductID: "print", Quantity: 4},
	))

	require.ErrorIs(t, err, inventorydomain.ErrInsufficientStock)
	var stockErr *inventorydomain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	require.Len(t, stockErr.Shortages, 1)
	assert.Equal(t, "print", stockErr.Shortages[0].ProductID)
	assert.Equal(t, 5, f.available(t, "tee"))
	assert.Equal(t, 3, f.available(t, "print"))

	list, err := f.svc.ListOrders(context.Background(), admin)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.events.types())
}

func TestCreateOrder_RejectsInvalidInput(t *testing.T) {
	cases := map[string]func(*ordertypes.PlaceOrderInput){
		"no items": func(in *ordertypes.PlaceOrderInput) { in.Items = nil },
		"zero quantity": func(in *ordertypes.PlaceOrderInput) {
			in.Items = []ordertypes.ItemInput{{ProductID: "tee", Quantity: 0}}
		},
		"missing city":           func(in *ordertypes.PlaceOrderInput) { in.ShippingAddress.City = "  " },
		"missing phone":          func(in *ordertypes.PlaceOrderInput) { in.ShippingAddress.Phone = "" },
		"unknown payment method": func(in *ordertypes.PlaceOrderInput) { in.PaymentMethod = "cheque" },
		"unknown size": func(in *ordertypes.PlaceOrderInput) {
			in.Items = []ordertypes.ItemInput{{ProductID: "print", Size: "XXL", Quantity: 1}}
		},
		"unknown product": func(in *ordertypes.PlaceOrderInput) {
			in.Items = []ordertypes.ItemInput{{ProductID: "ghost", Quantity: 1}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			input := checkout(buyer, ordertypes.ItemInput{ProductID: "tee", Quantity: 1})
			mutate(&input)

			_, err := f.svc.CreateOrder(context.Background(), input)

			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, 5, f.available(t, "tee"))
			assert.Equal(t, 3, f.available(t, "print"))
		})
	}
}

func TestCreateOrder_RequiresCaller(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateOrder(context.Background(), checkout(auth.Principal{}, ordertypes.ItemInput{ProductID: "tee", Quantity: 1}))
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreateOrder_ConcurrentBuyersCannotOversell(t *testing.T) {
	f := newFixture(t)
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateOrder(context.Background(), checkout(buyer, ordertypes.ItemInput{ProductID: "tee", Quantity: 3}))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, inventorydomain.ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, f.available(t, "tee"))
}

func TestCreateOrder_IdempotencyKeyReplaysOriginalOrder(t *testing.T) {
	f := newFixture(t)
	input := checkout(buyer, ordertypes.ItemInput{ProductID: "tee", Quantity: 2})
	input.IdempotencyKey = "checkout-1"

	first := f.place(t, input)
	second := f.place(t, input)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, f.available(t, "tee"))
	assert.Len(t, f.events.types(), 1)

	changed := input
	changed.Items = []ordertypes.ItemInput{{ProductID: "tee", Quantity: 1}}
	_, err := f.svc.CreateOrder(context.Background(), changed)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)

	otherCaller := input
	otherCaller.Principal = other
	third := f.place(t, otherCaller)
	assert.NotEqual(t, first.ID, third.ID)
	assert.Equal(t, 1, f.available(t, "tee"))
}

func TestCreateOrder_ConcurrentRetriesUnderOneKeyReserveOnce(t *testing.T) {
	f := newFixture(t)
	input := checkout(buyer, ordertypes.ItemInput{ProductID: "tee", Quantity: 1})
	input.IdempotencyKey = "double-click"

	start := make(chan struct{})
	var wg sync.WaitGroup
	ids := make([]string, 8)
	errs := make([]error, len(ids))
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			order, err := f.svc.CreateOrder(context.Background(), input)
			errs[i] = err
			if order != nil {
				ids[i] = order.ID
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	stored, err := f.orders.List(context.Background(), ports.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Equal(t, 4, f.available(t, "tee"))
	assert.Len(t, f.events.types(), 1)
}

func TestListOrders_ScopesByCallerNewestFirst(t *testing.T) {
	f := newFixture(t)
	older := f.place(t, checkout(buyer, ordertypes.ItemInput{ProductID: "tee", Quantity: 1}))
	newer := f.place(t, checkout(buyer, ordertypes.ItemInput{ProductID: "tee", Quantity: 1}))
	foreign := f.place(t, checkout(other, ordertypes.ItemInput{ProductID: "print", Quantity: 1}))

	mine, err := f.svc.ListOrders(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID)
	assert.Equal(t, older.ID, mine[1].ID)

	all, err := f.svc.ListOrders(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, foreign.ID, all[0].ID)

	_, err = f.svc.ListOrders(context.Background(), auth.Principal{})
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGetOrder_EnforcesOwnership(t *testing.T) {
	f := newFixture(t)
	order := f.place(t, checkout(buyer, ordertypes.ItemInput{ProductID: "tee", Quantity: 1}))
	ctx := context.Background()

	got, err := f.svc.GetOrder(ctx, buyer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	got, err = f.svc.GetOrder(ctx, other, order.ID)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, got)

	_, err = f.svc.GetOrder(ctx, admin, order.ID)
	require.NoError(t, err)

	_, err = f.svc.GetOrder(ctx, admin, "missing")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestUpdateStatus_FollowsLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.place(t, checkout(buyer, ordertypes.ItemInput{ProductID: "tee", Quantity: 1}))
	update := func(p auth.Principal, status domain.Status) (*domain.Order, error) {
		return f.svc.UpdateStatus(ctx, ordertypes.UpdateStatusInput{Principal: p, OrderID: order.ID, Status: status})
	}

	_, err := update(buyer, domain.StatusShipped)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = update(admin, domain.StatusProcessing)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = update(admin, domain.StatusShipped)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = update(admin, "lost")
	require.ErrorIs(t, err, ErrInvalidInput)

	captured, err := f.svc.CapturePayment(ctx, ordertypes.CapturePaymentInput{OrderID: order.ID, PaymentReference: "CAP-1"})
	require.NoError(t, err)
	require.Equal(t, ordertypes.CaptureApplied, captured.Outcome)

	shipped, err := update(admin, domain.StatusShipped)
	require.NoError(t, err)
	assert.True(t, shipped.IsShipped)
	require.NotNil(t, shipped.ShippedAt)

	delivered, err := update(admin, domain.StatusDelivered)
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	assert.Equal(t, shipped.ShippedAt, delivered.ShippedAt)

	_, err = update(admin, domain.StatusPending)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	after, err := f.svc.GetOrder(ctx, admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, after.Status)
	assert.Equal(t, delivered.DeliveredAt, after.DeliveredAt)

	assert.Equal(t, []domain.EventType{
		domain.EventOrderCreated,
		domain.EventOrderStatusChanged,
		domain.EventOrderStatusChanged,
		domain.EventOrderStatusChanged,
	}, f.events.types())
}

func TestUpdateStatus_CancelReleasesStock(t *testing.T) {
	f := newFixture(t)
	order := f.place(t, checkout(buyer, ordertypes.ItemInput{ProductID: "tee", Quantity: 4}))
	require.Equal(t, 1, f.available(t, "tee"))

	cancelled, err := f.svc.UpdateStatus(context.Background(), ordertypes.UpdateStatusInput{Principal: admin, OrderID: order.ID, Status: domain.StatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.False(t, cancelled.IsPaid)
	assert.Equal(t, 5, f.available(t, "tee"))

	_, err = f.svc.UpdateStatus(context.Background(), ordertypes.UpdateStatusInput{Principal: admin, OrderID: order.ID, Status: domain.StatusCancelled})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 5, f.available(t, "tee"))
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateStatus(context.Background(), ordertypes.UpdateStatusInput{Principal: admin, OrderID: "missing", Status: domain.StatusShipped})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestCapturePayment_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.place(t, checkout(buyer, ordertypes.ItemInput{ProductID: "tee", Quantity: 1}))
	input := ordertypes.CapturePaymentInput{OrderID: order.ID, PaymentReference: "CAP-1"}

	first, err := f.svc.CapturePayment(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, ordertypes.CaptureApplied, first.Outcome)
	assert.Equal(t, domain.StatusProcessing, first.Order.Status)
	assert.True(t, first.Order.IsPaid)
	require.NotNil(t, first.Order.PaidAt)
	assert.Equal(t, "CAP-1", first.Order.PaymentReference)

	second, err := f.svc.CapturePayment(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, ordertypes.CaptureDuplicate, second.Outcome)
	assert.Equal(t, domain.StatusProcessing, second.Order.Status)
	assert.Equal(t, first.Order.PaidAt, second.Order.PaidAt)
	assert.Len(t, f.events.types(), 2)
}

func TestCapturePayment_CancelledOrderIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.place(t, checkout(buyer, ordertypes.ItemInput{ProductID: "tee", Quantity: 1}))
	_, err := f.svc.UpdateStatus(ctx, ordertypes.UpdateStatusInput{Principal: admin, OrderID: order.ID, Status: domain.StatusCancelled})
	require.NoError(t, err)

	result, err := f.svc.CapturePayment(ctx, ordertypes.CapturePaymentInput{OrderID: order.ID, PaymentReference: "CAP-1"})
	require.NoError(t, err)
	assert.Equal(t, ordertypes.CaptureIgnored, result.Outcome)
	assert.Equal(t, domain.StatusCancelled, result.Order.Status)
	assert.False(t, result.Order.IsPaid)
}

func TestCapturePayment_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CapturePayment(ctx, ordertypes.CapturePaymentInput{OrderID: "missing", PaymentReference: "CAP-1"})
	require.ErrorIs(t, err, ports.ErrNotFound)

	_, err = f.svc.CapturePayment(ctx, ordertypes.CapturePaymentInput{OrderID: " "})
	require.ErrorIs(t, err, ErrInvalidInput)

	first := f.place(t, checkout(buyer, ordertypes.ItemInput{ProductID: "tee", Quantity: 1}))
	second := f.place(t, checkout(buyer, ordertypes.ItemInput{ProductID: "tee", Quantity: 1}))
	_, err = f.svc.CapturePayment(ctx, ordertypes.CapturePaymentInput{OrderID: first.ID, PaymentReference: "CAP-1"})
	require.NoError(t, err)
	_, err = f.svc.CapturePayment(ctx, ordertypes.CapturePaymentInput{OrderID: second.ID, PaymentReference: "CAP-1"})
	require.ErrorIs(t, err, ports.ErrPaymentReferenceTaken)

	unchanged, err := f.svc.GetOrder(ctx, buyer, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, unchanged.Status)
}

func TestWithPricingOverridesPolicy(t *testing.T) {
	f := newFixture(t, WithPricing(domain.PricingPolicy{ShippingFlatRate: decimal.Zero, TaxRate: decimal.RequireFromString("0.10")}))
	order := f.place(t, checkout(buyer, ordertypes.ItemInput{ProductID: "tee", Quantity: 1}))
	assert.Equal(t, "0.00", order.Totals.Shipping.StringFixed(2))
	assert.Equal(t, "2.00", order.Totals.Tax.StringFixed(2))
	assert.Equal(t, "21.99", order.Totals.Total().StringFixed(2))
}
