package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingFormula(t *testing.T) {
	items := []Item{
		{ProductID: "a", UnitPrice: decimal.RequireFromString("19.99"), Quantity: 3},
		{ProductID: "b", UnitPrice: decimal.RequireFromString("5.25"), Quantity: 1},
	}
	totals := DefaultPricing().Price(items)

	assert.Equal(t, "65.22", totals.Items.StringFixed(2))
	assert.Equal(t, "10.00", totals.Shipping.StringFixed(2))
	assert.Equal(t, "5.22", totals.Tax.StringFixed(2))
	assert.Equal(t, "80.44", totals.Total().StringFixed(2))
}

func TestNewOrderStartsPending(t *testing.T) {
	order := newTestOrder(t)
	assert.Equal(t, StatusPending, order.Status)
	assert.False(t, order.IsPaid)
	assert.False(t, order.IsShipped)
	assert.False(t, order.IsDelivered)
	assert.Nil(t, order.PaidAt)
}

func TestNewOrderValidation(t *testing.T) {
	items := []Item{{ProductID: "a", UnitPrice: decimal.NewFromInt(1), Quantity: 1}}
	now := time.Now()

	_, err := NewOrder("o", "", items, testAddress(), PaymentMethodPayPal, Totals{}, now)
	require.ErrorIs(t, err, ErrMissingUser)

	_, err = NewOrder("o", "u", nil, testAddress(), PaymentMethodPayPal, Totals{}, now)
	require.ErrorIs(t, err, ErrNoItems)

	_, err = NewOrder("o", "u", []Item{{ProductID: "a", Quantity: 0}}, testAddress(), PaymentMethodPayPal, Totals{}, now)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	addr := testAddress()
	addr.City = ""
	_, err = NewOrder("o", "u", items, addr, PaymentMethodPayPal, Totals{}, now)
	require.ErrorIs(t, err, ErrInvalidAddress)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "shippingAddress.city", fieldErr.Field)

	_, err = NewOrder("o", "u", items, testAddress(), PaymentMethod("cash"), Totals{}, now)
	require.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestAddressLine2IsOptional(t *testing.T) {
	addr := testAddress()
	addr.AddressLine2 = ""
	require.NoError(t, addr.Validate())
}
