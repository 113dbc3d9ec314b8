package mapper

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/shared/auth"
)

func TestToPlaceOrderInputKeepsClientTotalsForComparison(t *testing.T) {
	total := 80.44
	items := 65.22
	body := CreateOrder{
		Items:         []OrderItem{{ProductID: "p1", Size: "M", Quantity: 2, Price: &items}},
		PaymentMethod: "paypal",
		PaymentID:     "PAYID-1",
		ItemsTotal:    &items,
		Total:         &total,
	}

	input := ToPlaceOrderInput(auth.Principal{UserID: "u1"}, body, "key")

	require.Len(t, input.Items, 1)
	assert.Equal(t, "p1", input.Items[0].ProductID)
	assert.Equal(t, domain.PaymentMethodPayPal, input.PaymentMethod)
	assert.Equal(t, "PAYID-1", input.ClientPaymentID)
	assert.Equal(t, "key", input.IdempotencyKey)
	require.NotNil(t, input.ClientTotals)
	assert.True(t, input.ClientTotals.Total.Equal(decimal.RequireFromString("80.44")))
	assert.True(t, input.ClientTotals.Tax.IsZero())
}

func TestToPlaceOrderInputWithoutTotals(t *testing.T) {
	input := ToPlaceOrderInput(auth.Principal{UserID: "u1"}, CreateOrder{}, "")
	assert.Nil(t, input.ClientTotals)
	assert.Empty(t, input.Items)
}

func TestFromDomainOrder(t *testing.T) {
	paidAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	order := &domain.Order{
		ID:     "ord-1",
		UserID: "u1",
		Items: []domain.Item{{
			ProductID: "p1",
			Name:      "Tee",
			UnitPrice: decimal.RequireFromString("19.99"),
			Quantity:  2,
		}},
		PaymentMethod:    domain.PaymentMethodPayPal,
		PaymentReference: "CAP-1",
		Totals: domain.Totals{
			Items:    decimal.RequireFromString("39.98"),
			Shipping: decimal.RequireFromString("10"),
			Tax:      decimal.RequireFromString("3.20"),
		},
		Status: domain.StatusProcessing,
		IsPaid: true,
		PaidAt: &paidAt,
	}

	resp := FromDomainOrder(order)

	assert.Equal(t, "ord-1", resp.ID)
	assert.Equal(t, "CAP-1", resp.PaymentID)
	assert.InDelta(t, 53.18, resp.Total, 1e-9)
	assert.InDelta(t, 3.20, resp.TaxTotal, 1e-9)
	require.Len(t, resp.Items, 1)
	require.NotNil(t, resp.Items[0].Price)
	assert.InDelta(t, 19.99, *resp.Items[0].Price, 1e-9)
	assert.True(t, resp.IsPaid)
	assert.Equal(t, &paidAt, resp.PaidAt)
	assert.Equal(t, "processing", resp.Status)
}
