package domain

import "github.com/shopspring/decimal"

// Totals holds the monetary components of an order. The grand total is always derived.
type Totals struct {
	Items    decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
}

// Total is Items + Shipping + Tax.
func (t Totals) Total() decimal.Decimal {
	return t.Items.Add(t.Shipping).Add(t.Tax)
}

// PricingPolicy computes server-side totals.
type PricingPolicy struct {
	ShippingFlatRate decimal.Decimal
	TaxRate          decimal.Decimal
}

// DefaultPricing charges a flat 10.00 shipping fee and 8% tax on the items total.
func DefaultPricing() PricingPolicy {
	return PricingPolicy{
		ShippingFlatRate: decimal.NewFromInt(10),
		TaxRate:          decimal.RequireFromString("0.08"),
	}
}

// Price totals items priced at their snapshot unit prices. Amounts are rounded to cents.
func (p PricingPolicy) Price(items []Item) Totals {
	itemsTotal := decimal.Zero
	for _, item := range items {
		itemsTotal = itemsTotal.Add(item.Subtotal())
	}
	itemsTotal = itemsTotal.Round(2)
	return Totals{
		Items:    itemsTotal,
		Shipping: p.ShippingFlatRate.Round(2),
		Tax:      itemsTotal.Mul(p.TaxRate).Round(2),
	}
}
