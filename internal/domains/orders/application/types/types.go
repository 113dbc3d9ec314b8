package types

import (
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/shared/auth"
)

// ItemInput is one requested line. Prices are always looked up server-side.
type ItemInput struct {
	ProductID string `json:"productId"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"quantity"`
}

// ClientTotals are the totals the client displayed. They are compared, never trusted.
type ClientTotals struct {
	Items    decimal.Decimal `json:"itemsTotal"`
	Shipping decimal.Decimal `json:"shippingTotal"`
	Tax      decimal.Decimal `json:"taxTotal"`
	Total    decimal.Decimal `json:"total"`
}

// PlaceOrderInput carries a checkout request.
type PlaceOrderInput struct {
	Principal       auth.Principal         `json:"principal"`
	Items           []ItemInput            `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethod   `json:"paymentMethod"`
	ClientPaymentID string                 `json:"clientPaymentId,omitempty"`
	ClientTotals    *ClientTotals          `json:"clientTotals,omitempty"`
	IdempotencyKey  string                 `json:"idempotencyKey,omitempty"`
}

// UpdateStatusInput carries an administrative transition request.
type UpdateStatusInput struct {
	Principal auth.Principal `json:"principal"`
	OrderID   string         `json:"orderId"`
	Status    domain.Status  `json:"status"`
}

// CapturePaymentInput records a provider-confirmed capture against an order.
type CapturePaymentInput struct {
	OrderID          string `json:"orderId"`
	PaymentReference string `json:"paymentReference"`
}

// CaptureOutcome says what a capture did.
type CaptureOutcome string

const (
	CaptureApplied   CaptureOutcome = "applied"
	CaptureDuplicate CaptureOutcome = "duplicate"
	CaptureIgnored   CaptureOutcome = "ignored"
)

// CaptureResult is the order after a capture plus the outcome.
type CaptureResult struct {
	Order   *domain.Order
	Outcome CaptureOutcome
}
