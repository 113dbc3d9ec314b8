package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/shared/auth"
)

// OrderItem is the HTTP representation of an order line.
type OrderItem struct {
	ProductID string   `json:"productId"`
	Name      string   `json:"name,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Size      string   `json:"size,omitempty"`
	Quantity  int      `json:"quantity"`
}

// ShippingAddress is the HTTP representation of a delivery address.
type ShippingAddress struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
}

// CreateOrder is the checkout payload. Prices and totals sent by the client
// are only compared against server pricing.
type CreateOrder struct {
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentID       string          `json:"paymentId,omitempty"`
	ItemsTotal      *float64        `json:"itemsTotal,omitempty"`
	ShippingTotal   *float64        `json:"shippingTotal,omitempty"`
	TaxTotal        *float64        `json:"taxTotal,omitempty"`
	Total           *float64        `json:"total,omitempty"`
}

// UpdateStatus is the admin transition payload.
type UpdateStatus struct {
	Status string `json:"status"`
}

// Order is the HTTP representation of an order.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentID       string          `json:"paymentId,omitempty"`
	ItemsTotal      float64         `json:"itemsTotal"`
	ShippingTotal   float64         `json:"shippingTotal"`
	TaxTotal        float64         `json:"taxTotal"`
	Total           float64         `json:"total"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	IsShipped       bool            `json:"isShipped"`
	ShippedAt       *time.Time      `json:"shippedAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ToPlaceOrderInput converts a checkout payload into the application command.
func ToPlaceOrderInput(principal auth.Principal, body CreateOrder, idempotencyKey string) ordertypes.PlaceOrderInput {
	items := make([]ordertypes.ItemInput, 0, len(body.Items))
	for _, item := range body.Items {
		items = append(items, ordertypes.ItemInput{ProductID: item.ProductID, Size: item.Size, Quantity: item.Quantity})
	}
	return ordertypes.PlaceOrderInput{
		Principal:       principal,
		Items:           items,
		ShippingAddress: toDomainAddress(body.ShippingAddress),
		PaymentMethod:   domain.PaymentMethod(body.PaymentMethod),
		ClientPaymentID: body.PaymentID,
		ClientTotals:    toClientTotals(body),
		IdempotencyKey:  idempotencyKey,
	}
}

// FromDomainOrder maps the aggregate into its transport shape.
func FromDomainOrder(o *domain.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		price := item.UnitPrice.InexactFloat64()
		items = append(items, OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     &price,
			Size:      item.Size,
			Quantity:  item.Quantity,
		})
	}
	return Order{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		ShippingAddress: fromDomainAddress(o.ShippingAddress),
		PaymentMethod:   string(o.PaymentMethod),
		PaymentID:       o.PaymentReference,
		ItemsTotal:      o.Totals.Items.InexactFloat64(),
		ShippingTotal:   o.Totals.Shipping.InexactFloat64(),
		TaxTotal:        o.Totals.Tax.InexactFloat64(),
		Total:           o.Totals.Total().InexactFloat64(),
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		IsShipped:       o.IsShipped,
		ShippedAt:       o.ShippedAt,
		IsDelivered:     o.IsDelivered,
		DeliveredAt:     o.DeliveredAt,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// FromDomainOrderList maps a slice of aggregates.
func FromDomainOrderList(list []*domain.Order) []Order {
	resp := make([]Order, 0, len(list))
	for _, o := range list {
		resp = append(resp, FromDomainOrder(o))
	}
	return resp
}

func toClientTotals(body CreateOrder) *ordertypes.ClientTotals {
	if body.Total == nil {
		return nil
	}
	return &ordertypes.ClientTotals{
		Items:    fromFloat(body.ItemsTotal),
		Shipping: fromFloat(body.ShippingTotal),
		Tax:      fromFloat(body.TaxTotal),
		Total:    fromFloat(body.Total),
	}
}

func fromFloat(value *float64) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*value).Round(2)
}

func toDomainAddress(a ShippingAddress) domain.ShippingAddress {
	return domain.ShippingAddress(a)
}

func fromDomainAddress(a domain.ShippingAddress) ShippingAddress {
	return ShippingAddress(a)
}
