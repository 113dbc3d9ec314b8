package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates the order lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// PaymentMethod is the buyer's chosen way to pay.
type PaymentMethod string

const (
	PaymentMethodPayPal     PaymentMethod = "paypal"
	PaymentMethodCreditCard PaymentMethod = "credit-card"
)

var (
	ErrMissingUser          = errors.New("order owner is required")
	ErrNoItems              = errors.New("order must contain at least one item")
	ErrInvalidProductID     = errors.New("item product id is required")
	ErrInvalidQuantity      = errors.New("item quantity must be greater than zero")
	ErrInvalidPrice         = errors.New("item price must not be negative")
	ErrInvalidAddress       = errors.New("shipping address is incomplete")
	ErrInvalidPaymentMethod = errors.New("payment method is not supported")
	ErrInvalidStatus        = errors.New("order status is invalid")
	ErrInconsistentTotals   = errors.New("order total does not match its components")
)

// Item is one purchased line. Name and UnitPrice are snapshots taken at checkout.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Size      string          `json:"size,omitempty"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is UnitPrice times Quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ShippingAddress is where the order is delivered. AddressLine2 is optional.
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

// Validate reports ErrInvalidAddress naming the first missing field.
func (a ShippingAddress) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"fullName", a.FullName},
		{"addressLine1", a.AddressLine1},
		{"city", a.City},
		{"state", a.State},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
		{"phone", a.Phone},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return &FieldError{Field: "shippingAddress." + field.name, Err: ErrInvalidAddress}
		}
	}
	return nil
}

// FieldError points a validation failure at one input field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

// Order is the purchase aggregate.
type Order struct {
	ID               string
	UserID           string
	Items            []Item
	ShippingAddress  ShippingAddress
	PaymentMethod    PaymentMethod
	PaymentReference string
	ClientPaymentID  string
	Totals           Totals
	Status           Status
	IsPaid           bool
	PaidAt           *time.Time
	IsShipped        bool
	ShippedAt        *time.Time
	IsDelivered      bool
	DeliveredAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewOrder builds a pending order with every lifecycle flag cleared.
func NewOrder(id, userID string, items []Item, address ShippingAddress, method PaymentMethod, totals Totals, now time.Time) (*Order, error) {
	order := &Order{
		ID:              id,
		UserID:          userID,
		Items:           append([]Item(nil), items...),
		ShippingAddress: address,
		PaymentMethod:   method,
		Totals:          totals,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate enforces aggregate invariants.
func (o *Order) Validate() error {
	if strings.TrimSpace(o.UserID) == "" {
		return ErrMissingUser
	}
	if err := ValidateItems(o.Items); err != nil {
		return err
	}
	for _, item := range o.Items {
		if item.UnitPrice.IsNegative() {
			return ErrInvalidPrice
		}
	}
	if err := o.ShippingAddress.Validate(); err != nil {
		return err
	}
	if !o.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	if !o.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// ValidateItems checks the request-level item rules shared by checkout and the aggregate.
func ValidateItems(items []Item) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	for _, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return ErrInvalidProductID
		}
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	clone.PaidAt = cloneTime(o.PaidAt)
	clone.ShippedAt = cloneTime(o.ShippedAt)
	clone.DeliveredAt = cloneTime(o.DeliveredAt)
	return &clone
}

// Valid reports whether m is a supported method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodPayPal, PaymentMethodCreditCard:
		return true
	default:
		return false
	}
}

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// ParseStatus maps a client-supplied name to a Status.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
