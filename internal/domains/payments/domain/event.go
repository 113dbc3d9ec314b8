package domain

import (
	"errors"
	"net/http"
	"strings"
)

// EventType is the provider-neutral kind of a payment notification.
type EventType string

const (
	// EventPaymentCaptured means the provider settled funds for an order.
	EventPaymentCaptured EventType = "payment.captured"
)

var (
	ErrMissingEventID        = errors.New("payment event id is required")
	ErrMissingOrderReference = errors.New("payment event does not reference an order")
	ErrMissingPaymentRef     = errors.New("payment event does not carry a payment reference")
)

// Delivery is one raw webhook request as received from a provider.
type Delivery struct {
	Provider string
	Headers  http.Header
	Body     []byte
}

// Header returns the first value of name, trimmed.
func (d Delivery) Header(name string) string {
	if d.Headers == nil {
		return ""
	}
	return strings.TrimSpace(d.Headers.Get(name))
}

// PaymentEvent is a decoded provider notification.
type PaymentEvent struct {
	ID               string
	Type             EventType
	OrderReference   string
	PaymentReference string
}

// Validate checks the fields a capture needs. Other event types only need an id.
func (e PaymentEvent) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrMissingEventID
	}
	if e.Type != EventPaymentCaptured {
		return nil
	}
	if strings.TrimSpace(e.OrderReference) == "" {
		return ErrMissingOrderReference
	}
	if strings.TrimSpace(e.PaymentReference) == "" {
		return ErrMissingPaymentRef
	}
	return nil
}

// Outcome reports what a delivery did to order state.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)
