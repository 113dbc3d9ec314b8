package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType names an order integration event.
type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
)

// Event is emitted whenever an order is created or changes status.
type Event struct {
	Type           EventType       `json:"type"`
	OrderID        string          `json:"orderId"`
	UserID         string          `json:"userId"`
	Status         Status          `json:"status"`
	PreviousStatus Status          `json:"previousStatus,omitempty"`
	Total          decimal.Decimal `json:"total"`
	OccurredAt     time.Time       `json:"occurredAt"`
}

// OrderCreated describes a freshly placed order.
func OrderCreated(o *Order) Event {
	return Event{
		Type:       EventOrderCreated,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		Total:      o.Totals.Total(),
		OccurredAt: o.CreatedAt,
	}
}

// StatusChanged describes an applied transition.
func StatusChanged(o *Order, change StatusChange) Event {
	return Event{
		Type:           EventOrderStatusChanged,
		OrderID:        o.ID,
		UserID:         o.UserID,
		Status:         change.To,
		PreviousStatus: change.From,
		Total:          o.Totals.Total(),
		OccurredAt:     change.At,
	}
}
