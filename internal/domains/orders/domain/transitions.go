package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition matches any *InvalidTransitionError.
var ErrInvalidTransition = errors.New("invalid order status transition")

// InvalidTransitionError reports an edge absent from the lifecycle graph.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// StatusChange is the complete, fixed set of fields one transition writes.
// A nil timestamp leaves the corresponding flag untouched.
type StatusChange struct {
	From        Status
	To          Status
	At          time.Time
	PaidAt      *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
}

func markPaid(now time.Time) StatusChange {
	return StatusChange{From: StatusPending, To: StatusProcessing, At: now, PaidAt: &now}
}

func markShipped(now time.Time) StatusChange {
	return StatusChange{From: StatusProcessing, To: StatusShipped, At: now, ShippedAt: &now}
}

func markDelivered(now time.Time) StatusChange {
	return StatusChange{From: StatusShipped, To: StatusDelivered, At: now, DeliveredAt: &now}
}

func cancelFrom(from Status) func(time.Time) StatusChange {
	return func(now time.Time) StatusChange {
		return StatusChange{From: from, To: StatusCancelled, At: now}
	}
}

// transitions is the whole lifecycle graph. Shipped orders cannot be cancelled.
var transitions = map[Status]map[Status]func(time.Time) StatusChange{
	StatusPending: {
		StatusProcessing: markPaid,
		StatusCancelled:  cancelFrom(StatusPending),
	},
	StatusProcessing: {
		StatusShipped:   markShipped,
		StatusCancelled: cancelFrom(StatusProcessing),
	},
	StatusShipped: {
		StatusDelivered: markDelivered,
	},
}

// PlanTransition returns the field update for from -> to, or an InvalidTransitionError.
func PlanTransition(from, to Status, now time.Time) (StatusChange, error) {
	next, ok := transitions[from][to]
	if !ok {
		return StatusChange{}, &InvalidTransitionError{From: from, To: to}
	}
	return next(now), nil
}

// Apply writes change onto the order. The order must still be in change.From.
func (o *Order) Apply(change StatusChange) error {
	if o.Status != change.From {
		return &InvalidTransitionError{From: o.Status, To: change.To}
	}
	o.Status = change.To
	if change.PaidAt != nil {
		o.IsPaid = true
		o.PaidAt = cloneTime(change.PaidAt)
	}
	if change.ShippedAt != nil {
		o.IsShipped = true
		o.ShippedAt = cloneTime(change.ShippedAt)
	}
	if change.DeliveredAt != nil {
		o.IsDelivered = true
		o.DeliveredAt = cloneTime(change.DeliveredAt)
	}
	o.UpdatedAt = change.At
	return nil
}

// TransitionTo plans and applies a move to target. The order is unchanged on error.
func (o *Order) TransitionTo(target Status, now time.Time) (StatusChange, error) {
	change, err := PlanTransition(o.Status, target, now)
	if err != nil {
		return StatusChange{}, err
	}
	if err := o.Apply(change); err != nil {
		return StatusChange{}, err
	}
	return change, nil
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// PaymentSettled reports whether the order has already been moved past pending by a payment.
func (s Status) PaymentSettled() bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered:
		return true
	default:
		return false
	}
}
