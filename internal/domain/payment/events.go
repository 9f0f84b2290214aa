package payment

import (
	"time"

	"github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
)

// RecordedEvent is emitted once a new payment has been validated and stored.
type RecordedEvent struct {
	PaymentID   string
	OrderID     string
	Method      string
	Status      Status
	OrderStatus order.Status
	OccurredAt  time.Time
}

func (RecordedEvent) EventName() string { return "payment.recorded" }

func NewRecordedEvent(p *Payment) RecordedEvent {
	e := RecordedEvent{
		PaymentID:  p.ID,
		OrderID:    p.OrderID(),
		Method:     p.Method,
		Status:     p.Status,
		OccurredAt: time.Now().UTC(),
	}
	if p.Order != nil {
		e.OrderStatus = p.Order.Status
	}
	return e
}

// StatusOverriddenEvent is emitted when a payment status is changed administratively.
type StatusOverriddenEvent struct {
	PaymentID  string
	Method     string
	From       Status
	To         Status
	OccurredAt time.Time
}

func (StatusOverriddenEvent) EventName() string { return "payment.status_overridden" }

func NewStatusOverriddenEvent(p *Payment, from Status) StatusOverriddenEvent {
	return StatusOverriddenEvent{
		PaymentID:  p.ID,
		Method:     p.Method,
		From:       from,
		To:         p.Status,
		OccurredAt: time.Now().UTC(),
	}
}
