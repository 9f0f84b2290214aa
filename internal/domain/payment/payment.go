package payment

import (
	"errors"
	"fmt"
	"maps"

	"github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
)

var (
	ErrNotFound       = errors.New("payment: not found")
	ErrIDRequired     = errors.New("payment: id is required")
	ErrOrderRequired  = errors.New("payment: order is required")
	ErrDataRequired   = errors.New("payment: payment data is required")
	ErrMethodRequired = errors.New("payment: method is required")
	ErrInvalidStatus  = errors.New("payment: invalid status")
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSuccess  Status = "SUCCESS"
	StatusRejected Status = "REJECTED"
)

// ParseStatus accepts only the canonical, case-sensitive status values.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusSuccess, StatusRejected:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Payment references the order it pays for; the order is shared, not owned.
type Payment struct {
	ID     string
	Method string
	Order  *order.Order
	Data   map[string]string
	Status Status
}

// New builds a generic payment that has not been through method validation.
// Its status is PENDING and the order is left untouched.
func New(id, method string, o *order.Order, data map[string]string) (*Payment, error) {
	switch {
	case id == "":
		return nil, ErrIDRequired
	case method == "":
		return nil, ErrMethodRequired
	case o == nil:
		return nil, ErrOrderRequired
	case data == nil:
		return nil, ErrDataRequired
	}

	return &Payment{
		ID:     id,
		Method: method,
		Order:  o,
		Data:   maps.Clone(data),
		Status: StatusPending,
	}, nil
}

// Create builds a method-specific payment. The status is derived from m's
// validation rule and cascaded to the order before Create returns.
func Create(id string, o *order.Order, data map[string]string, m Method) (*Payment, error) {
	if m == nil {
		return nil, ErrMethodRequired
	}
	p, err := New(id, m.Name(), o, data)
	if err != nil {
		return nil, err
	}

	p.Status = StatusRejected
	if m.Validate(p.Data) {
		p.Status = StatusSuccess
	}
	o.ApplyPaymentOutcome(p.Status == StatusSuccess)

	return p, nil
}

func (p *Payment) OrderID() string {
	if p.Order == nil {
		return ""
	}
	return p.Order.ID
}

// Clone copies the payment and its data. The order reference stays shared.
func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Data = maps.Clone(p.Data)
	return &clone
}
