package order

import (
	"errors"
	"slices"

	"github.com/Zhima-Mochi/eshop-payments/internal/domain/product"
)

var (
	ErrNotFound   = errors.New("order: not found")
	ErrConflict   = errors.New("order: already exists")
	ErrIDRequired = errors.New("order: id is required")
	ErrNoProducts = errors.New("order: at least one product is required")
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

type Order struct {
	ID        string
	Products  []product.Product
	OrderTime int64
	Author    string
	Status    Status
}

// New builds a pending order. Products are copied so the order owns its line items.
func New(id string, products []product.Product, orderTime int64, author string) (*Order, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	return &Order{
		ID:        id,
		Products:  slices.Clone(products),
		OrderTime: orderTime,
		Author:    author,
		Status:    StatusPending,
	}, nil
}

// ApplyPaymentOutcome is the payment cascade: a successful payment settles the
// order, anything else fails it. Later payments overwrite earlier outcomes.
func (o *Order) ApplyPaymentOutcome(succeeded bool) {
	if succeeded {
		o.Status = StatusSuccess
		return
	}
	o.Status = StatusFailed
}

func (o *Order) Settled() bool { return o.Status == StatusSuccess }

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Products = slices.Clone(o.Products)
	return &clone
}
