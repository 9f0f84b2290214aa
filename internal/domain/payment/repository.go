package payment

import "context"

// Repository is the persistence boundary for payments.
// FindByID reports a missing payment with ErrNotFound.
type Repository interface {
	Save(ctx context.Context, p *Payment) (*Payment, error)
	FindByID(ctx context.Context, id string) (*Payment, error)
	GetAllPayments(ctx context.Context) ([]*Payment, error)
}
