package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/eshop-payments/internal/domain/payment"
)

// PaymentRepository keeps payments in insertion order. Saving an existing id
// replaces it in place.
type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
	order    []string
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

func (r *PaymentRepository) Save(_ context.Context, p *domain.Payment) (*domain.Payment, error) {
	if p == nil || p.ID == "" {
		return nil, fmt.Errorf("payment repository: %w", domain.ErrIDRequired)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[p.ID]; !exists {
		r.order = append(r.order, p.ID)
	}
	r.payments[p.ID] = p.Clone()
	return p.Clone(), nil
}

func (r *PaymentRepository) FindByID(_ context.Context, id string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *PaymentRepository) GetAllPayments(_ context.Context) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Payment, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.payments[id].Clone())
	}
	return out, nil
}
