package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/eshop-payments/internal/application"
	domain "github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability/logctx"
)

var _ application.UseCase[CreateOrderInput, *domain.Order] = (*CreateOrderUseCase)(nil)

// Service is the order facade used by the transport layer.
type Service struct {
	repo   domain.Repository
	create application.UseCase[CreateOrderInput, *domain.Order]
	log    observability.Logger
}

func NewService(repo domain.Repository, idGen IDGenerator, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		repo:   repo,
		create: NewCreateOrderUseCase(repo, idGen, tel),
		log:    tel.Logger().With(observability.F("service", orderService)),
	}
}

func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	return s.create.Execute(ctx, input)
}

// Get returns ErrNotFound when no order has the id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrIDRequired)
	}
	o, err := s.repo.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		logctx.FromOr(ctx, s.log).Error("order_load_failed",
			observability.F("use_case", useCaseOrderGet),
			observability.F("order_id", id),
			observability.F("error", err.Error()),
		)
		return nil, wrapRepositoryError(err)
	}
	return o, nil
}
