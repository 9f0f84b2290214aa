package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
	"github.com/Zhima-Mochi/eshop-payments/internal/domain/product"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability/logctx"
)

const (
	orderService       = "order-service"
	useCaseOrderCreate = "order.create"
	useCaseOrderGet    = "order.get"
	spanPrefix         = "UC."
)

var (
	ErrInvalidInput = errors.New("order: invalid input")
	ErrNotFound     = domain.ErrNotFound
	ErrRepository   = errors.New("order: repository failure")
)

type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }

type ProductInput struct {
	ID       string
	Name     string
	Quantity int
}

type CreateOrderInput struct {
	Author string
	// OrderTime is epoch seconds; zero means now.
	OrderTime int64
	Products  []ProductInput
}

// CreateOrderUseCase encapsulates the order creation workflow with observability hooks.
type CreateOrderUseCase struct {
	repo        domain.Repository
	idGenerator IDGenerator
	now         func() time.Time

	tracer       observability.Tracer
	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewCreateOrderUseCase(repo domain.Repository, idGen IDGenerator, tel observability.Observability) *CreateOrderUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	if idGen == nil {
		idGen = uuidGenerator{}
	}
	metrics := tel.Metrics()

	return &CreateOrderUseCase{
		repo:         repo,
		idGenerator:  idGen,
		now:          time.Now,
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", orderService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
	}
}

// Execute validates the line items, assigns an id and stores a pending order.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *domain.Order, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseOrderCreate))

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"CreateOrder",
		attribute.String("use_case", useCaseOrderCreate),
		attribute.String("order.author", cmd.Author),
		attribute.Int("order.products", len(cmd.Products)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var orderID string

	defer func() {
		lat := time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseOrderCreate),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseOrderCreate),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if orderID != "" {
			fields = append(fields, observability.F("order_id", orderID))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	if len(cmd.Products) == 0 {
		outcome, statusText = "error", "PRODUCTS_REQUIRED"
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrNoProducts)
	}
	products := make([]product.Product, 0, len(cmd.Products))
	for _, in := range cmd.Products {
		p, perr := product.New(in.ID, in.Name, in.Quantity)
		if perr != nil {
			outcome, statusText = "error", "PRODUCT_INVALID"
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, perr)
		}
		products = append(products, p)
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	orderTime := cmd.OrderTime
	if orderTime == 0 {
		orderTime = uc.now().Unix()
	}

	orderID = uc.idGenerator.NewID()
	entity, derr := domain.New(orderID, products, orderTime, cmd.Author)
	if derr != nil {
		outcome, statusText = "error", "DOMAIN_CONSTRUCTION_FAILED"
		return nil, fmt.Errorf("order: construct: %w", derr)
	}
	if err := uc.repo.Save(ctx, entity); err != nil {
		outcome, statusText = "error", "REPO_SAVE_FAILED"
		return nil, wrapRepositoryError(err)
	}

	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status", string(entity.Status)),
	)
	span.AddEvent("order.created")
	return entity, nil
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
