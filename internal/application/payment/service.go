package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domorder "github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/eshop-payments/internal/domain/outbox"
	dompay "github.com/Zhima-Mochi/eshop-payments/internal/domain/payment"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability/logctx"
)

const (
	paymentService       = "payment-service"
	spanPrefix           = "UC."
	useCaseAddPayment    = "payment.add"
	useCaseGetPayment    = "payment.get"
	useCaseSetStatus     = "payment.set_status"
	useCaseListPayments  = "payment.list"
	publishPeer          = "outbox"
	endpointRecorded     = "payment.recorded"
	endpointOverridden   = "payment.status_overridden"
	publishTimeout       = 300 * time.Millisecond
	outcomeSuccess       = "success"
	outcomeError         = "error"
	statusOK             = "OK"
	statusNotFound       = "NOT_FOUND"
	statusMethodDeferred = "METHOD_NOT_VALIDATED"
)

var (
	ErrInvalidArgument = errors.New("payment: invalid argument")
	ErrOrderSettled    = errors.New("payment: order already settled")
	ErrRepository      = errors.New("payment: repository failure")

	errNothingStored = errors.New("payment: save returned no payment")
)

type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }

type Option func(*Service)

// WithOrderRepository persists the cascaded order status together with each
// validated payment.
func WithOrderRepository(orders domorder.Repository) Option {
	return func(s *Service) { s.orders = orders }
}

// WithSettledOrderGuard refuses new payments for orders that are already SUCCESS.
func WithSettledOrderGuard() Option {
	return func(s *Service) { s.guardSettled = true }
}

func WithPublisher(publisher domoutbox.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithRegistry(methods *dompay.Registry) Option {
	return func(s *Service) {
		if methods != nil {
			s.methods = methods
		}
	}
}

// Service creates, looks up and administers payments. It keeps no state of
// its own; the repository is the only store.
type Service struct {
	repo         dompay.Repository
	orders       domorder.Repository
	methods      *dompay.Registry
	ids          IDGenerator
	publisher    domoutbox.Publisher
	guardSettled bool

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewService(repo dompay.Repository, ids IDGenerator, tel observability.Observability, opts ...Option) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	if ids == nil {
		ids = uuidGenerator{}
	}
	metrics := tel.Metrics()

	s := &Service{
		repo:         repo,
		methods:      dompay.DefaultRegistry(),
		ids:          ids,
		log:          tel.Logger().With(observability.F("service", paymentService)),
		tracer:       tel.Tracer(),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddPayment builds the payment for method, letting the method's rule decide
// the status and cascade it to o, then stores it. The stored payment returned
// by the repository is what the caller gets back.
func (s *Service) AddPayment(ctx context.Context, o *domorder.Order, method string, data map[string]string) (_ *dompay.Payment, err error) {
	ctx, run := s.begin(ctx, useCaseAddPayment, "AddPayment",
		attribute.String("payment.method", method),
	)
	defer func() { s.end(ctx, run, err) }()

	if o == nil {
		run.fail("ORDER_REQUIRED")
		return nil, dompay.ErrOrderRequired
	}
	run.annotate(observability.F("order_id", o.ID))
	run.span.SetAttributes(attribute.String("order.id", o.ID))

	if s.guardSettled && o.Settled() {
		run.fail("ORDER_SETTLED")
		return nil, fmt.Errorf("%w: %s", ErrOrderSettled, o.ID)
	}

	id := s.ids.NewID()
	prevOrder := o.Status
	var p *dompay.Payment
	m, validated := s.methods.Lookup(method)
	if validated {
		p, err = dompay.Create(id, o, data, m)
	} else {
		p, err = dompay.New(id, method, o, data)
		run.statusText = statusMethodDeferred
	}
	if err != nil {
		run.fail("PAYMENT_CONSTRUCTION_FAILED")
		return nil, fmt.Errorf("payment: construct: %w", err)
	}

	// The order is written first so that a failed order write leaves no
	// payment behind. A failed payment write reverts the order again.
	cascade := validated && s.orders != nil
	if cascade {
		if err := s.orders.Update(ctx, o); err != nil {
			o.Status = prevOrder
			run.fail("ORDER_UPDATE_FAILED")
			return nil, fmt.Errorf("payment: update order: %w", err)
		}
	}

	stored, err := s.repo.Save(ctx, p)
	if err == nil && stored == nil {
		err = errNothingStored
	}
	if err != nil {
		o.Status = prevOrder
		if cascade {
			s.revertOrder(ctx, run, o)
		}
		run.fail("REPO_SAVE_FAILED")
		return nil, wrapRepositoryError(err)
	}

	run.annotate(
		observability.F("payment_id", stored.ID),
		observability.F("payment_status", string(stored.Status)),
		observability.F("order_status", string(o.Status)),
	)
	run.span.SetAttributes(
		attribute.String("payment.id", stored.ID),
		attribute.String("payment.status", string(stored.Status)),
		attribute.String("order.status", string(o.Status)),
	)
	run.span.AddEvent("payment.recorded")

	s.publish(ctx, run, endpointRecorded, dompay.NewRecordedEvent(stored))
	return stored, nil
}

// GetPayment returns nil without an error when no payment has the id.
func (s *Service) GetPayment(ctx context.Context, id string) (_ *dompay.Payment, err error) {
	ctx, run := s.begin(ctx, useCaseGetPayment, "GetPayment",
		attribute.String("payment.id", id),
	)
	defer func() { s.end(ctx, run, err) }()
	run.annotate(observability.F("payment_id", id))

	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, dompay.ErrNotFound) {
		run.statusText = statusNotFound
		return nil, nil
	}
	if err != nil {
		run.fail("REPO_FIND_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return p, nil
}

// SetStatus is an administrative override. It changes p in place and does
// not touch p's order; an unknown status is rejected without mutation.
func (s *Service) SetStatus(ctx context.Context, p *dompay.Payment, status string) (err error) {
	ctx, run := s.begin(ctx, useCaseSetStatus, "SetStatus",
		attribute.String("payment.status_requested", status),
	)
	defer func() { s.end(ctx, run, err) }()

	if p == nil {
		run.fail("PAYMENT_REQUIRED")
		return fmt.Errorf("%w: payment is required", ErrInvalidArgument)
	}
	run.annotate(
		observability.F("payment_id", p.ID),
		observability.F("requested_status", status),
	)

	next, err := dompay.ParseStatus(status)
	if err != nil {
		run.fail("STATUS_INVALID")
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	prev := p.Status
	p.Status = next
	if _, err := s.repo.Save(ctx, p); err != nil {
		p.Status = prev
		run.fail("REPO_SAVE_FAILED")
		return wrapRepositoryError(err)
	}

	run.annotate(observability.F("previous_status", string(prev)))
	s.publish(ctx, run, endpointOverridden, dompay.NewStatusOverriddenEvent(p, prev))
	return nil
}

// GetAllPayments returns every stored payment in repository order.
func (s *Service) GetAllPayments(ctx context.Context) (_ []*dompay.Payment, err error) {
	ctx, run := s.begin(ctx, useCaseListPayments, "GetAllPayments")
	defer func() { s.end(ctx, run, err) }()

	payments, err := s.repo.GetAllPayments(ctx)
	if err != nil {
		run.fail("REPO_LIST_FAILED")
		return nil, wrapRepositoryError(err)
	}
	run.annotate(observability.F("count", len(payments)))
	return payments, nil
}

// Methods lists the payment methods this service validates.
func (s *Service) Methods() []string {
	return s.methods.Methods()
}

// revertOrder puts back the order status written before a payment save failed.
func (s *Service) revertOrder(ctx context.Context, r *run, o *domorder.Order) {
	if err := s.orders.Update(ctx, o); err != nil {
		r.span.RecordError(err)
		r.logger.Error("order_revert_failed",
			observability.F("order_id", o.ID),
			observability.F("order_status", string(o.Status)),
			observability.F("error", err.Error()),
		)
	}
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}

// run carries the per-call instrumentation state between begin and end.
type run struct {
	useCase    string
	start      time.Time
	span       trace.Span
	logger     observability.Logger
	outcome    string
	statusText string
	fields     []observability.Field
}

func (r *run) fail(statusText string) {
	r.outcome, r.statusText = outcomeError, statusText
}

func (r *run) annotate(fields ...observability.Field) {
	r.fields = append(r.fields, fields...)
}

func (s *Service) begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *run) {
	attrs = append(attrs, attribute.String("use_case", useCase))
	ctx, span := s.tracer.Start(ctx, spanPrefix+spanName, attrs...)
	return ctx, &run{
		useCase:    useCase,
		start:      time.Now(),
		span:       span,
		logger:     logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCase)),
		outcome:    outcomeSuccess,
		statusText: statusOK,
	}
}

func (s *Service) end(ctx context.Context, r *run, err error) {
	latency := time.Since(r.start).Seconds()

	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, r.statusText)
		} else {
			r.span.SetStatus(codes.Ok, r.statusText)
		}
		r.span.End()
	}

	s.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.outcome),
	)
	s.durHistogram.Observe(latency,
		observability.L("use_case", r.useCase),
	)

	fields := []observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.statusText),
		observability.F("latency_seconds", latency),
	}
	fields = append(fields, r.fields...)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}

	r.logger.Info("use_case_done", fields...)
}

// publish is best effort: a failed publish is logged and traced but never
// fails the operation that produced the event.
func (s *Service) publish(ctx context.Context, r *run, endpoint string, event domoutbox.Event) {
	if s.publisher == nil || event == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	start := time.Now()
	err := s.publisher.Publish(pubCtx, event)
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	} else if pubCtx.Err() != nil {
		outcome = "canceled"
		err = pubCtx.Err()
	}
	cancel()

	s.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	s.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
	)

	if err != nil {
		r.span.RecordError(err)
		r.annotate(observability.F("event_publish_error", err.Error()))
	}
}
