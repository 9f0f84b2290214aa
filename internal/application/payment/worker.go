package payment

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/eshop-payments/internal/domain/outbox"
	dompay "github.com/Zhima-Mochi/eshop-payments/internal/domain/payment"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability/logctx"
)

const workerService = "payment-worker"

// Worker turns payment events into outcome metrics and audit logs.
type Worker struct {
	subscriber domoutbox.Subscriber
	tracer     observability.Tracer

	log          observability.Logger
	outcomes     observability.Counter   // payment_outcomes_total{method,status}
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewWorker(subscriber domoutbox.Subscriber, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &Worker{
		subscriber:   subscriber,
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", workerService)),
		outcomes:     metrics.Counter(observability.MPaymentOutcomes),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(dompay.RecordedEvent{}.EventName(), w.handleRecorded)
	w.subscriber.Subscribe(dompay.StatusOverriddenEvent{}.EventName(), w.handleStatusOverridden)
}

func (w *Worker) handleRecorded(ctx context.Context, e domoutbox.Event) error {
	const useCase = "payment.worker.recorded"
	evt, ok := e.(dompay.RecordedEvent)
	if !ok {
		w.count(useCase, "ignored")
		return nil
	}

	ctx, logger, done := w.begin(ctx, useCase, "PaymentRecorded", e.EventName())
	defer done()

	w.outcomes.Add(1,
		observability.L("method", evt.Method),
		observability.L("status", string(evt.Status)),
	)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("payment.id", evt.PaymentID),
		attribute.String("order.id", evt.OrderID),
	)
	logger.Info("payment_recorded",
		observability.F("payment_id", evt.PaymentID),
		observability.F("order_id", evt.OrderID),
		observability.F("method", evt.Method),
		observability.F("payment_status", string(evt.Status)),
		observability.F("order_status", string(evt.OrderStatus)),
	)
	return nil
}

func (w *Worker) handleStatusOverridden(ctx context.Context, e domoutbox.Event) error {
	const useCase = "payment.worker.status_overridden"
	evt, ok := e.(dompay.StatusOverriddenEvent)
	if !ok {
		w.count(useCase, "ignored")
		return nil
	}

	ctx, logger, done := w.begin(ctx, useCase, "PaymentStatusOverridden", e.EventName())
	defer done()

	w.outcomes.Add(1,
		observability.L("method", evt.Method),
		observability.L("status", string(evt.To)),
	)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("payment.id", evt.PaymentID))
	logger.Warn("payment_status_overridden",
		observability.F("payment_id", evt.PaymentID),
		observability.F("from", string(evt.From)),
		observability.F("to", string(evt.To)),
	)
	return nil
}

// begin opens the handler span and binds a request-scoped logger. The returned
// func records RED metrics and closes the span.
func (w *Worker) begin(ctx context.Context, useCase, spanName, event string) (context.Context, observability.Logger, func()) {
	ctx, span := w.tracer.Start(ctx, spanPrefix+spanName,
		attribute.String("use_case", useCase),
		attribute.String("event", event),
	)
	start := time.Now()

	ctx, logger := logctx.WithFields(ctx, w.log,
		observability.F("use_case", useCase),
		observability.F("event", event),
	)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		ctx, logger = logctx.WithFields(ctx, logger,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}

	return ctx, logger, func() {
		w.observe(useCase, outcomeSuccess, time.Since(start).Seconds())
		span.SetStatus(codes.Ok, statusOK)
		span.End()
	}
}

func (w *Worker) count(useCase, outcome string) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
}

func (w *Worker) observe(useCase, outcome string, latencySeconds float64) {
	w.count(useCase, outcome)
	w.durHistogram.Observe(latencySeconds,
		observability.L("use_case", useCase),
	)
}
