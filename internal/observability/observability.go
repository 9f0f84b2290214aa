package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the three signals every service and adapter receives.
// Callers hold only these ports; the vendors live in infrastructure.
type Observability interface {
	Tracer() Tracer
	Logger() Logger
	Metrics() Metrics
}

// MetricKey names one of the instruments registered at startup.
type MetricKey string

// Metrics hands out instruments by key. Unknown keys yield no-op instruments.
type Metrics interface {
	Counter(key MetricKey) Counter
	Histogram(key MetricKey) Histogram
}

type Tracer interface {
	Start(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

// Label is a metric dimension. Label keys must match the ones the
// instrument was registered with.
type Label struct{ Key, Value string }

func L(key, value string) Label { return Label{Key: key, Value: value} }

type Counter interface {
	Add(delta float64, labels ...Label)
}

type Histogram interface {
	Observe(value float64, labels ...Label)
}

// Field is one structured log attribute.
type Field struct {
	Key   string
	Value any
}

func F(key string, value any) Field { return Field{Key: key, Value: value} }

// Logger writes structured events; With returns a child carrying fields on
// every entry.
type Logger interface {
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}
