package oteltrace_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/observability/oteltrace"
)

func TestFromProviderRecordsAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	tr := oteltrace.FromProvider(tp, "")
	_, span := tr.Start(context.Background(), "UC.AddPayment", attribute.String("payment.method", "COD"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "UC.AddPayment", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("payment.method", "COD"))
}

func TestSetupInstallsGlobalProvider(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	shutdown, err := oteltrace.Setup(context.Background(), oteltrace.Options{
		ServiceName: "eshop-payments-test",
		Env:         "test",
		Processors:  []sdktrace.SpanProcessor{recorder},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	_, span := oteltrace.New("test").Start(context.Background(), "probe")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Resource().Attributes(), attribute.String("service.name", "eshop-payments-test"))
}
