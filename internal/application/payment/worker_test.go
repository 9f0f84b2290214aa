package payment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apppayment "github.com/Zhima-Mochi/eshop-payments/internal/application/payment"
	"github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/eshop-payments/internal/domain/outbox"
	"github.com/Zhima-Mochi/eshop-payments/internal/domain/payment"
	obsinfra "github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability"
)

type handlerSet map[string][]domoutbox.Handler

func (h handlerSet) Subscribe(name string, fn domoutbox.Handler) { h[name] = append(h[name], fn) }

func newWorker(t *testing.T) (handlerSet, *countingCounter) {
	t.Helper()
	outcomes := &countingCounter{}
	tel := obsinfra.New(nil, nil,
		map[observability.MetricKey]observability.Counter{observability.MPaymentOutcomes: outcomes},
		nil,
	)
	subs := handlerSet{}
	apppayment.NewWorker(subs, tel).Start()
	return subs, outcomes
}

func TestWorkerSubscribesToPaymentEvents(t *testing.T) {
	subs, _ := newWorker(t)

	assert.Len(t, subs["payment.recorded"], 1)
	assert.Len(t, subs["payment.status_overridden"], 1)
}

func TestWorkerCountsOutcomes(t *testing.T) {
	subs, outcomes := newWorker(t)
	ctx := context.Background()

	require.NoError(t, subs["payment.recorded"][0](ctx, payment.RecordedEvent{
		PaymentID: "p-1", OrderID: "o-1", Method: payment.MethodCOD,
		Status: payment.StatusSuccess, OrderStatus: order.StatusSuccess,
	}))
	require.NoError(t, subs["payment.status_overridden"][0](ctx, payment.StatusOverriddenEvent{
		PaymentID: "p-1", Method: payment.MethodCOD,
		From: payment.StatusSuccess, To: payment.StatusRejected,
	}))

	require.Len(t, outcomes.labels, 2)
	assert.Equal(t, []observability.Label{
		observability.L("method", payment.MethodCOD),
		observability.L("status", "SUCCESS"),
	}, outcomes.labels[0])
	assert.Equal(t, []observability.Label{
		observability.L("method", payment.MethodCOD),
		observability.L("status", "REJECTED"),
	}, outcomes.labels[1])
}

type unrelated struct{}

func (unrelated) EventName() string { return "payment.recorded" }

func TestWorkerIgnoresForeignPayloads(t *testing.T) {
	subs, outcomes := newWorker(t)

	require.NoError(t, subs["payment.recorded"][0](context.Background(), unrelated{}))
	assert.Empty(t, outcomes.labels)
}

func TestWorkerReceivesServiceEventsThroughBus(t *testing.T) {
	outcomes := &countingCounter{}
	tel := obsinfra.New(nil, nil,
		map[observability.MetricKey]observability.Counter{observability.MPaymentOutcomes: outcomes},
		nil,
	)
	bus := outbox.NewBus(tel)
	apppayment.NewWorker(bus, tel).Start()
	bus.Start(context.Background())

	svc := apppayment.NewService(newFakeRepo(), nil, tel, apppayment.WithPublisher(bus))
	_, err := svc.AddPayment(context.Background(), newOrder(t), payment.MethodVoucher,
		map[string]string{payment.KeyVoucherCode: validVoucher})
	require.NoError(t, err)
	require.NoError(t, bus.Stop(context.Background()))

	outcomes.mu.Lock()
	defer outcomes.mu.Unlock()
	require.Len(t, outcomes.labels, 1)
	assert.Contains(t, outcomes.labels[0], observability.L("status", "SUCCESS"))
}
