package zaplogger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability"
)

func TestLoggerCarriesFixedAndBoundFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zaplogger.New(zap.New(core), observability.F("component", "test"))

	log.With(observability.F("payment_id", "p-1")).Info("use_case_done",
		observability.F("outcome", "success"),
		observability.F("error", errors.New("boom")),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "use_case_done", entries[0].Message)
	assert.Equal(t, "test", fields["component"])
	assert.Equal(t, "p-1", fields["payment_id"])
	assert.Equal(t, "success", fields["outcome"])
	assert.Equal(t, "boom", fields["error"])
}
