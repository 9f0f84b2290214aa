package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/eshop-payments/internal/pkg/logging"
)

func TestNewLoggerWritesToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")

	logger, err := logging.NewLogger(logging.Options{Service: "eshop-payments", Env: "test", LogFile: path})
	require.NoError(t, err)

	logger.Info("hello")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"hello"`)
	assert.Contains(t, string(raw), `"service":"eshop-payments"`)
	assert.Contains(t, string(raw), `"env":"test"`)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := logging.NewLogger(logging.Options{Service: "svc", Level: "loud"})
	require.Error(t, err)
}
