package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/eshop-payments/internal/config"
)

var keys = []string{
	"SERVICE_NAME", "ENV", "HTTP_ADDR", "LOG_FILE", "LOG_LEVEL", "STORAGE", "SQLITE_PATH",
	"REDIS_ADDR", "PAYMENT_CACHE_TTL", "SHUTDOWN_TIMEOUT", "STRICT_ORDER_SETTLEMENT",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
}

// clearEnv blanks every key so the host environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.FromEnv()

	require.NoError(t, err)
	assert.Equal(t, "eshop-payments", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, config.StorageMemory, cfg.Storage)
	assert.Equal(t, "eshop.db", cfg.SQLitePath)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 5*time.Minute, cfg.PaymentCacheTTL)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.StrictOrderSettlement)
}

func TestOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE", "sqlite")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("PAYMENT_CACHE_TTL", "30s")
	t.Setenv("STRICT_ORDER_SETTLEMENT", "true")

	cfg, err := config.FromEnv()

	require.NoError(t, err)
	assert.Equal(t, config.StorageSQLite, cfg.Storage)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.PaymentCacheTTL)
	assert.True(t, cfg.StrictOrderSettlement)
}

func TestInvalidValues(t *testing.T) {
	tests := map[string]string{
		"STORAGE":                 "postgres",
		"PAYMENT_CACHE_TTL":       "soon",
		"SHUTDOWN_TIMEOUT":        "-1s",
		"STRICT_ORDER_SETTLEMENT": "maybe",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := config.FromEnv()
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestLoadReadsDotenvWithoutOverriding(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("SERVICE_NAME")
	os.Unsetenv("HTTP_ADDR")
	t.Setenv("ENV", "prod")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERVICE_NAME=from-file\nENV=staging\nHTTP_ADDR=:9090\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ServiceName)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, ":9090", cfg.HTTPAddr)

	_, err = config.Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
