package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	LogFile     string
	LogLevel    string

	Storage    string
	SQLitePath string
	// RedisAddr enables the payment cache when set.
	RedisAddr       string
	PaymentCacheTTL time.Duration

	// StrictOrderSettlement refuses payments for orders that already succeeded.
	StrictOrderSettlement bool

	OTLPEndpoint    string
	ShutdownTimeout time.Duration
}

// Load reads the given dotenv files (".env" when none are named) into the
// process environment without overriding it, then builds the Config. A missing
// file is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		ServiceName:  getenvDefault("SERVICE_NAME", "eshop-payments"),
		Env:          getenvDefault("ENV", "dev"),
		HTTPAddr:     getenvDefault("HTTP_ADDR", ":8080"),
		LogFile:      os.Getenv("LOG_FILE"),
		LogLevel:     getenvDefault("LOG_LEVEL", "info"),
		Storage:      getenvDefault("STORAGE", StorageMemory),
		SQLitePath:   getenvDefault("SQLITE_PATH", "eshop.db"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.PaymentCacheTTL, err = durationEnv("PAYMENT_CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.StrictOrderSettlement, err = boolEnv("STRICT_ORDER_SETTLEMENT", false); err != nil {
		return Config{}, err
	}

	switch cfg.Storage {
	case StorageMemory, StorageSQLite:
	default:
		return Config{}, fmt.Errorf("config: STORAGE must be %q or %q, got %q", StorageMemory, StorageSQLite, cfg.Storage)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", key, v)
	}
	return d, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}
