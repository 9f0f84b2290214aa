package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appOrder "github.com/Zhima-Mochi/eshop-payments/internal/application/order"
	appPayment "github.com/Zhima-Mochi/eshop-payments/internal/application/payment"
	"github.com/Zhima-Mochi/eshop-payments/internal/config"
	domorder "github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/eshop-payments/internal/domain/payment"
	"github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/id"
	"github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/memory"
	obsinfra "github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/rediscache"
	"github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/sqlite"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability"
	"github.com/Zhima-Mochi/eshop-payments/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/eshop-payments/internal/presentation/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	baseLogger, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		LogFile: cfg.LogFile,
		Level:   cfg.LogLevel,
	})
	if err != nil {
		return err
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)
	logger := zaplogger.New(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := oteltrace.Setup(ctx, oteltrace.Options{
		ServiceName: cfg.ServiceName,
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracer_shutdown_error", observability.F("error", err.Error()))
		}
	}()

	counters, histograms := prometrics.Instruments(prometrics.New(prometheus.DefaultRegisterer, "", ""))
	tel := obsinfra.New(oteltrace.New(cfg.ServiceName), logger, counters, histograms)

	orderRepo, paymentRepo, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("storage_ready", observability.F("storage", cfg.Storage))

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = client.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("payment_cache_unreachable",
				observability.F("addr", cfg.RedisAddr),
				observability.F("error", err.Error()),
			)
		}
		cancel()
		paymentRepo = rediscache.NewPaymentRepository(paymentRepo, client, tel,
			rediscache.WithKeyPrefix(cfg.ServiceName),
			rediscache.WithTTL(cfg.PaymentCacheTTL),
		)
		logger.Info("payment_cache_enabled", observability.F("addr", cfg.RedisAddr))
	}

	bus := outbox.NewBus(tel)
	appPayment.NewWorker(bus, tel).Start()
	bus.Start(ctx)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = bus.Stop(drainCtx)
	}()

	idGenerator := id.NewUUIDGenerator()
	paymentOpts := []appPayment.Option{
		appPayment.WithOrderRepository(orderRepo),
		appPayment.WithPublisher(bus),
	}
	if cfg.StrictOrderSettlement {
		paymentOpts = append(paymentOpts, appPayment.WithSettledOrderGuard())
	}
	orderService := appOrder.NewService(orderRepo, idGenerator, tel)
	paymentService := appPayment.NewService(paymentRepo, idGenerator, tel, paymentOpts...)

	handler := httppresentation.NewHandler(orderService, paymentService, tel,
		httppresentation.WithMetricsHandler(promhttp.Handler()),
	)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			logger.Error("http_server_error", observability.F("error", err.Error()))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", observability.F("error", err.Error()))
		return err
	}
	logger.Info("http_server_stopped")
	return nil
}

func openStore(cfg config.Config) (domorder.Repository, dompayment.Repository, func(), error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return sqlite.NewOrderRepository(db), sqlite.NewPaymentRepository(db), func() { _ = db.Close() }, nil
	default:
		return memory.NewOrderRepository(), memory.NewPaymentRepository(), func() {}, nil
	}
}
