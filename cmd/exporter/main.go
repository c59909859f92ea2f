package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/V4T54L/dcache-billing-exporter/internal/adapter/api"
	"github.com/V4T54L/dcache-billing-exporter/internal/adapter/billing"
	"github.com/V4T54L/dcache-billing-exporter/internal/adapter/metrics"
	"github.com/V4T54L/dcache-billing-exporter/internal/adapter/normalizer"
	"github.com/V4T54L/dcache-billing-exporter/internal/adapter/repository/kafka"
	"github.com/V4T54L/dcache-billing-exporter/internal/domain"
	"github.com/V4T54L/dcache-billing-exporter/internal/pkg/config"
	"github.com/V4T54L/dcache-billing-exporter/internal/pkg/logger"
	"github.com/V4T54L/dcache-billing-exporter/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("starting billing exporter", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroup, "brokers", cfg.KafkaBrokers)

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Event Source ---
	var tlsConfig *tls.Config
	if cfg.KafkaTLS {
		tlsConfig, err = kafka.NewTLSConfig(cfg.KafkaCA, cfg.KafkaClientCert, cfg.KafkaClientKey)
		if err != nil {
			logger.Error("failed to load kafka TLS material", "error", err)
			os.Exit(1)
		}
	}
	source := kafka.NewBillingSource(kafka.SourceConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
		Group:   cfg.KafkaGroup,
		TLS:     tlsConfig,
	}, logger)

	err = run(ctx, cfg, logger, source)
	if cerr := source.Close(); cerr != nil {
		logger.Warn("failed to close kafka reader", "error", cerr)
	}
	if err != nil {
		logger.Error("billing exporter failed", "error", err)
		os.Exit(1)
	}
	logger.Info("billing exporter shut down gracefully")
}

// run serves the metrics endpoint and consumes source until ctx is
// cancelled. A failure of either the consumer or the metrics server stops
// both and is returned.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, source domain.BillingSource) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	billingMetrics := metrics.NewBillingMetrics(registry, cfg.MetricPrefix, cfg.EnableMessageCount)

	// --- Use Cases ---
	decoder, err := billing.NewDecoder()
	if err != nil {
		return fmt.Errorf("failed to initialize billing decoder: %w", err)
	}
	var norm *normalizer.Normalizer
	if cfg.EnableMessageCount {
		norm = normalizer.New()
	}
	recordUseCase := usecase.NewRecordBillingUseCase(
		decoder,
		billingMetrics,
		norm,
		cfg.ShortenedCellNames,
		logger,
		rate.NewLimiter(rate.Limit(cfg.DecodeLogRate), cfg.DecodeLogBurst),
	)
	consumeUseCase := usecase.NewConsumeBillingUseCase(source, recordUseCase, logger)

	metricsServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(registry, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting metrics server", "addr", metricsServer.Addr)
		err := metricsServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("metrics server failed: %w", err)
			cancel() // Stop the consumer on server error
			return
		}
		serverErr <- nil
	}()

	consumeErr := consumeUseCase.Run(ctx)

	// --- Shutdown ---
	logger.Info("shutting down metrics server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", "error", err)
	}

	return errors.Join(consumeErr, <-serverErr)
}
