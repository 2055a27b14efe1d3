package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/equipment-intake/internal/bootstrap"
	"github.com/kirillkom/equipment-intake/internal/config"
	"github.com/kirillkom/equipment-intake/internal/observability/logging"
	"github.com/kirillkom/equipment-intake/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New(os.Stdout, workerService, cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(workerService)
	app, err := bootstrap.New(ctx, cfg,
		bootstrap.WithQueue(),
		bootstrap.WithBreakerObserver(workerMetrics.ObserveBreaker),
	)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	handler := &intakeHandler{
		processor: app.IntakeUC,
		publisher: app.Queue,
		metrics:   workerMetrics,
		timeout:   5 * time.Minute,
		now:       time.Now,
	}

	slog.Info("worker_subscribed", "subject", cfg.NATSReadingsSubject, "results_subject", cfg.NATSResultsSubject)
	if err := app.Queue.SubscribeIntakeRequests(ctx, handler.handle); err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
