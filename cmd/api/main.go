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

	httpadapter "github.com/kirillkom/equipment-intake/internal/adapters/http"
	"github.com/kirillkom/equipment-intake/internal/bootstrap"
	"github.com/kirillkom/equipment-intake/internal/config"
	"github.com/kirillkom/equipment-intake/internal/observability/logging"
	"github.com/kirillkom/equipment-intake/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New(os.Stdout, "api", cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.New(ctx, cfg,
		bootstrap.WithBreakerObserver(httpMetrics.ObserveBreaker),
		bootstrap.WithCacheObserver(httpMetrics),
	)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Normalizer: app.NormalizeUC,
		Catalog:    app.CatalogUC,
		Summarizer: app.FilingUC,
		Readiness:  app.FilingUC,
		Intake:     app.IntakeUC,
	}).WithMetrics(httpMetrics)

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
