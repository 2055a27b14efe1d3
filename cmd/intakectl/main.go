package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kirillkom/equipment-intake/internal/bootstrap"
	"github.com/kirillkom/equipment-intake/internal/config"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
	"github.com/kirillkom/equipment-intake/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New(os.Stderr, "intakectl", cfg.LogLevel, "text"))

	root := newRootCmd(func(ctx context.Context) (ports.CatalogStore, func(), error) {
		app, err := bootstrap.New(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return app.Catalog, app.Close, nil
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
