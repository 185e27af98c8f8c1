// Package main runs one FLAM to Shopify stock sync and exits. It is meant to
// be started by a scheduler; the exit code reports whether the run happened.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairyhunter13/flam-stock-sync/internal/config"
	"github.com/fairyhunter13/flam-stock-sync/internal/obs"
	"github.com/fairyhunter13/flam-stock-sync/internal/runner"
	"github.com/fairyhunter13/flam-stock-sync/internal/storefront"
	"github.com/fairyhunter13/flam-stock-sync/internal/supplier"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	cfg := config.Load()
	obs.InitLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		obs.Logger.Error("config_missing", "error", err)
		return runner.ExitCode(err)
	}

	sup, err := supplier.NewClient(cfg)
	if err != nil {
		obs.Logger.Error("supplier_client_init", "error", err)
		return runner.ExitSupplierError
	}
	metrics := obs.NewMetrics()
	_, runErr := runner.New(cfg, sup, storefront.NewClient(cfg), metrics).Run(ctx)

	pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metrics.Push(pushCtx, cfg.PushgatewayURL, &http.Client{Timeout: cfg.HTTPTimeout}); err != nil {
		obs.Logger.Warn("metrics_push_failed", "error", err)
	}
	return runner.ExitCode(runErr)
}
