// Package main boots the simulator: a local FLAM export and Shopify GraphQL
// Admin API for exercising the stock sync without real accounts.
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

	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/flam-stock-sync/internal/config"
	httpapi "github.com/fairyhunter13/flam-stock-sync/internal/http"
	"github.com/fairyhunter13/flam-stock-sync/internal/obs"
	"github.com/fairyhunter13/flam-stock-sync/internal/store"
)

func main() {
	cfg := config.Load()
	obs.InitLogger(cfg.LogLevel)
	obs.Logger.Info("simulator_starting", "config", cfg)

	app := httpapi.NewApp(cfg, store.NewCatalog(), obs.NewMetrics())
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		obs.Logger.Info("shutdown_begin")
		app.StartShutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		obs.Logger.Error("http_server_error", "error", err)
		os.Exit(1)
	}
	obs.Logger.Info("simulator_stopped")
}
