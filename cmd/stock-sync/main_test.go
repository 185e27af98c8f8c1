package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fairyhunter13/flam-stock-sync/internal/config"
	httpapi "github.com/fairyhunter13/flam-stock-sync/internal/http"
	"github.com/fairyhunter13/flam-stock-sync/internal/obs"
	"github.com/fairyhunter13/flam-stock-sync/internal/runner"
	"github.com/fairyhunter13/flam-stock-sync/internal/store"
)

const location = "23455432785"

func setEnv(t *testing.T, storeURL, flamURL, pushURL string) {
	t.Helper()
	t.Setenv(config.EnvShopifyAccessToken, "tok")
	t.Setenv(config.EnvShopifyStoreURL, storeURL)
	t.Setenv(config.EnvTargetLocationID, location)
	t.Setenv(config.EnvFlamUsername, "u")
	t.Setenv(config.EnvFlamPassword, "p")
	t.Setenv(config.EnvFlamURL, flamURL)
	t.Setenv("FLAM_EXPORT_URL", "")
	t.Setenv("PUSHGATEWAY_URL", pushURL)
	t.Setenv("HTTP_TIMEOUT_MS", "2000")
	t.Setenv("LOG_LEVEL", "error")
}

func countingServer(hits *atomic.Int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRunConfigMissingMakesNoCalls(t *testing.T) {
	var hits atomic.Int64
	srv := countingServer(&hits)
	defer srv.Close()
	setEnv(t, srv.URL, "", srv.URL)

	if code := run(context.Background()); code != runner.ExitConfigMissing {
		t.Fatalf("expected exit %d, got %d", runner.ExitConfigMissing, code)
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("expected no network calls, got %d", n)
	}
}

func TestRunSupplierDown(t *testing.T) {
	var storeHits atomic.Int64
	storefront := countingServer(&storeHits)
	defer storefront.Close()
	flam := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer flam.Close()
	setEnv(t, storefront.URL, flam.URL+"/login", "")

	if code := run(context.Background()); code != runner.ExitSupplierError {
		t.Fatalf("expected exit %d, got %d", runner.ExitSupplierError, code)
	}
	if n := storeHits.Load(); n != 0 {
		t.Fatalf("storefront must not be called, got %d calls", n)
	}
}

func TestRunAgainstSimulator(t *testing.T) {
	cfg := config.Config{ShopifyAccessToken: "tok", FlamUsername: "u", FlamPassword: "p"}
	app := httpapi.NewApp(cfg, store.NewCatalog(), obs.NewMetrics())
	app.Catalog.AddVariant(store.Variant{SKU: "SKU1", ProductTitle: "Mug", Quantities: map[string]int64{location: 1}})
	app.Catalog.SetSupplierRows([]store.SupplierRow{
		{SKU: "SKU1", OnHand: "5", Incoming: "0", Outgoing: "0", Sellable: "5"},
		{SKU: "SKU2", OnHand: "0", Incoming: "0", Outgoing: "0", Sellable: "0"},
	})
	sim := httptest.NewServer(httpapi.NewRouter(app))
	defer sim.Close()

	var pushed atomic.Int64
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/metrics/job/"+obs.JobName) {
			pushed.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()
	setEnv(t, sim.URL, sim.URL+"/login", gateway.URL)

	if code := run(context.Background()); code != runner.ExitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if got := app.Catalog.FindBySKU("SKU1")[0].Quantities[location]; got != 5 {
		t.Fatalf("expected on hand 5, got %d", got)
	}
	if pushed.Load() != 1 {
		t.Fatalf("expected one metrics push, got %d", pushed.Load())
	}
}
