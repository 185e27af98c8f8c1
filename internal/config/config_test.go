package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fairyhunter13/flam-stock-sync/internal/model"
)

var allKeys = []string{
	EnvShopifyAccessToken, EnvShopifyStoreURL, EnvTargetLocationID,
	EnvFlamUsername, EnvFlamPassword, EnvFlamURL,
	"SHOPIFY_API_VERSION", "FLAM_EXPORT_URL", "FLAM_WAREHOUSE", "HTTP_TIMEOUT_MS",
	"PUSHGATEWAY_URL", "LOG_LEVEL", "SYNC_WORKER_MIN", "SYNC_WORKER_MAX",
	"SYNC_WORKER_COUNT", "SCALE_INTERVAL_MS", "SCALE_UP_BACKLOG_PER_WORKER",
	"SCALE_DOWN_IDLE_TICKS", "HTTP_ADDR", "SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv(EnvShopifyAccessToken, "shpat_x")
	t.Setenv(EnvShopifyStoreURL, "shop.example.com")
	t.Setenv(EnvTargetLocationID, "23455432785")
	t.Setenv(EnvFlamUsername, "user")
	t.Setenv(EnvFlamPassword, "secret")
	t.Setenv(EnvFlamURL, "https://acme.flam.bz/login")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c := Load()
	if c.ShopifyAPIVersion != "2024-04" {
		t.Fatalf("ShopifyAPIVersion default")
	}
	if c.FlamWarehouse != "W1" {
		t.Fatalf("FlamWarehouse default")
	}
	if c.HTTPTimeout != 30*time.Second {
		t.Fatalf("HTTPTimeout default")
	}
	if c.WorkerMin != 2 || c.WorkerMax != 8 || c.InitialWorkerCount != 2 {
		t.Fatalf("worker bounds default")
	}
	if c.ScaleInterval != 200*time.Millisecond {
		t.Fatalf("ScaleInterval default")
	}
	if c.ScaleUpBacklogPerWorker != 20 || c.ScaleDownIdleTicks != 5 {
		t.Fatalf("scale thresholds default")
	}
	if c.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel default")
	}
	if c.HTTPAddr != ":8080" || c.ShutdownTimeout != 15*time.Second {
		t.Fatalf("simulator defaults")
	}
	if c.FlamExportURL != "" {
		t.Fatalf("expected no export url without FLAM_URL, got %q", c.FlamExportURL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv("SHOPIFY_API_VERSION", "2025-01")
	t.Setenv("FLAM_WAREHOUSE", "W2")
	t.Setenv("HTTP_TIMEOUT_MS", "1500")
	t.Setenv("SYNC_WORKER_MIN", "1")
	t.Setenv("SYNC_WORKER_MAX", "4")
	t.Setenv("SYNC_WORKER_COUNT", "3")
	t.Setenv("LOG_LEVEL", "debug")
	c := Load()
	if c.ShopifyAPIVersion != "2025-01" || c.FlamWarehouse != "W2" {
		t.Fatalf("string overrides: %+v", c)
	}
	if c.HTTPTimeout != 1500*time.Millisecond {
		t.Fatalf("HTTPTimeout env")
	}
	if c.WorkerMin != 1 || c.WorkerMax != 4 || c.InitialWorkerCount != 3 {
		t.Fatalf("workers env")
	}
	if c.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel env")
	}
	if c.FlamExportURL != "https://acme.flam.bz/stockrecents/export" {
		t.Fatalf("derived export url: %q", c.FlamExportURL)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestWorkerMaxNeverBelowMin(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYNC_WORKER_MIN", "6")
	t.Setenv("SYNC_WORKER_MAX", "2")
	c := Load()
	if c.WorkerMax != 6 {
		t.Fatalf("expected max clamped to 6, got %d", c.WorkerMax)
	}
}

func TestValidateMissingFlamURL(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv(EnvFlamURL, "")
	err := Load().Validate()
	if !errors.Is(err, model.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
	var me *MissingError
	if !errors.As(err, &me) || len(me.Keys) != 1 || me.Keys[0] != EnvFlamURL {
		t.Fatalf("expected only FLAM_URL missing, got %v", err)
	}
	if !strings.Contains(err.Error(), "FLAM_URL") {
		t.Fatalf("diagnostic must name FLAM_URL: %q", err.Error())
	}
}

func TestValidateListsAllMissing(t *testing.T) {
	clearEnv(t)
	err := Load().Validate()
	var me *MissingError
	if !errors.As(err, &me) {
		t.Fatalf("expected MissingError, got %v", err)
	}
	if len(me.Keys) != 6 {
		t.Fatalf("expected 6 missing keys, got %v", me.Keys)
	}
}

func TestLogValueRedactsSecrets(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	c := Load()
	out := fmt.Sprint(c.LogValue())
	if strings.Contains(out, "shpat_x") || strings.Contains(out, "secret") {
		t.Fatalf("secrets leaked: %s", out)
	}
}
