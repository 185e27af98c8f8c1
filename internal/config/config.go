// Package config provides runtime configuration values for the sync job and simulator.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fairyhunter13/flam-stock-sync/internal/model"
)

// Required environment variables for a sync run.
const (
	EnvShopifyAccessToken = "SHOPIFY_ACCESS_TOKEN"
	EnvShopifyStoreURL    = "SHOPIFY_STORE_URL"
	EnvTargetLocationID   = "TARGET_LOCATION_ID"
	EnvFlamUsername       = "FLAM_USERNAME"
	EnvFlamPassword       = "FLAM_PASSWORD"
	EnvFlamURL            = "FLAM_URL"
)

// Config holds credentials and knobs for one process. It is built once at
// startup and passed by value; nothing reads the environment afterwards.
type Config struct {
	ShopifyAccessToken string
	ShopifyStoreURL    string
	ShopifyAPIVersion  string
	TargetLocationID   string

	FlamUsername  string
	FlamPassword  string
	FlamURL       string
	FlamExportURL string
	FlamWarehouse string

	HTTPTimeout    time.Duration
	PushgatewayURL string
	LogLevel       slog.Level

	InitialWorkerCount      int
	WorkerMin               int
	WorkerMax               int
	ScaleInterval           time.Duration
	ScaleUpBacklogPerWorker int
	ScaleDownIdleTicks      int

	// Simulator only.
	HTTPAddr        string
	ShutdownTimeout time.Duration
}

// MissingError names every required variable that was absent.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", model.ErrConfigMissing, strings.Join(e.Keys, ", "))
}

func (e *MissingError) Unwrap() error { return model.ErrConfigMissing }

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

func levelenv(key string, def slog.Level) slog.Level {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		return def
	}
	return l
}

// exportURLFor derives the stock export endpoint from the login URL host.
func exportURLFor(loginURL string) string {
	u, err := url.Parse(loginURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/stockrecents/export"
}

// Load collects configuration from environment with defaults. Required
// credentials are not checked here; see Validate.
func Load() Config {
	minWorkers := atoienv("SYNC_WORKER_MIN", 2)
	maxWorkers := atoienv("SYNC_WORKER_MAX", 8)
	if maxWorkers < minWorkers {
		maxWorkers = minWorkers
	}
	initialWorkers := atoienv("SYNC_WORKER_COUNT", minWorkers)
	flamURL := getenv(EnvFlamURL, "")
	return Config{
		ShopifyAccessToken: getenv(EnvShopifyAccessToken, ""),
		ShopifyStoreURL:    getenv(EnvShopifyStoreURL, ""),
		ShopifyAPIVersion:  getenv("SHOPIFY_API_VERSION", "2024-04"),
		TargetLocationID:   getenv(EnvTargetLocationID, ""),

		FlamUsername:  getenv(EnvFlamUsername, ""),
		FlamPassword:  getenv(EnvFlamPassword, ""),
		FlamURL:       flamURL,
		FlamExportURL: getenv("FLAM_EXPORT_URL", exportURLFor(flamURL)),
		FlamWarehouse: getenv("FLAM_WAREHOUSE", "W1"),

		HTTPTimeout:    durenvms("HTTP_TIMEOUT_MS", 30000),
		PushgatewayURL: getenv("PUSHGATEWAY_URL", ""),
		LogLevel:       levelenv("LOG_LEVEL", slog.LevelInfo),

		InitialWorkerCount:      initialWorkers,
		WorkerMin:               minWorkers,
		WorkerMax:               maxWorkers,
		ScaleInterval:           durenvms("SCALE_INTERVAL_MS", 200),
		ScaleUpBacklogPerWorker: atoienv("SCALE_UP_BACKLOG_PER_WORKER", 20),
		ScaleDownIdleTicks:      atoienv("SCALE_DOWN_IDLE_TICKS", 5),

		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 15),
	}
}

// Validate reports every missing required credential at once.
func (c Config) Validate() error {
	required := []struct {
		key, val string
	}{
		{EnvShopifyAccessToken, c.ShopifyAccessToken},
		{EnvShopifyStoreURL, c.ShopifyStoreURL},
		{EnvTargetLocationID, c.TargetLocationID},
		{EnvFlamUsername, c.FlamUsername},
		{EnvFlamPassword, c.FlamPassword},
		{EnvFlamURL, c.FlamURL},
	}
	var missing []string
	for _, r := range required {
		if r.val == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}

// LogValue keeps secrets out of logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("shopify_store_url", c.ShopifyStoreURL),
		slog.String("shopify_api_version", c.ShopifyAPIVersion),
		slog.String("target_location_id", c.TargetLocationID),
		slog.String("flam_url", c.FlamURL),
		slog.String("flam_export_url", c.FlamExportURL),
		slog.String("flam_warehouse", c.FlamWarehouse),
		slog.Duration("http_timeout", c.HTTPTimeout),
		slog.Int("worker_min", c.WorkerMin),
		slog.Int("worker_max", c.WorkerMax),
		slog.Bool("pushgateway", c.PushgatewayURL != ""),
	)
}
