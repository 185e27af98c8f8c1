// Package runner executes one stock sync: fetch the supplier listing, then
// reconcile every SKU against the storefront at the target location.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/flam-stock-sync/internal/config"
	"github.com/fairyhunter13/flam-stock-sync/internal/model"
	"github.com/fairyhunter13/flam-stock-sync/internal/obs"
	"github.com/fairyhunter13/flam-stock-sync/internal/queue"
	"github.com/fairyhunter13/flam-stock-sync/internal/reconcile"
	"github.com/fairyhunter13/flam-stock-sync/internal/store"
)

// Supplier provides the authoritative stock listing.
type Supplier interface {
	ListStock(ctx context.Context) ([]model.StockRecord, error)
}

// Exit codes of the stock-sync command.
const (
	ExitOK            = 0
	ExitSupplierError = 1
	ExitConfigMissing = 2
)

// ExitCode maps a run error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, model.ErrConfigMissing):
		return ExitConfigMissing
	default:
		return ExitSupplierError
	}
}

// Runner is the SyncRunner. It holds no state between runs.
type Runner struct {
	cfg      config.Config
	supplier Supplier
	catalog  reconcile.Catalog
	metrics  *obs.Metrics
	now      func() time.Time
}

// New wires a Runner. metrics may be nil.
func New(cfg config.Config, s Supplier, c reconcile.Catalog, m *obs.Metrics) *Runner {
	return &Runner{cfg: cfg, supplier: s, catalog: c, metrics: m, now: time.Now}
}

// Run performs one sync. The error is non-nil only when the supplier listing
// could not be fetched, in which case the summary has no results.
func (r *Runner) Run(ctx context.Context) (model.Summary, error) {
	runID := uuid.NewString()
	log := obs.Logger.With("run_id", runID)
	started := r.now()
	log.Info("sync_started", "config", r.cfg)

	records, err := r.supplier.ListStock(ctx)
	if err != nil {
		if !errors.Is(err, model.ErrSupplierUnavailable) {
			err = fmt.Errorf("%w: %w", model.ErrSupplierUnavailable, err)
		}
		log.Error("supplier_fetch_failed", "error", err)
		if r.metrics != nil {
			r.metrics.ObserveFailure()
		}
		return reconcile.Summarize(runID, r.cfg.TargetLocationID, started, r.now(), nil), err
	}
	records = normalize(log, records)
	log.Info("supplier_listing", "records", len(records))

	results := r.reconcileAll(ctx, log, records)
	skus := make([]string, len(records))
	for i, rec := range records {
		skus[i] = rec.SKU
	}
	summary := reconcile.Summarize(runID, r.cfg.TargetLocationID, started, r.now(), results.Ordered(skus))
	if r.metrics != nil {
		r.metrics.ObserveRun(summary)
	}
	Report(log, summary)
	return summary, nil
}

// reconcileAll fans records out over the worker pool and waits for every
// SKU to have a result or for ctx to end. A pool capped at one worker runs
// the listing inline.
func (r *Runner) reconcileAll(ctx context.Context, log *slog.Logger, records []model.StockRecord) *store.Results {
	results := store.NewResults()
	if len(records) == 0 {
		return results
	}
	rc := reconcile.New(r.catalog, r.cfg.TargetLocationID)
	if r.cfg.WorkerMax <= 1 {
		for _, res := range rc.ReconcileAll(ctx, records) {
			results.Record(res)
		}
		return results
	}
	mgr := queue.NewManager(r.cfg, queue.New(64), results, rc.Reconcile)
	mgr.Start(ctx)
	defer mgr.Stop()
	for _, rec := range records {
		mgr.Enqueue(rec)
	}
	mgr.CloseIntake()
	if !mgr.DrainUntil(ctx) {
		log.Warn("sync_interrupted", "completed", results.Len(), "total", len(records))
	}
	return results
}

// normalize drops repeated SKUs and clamps negative quantities.
func normalize(log *slog.Logger, records []model.StockRecord) []model.StockRecord {
	seen := make(map[string]struct{}, len(records))
	out := records[:0:0]
	for _, rec := range records {
		if rec.SKU == "" {
			continue
		}
		if _, dup := seen[rec.SKU]; dup {
			log.Warn("duplicate_sku_ignored", "sku", rec.SKU)
			continue
		}
		seen[rec.SKU] = struct{}{}
		if rec.Quantity < 0 {
			rec.Quantity = 0
		}
		out = append(out, rec)
	}
	return out
}
