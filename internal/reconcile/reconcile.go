// Package reconcile turns a supplier listing into per-SKU results against a
// storefront catalog. All I/O goes through the Catalog interface, so the
// decisions here are testable without a network.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fairyhunter13/flam-stock-sync/internal/model"
)

// Catalog is the storefront as seen by reconciliation.
type Catalog interface {
	// FindItemBySKU returns an error wrapping model.ErrSkuNotFound when no
	// variant carries the SKU.
	FindItemBySKU(ctx context.Context, sku string) (model.ItemRef, error)
	// SetQuantity sets the on-hand quantity at locationID.
	SetQuantity(ctx context.Context, item model.ItemRef, locationID string, qty int64) error
}

// Action is what reconciliation intends to do for one SKU.
type Action int

const (
	ActionSet Action = iota
	ActionKeep
	ActionSkip
)

// Decision is the pure outcome of comparing a record with the storefront.
type Decision struct {
	Action Action
	Reason string
}

// Decide compares the supplier quantity with what the storefront reports.
// The comparison is against on-hand stock, the figure SetQuantity writes.
func Decide(rec model.StockRecord, item model.ItemRef) Decision {
	if item.Archived {
		return Decision{Action: ActionSkip, Reason: "product is archived"}
	}
	if !rec.Sellable.IsPositive() && item.Available != nil && *item.Available == 0 {
		return Decision{Action: ActionSkip, Reason: "supplier and storefront both show no sellable stock"}
	}
	if item.OnHand != nil && *item.OnHand == rec.Quantity {
		return Decision{Action: ActionKeep, Reason: "storefront already matches supplier"}
	}
	return Decision{Action: ActionSet}
}

// Reconciler applies one record at a time against a fixed location.
type Reconciler struct {
	catalog    Catalog
	locationID string
}

func New(c Catalog, locationID string) *Reconciler {
	return &Reconciler{catalog: c, locationID: locationID}
}

// Reconcile resolves rec in the catalog and sets its quantity when needed.
// Every failure is folded into the returned result.
func (r *Reconciler) Reconcile(ctx context.Context, rec model.StockRecord) model.UpdateResult {
	res := model.UpdateResult{SKU: rec.SKU, Quantity: rec.Quantity}
	item, err := r.catalog.FindItemBySKU(ctx, rec.SKU)
	if err != nil {
		res.Outcome = model.OutcomeNotFound
		if !errors.Is(err, model.ErrSkuNotFound) {
			res.Outcome = model.OutcomeFailed
			if !errors.Is(err, model.ErrUpdateRejected) {
				err = fmt.Errorf("%w: lookup: %w", model.ErrUpdateRejected, err)
			}
		}
		res.Err = err
		res.Detail = err.Error()
		return res
	}
	res.ProductTitle = item.ProductTitle
	res.MatchCount = item.MatchCount
	res.Previous = item.OnHand

	d := Decide(rec, item)
	switch d.Action {
	case ActionSkip:
		res.Outcome = model.OutcomeSkipped
		res.Detail = d.Reason
		return res
	case ActionKeep:
		res.Outcome = model.OutcomeUnchanged
		res.Detail = d.Reason
		return res
	}

	if err := r.catalog.SetQuantity(ctx, item, r.locationID, rec.Quantity); err != nil {
		if !errors.Is(err, model.ErrUpdateRejected) {
			err = fmt.Errorf("%w: %w", model.ErrUpdateRejected, err)
		}
		res.Outcome = model.OutcomeFailed
		res.Err = err
		res.Detail = err.Error()
		return res
	}
	res.Outcome = model.OutcomeUpdated
	return res
}

// ReconcileAll processes a listing sequentially, one result per record in
// listing order. The runner uses it when the worker pool is capped at one.
func (r *Reconciler) ReconcileAll(ctx context.Context, records []model.StockRecord) []model.UpdateResult {
	out := make([]model.UpdateResult, 0, len(records))
	for _, rec := range records {
		out = append(out, r.Reconcile(ctx, rec))
	}
	return out
}

// Summarize counts outcomes and collects SKUs shared by several variants.
func Summarize(runID, locationID string, started, finished time.Time, results []model.UpdateResult) model.Summary {
	s := model.Summary{
		RunID:      runID,
		LocationID: locationID,
		StartedAt:  started,
		FinishedAt: finished,
		Results:    results,
		Counts:     make(map[model.Outcome]int, len(model.Outcomes)),
	}
	for _, r := range results {
		s.Counts[r.Outcome]++
		if r.MatchCount > 1 {
			if s.MultiMatch == nil {
				s.MultiMatch = make(map[string]int)
			}
			s.MultiMatch[r.SKU] = r.MatchCount
		}
	}
	return s
}
