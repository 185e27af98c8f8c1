package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/flam-stock-sync/internal/model"
)

type fakeCatalog struct {
	mu        sync.Mutex
	items     map[string]model.ItemRef
	lookupErr error
	rejectSKU string
	committed int64
	sets      int
}

func newFakeCatalog(items ...model.ItemRef) *fakeCatalog {
	c := &fakeCatalog{items: make(map[string]model.ItemRef)}
	for _, it := range items {
		c.items[it.SKU] = it
	}
	return c
}

func (c *fakeCatalog) FindItemBySKU(_ context.Context, sku string) (model.ItemRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lookupErr != nil {
		return model.ItemRef{}, c.lookupErr
	}
	it, ok := c.items[sku]
	if !ok {
		return model.ItemRef{}, fmt.Errorf("%w: %s", model.ErrSkuNotFound, sku)
	}
	return it, nil
}

func (c *fakeCatalog) SetQuantity(_ context.Context, item model.ItemRef, _ string, qty int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if item.SKU == c.rejectSKU {
		return errors.New("status 422")
	}
	c.sets++
	avail := qty - c.committed
	item.OnHand = &qty
	item.Available = &avail
	c.items[item.SKU] = item
	return nil
}

func qty(n int64) *int64 { return &n }

func TestReconcileAllExample(t *testing.T) {
	cat := newFakeCatalog(model.ItemRef{SKU: "SKU1", InventoryItemID: "1"})
	r := New(cat, "23455432785")
	got := r.ReconcileAll(context.Background(), []model.StockRecord{
		{SKU: "SKU1", Quantity: 5},
		{SKU: "SKU2", Quantity: 0},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].SKU != "SKU1" || got[0].Outcome != model.OutcomeUpdated {
		t.Fatalf("SKU1: %+v", got[0])
	}
	if got[1].SKU != "SKU2" || got[1].Outcome != model.OutcomeNotFound {
		t.Fatalf("SKU2: %+v", got[1])
	}
	if !errors.Is(got[1].Err, model.ErrSkuNotFound) {
		t.Fatalf("expected ErrSkuNotFound, got %v", got[1].Err)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	cat := newFakeCatalog(model.ItemRef{SKU: "A", OnHand: qty(1), Available: qty(1)})
	r := New(cat, "1")
	rec := model.StockRecord{SKU: "A", Quantity: 7}
	first := r.Reconcile(context.Background(), rec)
	second := r.Reconcile(context.Background(), rec)
	if first.Outcome != model.OutcomeUpdated || second.Outcome != model.OutcomeUnchanged {
		t.Fatalf("got %s then %s", first.Outcome, second.Outcome)
	}
	if cat.sets != 1 {
		t.Fatalf("expected one write, got %d", cat.sets)
	}
	if first.Previous == nil || *first.Previous != 1 {
		t.Fatalf("previous quantity not reported: %+v", first)
	}
}

func TestReconcileWithCommittedStockIsIdempotent(t *testing.T) {
	// Committed stock keeps available below on hand after every write.
	cat := newFakeCatalog(model.ItemRef{SKU: "A", OnHand: qty(1), Available: qty(-1)})
	cat.committed = 2
	r := New(cat, "1")
	rec := model.StockRecord{SKU: "A", Quantity: 5}
	var outcomes []model.Outcome
	for i := 0; i < 3; i++ {
		outcomes = append(outcomes, r.Reconcile(context.Background(), rec).Outcome)
	}
	want := []model.Outcome{model.OutcomeUpdated, model.OutcomeUnchanged, model.OutcomeUnchanged}
	for i := range want {
		if outcomes[i] != want[i] {
			t.Fatalf("run %d: want %s, got %s", i+1, want[i], outcomes[i])
		}
	}
	if cat.sets != 1 {
		t.Fatalf("expected one write, got %d", cat.sets)
	}
}

func TestReconcileNotFoundDoesNotAffectOthers(t *testing.T) {
	cat := newFakeCatalog(
		model.ItemRef{SKU: "A"},
		model.ItemRef{SKU: "C"},
	)
	got := New(cat, "1").ReconcileAll(context.Background(), []model.StockRecord{
		{SKU: "A", Quantity: 1}, {SKU: "B", Quantity: 2}, {SKU: "C", Quantity: 3},
	})
	notFound := 0
	for _, r := range got {
		if r.Outcome == model.OutcomeNotFound {
			notFound++
			if r.SKU != "B" {
				t.Fatalf("unexpected not-found for %s", r.SKU)
			}
		} else if r.Outcome != model.OutcomeUpdated {
			t.Fatalf("unexpected outcome for %s: %s", r.SKU, r.Outcome)
		}
	}
	if notFound != 1 {
		t.Fatalf("expected exactly one not-found, got %d", notFound)
	}
}

func TestReconcileRejectedUpdate(t *testing.T) {
	cat := newFakeCatalog(model.ItemRef{SKU: "X"})
	cat.rejectSKU = "X"
	got := New(cat, "1").Reconcile(context.Background(), model.StockRecord{SKU: "X", Quantity: 3})
	if got.Outcome != model.OutcomeFailed || !errors.Is(got.Err, model.ErrUpdateRejected) {
		t.Fatalf("expected rejected failure, got %+v", got)
	}
}

func TestReconcileLookupFailure(t *testing.T) {
	cat := newFakeCatalog()
	cat.lookupErr = context.DeadlineExceeded
	got := New(cat, "1").Reconcile(context.Background(), model.StockRecord{SKU: "X"})
	if got.Outcome != model.OutcomeFailed {
		t.Fatalf("expected failed, got %s", got.Outcome)
	}
	if !errors.Is(got.Err, model.ErrUpdateRejected) || !errors.Is(got.Err, context.DeadlineExceeded) {
		t.Fatalf("lookup timeout should be an update rejection, got %v", got.Err)
	}
}

func TestDecide(t *testing.T) {
	rec := model.StockRecord{SKU: "S", Quantity: 4, OnHand: decimal.NewFromInt(4), Sellable: decimal.NewFromInt(4)}
	noSellable := model.StockRecord{SKU: "S", Quantity: 5, OnHand: decimal.NewFromInt(5)}
	cases := []struct {
		name string
		rec  model.StockRecord
		item model.ItemRef
		want Action
	}{
		{"archived", rec, model.ItemRef{Archived: true, OnHand: qty(4)}, ActionSkip},
		{"on hand matches", rec, model.ItemRef{OnHand: qty(4), Available: qty(4)}, ActionKeep},
		{"on hand matches with committed stock", rec, model.ItemRef{OnHand: qty(4), Available: qty(1)}, ActionKeep},
		{"available matches but on hand differs", rec, model.ItemRef{OnHand: qty(6), Available: qty(4)}, ActionSet},
		{"different", rec, model.ItemRef{OnHand: qty(0), Available: qty(0)}, ActionSet},
		{"unstocked location", rec, model.ItemRef{}, ActionSet},
		{"nothing sellable on either side", noSellable, model.ItemRef{OnHand: qty(0), Available: qty(0)}, ActionSkip},
		{"nothing sellable but storefront has stock", noSellable, model.ItemRef{OnHand: qty(2), Available: qty(2)}, ActionSet},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if d := Decide(tc.rec, tc.item); d.Action != tc.want {
				t.Fatalf("want %v, got %v (%s)", tc.want, d.Action, d.Reason)
			}
		})
	}
}

func TestReconcileSkipsWhenNothingSellable(t *testing.T) {
	cat := newFakeCatalog(model.ItemRef{SKU: "Z", OnHand: qty(0), Available: qty(0)})
	got := New(cat, "1").Reconcile(context.Background(), model.StockRecord{SKU: "Z", Quantity: 5, OnHand: decimal.NewFromInt(5)})
	if got.Outcome != model.OutcomeSkipped || cat.sets != 0 {
		t.Fatalf("expected skip without write, got %+v (writes %d)", got, cat.sets)
	}
}

func TestSummarize(t *testing.T) {
	start := time.Now()
	s := Summarize("run", "1", start, start.Add(time.Second), []model.UpdateResult{
		{SKU: "A", Outcome: model.OutcomeUpdated, MatchCount: 2},
		{SKU: "B", Outcome: model.OutcomeNotFound},
		{SKU: "C", Outcome: model.OutcomeUpdated, MatchCount: 1},
	})
	if s.Count(model.OutcomeUpdated) != 2 || s.Count(model.OutcomeNotFound) != 1 || s.Count(model.OutcomeFailed) != 0 {
		t.Fatalf("counts: %v", s.Counts)
	}
	if len(s.MultiMatch) != 1 || s.MultiMatch["A"] != 2 {
		t.Fatalf("multi match: %v", s.MultiMatch)
	}
}
