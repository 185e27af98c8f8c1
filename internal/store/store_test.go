package store

import (
	"strconv"
	"sync"
	"testing"

	"github.com/fairyhunter13/flam-stock-sync/internal/model"
)

func TestResultsFirstRecordWins(t *testing.T) {
	s := NewResults()
	if !s.Record(model.UpdateResult{SKU: "A", Outcome: model.OutcomeUpdated}) {
		t.Fatalf("first record rejected")
	}
	if s.Record(model.UpdateResult{SKU: "A", Outcome: model.OutcomeFailed}) {
		t.Fatalf("second record accepted")
	}
	got, _ := s.Get("A")
	if got.Outcome != model.OutcomeUpdated {
		t.Fatalf("expected updated, got %s", got.Outcome)
	}
	if s.Record(model.UpdateResult{}) {
		t.Fatalf("blank sku accepted")
	}
}

func TestResultsOrderedFollowsListing(t *testing.T) {
	s := NewResults()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		sku := "SKU" + strconv.Itoa(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Record(model.UpdateResult{SKU: sku, Outcome: model.OutcomeUnchanged})
		}()
	}
	wg.Wait()
	order := []string{"SKU7", "SKU3", "SKU49", "missing"}
	got := s.Ordered(order)
	if len(got) != len(order) {
		t.Fatalf("expected %d results, got %d", len(order), len(got))
	}
	for i, r := range got {
		if r.SKU != order[i] {
			t.Fatalf("position %d: got %s want %s", i, r.SKU, order[i])
		}
	}
	if got[3].Outcome != model.OutcomeFailed {
		t.Fatalf("missing sku should be failed, got %s", got[3].Outcome)
	}
	if s.Len() != 50 {
		t.Fatalf("expected 50, got %d", s.Len())
	}
}

func TestCatalogSetOnHand(t *testing.T) {
	c := NewCatalog()
	v := c.AddVariant(Variant{SKU: "X", ProductTitle: "Apron", Quantities: map[string]int64{"gid://shopify/Location/9": 4}})
	delta, ok := c.SetOnHand(v.InventoryItemID, "9", 10)
	if !ok || delta != 6 {
		t.Fatalf("delta=%d ok=%v", delta, ok)
	}
	got := c.FindBySKU("X")
	if len(got) != 1 || got[0].Quantities["9"] != 10 {
		t.Fatalf("unexpected: %+v", got)
	}
	if _, ok := c.SetOnHand("gid://shopify/InventoryItem/0", "9", 1); ok {
		t.Fatalf("unknown item accepted")
	}
}

func TestCatalogCopiesAreIsolated(t *testing.T) {
	c := NewCatalog()
	c.AddVariant(Variant{SKU: "Y", Quantities: map[string]int64{"1": 1}})
	got := c.FindBySKU("Y")
	got[0].Quantities["1"] = 99
	if again := c.FindBySKU("Y"); again[0].Quantities["1"] != 1 {
		t.Fatalf("catalog mutated through copy")
	}
}

func TestCatalogSharedSKU(t *testing.T) {
	c := NewCatalog()
	c.AddVariant(Variant{SKU: "Z", ProductTitle: "One"})
	c.AddVariant(Variant{SKU: "Z", ProductTitle: "Two"})
	got := c.FindBySKU("Z")
	if len(got) != 2 || got[0].ProductTitle != "One" {
		t.Fatalf("unexpected: %+v", got)
	}
	if skus := c.SKUs(); len(skus) != 1 || skus[0] != "Z" {
		t.Fatalf("skus: %v", skus)
	}
}
