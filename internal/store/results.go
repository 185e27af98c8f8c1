// Package store holds in-memory state: per-run results for the sync job and
// the fake catalog served by the simulator.
package store

import (
	"sync"

	"github.com/fairyhunter13/flam-stock-sync/internal/model"
)

// Results collects one UpdateResult per SKU, independent of completion order.
type Results struct {
	mu sync.RWMutex
	m  map[string]model.UpdateResult
}

func NewResults() *Results {
	return &Results{m: make(map[string]model.UpdateResult)}
}

func (s *Results) Get(sku string) (model.UpdateResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.m[sku]
	return r, ok
}

// Record stores r unless its SKU already has a result. It reports whether
// r was stored.
func (s *Results) Record(r model.UpdateResult) bool {
	if r.SKU == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[r.SKU]; ok {
		return false
	}
	s.m[r.SKU] = r
	return true
}

func (s *Results) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Ordered returns results in the given SKU order. SKUs without a result are
// reported as failed so the output always has one entry per SKU.
func (s *Results) Ordered(skus []string) []model.UpdateResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.UpdateResult, 0, len(skus))
	for _, sku := range skus {
		r, ok := s.m[sku]
		if !ok {
			r = model.UpdateResult{SKU: sku, Outcome: model.OutcomeFailed, Detail: "no result recorded"}
		}
		out = append(out, r)
	}
	return out
}
