// Package model defines domain types used by the stock sync job.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord is one supplier-reported SKU with the quantity to publish.
type StockRecord struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`

	// Raw supplier columns the quantity was derived from.
	OnHand   decimal.Decimal `json:"on_hand"`
	Incoming decimal.Decimal `json:"incoming"`
	Outgoing decimal.Decimal `json:"outgoing"`
	Sellable decimal.Decimal `json:"sellable"`
}

// ItemRef is the storefront's view of a SKU.
type ItemRef struct {
	SKU             string `json:"sku"`
	VariantID       string `json:"variant_id"`
	InventoryItemID string `json:"inventory_item_id"`
	ProductTitle    string `json:"product_title"`
	Archived        bool   `json:"archived"`
	// OnHand and Available are the quantities at the target location, nil
	// when the item is not stocked there yet. Available is on hand minus
	// committed stock; updates write OnHand.
	OnHand    *int64 `json:"on_hand,omitempty"`
	Available *int64 `json:"available,omitempty"`
	// MatchCount is how many storefront variants share this SKU.
	MatchCount int `json:"match_count"`
}

// Outcome is the per-SKU result of a sync run.
type Outcome string

const (
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeNotFound  Outcome = "not-found"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Outcomes lists every outcome in report order.
var Outcomes = []Outcome{OutcomeUpdated, OutcomeUnchanged, OutcomeSkipped, OutcomeNotFound, OutcomeFailed}

// UpdateResult records what happened to one SKU.
type UpdateResult struct {
	SKU          string  `json:"sku"`
	Outcome      Outcome `json:"outcome"`
	Quantity     int64   `json:"quantity"`
	Previous     *int64  `json:"previous,omitempty"`
	ProductTitle string  `json:"product_title,omitempty"`
	MatchCount   int     `json:"match_count,omitempty"`
	Detail       string  `json:"detail,omitempty"`
	Err          error   `json:"-"`
}

// Summary aggregates one run.
type Summary struct {
	RunID      string          `json:"run_id"`
	LocationID string          `json:"location_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Results    []UpdateResult  `json:"results"`
	Counts     map[Outcome]int `json:"counts"`
	MultiMatch map[string]int  `json:"multi_match,omitempty"`
}

// Count returns the number of results with outcome o.
func (s Summary) Count(o Outcome) int { return s.Counts[o] }
