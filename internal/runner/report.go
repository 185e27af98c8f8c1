package runner

import (
	"log/slog"
	"sort"

	"github.com/fairyhunter13/flam-stock-sync/internal/model"
)

// Report logs one line per item and a closing summary line. Problems log at
// warn so they stand out in CI output.
func Report(log *slog.Logger, s model.Summary) {
	for _, r := range s.Results {
		args := []any{"sku", r.SKU, "outcome", string(r.Outcome), "quantity", r.Quantity}
		if r.ProductTitle != "" {
			args = append(args, "product_title", r.ProductTitle)
		}
		if r.Previous != nil {
			args = append(args, "previous", *r.Previous)
		}
		if r.Detail != "" {
			args = append(args, "detail", r.Detail)
		}
		switch r.Outcome {
		case model.OutcomeNotFound, model.OutcomeFailed:
			log.Warn("sync_item", args...)
		case model.OutcomeUpdated:
			log.Info("sync_item", args...)
		default:
			log.Debug("sync_item", args...)
		}
	}

	skus := make([]string, 0, len(s.MultiMatch))
	for sku := range s.MultiMatch {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	for _, sku := range skus {
		log.Warn("sku_shared_by_variants", "sku", sku, "variant_count", s.MultiMatch[sku])
	}

	log.Info("sync_finished",
		"location_id", s.LocationID,
		"total", len(s.Results),
		"updated", s.Count(model.OutcomeUpdated),
		"unchanged", s.Count(model.OutcomeUnchanged),
		"skipped", s.Count(model.OutcomeSkipped),
		"not_found", s.Count(model.OutcomeNotFound),
		"failed", s.Count(model.OutcomeFailed),
		"duration_ms", s.FinishedAt.Sub(s.StartedAt).Milliseconds(),
	)
}
