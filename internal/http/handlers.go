package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fairyhunter13/flam-stock-sync/internal/config"
	httpopenapi "github.com/fairyhunter13/flam-stock-sync/internal/http/openapi"
	"github.com/fairyhunter13/flam-stock-sync/internal/obs"
	"github.com/fairyhunter13/flam-stock-sync/internal/store"
)

// App holds simulator state shared by all handlers.
type App struct {
	Cfg     config.Config
	Catalog *store.Catalog
	Metrics *obs.Metrics

	closing  atomic.Bool
	started  time.Time
	sessions sync.Map
}

// variantRequest seeds one storefront variant.
type variantRequest struct {
	SKU          string           `json:"sku"`
	ProductTitle string           `json:"product_title"`
	Archived     bool             `json:"archived"`
	Quantities   map[string]int64 `json:"quantities"`
	Committed    map[string]int64 `json:"committed"`
}

func NewApp(cfg config.Config, c *store.Catalog, m *obs.Metrics) *App {
	return &App{Cfg: cfg, Catalog: c, Metrics: m, started: time.Now()}
}

// StartShutdown rejects further seeding.
func (a *App) StartShutdown() { a.closing.Store(true) }

func decodeStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (a *App) admit(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return false
	}
	if a.closing.Load() {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return false
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return false
	}
	return true
}

func (a *App) postVariantHandler(w http.ResponseWriter, r *http.Request) {
	if !a.admit(w, r) {
		return
	}
	var req variantRequest
	if err := decodeStrict(r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if strings.TrimSpace(req.SKU) == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "sku is required")
		return
	}
	for loc, n := range req.Quantities {
		if n < 0 {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", "quantity at "+loc+" must be >= 0")
			return
		}
	}
	for loc, n := range req.Committed {
		if n < 0 {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", "committed at "+loc+" must be >= 0")
			return
		}
	}
	v := a.Catalog.AddVariant(store.Variant{
		SKU:          req.SKU,
		ProductTitle: req.ProductTitle,
		Archived:     req.Archived,
		Quantities:   req.Quantities,
		Committed:    req.Committed,
	})
	writeJSON(w, http.StatusCreated, v)
	obs.Logger.Info("variant_seeded",
		"request_id", RequestIDFromContext(r.Context()),
		"sku", v.SKU,
		"inventory_item_id", v.InventoryItemID,
	)
}

func (a *App) getVariantHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	sku := strings.TrimPrefix(r.URL.Path, "/variants/")
	if sku == "" {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	vs := a.Catalog.FindBySKU(sku)
	if len(vs) == 0 {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	writeJSON(w, http.StatusOK, vs)
}

func (a *App) postSupplierStockHandler(w http.ResponseWriter, r *http.Request) {
	if !a.admit(w, r) {
		return
	}
	var rows []store.SupplierRow
	if err := decodeStrict(r, &rows); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	for _, row := range rows {
		if strings.TrimSpace(row.SKU) == "" {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", "sku is required")
			return
		}
	}
	a.Catalog.SetSupplierRows(rows)
	writeJSON(w, http.StatusOK, map[string]int{"rows": len(rows)})
	obs.Logger.Info("supplier_stock_seeded", "request_id", RequestIDFromContext(r.Context()), "rows", len(rows))
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"skus":       len(a.Catalog.SKUs()),
		"uptime_sec": time.Since(a.started).Seconds(),
	})
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}
