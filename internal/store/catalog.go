package store

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/fairyhunter13/flam-stock-sync/internal/model"
)

// Variant is a storefront variant held by the simulator.
type Variant struct {
	SKU             string           `json:"sku"`
	VariantID       string           `json:"variant_id"`
	InventoryItemID string           `json:"inventory_item_id"`
	ProductID       string           `json:"product_id"`
	ProductTitle    string           `json:"product_title"`
	Archived        bool             `json:"archived"`
	Quantities      map[string]int64 `json:"quantities"`
	// Committed is stock reserved by open orders; available is on hand
	// minus committed.
	Committed       map[string]int64 `json:"committed,omitempty"`
}

// SupplierRow is one line of the simulated supplier export.
type SupplierRow struct {
	SKU      string `json:"sku"`
	OnHand   string `json:"on_hand"`
	Incoming string `json:"incoming"`
	Outgoing string `json:"outgoing"`
	Sellable string `json:"sellable"`
}

// Catalog is the simulator's in-memory storefront and supplier state.
type Catalog struct {
	mu       sync.RWMutex
	bySKU    map[string][]string
	variants map[string]*Variant // keyed by numeric inventory item id
	supplier []SupplierRow
	nextID   atomic.Uint64
}

func NewCatalog() *Catalog {
	return &Catalog{
		bySKU:    make(map[string][]string),
		variants: make(map[string]*Variant),
	}
}

func (c *Catalog) newID() string {
	return strconv.FormatUint(1000+c.nextID.Add(1), 10)
}

// AddVariant stores a copy of v, assigning IDs. Several variants may share a SKU.
func (c *Catalog) AddVariant(v Variant) Variant {
	v.VariantID = model.GID("ProductVariant", c.newID())
	v.InventoryItemID = model.GID("InventoryItem", c.newID())
	if v.ProductID == "" {
		v.ProductID = model.GID("Product", c.newID())
	}
	q := make(map[string]int64, len(v.Quantities))
	for loc, n := range v.Quantities {
		q[model.NumericID(loc)] = n
	}
	v.Quantities = q
	cm := make(map[string]int64, len(v.Committed))
	for loc, n := range v.Committed {
		cm[model.NumericID(loc)] = n
	}
	v.Committed = cm
	c.mu.Lock()
	defer c.mu.Unlock()
	key := model.NumericID(v.InventoryItemID)
	c.variants[key] = &v
	c.bySKU[v.SKU] = append(c.bySKU[v.SKU], key)
	return cloneVariant(&v)
}

// FindBySKU returns every variant with the SKU in insertion order.
func (c *Catalog) FindBySKU(sku string) []Variant {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := c.bySKU[sku]
	out := make([]Variant, 0, len(keys))
	for _, k := range keys {
		out = append(out, cloneVariant(c.variants[k]))
	}
	return out
}

// SetOnHand sets the quantity of an inventory item at a location and
// returns the applied delta.
func (c *Catalog) SetOnHand(inventoryItemID, locationID string, qty int64) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.variants[model.NumericID(inventoryItemID)]
	if !ok {
		return 0, false
	}
	loc := model.NumericID(locationID)
	delta := qty - v.Quantities[loc]
	v.Quantities[loc] = qty
	return delta, true
}

// SKUs lists the known SKUs in sorted order.
func (c *Catalog) SKUs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.bySKU))
	for sku := range c.bySKU {
		out = append(out, sku)
	}
	sort.Strings(out)
	return out
}

// SetSupplierRows replaces the supplier export.
func (c *Catalog) SetSupplierRows(rows []SupplierRow) {
	cp := append([]SupplierRow(nil), rows...)
	c.mu.Lock()
	c.supplier = cp
	c.mu.Unlock()
}

func (c *Catalog) SupplierRows() []SupplierRow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]SupplierRow(nil), c.supplier...)
}

func cloneVariant(v *Variant) Variant {
	cp := *v
	cp.Quantities = make(map[string]int64, len(v.Quantities))
	for k, n := range v.Quantities {
		cp.Quantities[k] = n
	}
	cp.Committed = make(map[string]int64, len(v.Committed))
	for k, n := range v.Committed {
		cp.Committed[k] = n
	}
	return cp
}
