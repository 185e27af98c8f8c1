package storefront

import (
	"context"
	"fmt"
	"strings"

	"github.com/fairyhunter13/flam-stock-sync/internal/model"
)

// Wire shapes shared with the simulator.
type (
	Quantity struct {
		Name     string `json:"name"`
		Quantity int64  `json:"quantity"`
	}
	InventoryLevel struct {
		Quantities []Quantity `json:"quantities"`
	}
	InventoryItem struct {
		ID             string          `json:"id"`
		InventoryLevel *InventoryLevel `json:"inventoryLevel"`
	}
	Product struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Handle string `json:"handle"`
		Status string `json:"status"`
	}
	VariantNode struct {
		ID            string        `json:"id"`
		SKU           string        `json:"sku"`
		Product       Product       `json:"product"`
		InventoryItem InventoryItem `json:"inventoryItem"`
	}
	VariantEdge struct {
		Node VariantNode `json:"node"`
	}
	FindVariantData struct {
		ProductVariants struct {
			Edges []VariantEdge `json:"edges"`
		} `json:"productVariants"`
	}
	FindVariantVars struct {
		Query      string `json:"query"`
		LocationID string `json:"locationId"`
	}

	SetQuantity struct {
		InventoryItemID string `json:"inventoryItemId"`
		LocationID      string `json:"locationId"`
		Quantity        int64  `json:"quantity"`
	}
	SetOnHandInput struct {
		Reason        string        `json:"reason"`
		SetQuantities []SetQuantity `json:"setQuantities"`
	}
	SetOnHandVars struct {
		Input SetOnHandInput `json:"input"`
	}
	UserError struct {
		Field   []string `json:"field"`
		Message string   `json:"message"`
	}
	AdjustmentGroup struct {
		ID string `json:"id"`
	}
	SetOnHandData struct {
		InventorySetOnHandQuantities struct {
			InventoryAdjustmentGroup *AdjustmentGroup `json:"inventoryAdjustmentGroup"`
			UserErrors               []UserError      `json:"userErrors"`
		} `json:"inventorySetOnHandQuantities"`
	}
)

// SKUQuery builds the productVariants search string for an exact SKU.
func SKUQuery(sku string) string {
	return `sku:"` + strings.ReplaceAll(sku, `"`, `\"`) + `"`
}

// FindItemBySKU resolves a SKU to its variant. Search results are filtered
// to exact SKU matches; when several variants share the SKU, the first
// non-archived one wins and MatchCount reports how many there were.
func (c *Client) FindItemBySKU(ctx context.Context, sku string) (model.ItemRef, error) {
	var data FindVariantData
	vars := FindVariantVars{Query: SKUQuery(sku), LocationID: model.GID("Location", c.locationID)}
	if err := c.do(ctx, OpFindVariantBySKU, findVariantQuery, vars, &data); err != nil {
		return model.ItemRef{}, err
	}
	var matches []VariantNode
	for _, e := range data.ProductVariants.Edges {
		if e.Node.SKU == sku {
			matches = append(matches, e.Node)
		}
	}
	if len(matches) == 0 {
		return model.ItemRef{}, fmt.Errorf("%w: %s", model.ErrSkuNotFound, sku)
	}
	pick := matches[0]
	for _, m := range matches {
		if !isArchived(m.Product) {
			pick = m
			break
		}
	}
	return model.ItemRef{
		SKU:             sku,
		VariantID:       pick.ID,
		InventoryItemID: pick.InventoryItem.ID,
		ProductTitle:    pick.Product.Title,
		Archived:        isArchived(pick.Product),
		OnHand:          quantity(pick.InventoryItem.InventoryLevel, "on_hand"),
		Available:       quantity(pick.InventoryItem.InventoryLevel, "available"),
		MatchCount:      len(matches),
	}, nil
}

// SetQuantity sets on-hand stock for the item at locationID. Transport
// errors, GraphQL errors and user errors all wrap model.ErrUpdateRejected.
func (c *Client) SetQuantity(ctx context.Context, item model.ItemRef, locationID string, qty int64) error {
	if qty < 0 {
		return fmt.Errorf("%w: negative quantity %d", model.ErrUpdateRejected, qty)
	}
	vars := SetOnHandVars{Input: SetOnHandInput{
		Reason: "correction",
		SetQuantities: []SetQuantity{{
			InventoryItemID: model.GID("InventoryItem", item.InventoryItemID),
			LocationID:      model.GID("Location", locationID),
			Quantity:        qty,
		}},
	}}
	var data SetOnHandData
	if err := c.do(ctx, OpSetOnHand, setOnHandMutation, vars, &data); err != nil {
		return fmt.Errorf("%w: %w", model.ErrUpdateRejected, err)
	}
	if ue := data.InventorySetOnHandQuantities.UserErrors; len(ue) > 0 {
		msgs := make([]string, 0, len(ue))
		for _, e := range ue {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("%w: %s", model.ErrUpdateRejected, strings.Join(msgs, "; "))
	}
	return nil
}

func isArchived(p Product) bool { return strings.EqualFold(p.Status, "ARCHIVED") }

func quantity(l *InventoryLevel, name string) *int64 {
	if l == nil {
		return nil
	}
	for _, q := range l.Quantities {
		if q.Name == name {
			n := q.Quantity
			return &n
		}
	}
	return nil
}
