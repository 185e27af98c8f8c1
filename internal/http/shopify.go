package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/fairyhunter13/flam-stock-sync/internal/model"
	"github.com/fairyhunter13/flam-stock-sync/internal/obs"
	"github.com/fairyhunter13/flam-stock-sync/internal/storefront"
)

type graphqlResponse struct {
	Data   any                       `json:"data,omitempty"`
	Errors []storefront.GraphQLError `json:"errors,omitempty"`
}

func graphqlError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, graphqlResponse{Errors: []storefront.GraphQLError{{Message: msg}}})
}

// skuFromQuery extracts X from a `sku:"X"` or `sku:X` search string.
func skuFromQuery(q string) string {
	q = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(q), "sku:"))
	if len(q) >= 2 && strings.HasPrefix(q, `"`) && strings.HasSuffix(q, `"`) {
		q = strings.ReplaceAll(q[1:len(q)-1], `\"`, `"`)
	}
	return q
}

// graphqlHandler answers the two storefront operations by operationName.
func (a *App) graphqlHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	if !strings.HasSuffix(r.URL.Path, "/graphql.json") {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	tok := r.Header.Get("X-Shopify-Access-Token")
	if tok == "" || (a.Cfg.ShopifyAccessToken != "" && tok != a.Cfg.ShopifyAccessToken) {
		WriteJSONError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}
	var req storefront.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	switch req.OperationName {
	case storefront.OpFindVariantBySKU:
		a.findVariant(w, req.Variables)
	case storefront.OpSetOnHand:
		a.setOnHand(w, r, req.Variables)
	default:
		graphqlError(w, "unsupported operation "+req.OperationName)
	}
}

func (a *App) findVariant(w http.ResponseWriter, raw json.RawMessage) {
	var vars storefront.FindVariantVars
	if err := json.Unmarshal(raw, &vars); err != nil {
		graphqlError(w, "invalid variables: "+err.Error())
		return
	}
	loc := model.NumericID(vars.LocationID)
	var data storefront.FindVariantData
	for _, v := range a.Catalog.FindBySKU(skuFromQuery(vars.Query)) {
		node := storefront.VariantNode{
			ID:  v.VariantID,
			SKU: v.SKU,
			Product: storefront.Product{
				ID:     v.ProductID,
				Title:  v.ProductTitle,
				Handle: strings.ToLower(strings.ReplaceAll(v.ProductTitle, " ", "-")),
				Status: "ACTIVE",
			},
			InventoryItem: storefront.InventoryItem{ID: v.InventoryItemID},
		}
		if v.Archived {
			node.Product.Status = "ARCHIVED"
		}
		if n, ok := v.Quantities[loc]; ok {
			node.InventoryItem.InventoryLevel = &storefront.InventoryLevel{
				Quantities: []storefront.Quantity{
					{Name: "on_hand", Quantity: n},
					{Name: "available", Quantity: n - v.Committed[loc]},
				},
			}
		}
		data.ProductVariants.Edges = append(data.ProductVariants.Edges, storefront.VariantEdge{Node: node})
	}
	if data.ProductVariants.Edges == nil {
		data.ProductVariants.Edges = []storefront.VariantEdge{}
	}
	writeJSON(w, http.StatusOK, graphqlResponse{Data: data})
}

func (a *App) setOnHand(w http.ResponseWriter, r *http.Request, raw json.RawMessage) {
	var vars storefront.SetOnHandVars
	if err := json.Unmarshal(raw, &vars); err != nil {
		graphqlError(w, "invalid variables: "+err.Error())
		return
	}
	var data storefront.SetOnHandData
	res := &data.InventorySetOnHandQuantities
	for i, sq := range vars.Input.SetQuantities {
		if sq.Quantity < 0 {
			res.UserErrors = append(res.UserErrors, storefront.UserError{
				Field:   []string{"input", "setQuantities", strconv.Itoa(i), "quantity"},
				Message: "Quantity must be greater than or equal to 0",
			})
			continue
		}
		delta, ok := a.Catalog.SetOnHand(sq.InventoryItemID, sq.LocationID, sq.Quantity)
		if !ok {
			res.UserErrors = append(res.UserErrors, storefront.UserError{
				Field:   []string{"input", "setQuantities", strconv.Itoa(i), "inventoryItemId"},
				Message: "The specified inventory item could not be found.",
			})
			continue
		}
		obs.Logger.Info("on_hand_set",
			"request_id", RequestIDFromContext(r.Context()),
			"inventory_item_id", sq.InventoryItemID,
			"location_id", sq.LocationID,
			"quantity", sq.Quantity,
			"delta", delta,
		)
	}
	if len(res.UserErrors) == 0 {
		res.InventoryAdjustmentGroup = &storefront.AdjustmentGroup{ID: model.GID("InventoryAdjustmentGroup", uuid.NewString())}
	}
	if res.UserErrors == nil {
		res.UserErrors = []storefront.UserError{}
	}
	writeJSON(w, http.StatusOK, graphqlResponse{Data: data})
}
