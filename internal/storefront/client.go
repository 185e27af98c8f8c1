// Package storefront talks to the Shopify GraphQL Admin API: SKU lookup and
// location-scoped on-hand quantity updates.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fairyhunter13/flam-stock-sync/internal/config"
)

// Operation names, also used by the simulator to route requests.
const (
	OpFindVariantBySKU = "FindVariantBySKU"
	OpSetOnHand        = "SetOnHand"
)

const findVariantQuery = `query FindVariantBySKU($query: String!, $locationId: ID!) {
  productVariants(first: 10, query: $query) {
    edges {
      node {
        id
        sku
        product { id title handle status }
        inventoryItem {
          id
          inventoryLevel(locationId: $locationId) {
            quantities(names: ["on_hand", "available"]) { name quantity }
          }
        }
      }
    }
  }
}`

const setOnHandMutation = `mutation SetOnHand($input: InventorySetOnHandQuantitiesInput!) {
  inventorySetOnHandQuantities(input: $input) {
    inventoryAdjustmentGroup { id }
    userErrors { field message }
  }
}`

// Client is a minimal GraphQL Admin API client.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	locationID string
}

// NewClient builds a Client for the configured store. A store URL without a
// scheme is taken as an https host name.
func NewClient(cfg config.Config) *Client {
	base := strings.TrimRight(cfg.ShopifyStoreURL, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   fmt.Sprintf("%s/admin/api/%s/graphql.json", base, cfg.ShopifyAPIVersion),
		token:      cfg.ShopifyAccessToken,
		locationID: cfg.TargetLocationID,
	}
}

// Request is a GraphQL request body.
type Request struct {
	OperationName string          `json:"operationName"`
	Query         string          `json:"query"`
	Variables     json.RawMessage `json:"variables,omitempty"`
}

// GraphQLError is one entry of a top-level errors array.
type GraphQLError struct {
	Message string `json:"message"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

func (c *Client) do(ctx context.Context, op, query string, vars any, out any) error {
	v, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("marshal variables: %w", err)
	}
	body, err := json.Marshal(Request{OperationName: op, Query: query, Variables: v})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call storefront %s: %w", op, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("storefront %s returned status %d: %s", op, resp.StatusCode, truncate(raw, 256))
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("storefront %s: %s", op, strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", op, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
