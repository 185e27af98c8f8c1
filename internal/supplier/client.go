package supplier

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/fairyhunter13/flam-stock-sync/internal/config"
	"github.com/fairyhunter13/flam-stock-sync/internal/model"
	"github.com/fairyhunter13/flam-stock-sync/internal/obs"
)

// Client logs into FLAM with a form post and downloads the stock export
// within the same cookie session.
type Client struct {
	httpClient *http.Client
	loginURL   string
	exportURL  string
	username   string
	password   string
	warehouse  string
}

// NewClient builds a Client from the run configuration.
func NewClient(cfg config.Config) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Jar: jar, Timeout: timeout},
		loginURL:   cfg.FlamURL,
		exportURL:  cfg.FlamExportURL,
		username:   cfg.FlamUsername,
		password:   cfg.FlamPassword,
		warehouse:  cfg.FlamWarehouse,
	}, nil
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrSupplierUnavailable, fmt.Sprintf(format, args...))
}

// ListStock logs in and returns the full export. Every failure wraps
// model.ErrSupplierUnavailable.
func (c *Client) ListStock(ctx context.Context) ([]model.StockRecord, error) {
	if c.exportURL == "" {
		return nil, unavailable("no export url derivable from %q", c.loginURL)
	}
	if err := c.login(ctx); err != nil {
		return nil, err
	}
	body, err := c.export(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	recs, err := ParseExport(body)
	if err != nil {
		return nil, unavailable("parse export: %v", err)
	}
	obs.Logger.Info("supplier_listing_fetched", "records", len(recs))
	return recs, nil
}

func (c *Client) login(ctx context.Context) error {
	form := url.Values{}
	form.Set("loginid", c.username)
	form.Set("password", c.password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return unavailable("build login request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return unavailable("login: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return unavailable("login returned status %d", resp.StatusCode)
	}
	u, err := url.Parse(c.exportURL)
	if err != nil {
		return unavailable("export url: %v", err)
	}
	if len(c.httpClient.Jar.Cookies(u)) == 0 {
		return unavailable("login did not establish a session")
	}
	obs.Logger.Info("supplier_login_ok")
	return nil
}

func (c *Client) export(ctx context.Context) (io.ReadCloser, error) {
	u, err := url.Parse(c.exportURL)
	if err != nil {
		return nil, unavailable("export url: %v", err)
	}
	q := u.Query()
	q.Set("gs", "1")
	q.Set("wh_from", c.warehouse)
	q.Set("wh_to", c.warehouse)
	q.Set("format", "csv")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, unavailable("build export request: %v", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable("export: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, unavailable("export returned status %d: %s", resp.StatusCode, string(b))
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt == "text/html" {
		resp.Body.Close()
		return nil, unavailable("export returned an html page, session rejected")
	}
	return resp.Body, nil
}
