// Package shopify reads order transactions and fulfillments from the Shopify
// admin API.
package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vanshika/chargeback/backend/internal/config"
	"github.com/vanshika/chargeback/backend/internal/domain"
)

var (
	// ErrNoTransactions is returned when an order has no transactions.
	ErrNoTransactions = errors.New("order has no transactions")
	// ErrNoTracking is returned when no fulfillment of the order carries a tracking number.
	ErrNoTracking = errors.New("order has no tracked fulfillment")
	// ErrOrderNotFound is returned when no order matches the reference.
	ErrOrderNotFound = errors.New("order not found")
)

const defaultAPIVersion = "2024-01"

// Transaction is one gateway transaction as returned by the API. The payload
// shape varies by gateway, so it is kept as decoded JSON.
type Transaction map[string]any

// StatusError reports a non-2xx API response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("shopify api status %d: %s", e.Code, e.Body)
}

// Client talks to the admin API of any shop, authenticating per call.
type Client struct {
	http       *http.Client
	apiVersion string
	endpoint   string
}

// Option customizes a Client.
type Option func(*Client)

// WithEndpoint sends every request to base instead of https://{shop}. Used by tests.
func WithEndpoint(base string) Option {
	return func(c *Client) {
		c.endpoint = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New constructs a Client from configuration.
func New(cfg config.ShopifyConfig, opts ...Option) *Client {
	version := cfg.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		http:       &http.Client{Timeout: timeout},
		apiVersion: version,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transactions fetches the transactions of an order by its numeric id.
func (c *Client) Transactions(ctx context.Context, creds domain.ShopCredentials, orderID string) ([]Transaction, error) {
	var payload struct {
		Transactions []Transaction `json:"transactions"`
	}
	path := fmt.Sprintf("/orders/%s/transactions.json", url.PathEscape(orderID))
	if err := c.get(ctx, creds, path, nil, &payload); err != nil {
		return nil, fmt.Errorf("fetch transactions for order %s: %w", orderID, err)
	}
	if len(payload.Transactions) == 0 {
		return nil, ErrNoTransactions
	}
	return payload.Transactions, nil
}

type fulfillment struct {
	TrackingNumber  string `json:"tracking_number"`
	TrackingCompany string `json:"tracking_company"`
	TrackingURL     string `json:"tracking_url"`
}

type order struct {
	Fulfillments []fulfillment `json:"fulfillments"`
}

// Tracking looks an order up by its display name, trying the bare reference
// before the "#"-prefixed one, and returns the first tracked fulfillment.
func (c *Client) Tracking(ctx context.Context, creds domain.ShopCredentials, reference string) (domain.TrackingInfo, error) {
	ref := strings.ReplaceAll(strings.TrimSpace(reference), "#", "")
	var found []order
	for _, name := range []string{ref, "#" + ref} {
		var payload struct {
			Orders []order `json:"orders"`
		}
		q := url.Values{"name": {name}, "status": {"any"}}
		if err := c.get(ctx, creds, "/orders.json", q, &payload); err != nil {
			var se *StatusError
			if errors.As(err, &se) {
				continue
			}
			return domain.TrackingInfo{}, fmt.Errorf("look up order %s: %w", name, err)
		}
		if len(payload.Orders) > 0 {
			found = payload.Orders
			break
		}
	}
	if len(found) == 0 {
		return domain.TrackingInfo{}, ErrOrderNotFound
	}

	for _, f := range found[0].Fulfillments {
		if f.TrackingNumber == "" {
			continue
		}
		link := f.TrackingURL
		if link == "" {
			link = TrackingURL(f.TrackingNumber, f.TrackingCompany)
		}
		return domain.TrackingInfo{Number: f.TrackingNumber, Company: f.TrackingCompany, URL: link}, nil
	}
	return domain.TrackingInfo{}, ErrNoTracking
}

// TrackingURL builds a public tracking link for the known carriers, or "".
func TrackingURL(number, carrier string) string {
	c := strings.ToLower(carrier)
	n := url.QueryEscape(number)
	switch {
	case strings.Contains(c, "fedex"):
		return "https://www.fedex.com/fedextrack/?tracknumbers=" + n
	case strings.Contains(c, "ups"):
		return "https://www.ups.com/track?tracknum=" + n
	case strings.Contains(c, "usps"):
		return "https://tools.usps.com/go/TrackConfirmAction?tLabels=" + n
	case strings.Contains(c, "dhl"):
		return "https://www.dhl.com/us-en/home/tracking.html?tracking-id=" + n
	}
	return ""
}

// OrderAdminURL is the admin page of an order, used for order screenshots.
func OrderAdminURL(creds domain.ShopCredentials, orderID string) string {
	return fmt.Sprintf("https://%s/admin/orders/%s", creds.Domain(), url.PathEscape(orderID))
}

func (c *Client) get(ctx context.Context, creds domain.ShopCredentials, path string, query url.Values, out any) error {
	base := c.endpoint
	if base == "" {
		base = "https://" + creds.Domain()
	}
	u := fmt.Sprintf("%s/admin/api/%s%s", base, c.apiVersion, path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
