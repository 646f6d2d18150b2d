// Package reasoning calls the external service that analyzes a payment and
// returns the dispute narrative.
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vanshika/chargeback/backend/internal/config"
)

var (
	// ErrEmptyResponse is returned when the service answers with an empty body.
	ErrEmptyResponse = errors.New("reasoning service returned an empty response")
	// ErrStatus is wrapped by errors for non-2xx responses.
	ErrStatus = errors.New("reasoning service returned an error status")
	// ErrNotConfigured is returned when no service URL is set.
	ErrNotConfigured = errors.New("reasoning service url is not configured")
)

// Client posts payment identifiers to the reasoning service.
type Client struct {
	url  string
	http *http.Client
}

// New constructs a Client from configuration.
func New(cfg config.ReasoningConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{url: cfg.URL, http: &http.Client{Timeout: timeout}}
}

type request struct {
	PaymentID string `json:"paymentid"`
}

// Analyze returns the raw response body for a payment. Any failure here is a
// case-level failure.
func (c *Client) Analyze(ctx context.Context, paymentID string) ([]byte, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(request{PaymentID: paymentID})
	if err != nil {
		return nil, fmt.Errorf("marshal reasoning request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create reasoning request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reasoning request for %s: %w", paymentID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read reasoning response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyResponse
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("reasoning response for %s is not valid JSON", paymentID)
	}
	return data, nil
}
