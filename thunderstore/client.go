package thunderstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"mod-catalog-mirror/config"
)

// ErrMalformedEnvelope means the response body is not a JSON array.
var ErrMalformedEnvelope = errors.New("catalog payload is not a JSON array")

// Client retrieves the package list from Thunderstore.
type Client struct {
	URL        string
	UserAgent  string
	HTTPClient *http.Client
}

// NewClient creates a new Thunderstore client using the provided configuration.
// The HTTP client has no timeout of its own; bound Fetch with its context.
func NewClient(cfg config.Config) (*Client, error) {
	if cfg.CatalogURL == "" {
		return nil, fmt.Errorf("CATALOG_URL is not configured")
	}
	if cfg.UserAgent == "" {
		// Should be handled by LoadConfig default, but double-check
		return nil, fmt.Errorf("USERAGENT is not configured")
	}

	return &Client{
		URL:        cfg.CatalogURL,
		UserAgent:  cfg.UserAgent,
		HTTPClient: &http.Client{},
	}, nil
}

// Fetch downloads the full catalog and returns it verbatim. It makes exactly
// one request and never retries.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Try to read body for more error info
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("api request failed: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if err := ValidateEnvelope(body); err != nil {
		return nil, err
	}
	return body, nil
}

// ValidateEnvelope checks that payload is a well-formed JSON array. The
// elements themselves are checked later, one by one.
func ValidateEnvelope(payload []byte) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return ErrMalformedEnvelope
	}
	if !json.Valid(trimmed) {
		return fmt.Errorf("%w: invalid JSON", ErrMalformedEnvelope)
	}
	return nil
}
