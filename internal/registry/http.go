package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"recproxy/pkg/platform/sentinel"
)

// HTTPClient talks to the consent-registry gateway. Any transport failure or
// 5xx surfaces as sentinel.ErrUnavailable so the consent service never
// mistakes an outage for a denial.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type hashRequest struct {
	Hash string `json:"hash"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

func (c *HTTPClient) HashExists(ctx context.Context, h Hash) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/hashes/"+string(h), nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("registry lookup: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 500:
		return false, fmt.Errorf("registry lookup: %w: status %d", sentinel.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("registry lookup: unexpected status %d", resp.StatusCode)
	}

	var body existsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode registry response: %w", err)
	}
	return body.Exists, nil
}

func (c *HTTPClient) StoreHash(ctx context.Context, h Hash) error {
	return c.post(ctx, "/hashes", h)
}

func (c *HTTPClient) RevokeHash(ctx context.Context, h Hash) error {
	return c.post(ctx, "/hashes/revoke", h)
}

func (c *HTTPClient) post(ctx context.Context, path string, h Hash) error {
	payload, err := json.Marshal(hashRequest{Hash: string(h)})
	if err != nil {
		return fmt.Errorf("encode registry request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("registry write: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("registry write: %w: status %d", sentinel.ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("registry write: unexpected status %d", resp.StatusCode)
	}
	return nil
}
