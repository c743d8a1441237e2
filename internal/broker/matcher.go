package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPMatcher asks an external matchmaker service to pair the reader with an
// owner whose recommendations they should cross-pollinate.
type HTTPMatcher struct {
	baseURL string
	client  *http.Client
}

func NewHTTPMatcher(baseURL string, timeout time.Duration) *HTTPMatcher {
	return &HTTPMatcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type matchRequest struct {
	Reader     string   `json:"reader"`
	Candidates []string `json:"candidates"`
	Resource   string   `json:"resource"`
}

type matchResponse struct {
	Owner string `json:"owner"`
}

// FindMatch posts the candidate set and returns the chosen owner, or empty
// when the matchmaker has no opinion. Any transport or decode failure is an
// error; the broker treats those as "no match" and keeps going.
func (m *HTTPMatcher) FindMatch(ctx context.Context, readerID string, candidates []string, resource string) (string, error) {
	payload, err := json.Marshal(matchRequest{
		Reader:     readerID,
		Candidates: candidates,
		Resource:   resource,
	})
	if err != nil {
		return "", fmt.Errorf("marshal match request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/match", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build match request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call matchmaker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("matchmaker returned status %d", resp.StatusCode)
	}
	var out matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode match response: %w", err)
	}
	return out.Owner, nil
}

type pairingRequest struct {
	Reader string `json:"reader"`
	Owner  string `json:"owner"`
}

// RecordPairing tells the matchmaker about a pair resolved outside
// matchmaking, so its model can learn from sticky preferences. Fire and
// forget: failures are swallowed, the pairing itself already happened.
func (m *HTTPMatcher) RecordPairing(ctx context.Context, readerID, ownerID string) {
	payload, err := json.Marshal(pairingRequest{Reader: readerID, Owner: ownerID})
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/pairings", bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
