// Package client fetches usage datasets from a running serve-mode instance.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-ruiz/codex-usage-tui/internal/chart"
	"github.com/m-ruiz/codex-usage-tui/internal/models"
)

// Client talks to the usage API. It satisfies chart.Fetcher, so the TUI can
// swap it in for the local engine when a remote URL is configured.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API at baseURL, e.g. "http://127.0.0.1:8008".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch retrieves a dataset for the query. Implements chart.Fetcher.
func (c *Client) Fetch(ctx context.Context, q models.UsageQuery) (*models.Dataset, error) {
	params := url.Values{}
	params.Set("window", string(q.Key))
	if !q.Start.IsZero() {
		params.Set("start", q.Start.Format(time.RFC3339))
	}
	if !q.End.IsZero() {
		params.Set("end", q.End.Format(time.RFC3339))
	}
	if q.Granularity != "" {
		params.Set("granularity", string(q.Granularity))
	}

	endpoint := c.baseURL + "/api/usage?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &chart.RequestError{Message: fmt.Sprintf("usage API unreachable: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &chart.RequestError{Message: apiError(resp)}
	}

	var ds models.Dataset
	if err := json.NewDecoder(resp.Body).Decode(&ds); err != nil {
		return nil, &chart.RequestError{Message: fmt.Sprintf("bad usage API response: %v", err)}
	}
	return &ds, nil
}

// Healthy reports whether the API answers its liveness endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// apiError extracts the error message from a failed API response.
func apiError(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fmt.Sprintf("usage API returned %s", resp.Status)
}
