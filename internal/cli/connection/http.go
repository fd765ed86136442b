package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/infra/buildinfo"
)

// HTTPClient queries the server's operational endpoints.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new HTTP client. A server without scheme is
// treated as http.
func NewHTTPClient(server string) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request and decodes a JSON body into target.
func (c *HTTPClient) Get(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "worldsave-cli/"+buildinfo.Get().Version)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	return ParseResponse(resp, target)
}

// Health returns the /health body.
func (c *HTTPClient) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.Get(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LastSave returns the most recent save known to the server.
func (c *HTTPClient) LastSave(ctx context.Context) (*domain.SaveSummary, error) {
	var s domain.SaveSummary
	if err := c.Get(ctx, "/status", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseResponse parses a JSON response body into the target struct.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Message != "" {
			return fmt.Errorf("[%s] %s", errResp.Code, errResp.Message)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
