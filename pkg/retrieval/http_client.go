package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"watchfolio-be/pkg/store"
)

// HTTPClient talks to the retrieval service over REST.
type HTTPClient struct {
	BaseURL string
	Client  *http.Client
}

// Ensure HTTPClient implements Client
var _ Client = &HTTPClient{}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *HTTPClient) Retrieve(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal retrieval request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/retrieve", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build retrieval request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("retrieval request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		return nil, fmt.Errorf("retrieval endpoint returned status %d: %s", httpResp.StatusCode, string(raw))
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode retrieval response: %w", err)
	}

	// A recommendation response without a results array is malformed even on
	// HTTP 200.
	if req.Mode == store.ModeRecommendation && resp.Results == nil {
		return nil, fmt.Errorf("retrieval response missing results payload")
	}

	return &resp, nil
}
