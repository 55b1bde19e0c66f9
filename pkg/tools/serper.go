package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mikeboe/research-orchestrator/pkg/research"
)

const (
	serperBaseURL       = "https://google.serper.dev/search"
	serperDefaultNum    = 5
	mockResultCount     = 3
	serperClientTimeout = 20 * time.Second
)

// SerperClient searches the web through the Serper API. Without an API key,
// or when the API is unreachable, it degrades to deterministic mock results
// so the rest of the pipeline can be exercised offline.
type SerperClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewSerperClient(apiKey string, logger *slog.Logger) *SerperClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &SerperClient{
		apiKey:  apiKey,
		baseURL: serperBaseURL,
		client:  &http.Client{Timeout: serperClientTimeout},
		logger:  logger,
	}
}

type serperOrganicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type serperResponse struct {
	Organic []serperOrganicResult `json:"organic"`
}

func (c *SerperClient) Search(ctx context.Context, query string) ([]research.SearchResult, error) {
	if c.apiKey == "" {
		c.logger.Warn("no serper api key configured, returning mock results", "query", query)
		return mockResults(query), nil
	}

	results, err := c.search(ctx, query)
	if err != nil {
		c.logger.Warn("serper request failed, returning mock results", "query", query, "error", err)
		return mockResults(query), nil
	}
	return results, nil
}

func (c *SerperClient) search(ctx context.Context, query string) ([]research.SearchResult, error) {
	reqBody, err := json.Marshal(map[string]any{
		"q":   query,
		"num": serperDefaultNum,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned non-200 status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var parsed serperResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search response: %w", err)
	}

	results := make([]research.SearchResult, 0, len(parsed.Organic))
	for _, r := range parsed.Organic {
		results = append(results, research.SearchResult{
			Title:   r.Title,
			Source:  r.Link,
			Content: r.Snippet,
			URL:     r.Link,
		})
	}
	c.logger.Info("serper search completed", "query", query, "results", len(results))
	return results, nil
}

// mockResults is the offline fallback: three placeholder results that keep
// downstream steps running without network access.
func mockResults(query string) []research.SearchResult {
	results := make([]research.SearchResult, 0, mockResultCount)
	for i := 1; i <= mockResultCount; i++ {
		results = append(results, research.SearchResult{
			Title:   fmt.Sprintf("Mock result %d for '%s'", i, query),
			Source:  fmt.Sprintf("https://example.com/mock/%d", i),
			Content: fmt.Sprintf("This is mock search content %d about %s, used when no search API is available.", i, query),
			URL:     fmt.Sprintf("https://example.com/mock/%d", i),
		})
	}
	return results
}
