package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mikeboe/research-orchestrator/pkg/research"
)

const arxivBaseURL = "https://export.arxiv.org/api/query"

// ArxivEntry holds a single arXiv feed entry.
type ArxivEntry struct {
	Title     string      `xml:"title"`
	Summary   string      `xml:"summary"`
	Published string      `xml:"published"`
	Link      []ArxivLink `xml:"link"`
}

// ArxivLink holds an arXiv entry link.
type ArxivLink struct {
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr"`
}

// ArxivFeed holds the Atom feed returned by the arXiv API.
type ArxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entry   []ArxivEntry `xml:"entry"`
}

// ArxivClient searches arXiv for academic papers.
type ArxivClient struct {
	baseURL    string
	maxResults int
	client     *http.Client
	logger     *slog.Logger
}

func NewArxivClient(maxResults int, logger *slog.Logger) *ArxivClient {
	if maxResults <= 0 {
		maxResults = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ArxivClient{
		baseURL:    arxivBaseURL,
		maxResults: maxResults,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (c *ArxivClient) Search(ctx context.Context, query string) ([]research.SearchResult, error) {
	params := url.Values{}
	params.Add("search_query", query)
	params.Add("max_results", strconv.Itoa(c.maxResults))
	params.Add("start", "0")

	apiURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

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

	var feed ArxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal XML: %w", err)
	}

	results := make([]research.SearchResult, 0, len(feed.Entry))
	for _, entry := range feed.Entry {
		results = append(results, research.SearchResult{
			Title:   strings.TrimSpace(entry.Title),
			Source:  "arXiv",
			Content: strings.TrimSpace(entry.Summary),
			URL:     pdfLink(entry.Link),
		})
	}
	c.logger.Info("arxiv search completed", "query", query, "results", len(results))
	return results, nil
}

func pdfLink(links []ArxivLink) string {
	for _, link := range links {
		if link.Type == "application/pdf" {
			return link.Href
		}
	}
	if len(links) > 0 {
		return links[0].Href
	}
	return ""
}
