package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const mistralOCRBaseURL = "https://api.mistral.ai/v1/ocr"

type pdfScrapeResponsePage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

type ocrResponse struct {
	Pages []pdfScrapeResponsePage `json:"pages"`
}

// PDFScraper extracts PDF contents as markdown using the Mistral OCR API.
type PDFScraper struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewPDFScraper(apiKey string) *PDFScraper {
	return &PDFScraper{
		apiKey:  apiKey,
		baseURL: mistralOCRBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Scrape OCRs the document at url and returns its pages as markdown.
func (s *PDFScraper) Scrape(ctx context.Context, url string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("mistral api key is not set")
	}
	url = strings.Replace(url, "http://", "https://", 1)

	reqBody, err := json.Marshal(map[string]any{
		"model": "mistral-ocr-latest",
		"document": map[string]string{
			"type":         "document_url",
			"document_url": url,
		},
		"include_image_base64": false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status: %s, body: %s", resp.Status, string(body))
	}

	var parsed ocrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal OCR response: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-----\n# URL: %s\n-----\n\n", url)
	for _, page := range parsed.Pages {
		fmt.Fprintf(&b, "- Page %d -\n%s\n\n", page.Index, page.Markdown)
	}
	return b.String(), nil
}
