package tools

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const loaderUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]+>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// Loader fetches web pages and reduces them to plain text for indexing.
// Individual fetch failures are logged and skipped; Load only fails when
// nothing could be retrieved at all.
type Loader struct {
	client *http.Client
	pdf    *PDFScraper
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// WithPDFScraper routes .pdf URLs through OCR instead of the HTML pipeline.
func (l *Loader) WithPDFScraper(s *PDFScraper) *Loader {
	l.pdf = s
	return l
}

func (l *Loader) Load(ctx context.Context, urls []string) ([]string, error) {
	var texts []string
	for _, u := range urls {
		text, err := l.loadOne(ctx, u)
		if err != nil {
			l.logger.Warn("failed to load url", "url", u, "error", err)
			continue
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 && len(urls) > 0 {
		return nil, fmt.Errorf("no content could be loaded from %d urls", len(urls))
	}
	return texts, nil
}

func (l *Loader) loadOne(ctx context.Context, u string) (string, error) {
	if l.pdf != nil && strings.HasSuffix(strings.ToLower(u), ".pdf") {
		return l.pdf.Scrape(ctx, u)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", loaderUserAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch returned non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return stripHTML(string(body)), nil
}

// stripHTML removes script/style blocks and markup, unescapes entities and
// collapses whitespace.
func stripHTML(s string) string {
	s = scriptRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
