package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/research-orchestrator/pkg/research"
)

// maxSnippetRunes caps how much of a single search result is sent to the
// model for extraction.
const maxSnippetRunes = 2000

const analyzerSystemPrompt = `You are an AI research analyst. For the given text snippet,
extract key findings, statistics, methodologies, and trends.

Return a JSON array of objects with this exact schema:
[
  {
    "finding": string,   // main finding or insight
    "evidence": string,  // brief quote or paraphrase from the text
    "source": string     // short source identifier
  }
]

Rules:
- Respond with VALID JSON ONLY (no markdown, no comments, no extra text).
- If there are no meaningful findings, return an empty JSON array [].`

// Analyzer extracts structured insights from raw search content, one model
// call per result. A snippet whose response cannot be parsed contributes zero
// insights; it never fails the whole extraction.
type Analyzer struct {
	model  llms.Model
	logger *slog.Logger
}

func NewAnalyzer(model llms.Model, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{model: model, logger: logger}
}

func (a *Analyzer) Extract(ctx context.Context, results []research.SearchResult) ([]research.Insight, error) {
	if len(results) == 0 {
		return nil, nil
	}

	var insights []research.Insight
	for i, r := range results {
		found, err := a.analyzeOne(ctx, i+1, r)
		if err != nil {
			a.logger.Warn("snippet analysis failed", "index", i+1, "error", err)
			continue
		}
		insights = append(insights, found...)
	}
	a.logger.Debug("snippet analysis finished", "count", len(insights), "snippets", len(results))
	return insights, nil
}

type insightResponse struct {
	Finding  string `json:"finding"`
	Evidence string `json:"evidence"`
	Source   string `json:"source"`
}

func (a *Analyzer) analyzeOne(ctx context.Context, idx int, r research.SearchResult) ([]research.Insight, error) {
	content := r.Content
	if content == "" {
		return nil, nil
	}

	source := r.Source
	if source == "" {
		source = r.URL
	}
	if source == "" {
		source = "unknown"
	}

	if runes := []rune(content); len(runes) > maxSnippetRunes {
		content = string(runes[:maxSnippetRunes])
	}

	var parsed []insightResponse
	_, err := generateJSON(ctx, a.model, a.logger, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, analyzerSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman,
			fmt.Sprintf("Snippet %d (source=%s):\n%s", idx, source, content)),
	}, func(raw string) error {
		parsed = nil
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return fmt.Errorf("json parse error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cleanInsights(parsed, source), nil
}

// cleanInsights drops entries with an empty finding and fills in the snippet
// source where the model omitted one.
func cleanInsights(parsed []insightResponse, fallbackSource string) []research.Insight {
	var out []research.Insight
	for _, p := range parsed {
		finding := strings.TrimSpace(p.Finding)
		if finding == "" {
			continue
		}
		src := strings.TrimSpace(p.Source)
		if src == "" {
			src = fallbackSource
		}
		out = append(out, research.Insight{
			Finding:  finding,
			Evidence: strings.TrimSpace(p.Evidence),
			Source:   src,
		})
	}
	return out
}
