package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/research-orchestrator/pkg/research"
)

// ReportSections are the required report sections, in order.
var ReportSections = []string{
	"Introduction",
	"Background",
	"Key Findings",
	"Trends",
	"Challenges",
	"Conclusion",
	"References",
}

const reporterSystemPrompt = `You are an expert research report writer. Your task is to create a
comprehensive, well-structured research report in markdown format.

The report MUST include the following sections in this exact order:
1. Introduction
2. Background
3. Key Findings
4. Trends
5. Challenges
6. Conclusion
7. References

Requirements:
- Write in a professional, academic style
- Use proper markdown formatting (headers, lists, emphasis)
- Be thorough but concise
- Base all content on the provided insights and summary
- For the References section, use the exact markdown format provided
- Do NOT invent facts not supported by the provided information`

// Reporter composes the final seven-section markdown report from a finished
// pipeline state.
type Reporter struct {
	model  llms.Model
	logger *slog.Logger
}

func NewReporter(model llms.Model, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{model: model, logger: logger}
}

func (r *Reporter) Compose(ctx context.Context, state research.State) (string, error) {
	prompt := fmt.Sprintf(`Research Query: %s

Research Topics Identified:
%s

Search Queries Used:
%s

Extracted Insights:
%s

Summary:
%s

References (use exactly as provided):
%s

Please generate a complete research report following the required structure.
The report should be comprehensive, well-written, and based entirely on the
information provided above.`,
		state.UserQuery,
		bulletList(state.ResearchTopics),
		bulletList(state.SearchQueries),
		formatInsightBlock(state.ExtractedInsights),
		orDefault(state.Summary, "No summary available."),
		buildReferences(state.SearchResults))

	out, err := generateText(ctx, r.model, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, reporterSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return "", fmt.Errorf("report generation failed: %w", err)
	}

	report := strings.TrimSpace(out)
	if !strings.HasPrefix(report, "#") {
		report = "# Research Report\n\n" + report
	}
	r.logger.Info("report composed", "chars", len(report))
	return report, nil
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "N/A"
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+it)
	}
	return strings.Join(lines, "\n")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// formatInsightBlock renders numbered insights with evidence and source for
// the model prompt.
func formatInsightBlock(insights []research.Insight) string {
	if len(insights) == 0 {
		return "No insights were extracted from the available sources."
	}
	lines := make([]string, 0, len(insights))
	for i, in := range insights {
		line := fmt.Sprintf("%d. **Finding:** %s", i+1, in.Finding)
		if in.Evidence != "" {
			line += fmt.Sprintf("\n   **Evidence:** %s", in.Evidence)
		}
		if in.Source != "" {
			line += fmt.Sprintf("\n   **Source:** %s", in.Source)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n\n")
}

// buildReferences produces a deduplicated markdown link list from the search
// results, keyed by title plus URL.
func buildReferences(results []research.SearchResult) string {
	if len(results) == 0 {
		return "- No references available."
	}

	type refKey struct{ title, url string }
	seen := make(map[refKey]bool)
	var lines []string
	for _, res := range results {
		title := res.Title
		if title == "" {
			title = "Untitled Source"
		}
		key := refKey{title, res.URL}
		if seen[key] {
			continue
		}
		seen[key] = true
		if res.URL != "" {
			lines = append(lines, fmt.Sprintf("- [%s](%s)", title, res.URL))
		} else {
			lines = append(lines, "- "+title)
		}
	}
	return strings.Join(lines, "\n")
}
