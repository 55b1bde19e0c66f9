package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/research-orchestrator/pkg/research"
)

// maxFindingsRunes caps the structured findings block sent to the model.
const maxFindingsRunes = 6000

const summarizerSystemPrompt = `You are an expert academic writer. Given a user research query
and a set of structured findings, write a neutral, academic-style summary.

Requirements:
- Length: 300-500 words.
- Tone: neutral, objective, third-person.
- Structure: 2-4 clear paragraphs (no bullet lists).
- Include: key findings, important statistics, methodologies, and any notable trends or limitations.
- Do NOT invent facts that are not supported by the findings.`

// Summarizer compresses extracted insights into a short academic summary.
type Summarizer struct {
	model  llms.Model
	logger *slog.Logger
}

func NewSummarizer(model llms.Model, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{model: model, logger: logger}
}

func (s *Summarizer) Summarize(ctx context.Context, query string, insights []research.Insight) (string, error) {
	if len(insights) == 0 {
		return "No analyses available to summarize yet.", nil
	}

	findings := formatFindings(insights)
	if runes := []rune(findings); len(runes) > maxFindingsRunes {
		findings = string(runes[:maxFindingsRunes])
	}

	out, err := generateText(ctx, s.model, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, summarizerSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(
			"User query:\n%s\n\nStructured findings:\n%s\n\nWrite the final summary for the user following the requirements.",
			query, findings)),
	})
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w", err)
	}

	summary := strings.TrimSpace(out)
	s.logger.Debug("summary model call finished", "chars", len(summary))
	return summary, nil
}

// formatFindings renders insights as a bullet list the model can cite from.
func formatFindings(insights []research.Insight) string {
	lines := make([]string, 0, len(insights))
	for _, in := range insights {
		line := "- Finding: " + in.Finding
		if in.Evidence != "" {
			line += " | Evidence: " + in.Evidence
		}
		if in.Source != "" {
			line += " | Source: " + in.Source
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
