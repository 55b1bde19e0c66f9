package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/research-orchestrator/pkg/research"
)

const plannerSystemPrompt = `You are a precise AI research planner. Given a user research query,
you must return a JSON object that decomposes the work into topics,
search queries, and analysis steps.

Requirements:
- Respond with VALID JSON only (no markdown, no comments, no extra text).
- The top-level object MUST have exactly these keys:
  - "research_topics": array of strings
  - "search_queries": array of strings
  - "analysis_steps": array of strings
- Each string should be concise but informative.`

const plannerSchema = `{
  "type": "object",
  "properties": {
    "research_topics": {"type": "array", "items": {"type": "string"}},
    "search_queries": {"type": "array", "items": {"type": "string"}},
    "analysis_steps": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["research_topics", "search_queries", "analysis_steps"]
}`

// Planner decomposes a research query into topics, search queries and
// analysis steps using an LLM. When the model keeps returning unparseable
// output it falls back to a deterministic single-query plan rather than
// failing the run; only a model/transport failure is fatal.
type Planner struct {
	model  llms.Model
	logger *slog.Logger
}

func NewPlanner(model llms.Model, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{model: model, logger: logger}
}

type planResponse struct {
	ResearchTopics []string `json:"research_topics"`
	SearchQueries  []string `json:"search_queries"`
	AnalysisSteps  []string `json:"analysis_steps"`
}

func (p *Planner) Plan(ctx context.Context, query string) (research.ResearchPlan, error) {
	var parsed planResponse

	raw, err := generateJSON(ctx, p.model, p.logger, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, plannerSystemPrompt+"\n\n# Response Format:\n"+plannerSchema),
		llms.TextParts(llms.ChatMessageTypeHuman, "User research query:\n"+query),
	}, func(content string) error {
		parsed = planResponse{}
		if err := json.Unmarshal([]byte(content), &parsed); err != nil {
			return fmt.Errorf("json parse error: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errInvalidResponse) {
			p.logger.Warn("plan response unparseable, using default plan", "error", err)
			return defaultPlan(query), nil
		}
		return research.ResearchPlan{}, fmt.Errorf("planner generation failed: %w", err)
	}
	p.logger.Debug("plan parsed", "bytes", len(raw))

	plan := defaultPlan(query)
	if len(parsed.ResearchTopics) > 0 {
		plan.Topics = parsed.ResearchTopics
	}
	if len(parsed.SearchQueries) > 0 {
		plan.Queries = parsed.SearchQueries
	}
	if len(parsed.AnalysisSteps) > 0 {
		plan.Steps = parsed.AnalysisSteps
	}
	p.logger.Info("plan generated",
		"topics", len(plan.Topics),
		"queries", len(plan.Queries),
		"steps", len(plan.Steps))
	return plan, nil
}

// defaultPlan is the deterministic fallback when the model cannot produce a
// usable decomposition: research the query verbatim.
func defaultPlan(query string) research.ResearchPlan {
	return research.ResearchPlan{
		Topics:  []string{query},
		Queries: []string{query},
		Steps: []string{
			"Review the gathered materials and identify key themes.",
			"Compare and contrast differing viewpoints.",
			"Synthesize findings into a coherent explanation.",
		},
	}
}
