package research

import (
	"context"
	"fmt"
)

// stepFunc transforms a state snapshot into the next one. A returned error is
// fatal for the run; recoverable collaborator failures are absorbed inside
// the step and surface as empty output instead.
type stepFunc func(context.Context, State) (State, error)

func (o *Orchestrator) runPlan(ctx context.Context, s State) (State, error) {
	plan, err := o.c.Planner.Plan(ctx, s.UserQuery)
	if err != nil {
		return s, fmt.Errorf("planning failed: %w", err)
	}

	next := s.Clone()
	next.Status = StatusRunning
	next.ResearchTopics = plan.Topics
	next.SearchQueries = plan.Queries
	next.AnalysisSteps = plan.Steps
	o.logger.Info("plan generated",
		"topics", len(plan.Topics),
		"queries", len(plan.Queries),
		"steps", len(plan.Steps))
	return next, nil
}

func (o *Orchestrator) runSearch(ctx context.Context, s State) (State, error) {
	next := s.Clone()
	// Every execution of this step counts as an attempt, the first included.
	next.SearchAttempts++

	queries := next.SearchQueries
	if len(queries) == 0 {
		queries = []string{next.UserQuery}
	}

	var results []SearchResult
	for _, q := range queries {
		found, err := o.c.Search.Search(ctx, q)
		if err != nil {
			// A provider failure degrades to no results for this query;
			// the router decides whether that warrants a retry.
			o.logger.Warn("search query failed", "query", q, "error", err)
			continue
		}
		results = append(results, found...)
	}
	next.SearchResults = results
	o.logger.Info("search attempt finished",
		"attempt", next.SearchAttempts,
		"results", len(results))

	o.indexResults(ctx, results)
	return next, nil
}

// indexResults feeds full page content behind the result URLs into the
// document index. The index is an optional side channel; failures here never
// affect the run.
func (o *Orchestrator) indexResults(ctx context.Context, results []SearchResult) {
	if o.c.Loader == nil || o.c.Index == nil {
		return
	}

	var urls []string
	for _, r := range results {
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}
	if len(urls) == 0 {
		return
	}

	texts, err := o.c.Loader.Load(ctx, urls)
	if err != nil {
		o.logger.Warn("content loading failed", "urls", len(urls), "error", err)
		return
	}
	if len(texts) == 0 {
		return
	}

	if err := o.c.Index.AddTexts(ctx, texts); err != nil {
		o.logger.Warn("document indexing failed", "documents", len(texts), "error", err)
		return
	}
	o.logger.Info("documents indexed", "documents", len(texts))
}

func (o *Orchestrator) runAnalyze(ctx context.Context, s State) (State, error) {
	insights, err := o.c.Analyzer.Extract(ctx, s.SearchResults)
	if err != nil {
		// Extraction failures degrade to zero insights; the gate after this
		// step turns that into a terminal error with a stable message.
		o.logger.Warn("insight extraction failed", "error", err)
		insights = nil
	}

	next := s.Clone()
	next.ExtractedInsights = insights
	o.logger.Info("insights extracted", "count", len(insights))
	return next, nil
}

func (o *Orchestrator) runSummarize(ctx context.Context, s State) (State, error) {
	summary, err := o.c.Summarizer.Summarize(ctx, s.UserQuery, s.ExtractedInsights)
	if err != nil {
		return s, fmt.Errorf("summarization failed: %w", err)
	}

	next := s.Clone()
	next.Summary = summary
	o.logger.Info("summary generated", "chars", len(summary))
	return next, nil
}

func (o *Orchestrator) runReport(ctx context.Context, s State) (State, error) {
	report, err := o.c.Composer.Compose(ctx, s)
	if err != nil {
		return s, fmt.Errorf("report composition failed: %w", err)
	}

	next := s.Clone()
	next.FinalReport = report

	// Persistence is part of the report contract: a sink failure ends the
	// run in error, with the composed report kept on the state for
	// diagnostics.
	path, err := o.c.Sink.Write(next.UserQuery, report)
	if err != nil {
		return next, fmt.Errorf("report persistence failed: %w", err)
	}

	next.Status = StatusCompleted
	o.logger.Info("report persisted", "path", path, "chars", len(report))
	return next, nil
}
