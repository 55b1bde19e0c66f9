package research

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// ErrNoInsights is the analyze-gate failure. It is a stable value so callers
// can tell the quality gate apart from collaborator failures.
var ErrNoInsights = errors.New("no insights extracted")

// Orchestrator drives the plan -> search -> analyze -> summarize -> report
// pipeline for one query at a time. It owns the step registry and the routing
// table; the steps themselves delegate all domain work to collaborators.
//
// A single Orchestrator may serve concurrent runs: each run owns its own
// State and the orchestrator keeps no per-run fields.
type Orchestrator struct {
	c      Collaborators
	steps  map[stepID]stepFunc
	logger *slog.Logger

	// OnStateUpdate, when set, receives a snapshot after every completed
	// step. Snapshots are deep copies and safe to retain.
	OnStateUpdate func(State)
}

// New validates the collaborator set and builds an orchestrator. Loader and
// Index may be nil; everything else is required.
func New(c Collaborators, logger *slog.Logger) (*Orchestrator, error) {
	switch {
	case c.Planner == nil:
		return nil, errors.New("orchestrator: planner is required")
	case c.Search == nil:
		return nil, errors.New("orchestrator: search provider is required")
	case c.Analyzer == nil:
		return nil, errors.New("orchestrator: analyzer is required")
	case c.Summarizer == nil:
		return nil, errors.New("orchestrator: summarizer is required")
	case c.Composer == nil:
		return nil, errors.New("orchestrator: composer is required")
	case c.Sink == nil:
		return nil, errors.New("orchestrator: report sink is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	o := &Orchestrator{c: c, logger: logger}
	o.steps = map[stepID]stepFunc{
		stepPlan:      o.runPlan,
		stepSearch:    o.runSearch,
		stepAnalyze:   o.runAnalyze,
		stepSummarize: o.runSummarize,
		stepReport:    o.runReport,
	}
	return o, nil
}

// Run executes one research pipeline and always returns a terminal state:
// Status is completed or error, never pending or running, and no collaborator
// failure escapes as a panic or returned error. Callers detect failure by
// inspecting Status and Error.
func (o *Orchestrator) Run(ctx context.Context, query string) State {
	state := NewState(query)
	if strings.TrimSpace(query) == "" {
		state.Status = StatusError
		state.Error = "empty research query"
		return state
	}

	o.logger.Info("run starting", "query", query)
	o.notify(state)

	current := stepPlan
	for current != stepDone && current != stepError {
		next, err := o.steps[current](ctx, state)
		if err != nil {
			next.Status = StatusError
			next.Error = err.Error()
			state = next
			o.logger.Error("step failed", "step", string(current), "error", err)
			o.notify(state)
			return state
		}
		state = next

		following := transitions[current](state)
		if current == stepAnalyze && following == stepError {
			state.Status = StatusError
			state.Error = ErrNoInsights.Error()
			o.logger.Error("analysis gate tripped",
				"results", len(state.SearchResults),
				"attempts", state.SearchAttempts)
		}
		o.notify(state)
		current = following
	}

	// The report step marks completion itself; this is the terminal guard
	// for any path that reaches done without an error.
	if state.Status != StatusError {
		state.Status = StatusCompleted
	}
	o.logger.Info("run finished",
		"status", string(state.Status),
		"attempts", state.SearchAttempts,
		"insights", len(state.ExtractedInsights))
	return state
}

func (o *Orchestrator) notify(s State) {
	if o.OnStateUpdate != nil {
		o.OnStateUpdate(s.Clone())
	}
}

// StepNames lists the executable pipeline steps in order, for diagnostics and
// front-end display.
func StepNames() []string {
	return []string{
		string(stepPlan),
		string(stepSearch),
		string(stepAnalyze),
		string(stepSummarize),
		string(stepReport),
	}
}
