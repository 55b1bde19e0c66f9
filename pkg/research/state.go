package research

import "slices"

// Status is the overall lifecycle of one research run. It moves from pending
// to running and ends in exactly one of completed or error.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// State is the single shared record threaded through every pipeline step.
// Each step owns a disjoint subset of fields and must pass every other field
// through unchanged. Steps receive a snapshot and return a new value; the
// orchestrator never hands the same instance to two steps at once.
type State struct {
	UserQuery string `json:"user_query"`

	// Planner output.
	ResearchTopics []string `json:"research_topics,omitempty"`
	SearchQueries  []string `json:"search_queries,omitempty"`
	AnalysisSteps  []string `json:"analysis_steps,omitempty"`

	// Search output, replaced wholesale on every attempt.
	SearchResults []SearchResult `json:"search_results,omitempty"`

	// Analyzer output.
	ExtractedInsights []Insight `json:"extracted_insights,omitempty"`

	Summary     string `json:"summary,omitempty"`
	FinalReport string `json:"final_report,omitempty"`

	// Orchestration bookkeeping.
	Status         Status `json:"status"`
	Error          string `json:"error,omitempty"`
	SearchAttempts int    `json:"search_attempts"`
}

// NewState creates the initial state for a query: pending, zero attempts,
// all collections empty.
func NewState(query string) State {
	return State{
		UserQuery: query,
		Status:    StatusPending,
	}
}

// Clone returns a deep copy. Steps mutate the copy and return it, so a
// caller-held snapshot never changes underneath an observer.
func (s State) Clone() State {
	c := s
	c.ResearchTopics = slices.Clone(s.ResearchTopics)
	c.SearchQueries = slices.Clone(s.SearchQueries)
	c.AnalysisSteps = slices.Clone(s.AnalysisSteps)
	c.SearchResults = slices.Clone(s.SearchResults)
	c.ExtractedInsights = slices.Clone(s.ExtractedInsights)
	return c
}

// Terminal reports whether the run has finished, successfully or not.
func (s State) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusError
}
