package research

import "context"

// SearchResult is one retrieved snippet from a search provider.
type SearchResult struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Insight is one structured finding extracted from search content.
type Insight struct {
	Finding  string `json:"finding"`
	Evidence string `json:"evidence"`
	Source   string `json:"source"`
}

// ResearchPlan is the planner's decomposition of a query.
type ResearchPlan struct {
	Topics  []string
	Queries []string
	Steps   []string
}

// The interfaces below are the collaborator contracts the orchestrator
// consumes. Implementations live outside this package (pkg/agents, pkg/tools,
// pkg/vectorstore, pkg/report); the state machine never imports one.

// Planner turns a user query into a research plan.
type Planner interface {
	Plan(ctx context.Context, query string) (ResearchPlan, error)
}

// SearchProvider runs one search query. An empty result set is a legitimate
// answer, not an error.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// ContentLoader fetches the full text behind result URLs. URLs that fail to
// load are skipped, not reported as errors.
type ContentLoader interface {
	Load(ctx context.Context, urls []string) ([]string, error)
}

// DocumentIndex is the process-wide vector index. It is append-only for the
// process lifetime and strictly best-effort: no step depends on its contents.
type DocumentIndex interface {
	AddTexts(ctx context.Context, texts []string) error
}

// Analyzer extracts structured insights from raw search results. An empty
// slice is a valid output; the router inspects emptiness.
type Analyzer interface {
	Extract(ctx context.Context, results []SearchResult) ([]Insight, error)
}

// Summarizer compresses insights into a prose summary for the query.
type Summarizer interface {
	Summarize(ctx context.Context, query string, insights []Insight) (string, error)
}

// Composer renders the final report from a finished state snapshot. It needs
// the query, topics and search results in addition to summary and insights to
// build the references section, so it receives the whole state.
type Composer interface {
	Compose(ctx context.Context, state State) (string, error)
}

// ReportSink persists a finished report and returns the written location.
// Naming derives deterministically from the query; collision handling is the
// sink's problem, not the orchestrator's.
type ReportSink interface {
	Write(query, report string) (string, error)
}

// Collaborators bundles everything a run needs. Loader and Index are
// optional; when either is nil the search step skips content indexing.
type Collaborators struct {
	Planner    Planner
	Search     SearchProvider
	Loader     ContentLoader
	Index      DocumentIndex
	Analyzer   Analyzer
	Summarizer Summarizer
	Composer   Composer
	Sink       ReportSink
}
