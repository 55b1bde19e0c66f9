package research

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// --- fakes ---

type fakePlanner struct {
	plan  ResearchPlan
	err   error
	calls int
}

func (f *fakePlanner) Plan(ctx context.Context, query string) (ResearchPlan, error) {
	f.calls++
	if f.err != nil {
		return ResearchPlan{}, f.err
	}
	return f.plan, nil
}

// fakeSearch returns byAttempt[n] on the n-th call, repeating the last entry
// once the script runs out.
type fakeSearch struct {
	byAttempt [][]SearchResult
	err       error
	calls     int
}

func (f *fakeSearch) Search(ctx context.Context, query string) ([]SearchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.byAttempt) == 0 {
		return nil, nil
	}
	idx := f.calls - 1
	if idx >= len(f.byAttempt) {
		idx = len(f.byAttempt) - 1
	}
	return f.byAttempt[idx], nil
}

type fakeAnalyzer struct {
	insights []Insight
	err      error
	calls    int
	lastIn   []SearchResult
}

func (f *fakeAnalyzer) Extract(ctx context.Context, results []SearchResult) ([]Insight, error) {
	f.calls++
	f.lastIn = results
	if f.err != nil {
		return nil, f.err
	}
	return f.insights, nil
}

type fakeSummarizer struct {
	summary string
	err     error
	calls   int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, query string, insights []Insight) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

type fakeComposer struct {
	report string
	err    error
	calls  int
}

func (f *fakeComposer) Compose(ctx context.Context, state State) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.report, nil
}

type fakeSink struct {
	err        error
	calls      int
	gotQuery   string
	gotReport  string
	writtenTo  string
}

func (f *fakeSink) Write(query, report string) (string, error) {
	f.calls++
	f.gotQuery = query
	f.gotReport = report
	if f.err != nil {
		return "", f.err
	}
	f.writtenTo = "output/report.md"
	return f.writtenTo, nil
}

type fakeLoader struct {
	texts []string
	err   error
	calls int
}

func (f *fakeLoader) Load(ctx context.Context, urls []string) ([]string, error) {
	f.calls++
	return f.texts, f.err
}

type fakeIndex struct {
	err   error
	calls int
	got   []string
}

func (f *fakeIndex) AddTexts(ctx context.Context, texts []string) error {
	f.calls++
	f.got = append(f.got, texts...)
	return f.err
}

// --- helpers ---

var sectionOrder = []string{
	"Introduction", "Background", "Key Findings",
	"Trends", "Challenges", "Conclusion", "References",
}

func sevenSectionReport() string {
	var b strings.Builder
	b.WriteString("# Research Report\n\n")
	for i, s := range sectionOrder {
		b.WriteString("## ")
		b.WriteString(string(rune('1' + i)))
		b.WriteString(". ")
		b.WriteString(s)
		b.WriteString("\n\nBody.\n\n")
	}
	return b.String()
}

func threeResults() []SearchResult {
	return []SearchResult{
		{Title: "r1", Source: "web", Content: "c1", URL: "https://example.com/1"},
		{Title: "r2", Source: "web", Content: "c2", URL: "https://example.com/2"},
		{Title: "r3", Source: "web", Content: "c3", URL: "https://example.com/3"},
	}
}

type fixture struct {
	planner    *fakePlanner
	search     *fakeSearch
	analyzer   *fakeAnalyzer
	summarizer *fakeSummarizer
	composer   *fakeComposer
	sink       *fakeSink
}

func happyFixture() *fixture {
	return &fixture{
		planner: &fakePlanner{plan: ResearchPlan{
			Topics:  []string{"t"},
			Queries: []string{"q"},
			Steps:   []string{"review sources"},
		}},
		search:     &fakeSearch{byAttempt: [][]SearchResult{threeResults()}},
		analyzer:   &fakeAnalyzer{insights: []Insight{{Finding: "f1"}, {Finding: "f2"}}},
		summarizer: &fakeSummarizer{summary: "a concise summary"},
		composer:   &fakeComposer{report: sevenSectionReport()},
		sink:       &fakeSink{},
	}
}

func (f *fixture) collaborators() Collaborators {
	return Collaborators{
		Planner:    f.planner,
		Search:     f.search,
		Analyzer:   f.analyzer,
		Summarizer: f.summarizer,
		Composer:   f.composer,
		Sink:       f.sink,
	}
}

func newTestOrchestrator(t *testing.T, c Collaborators) *Orchestrator {
	t.Helper()
	o, err := New(c, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return o
}

// --- tests ---

func TestRunScenarioA(t *testing.T) {
	// Results on the first attempt, two insights, full completion.
	f := happyFixture()
	o := newTestOrchestrator(t, f.collaborators())

	state := o.Run(context.Background(), "test topic")

	if state.Status != StatusCompleted {
		t.Fatalf("Status = %q (%s), want completed", state.Status, state.Error)
	}
	if state.SearchAttempts != 1 {
		t.Errorf("SearchAttempts = %d, want 1", state.SearchAttempts)
	}
	if len(state.ExtractedInsights) != 2 {
		t.Errorf("insights = %d, want 2", len(state.ExtractedInsights))
	}

	// Seven section headers, in the fixed order.
	last := -1
	for _, section := range sectionOrder {
		idx := strings.Index(state.FinalReport, section)
		if idx < 0 {
			t.Errorf("report missing section %q", section)
			continue
		}
		if idx < last {
			t.Errorf("section %q out of order", section)
		}
		last = idx
	}
	if got := strings.Count(state.FinalReport, "\n## "); got != 7 {
		t.Errorf("report has %d section headers, want 7", got)
	}
}

func TestRunScenarioB(t *testing.T) {
	// Empty search on both attempts: degraded continue into analyze, then the
	// insight gate terminates the run.
	f := happyFixture()
	f.search = &fakeSearch{byAttempt: [][]SearchResult{nil, nil}}
	f.analyzer = &fakeAnalyzer{} // no insights
	o := newTestOrchestrator(t, f.collaborators())

	state := o.Run(context.Background(), "obscure topic")

	if state.Status != StatusError {
		t.Fatalf("Status = %q, want error", state.Status)
	}
	if state.Error != ErrNoInsights.Error() {
		t.Errorf("Error = %q, want %q", state.Error, ErrNoInsights.Error())
	}
	if state.SearchAttempts != 2 {
		t.Errorf("SearchAttempts = %d, want 2", state.SearchAttempts)
	}
	if f.analyzer.calls != 1 {
		t.Errorf("analyzer calls = %d, want 1 (invoked on empty input)", f.analyzer.calls)
	}
	if len(f.analyzer.lastIn) != 0 {
		t.Errorf("analyzer received %d results, want 0", len(f.analyzer.lastIn))
	}
	if f.summarizer.calls != 0 || f.composer.calls != 0 || f.sink.calls != 0 {
		t.Error("summarize/report ran after the insight gate tripped")
	}
	if state.Summary != "" || state.FinalReport != "" {
		t.Error("summary/final_report mutated after the gate")
	}
}

func TestRunScenarioC(t *testing.T) {
	// Empty on attempt one, one result on attempt two.
	f := happyFixture()
	f.search = &fakeSearch{byAttempt: [][]SearchResult{nil, {threeResults()[0]}}}
	o := newTestOrchestrator(t, f.collaborators())

	state := o.Run(context.Background(), "slow topic")

	if state.Status != StatusCompleted {
		t.Fatalf("Status = %q (%s), want completed", state.Status, state.Error)
	}
	if state.SearchAttempts != 2 {
		t.Errorf("SearchAttempts = %d, want 2", state.SearchAttempts)
	}
	if len(state.SearchResults) != 1 {
		t.Errorf("results = %d, want 1", len(state.SearchResults))
	}
}

func TestRunNeverExceedsSearchBound(t *testing.T) {
	f := happyFixture()
	f.search = &fakeSearch{} // empty forever
	f.analyzer = &fakeAnalyzer{}
	o := newTestOrchestrator(t, f.collaborators())

	state := o.Run(context.Background(), "q")

	if state.SearchAttempts > MaxSearchAttempts {
		t.Errorf("SearchAttempts = %d, exceeds bound %d", state.SearchAttempts, MaxSearchAttempts)
	}
	if f.search.calls > MaxSearchAttempts {
		t.Errorf("search collaborator called %d times", f.search.calls)
	}
}

func TestRunPlanningFailureIsFatal(t *testing.T) {
	f := happyFixture()
	f.planner = &fakePlanner{err: errors.New("model unavailable")}
	o := newTestOrchestrator(t, f.collaborators())

	state := o.Run(context.Background(), "q")

	if state.Status != StatusError {
		t.Fatalf("Status = %q, want error", state.Status)
	}
	if !strings.Contains(state.Error, "planning failed") {
		t.Errorf("Error = %q, want planning failure message", state.Error)
	}
	if f.search.calls != 0 {
		t.Error("search ran after a fatal planning failure")
	}
}

func TestRunSearchProviderErrorDegrades(t *testing.T) {
	// A failing provider behaves like an empty result set: retry once, then
	// continue degraded into the insight gate.
	f := happyFixture()
	f.search = &fakeSearch{err: errors.New("provider down")}
	f.analyzer = &fakeAnalyzer{}
	o := newTestOrchestrator(t, f.collaborators())

	state := o.Run(context.Background(), "q")

	if state.Status != StatusError {
		t.Fatalf("Status = %q, want error", state.Status)
	}
	if state.Error != ErrNoInsights.Error() {
		t.Errorf("Error = %q, want the insight-gate message", state.Error)
	}
	if state.SearchAttempts != MaxSearchAttempts {
		t.Errorf("SearchAttempts = %d, want %d", state.SearchAttempts, MaxSearchAttempts)
	}
}

func TestRunAnalyzerErrorDegradesToGate(t *testing.T) {
	f := happyFixture()
	f.analyzer = &fakeAnalyzer{err: errors.New("bad json")}
	o := newTestOrchestrator(t, f.collaborators())

	state := o.Run(context.Background(), "q")

	if state.Status != StatusError {
		t.Fatalf("Status = %q, want error", state.Status)
	}
	if state.Error != ErrNoInsights.Error() {
		t.Errorf("Error = %q, want the stable gate message", state.Error)
	}
}

func TestRunSummarizeFailureIsFatal(t *testing.T) {
	f := happyFixture()
	f.summarizer = &fakeSummarizer{err: errors.New("model timeout")}
	o := newTestOrchestrator(t, f.collaborators())

	state := o.Run(context.Background(), "q")

	if state.Status != StatusError {
		t.Fatalf("Status = %q, want error", state.Status)
	}
	if !strings.Contains(state.Error, "summarization failed") {
		t.Errorf("Error = %q", state.Error)
	}
	// Insights gathered before the failure are preserved for diagnostics.
	if len(state.ExtractedInsights) != 2 {
		t.Errorf("insights = %d, want 2 preserved", len(state.ExtractedInsights))
	}
}

func TestRunSinkFailurePreservesReport(t *testing.T) {
	f := happyFixture()
	f.sink = &fakeSink{err: errors.New("disk full")}
	o := newTestOrchestrator(t, f.collaborators())

	state := o.Run(context.Background(), "q")

	if state.Status != StatusError {
		t.Fatalf("Status = %q, want error", state.Status)
	}
	if !strings.Contains(state.Error, "report persistence failed") {
		t.Errorf("Error = %q", state.Error)
	}
	if state.FinalReport == "" {
		t.Error("composed report dropped from the error state")
	}
}

func TestRunSinkCalledOncePerCompletedRun(t *testing.T) {
	f := happyFixture()
	o := newTestOrchestrator(t, f.collaborators())

	state := o.Run(context.Background(), "round trip")

	if f.sink.calls != 1 {
		t.Fatalf("sink calls = %d, want 1", f.sink.calls)
	}
	if f.sink.gotQuery != "round trip" {
		t.Errorf("sink query = %q", f.sink.gotQuery)
	}
	if f.sink.gotReport != state.FinalReport {
		t.Error("sink received different text than final_report")
	}
}

func TestRunAlwaysReturnsTerminalStatus(t *testing.T) {
	fixtures := map[string]*fixture{
		"happy":          happyFixture(),
		"plan error":     func() *fixture { f := happyFixture(); f.planner.err = errors.New("x"); return f }(),
		"empty search":   func() *fixture { f := happyFixture(); f.search = &fakeSearch{}; f.analyzer = &fakeAnalyzer{}; return f }(),
		"compose error":  func() *fixture { f := happyFixture(); f.composer.err = errors.New("x"); return f }(),
		"sink error":     func() *fixture { f := happyFixture(); f.sink.err = errors.New("x"); return f }(),
	}

	for name, f := range fixtures {
		t.Run(name, func(t *testing.T) {
			o := newTestOrchestrator(t, f.collaborators())
			state := o.Run(context.Background(), "q")
			if !state.Terminal() {
				t.Errorf("Run returned non-terminal status %q", state.Status)
			}
			if state.Status == StatusError && state.Error == "" {
				t.Error("error status with empty error message")
			}
			if state.Status != StatusError && state.Error != "" {
				t.Error("non-error status carries an error message")
			}
		})
	}
}

func TestRunEmptyQuery(t *testing.T) {
	f := happyFixture()
	o := newTestOrchestrator(t, f.collaborators())

	state := o.Run(context.Background(), "   ")

	if state.Status != StatusError {
		t.Fatalf("Status = %q, want error", state.Status)
	}
	if f.planner.calls != 0 {
		t.Error("planner ran for an empty query")
	}
}

func TestPlanStepFieldOwnership(t *testing.T) {
	// Running only the plan step twice must not touch fields it does not own.
	f := happyFixture()
	o := newTestOrchestrator(t, f.collaborators())

	s := NewState("q")
	s.SearchResults = threeResults()
	s.ExtractedInsights = []Insight{{Finding: "keep"}}
	s.Summary = "keep"
	s.FinalReport = "keep"

	for i := 0; i < 2; i++ {
		var err error
		s, err = o.runPlan(context.Background(), s)
		if err != nil {
			t.Fatalf("runPlan() failed: %v", err)
		}
	}

	if len(s.SearchResults) != 3 {
		t.Error("plan step mutated search_results")
	}
	if len(s.ExtractedInsights) != 1 || s.ExtractedInsights[0].Finding != "keep" {
		t.Error("plan step mutated extracted_insights")
	}
	if s.Summary != "keep" || s.FinalReport != "keep" {
		t.Error("plan step mutated summary or final_report")
	}
}

func TestSearchStepIndexesContent(t *testing.T) {
	f := happyFixture()
	c := f.collaborators()
	loader := &fakeLoader{texts: []string{"page one", "page two"}}
	index := &fakeIndex{}
	c.Loader = loader
	c.Index = index
	o := newTestOrchestrator(t, c)

	state := o.Run(context.Background(), "q")

	if state.Status != StatusCompleted {
		t.Fatalf("Status = %q (%s)", state.Status, state.Error)
	}
	if loader.calls != 1 || index.calls != 1 {
		t.Errorf("loader calls = %d, index calls = %d, want 1 each", loader.calls, index.calls)
	}
	if len(index.got) != 2 {
		t.Errorf("indexed %d documents, want 2", len(index.got))
	}
}

func TestSearchStepIndexFailureIsNonFatal(t *testing.T) {
	f := happyFixture()
	c := f.collaborators()
	c.Loader = &fakeLoader{texts: []string{"page"}}
	c.Index = &fakeIndex{err: errors.New("embedder down")}
	o := newTestOrchestrator(t, c)

	state := o.Run(context.Background(), "q")

	if state.Status != StatusCompleted {
		t.Errorf("index failure terminated the run: %q (%s)", state.Status, state.Error)
	}
}

func TestRunNotifiesObserver(t *testing.T) {
	f := happyFixture()
	o := newTestOrchestrator(t, f.collaborators())

	var snapshots []State
	o.OnStateUpdate = func(s State) { snapshots = append(snapshots, s) }

	final := o.Run(context.Background(), "q")

	if len(snapshots) < 5 {
		t.Fatalf("observer saw %d snapshots, want at least one per step", len(snapshots))
	}
	if snapshots[0].Status != StatusPending {
		t.Errorf("first snapshot status = %q, want pending", snapshots[0].Status)
	}
	lastSnap := snapshots[len(snapshots)-1]
	if lastSnap.Status != final.Status {
		t.Errorf("last snapshot status = %q, final = %q", lastSnap.Status, final.Status)
	}

	// Snapshots are copies: mutating one must not touch the final state.
	if len(snapshots) > 2 && len(snapshots[2].SearchResults) > 0 {
		snapshots[2].SearchResults[0].Title = "mutated"
		if final.SearchResults[0].Title == "mutated" {
			t.Error("observer snapshot shares memory with the final state")
		}
	}
}

func TestNewRejectsMissingCollaborators(t *testing.T) {
	f := happyFixture()
	c := f.collaborators()
	c.Analyzer = nil
	if _, err := New(c, nil); err == nil {
		t.Error("New() accepted a nil analyzer")
	}
}
