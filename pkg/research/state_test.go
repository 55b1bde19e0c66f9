package research

import "testing"

func TestNewState(t *testing.T) {
	s := NewState("impact of sleep on memory")

	if s.UserQuery != "impact of sleep on memory" {
		t.Errorf("UserQuery = %q", s.UserQuery)
	}
	if s.Status != StatusPending {
		t.Errorf("Status = %q, want %q", s.Status, StatusPending)
	}
	if s.SearchAttempts != 0 {
		t.Errorf("SearchAttempts = %d, want 0", s.SearchAttempts)
	}
	if len(s.ResearchTopics) != 0 || len(s.SearchQueries) != 0 || len(s.AnalysisSteps) != 0 {
		t.Error("planner fields must start empty")
	}
	if len(s.SearchResults) != 0 || len(s.ExtractedInsights) != 0 {
		t.Error("pipeline collections must start empty")
	}
	if s.Summary != "" || s.FinalReport != "" || s.Error != "" {
		t.Error("text fields must start empty")
	}
}

func TestStateCloneIsIndependent(t *testing.T) {
	orig := NewState("q")
	orig.SearchQueries = []string{"a", "b"}
	orig.SearchResults = []SearchResult{{Title: "t1"}}
	orig.ExtractedInsights = []Insight{{Finding: "f1"}}

	clone := orig.Clone()
	clone.SearchQueries[0] = "mutated"
	clone.SearchResults[0].Title = "mutated"
	clone.ExtractedInsights = append(clone.ExtractedInsights, Insight{Finding: "f2"})
	clone.Status = StatusError

	if orig.SearchQueries[0] != "a" {
		t.Error("clone shares SearchQueries backing array")
	}
	if orig.SearchResults[0].Title != "t1" {
		t.Error("clone shares SearchResults backing array")
	}
	if len(orig.ExtractedInsights) != 1 {
		t.Error("append to clone grew the original insights")
	}
	if orig.Status != StatusPending {
		t.Error("clone shares status")
	}
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusError, true},
	}
	for _, tt := range tests {
		s := State{Status: tt.status}
		if got := s.Terminal(); got != tt.want {
			t.Errorf("Terminal() with status %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}
