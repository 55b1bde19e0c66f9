package agents

import (
	"context"
	"testing"
)

func TestPlanParsesModelResponse(t *testing.T) {
	model := &fakeModel{responses: []string{`{
		"research_topics": ["topic a", "topic b"],
		"search_queries": ["query a", "query b", "query c"],
		"analysis_steps": ["step a"]
	}`}}
	p := NewPlanner(model, testLogger())

	plan, err := p.Plan(context.Background(), "what is quantum computing")
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan.Topics) != 2 {
		t.Errorf("expected 2 topics, got %d", len(plan.Topics))
	}
	if len(plan.Queries) != 3 {
		t.Errorf("expected 3 queries, got %d", len(plan.Queries))
	}
	if len(plan.Steps) != 1 {
		t.Errorf("expected 1 step, got %d", len(plan.Steps))
	}
}

func TestPlanFallsBackOnUnparseableResponse(t *testing.T) {
	model := &fakeModel{responses: []string{"this is not json"}}
	p := NewPlanner(model, testLogger())

	plan, err := p.Plan(context.Background(), "history of rome")
	if err != nil {
		t.Fatalf("Plan() error = %v, want fallback plan", err)
	}
	if model.calls != 3 {
		t.Errorf("expected 3 attempts before fallback, got %d", model.calls)
	}
	if len(plan.Queries) != 1 || plan.Queries[0] != "history of rome" {
		t.Errorf("fallback queries = %v, want the raw query", plan.Queries)
	}
	if len(plan.Topics) != 1 || plan.Topics[0] != "history of rome" {
		t.Errorf("fallback topics = %v, want the raw query", plan.Topics)
	}
	if len(plan.Steps) == 0 {
		t.Error("fallback plan must include analysis steps")
	}
}

func TestPlanModelFailureIsFatal(t *testing.T) {
	model := &fakeModel{err: errFakeModel}
	p := NewPlanner(model, testLogger())

	_, err := p.Plan(context.Background(), "anything")
	if err == nil {
		t.Fatal("Plan() expected error when the model is unavailable")
	}
}

func TestPlanFillsMissingFieldsFromDefault(t *testing.T) {
	model := &fakeModel{responses: []string{`{"research_topics": ["only topics"]}`}}
	p := NewPlanner(model, testLogger())

	plan, err := p.Plan(context.Background(), "the query")
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if plan.Topics[0] != "only topics" {
		t.Errorf("topics = %v, want model-provided topics", plan.Topics)
	}
	if len(plan.Queries) != 1 || plan.Queries[0] != "the query" {
		t.Errorf("queries = %v, want default query", plan.Queries)
	}
}
