package research

// MaxSearchAttempts bounds the empty-result retry loop in the search step.
const MaxSearchAttempts = 2

// stepID names a node of the pipeline state machine.
type stepID string

const (
	stepPlan      stepID = "plan"
	stepSearch    stepID = "search"
	stepAnalyze   stepID = "analyze"
	stepSummarize stepID = "summarize"
	stepReport    stepID = "report"
	stepDone      stepID = "done"
	stepError     stepID = "error"
)

// routerFunc inspects the state after a step completes and names the next
// step. Routers are pure predicates with no side effects.
type routerFunc func(State) stepID

// transitions is the complete routing table. Only search and analyze branch;
// every other edge is fixed.
var transitions = map[stepID]routerFunc{
	stepPlan:      func(State) stepID { return stepSearch },
	stepSearch:    routeAfterSearch,
	stepAnalyze:   routeAfterAnalyze,
	stepSummarize: func(State) stepID { return stepReport },
	stepReport:    func(State) stepID { return stepDone },
}

// routeAfterSearch retries the search while results are empty and attempts
// remain. Once attempts are exhausted the run continues into analysis anyway:
// empty search output degrades the run, it does not fail it.
func routeAfterSearch(s State) stepID {
	if len(s.SearchResults) == 0 && s.SearchAttempts < MaxSearchAttempts {
		return stepSearch
	}
	return stepAnalyze
}

// routeAfterAnalyze is the quality gate. Zero insights ends the run in error;
// this is the only error path driven by content rather than by a collaborator
// failure.
func routeAfterAnalyze(s State) stepID {
	if len(s.ExtractedInsights) == 0 {
		return stepError
	}
	return stepSummarize
}
