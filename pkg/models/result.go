package models

// WarningKind classifies non-fatal conditions attached to a result.
type WarningKind string

const (
	// WarningUnresolvedUser means a user reference matched no tracker account.
	WarningUnresolvedUser WarningKind = "unresolved_user"
	// WarningUnboundedQuery means the query selects the entire backlog.
	WarningUnboundedQuery WarningKind = "unbounded_query"
	// WarningFieldDropped means the tracker could not store a requested field.
	WarningFieldDropped WarningKind = "field_dropped"
)

// Warning is a non-fatal ambiguity or degradation reported with a result.
type Warning struct {
	Kind    WarningKind
	Message string
}

// ScoredIssue is a suggestion candidate with its score and an explanation.
type ScoredIssue struct {
	Issue     Issue
	Score     float64
	Rationale string
}

// Failure records why a single issue in a bulk operation was not changed.
type Failure struct {
	Issue  IssueRef
	Reason string
}

// ExecutionResult is the outcome of executing one Action. Exactly one of the
// payload groups is populated, matching Action.
type ExecutionResult struct {
	Action ActionKind

	// Intent is set for search actions
	Intent Intent

	// Query is the native tracker query used by search and assign actions
	Query string

	// Unbounded is set when the query selects the entire backlog
	Unbounded bool

	// Created is the new issue for create actions
	Created *IssueRef

	// Issues holds list results in tracker order
	Issues []Issue

	// Suggestions holds ranked results for suggest searches
	Suggestions []ScoredIssue

	// Succeeded and Failed partition the issues of a bulk assignment
	Succeeded []IssueRef
	Failed    []Failure

	Warnings []Warning

	// Reason explains an Unknown action to the user
	Reason string

	// Declined is set when the caller refused to run an unbounded action
	Declined bool

	// Err is a failure of the action as a whole (tracker or provider error)
	Err error
}

// OK reports whether the action ran without a whole-action failure.
func (r ExecutionResult) OK() bool {
	return r.Err == nil && r.Action != ActionUnknown && !r.Declined
}
