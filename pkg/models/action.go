package models

import (
	"fmt"
	"time"
)

// ActionKind is the discriminator of an Action.
type ActionKind string

const (
	ActionCreateIssue  ActionKind = "create_issue"
	ActionSearchIssues ActionKind = "search_issues"
	ActionAssignIssues ActionKind = "assign_issues"
	ActionUnknown      ActionKind = "unknown"
)

// Intent says what a search is for.
type Intent string

const (
	IntentList    Intent = "list"
	IntentSuggest Intent = "suggest"
)

// Action is the typed, validated form of a user request. It is one of
// CreateIssue, SearchIssues, AssignIssues or Unknown.
type Action interface {
	Kind() ActionKind
	Describe() string
	isAction()
}

// CreateIssue asks for a single new issue.
type CreateIssue struct {
	Summary     string
	Description string
	StoryPoints *int
	DueDate     *time.Time
	Priority    Priority
}

// SearchIssues lists or ranks issues matching Filters.
type SearchIssues struct {
	Filters FilterSet
	Intent  Intent
}

// Assignee is the target of an assignment: the current user or a named account.
type Assignee struct {
	Me   bool
	User string
}

// AssigneeMe is the current user.
var AssigneeMe = Assignee{Me: true}

func (a Assignee) String() string {
	if a.Me {
		return "me"
	}
	return a.User
}

// AssignIssues assigns every issue matching Filters to Assignee.
type AssignIssues struct {
	Filters  FilterSet
	Assignee Assignee
}

// Unknown is the fallback when a request cannot be understood.
type Unknown struct {
	RawText string
	Reason  string
}

func (CreateIssue) Kind() ActionKind  { return ActionCreateIssue }
func (SearchIssues) Kind() ActionKind { return ActionSearchIssues }
func (AssignIssues) Kind() ActionKind { return ActionAssignIssues }
func (Unknown) Kind() ActionKind      { return ActionUnknown }

func (CreateIssue) isAction()  {}
func (SearchIssues) isAction() {}
func (AssignIssues) isAction() {}
func (Unknown) isAction()      {}

func (a CreateIssue) Describe() string {
	s := fmt.Sprintf("create issue %q", a.Summary)
	if a.Priority != "" {
		s += fmt.Sprintf(" priority=%s", a.Priority)
	}
	if a.StoryPoints != nil {
		s += fmt.Sprintf(" points=%d", *a.StoryPoints)
	}
	if a.DueDate != nil {
		s += " due=" + a.DueDate.Format(time.DateOnly)
	}
	return s
}

func (a SearchIssues) Describe() string {
	return fmt.Sprintf("%s issues (%s)", a.Intent, a.Filters)
}

func (a AssignIssues) Describe() string {
	return fmt.Sprintf("assign issues (%s) to %s", a.Filters, a.Assignee)
}

func (a Unknown) Describe() string {
	return "unknown request: " + a.Reason
}
