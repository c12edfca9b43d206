package output

import (
	"time"

	"github.com/danielolaszy/jassist/pkg/models"
)

// resultView is the serialised form of an ExecutionResult.
type resultView struct {
	Action      string           `json:"action" yaml:"action"`
	Intent      string           `json:"intent,omitempty" yaml:"intent,omitempty"`
	Query       string           `json:"query,omitempty" yaml:"query,omitempty"`
	Unbounded   bool             `json:"unbounded,omitempty" yaml:"unbounded,omitempty"`
	Created     *refView         `json:"created,omitempty" yaml:"created,omitempty"`
	Issues      []issueView      `json:"issues,omitempty" yaml:"issues,omitempty"`
	Suggestions []suggestionView `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	Succeeded   []string         `json:"succeeded,omitempty" yaml:"succeeded,omitempty"`
	Failed      []failureView    `json:"failed,omitempty" yaml:"failed,omitempty"`
	Warnings    []warningView    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Reason      string           `json:"reason,omitempty" yaml:"reason,omitempty"`
	Declined    bool             `json:"declined,omitempty" yaml:"declined,omitempty"`
	Error       string           `json:"error,omitempty" yaml:"error,omitempty"`
}

type refView struct {
	Key string `json:"key" yaml:"key"`
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

type issueView struct {
	Key         string `json:"key" yaml:"key"`
	Summary     string `json:"summary" yaml:"summary"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"`
	Priority    string `json:"priority,omitempty" yaml:"priority,omitempty"`
	Assignee    string `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	StoryPoints *int   `json:"story_points,omitempty" yaml:"story_points,omitempty"`
	DueDate     string `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
}

type suggestionView struct {
	Issue     issueView `json:"issue" yaml:"issue"`
	Score     float64   `json:"score" yaml:"score"`
	Rationale string    `json:"rationale" yaml:"rationale"`
}

type failureView struct {
	Key    string `json:"key" yaml:"key"`
	Reason string `json:"reason" yaml:"reason"`
}

type warningView struct {
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

func newResultView(r models.ExecutionResult) resultView {
	v := resultView{
		Action:    string(r.Action),
		Intent:    string(r.Intent),
		Query:     r.Query,
		Unbounded: r.Unbounded,
		Reason:    r.Reason,
		Declined:  r.Declined,
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	if r.Created != nil {
		v.Created = &refView{Key: r.Created.Key, URL: r.Created.URL}
	}
	for _, issue := range r.Issues {
		v.Issues = append(v.Issues, newIssueView(issue))
	}
	for _, s := range r.Suggestions {
		v.Suggestions = append(v.Suggestions, suggestionView{
			Issue:     newIssueView(s.Issue),
			Score:     s.Score,
			Rationale: s.Rationale,
		})
	}
	for _, ref := range r.Succeeded {
		v.Succeeded = append(v.Succeeded, ref.Key)
	}
	for _, f := range r.Failed {
		v.Failed = append(v.Failed, failureView{Key: f.Issue.Key, Reason: f.Reason})
	}
	for _, w := range r.Warnings {
		v.Warnings = append(v.Warnings, warningView{Kind: string(w.Kind), Message: w.Message})
	}
	return v
}

func newIssueView(issue models.Issue) issueView {
	v := issueView{
		Key:         issue.Key,
		Summary:     issue.Summary,
		Status:      issue.Status,
		Priority:    string(issue.Priority),
		StoryPoints: issue.StoryPoints,
		URL:         issue.URL,
	}
	if issue.Assignee != nil {
		v.Assignee = issue.Assignee.String()
	}
	if issue.DueDate != nil {
		v.DueDate = issue.DueDate.Format(time.DateOnly)
	}
	return v
}
