package output

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielolaszy/jassist/pkg/models"
)

const maxSummaryWidth = 60

// Render writes r in the UI's format.
func (u *UI) Render(r models.ExecutionResult) error {
	if u.Format == FormatText {
		u.renderText(r)
		return nil
	}
	return u.encode(newResultView(r))
}

// encode writes v as JSON or YAML.
func (u *UI) encode(v any) error {
	if u.Format == FormatJSON {
		enc := json.NewEncoder(u.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(u.Out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (u *UI) renderText(r models.ExecutionResult) {
	if r.Query != "" {
		u.VerboseLog("query: %s", r.Query)
	}
	for _, w := range r.Warnings {
		u.Warning("%s", w.Message)
	}

	switch {
	case r.Action == models.ActionUnknown:
		u.Warning("Sorry, I could not act on that: %s", r.Reason)
		u.Info("Try rephrasing, e.g. %q or %q.", "show my high priority tasks", "create a task to fix the login bug")
		return
	case r.Err != nil:
		u.Error("%v", r.Err)
		return
	case r.Declined:
		u.Info("Cancelled, nothing was changed.")
		return
	}

	switch r.Action {
	case models.ActionCreateIssue:
		if r.Created.URL != "" {
			u.Success("Created %s (%s)", Bold(r.Created.Key), r.Created.URL)
		} else {
			u.Success("Created %s", Bold(r.Created.Key))
		}

	case models.ActionSearchIssues:
		if r.Intent == models.IntentSuggest {
			u.renderSuggestions(r.Suggestions)
			return
		}
		u.renderIssues(r.Issues)

	case models.ActionAssignIssues:
		u.renderAssignment(r)
	}
}

func (u *UI) renderIssues(issues []models.Issue) {
	if len(issues) == 0 {
		u.Info("No issues found.")
		return
	}

	u.Info("Found %d issue(s):", len(issues))
	table := u.Table([]string{"KEY", "SUMMARY", "STATUS", "PRIORITY", "ASSIGNEE", "POINTS", "DUE"})
	for _, issue := range issues {
		_ = table.Append([]string{
			issue.Key,
			truncate(issue.Summary, maxSummaryWidth),
			StatusColor(issue.Status),
			PriorityColor(issue.Priority.Title()),
			assignee(issue.Assignee),
			points(issue.StoryPoints),
			date(issue.DueDate),
		})
	}
	_ = table.Render()
}

func (u *UI) renderSuggestions(suggestions []models.ScoredIssue) {
	if len(suggestions) == 0 {
		u.Info("Nothing matches right now, so there is nothing to suggest.")
		return
	}

	top := suggestions[0]
	u.Success("Suggested next: %s %s (%s)", Bold(top.Issue.Key), top.Issue.Summary, top.Rationale)
	table := u.Table([]string{"#", "KEY", "SCORE", "SUMMARY", "WHY"})
	for i, s := range suggestions {
		_ = table.Append([]string{
			strconv.Itoa(i + 1),
			s.Issue.Key,
			fmt.Sprintf("%.2f", s.Score),
			truncate(s.Issue.Summary, maxSummaryWidth),
			s.Rationale,
		})
	}
	_ = table.Render()
}

func (u *UI) renderAssignment(r models.ExecutionResult) {
	if len(r.Succeeded) == 0 && len(r.Failed) == 0 {
		u.Info("No issues matched, nothing was assigned.")
		return
	}
	if len(r.Succeeded) > 0 {
		u.Success("Assigned %d issue(s): %s", len(r.Succeeded), joinKeys(r.Succeeded))
	}
	if len(r.Failed) > 0 {
		u.Error("Failed to assign %d issue(s):", len(r.Failed))
		for _, f := range r.Failed {
			u.Error("  %s: %s", f.Issue.Key, f.Reason)
		}
	}
}

func joinKeys(refs []models.IssueRef) string {
	keys := make([]string, len(refs))
	for i, r := range refs {
		keys[i] = r.Key
	}
	return strings.Join(keys, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func assignee(u *models.UserRef) string {
	if u == nil {
		return "-"
	}
	return u.String()
}

func points(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func date(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}
