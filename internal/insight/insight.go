// Package insight asks the language model for free-text reports on issues:
// a backlog summary, an analysis of one issue, and suggested improvements.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/danielolaszy/jassist/internal/llm"
	"github.com/danielolaszy/jassist/internal/logging"
	"github.com/danielolaszy/jassist/pkg/models"
)

const (
	// MaxSummaryIssues bounds how many issues go into a backlog summary.
	MaxSummaryIssues = 20

	maxTextBytes = 2000
)

// ErrNoIssues is returned when there is nothing to summarize.
var ErrNoIssues = errors.New("no issues to summarize")

// Completer is the language model.
type Completer interface {
	Complete(ctx context.Context, p llm.Prompt) (string, error)
}

// Analyst writes reports with a language model.
type Analyst struct {
	model   Completer
	tracker string
}

// New creates an Analyst. tracker names the issue tracker in prompts.
func New(model Completer, tracker string) *Analyst {
	if tracker == "" {
		tracker = "Jira"
	}
	return &Analyst{model: model, tracker: tracker}
}

// issueDigest is the part of an issue shown to the model.
type issueDigest struct {
	Key         string          `yaml:"key"`
	Summary     string          `yaml:"summary"`
	Description string          `yaml:"description,omitempty"`
	Status      string          `yaml:"status,omitempty"`
	Priority    string          `yaml:"priority,omitempty"`
	Assignee    string          `yaml:"assignee"`
	StoryPoints *int            `yaml:"story_points,omitempty"`
	DueDate     string          `yaml:"due_date,omitempty"`
	Created     string          `yaml:"created,omitempty"`
	Comments    []commentDigest `yaml:"comments,omitempty"`
}

type commentDigest struct {
	Author  string `yaml:"author"`
	Created string `yaml:"created,omitempty"`
	Body    string `yaml:"body"`
}

func digest(issue models.Issue, withDetail bool) issueDigest {
	d := issueDigest{
		Key:         issue.Key,
		Summary:     issue.Summary,
		Status:      issue.Status,
		Assignee:    "Unassigned",
		StoryPoints: issue.StoryPoints,
	}
	if issue.Priority != "" && issue.Priority != models.PriorityAny {
		d.Priority = issue.Priority.Title()
	}
	if issue.Assignee != nil {
		d.Assignee = issue.Assignee.String()
	}
	if issue.DueDate != nil {
		d.DueDate = issue.DueDate.Format(time.DateOnly)
	}
	if !withDetail {
		return d
	}

	d.Description = clip(issue.Description, maxTextBytes)
	if !issue.CreatedAt.IsZero() {
		d.Created = issue.CreatedAt.Format(time.DateOnly)
	}
	for _, c := range issue.Comments {
		cd := commentDigest{Author: c.Author, Body: clip(c.Body, maxTextBytes)}
		if !c.Created.IsZero() {
			cd.Created = c.Created.Format(time.DateOnly)
		}
		d.Comments = append(d.Comments, cd)
	}
	return d
}

// Summarize reports on up to MaxSummaryIssues issues.
func (a *Analyst) Summarize(ctx context.Context, issues []models.Issue) (string, error) {
	if len(issues) == 0 {
		return "", ErrNoIssues
	}
	issues = issues[:min(len(issues), MaxSummaryIssues)]

	digests := make([]issueDigest, len(issues))
	for i, issue := range issues {
		digests[i] = digest(issue, false)
	}

	return a.ask(ctx, "summary",
		fmt.Sprintf("You are an expert %s analyst. Summarize the issues you are given. "+
			"Identify patterns, highlight important issues, note priorities and give actionable insights. "+
			"Be professional and factual. Answer in plain text or light markdown.", a.tracker),
		"Summarize these issues:",
		digests,
		[]string{
			"A high-level overview",
			"Key patterns or trends",
			"Notable priorities or blockers",
			"Recommended next actions",
		})
}

// Analyze reports on a single issue in depth.
func (a *Analyst) Analyze(ctx context.Context, issue models.Issue) (string, error) {
	return a.ask(ctx, "analysis",
		fmt.Sprintf("You are an expert %s analyst and project manager. Analyze the issue you are given in detail. "+
			"Answer in plain text or light markdown.", a.tracker),
		"Analyze this issue:",
		digest(issue, true),
		[]string{
			"What the issue is about and its current state",
			"Dependencies and risks",
			"Open questions raised in the comments",
			"Suggested next steps",
		})
}

// Improve suggests how to make an issue clearer and more actionable.
func (a *Analyst) Improve(ctx context.Context, issue models.Issue) (string, error) {
	return a.ask(ctx, "improvements",
		fmt.Sprintf("You are an expert %s consultant. Review the issue you are given and suggest practical, "+
			"specific improvements that make it complete, clear and actionable. "+
			"Answer in plain text or light markdown.", a.tracker),
		"Suggest improvements for this issue:",
		digest(issue, true),
		[]string{
			"Is the summary clear and descriptive?",
			"Is the description complete?",
			"Is the priority appropriate?",
			"Is an estimate or due date missing?",
			"What additional information would help?",
		})
}

func (a *Analyst) ask(ctx context.Context, kind, system, lead string, data any, cover []string) (string, error) {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode issues: %w", err)
	}

	var user strings.Builder
	user.WriteString(lead)
	user.WriteString("\n\n")
	user.Write(raw)
	user.WriteString("\nCover:\n")
	for i, c := range cover {
		fmt.Fprintf(&user, "%d. %s\n", i+1, c)
	}

	logging.Debug("requesting report", "kind", kind, "prompt_chars", user.Len())
	reply, err := a.model.Complete(ctx, llm.Prompt{System: system, User: user.String()})
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("the language model returned an empty %s", kind)
	}
	return reply, nil
}

// clip cuts s to at most n bytes on a rune boundary.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
