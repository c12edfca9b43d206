// Package executor runs a classified Action against an issue tracker.
package executor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielolaszy/jassist/internal/logging"
	"github.com/danielolaszy/jassist/internal/query"
	"github.com/danielolaszy/jassist/internal/ranker"
	"github.com/danielolaszy/jassist/pkg/models"
)

const (
	// DefaultConcurrency is the bulk-assign pool size.
	DefaultConcurrency = 5
	maxConcurrency     = 10
)

// Tracker is the issue tracker the executor drives.
type Tracker interface {
	CreateIssue(ctx context.Context, fields models.IssueFields) (models.IssueRef, error)
	Search(ctx context.Context, native string) ([]models.Issue, error)
	Assign(ctx context.Context, issueKey string, user models.UserRef) error
	// ResolveUser returns nil, nil when no account matches.
	ResolveUser(ctx context.Context, nameOrEmail string) (*models.UserRef, error)
	CurrentUser(ctx context.Context) (models.UserRef, error)
	Dialect() query.Dialect
}

// ConfirmFunc is asked before a bulk assignment over an unbounded query.
// Returning false cancels the action.
type ConfirmFunc func(ctx context.Context, action models.AssignIssues, q query.Query, matches int) bool

// Executor dispatches Actions.
type Executor struct {
	tracker     Tracker
	concurrency int
	confirm     ConfirmFunc
	now         func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithConcurrency caps parallel per-issue mutations (1..10).
func WithConcurrency(n int) Option {
	return func(e *Executor) { e.concurrency = min(max(n, 1), maxConcurrency) }
}

// WithConfirm installs the unbounded bulk-assign hook.
func WithConfirm(fn ConfirmFunc) Option {
	return func(e *Executor) { e.confirm = fn }
}

// WithClock sets the time used for ranking.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an Executor for t.
func New(t Tracker, opts ...Option) *Executor {
	e := &Executor{
		tracker:     t,
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs action and always returns a result; failures are carried in
// the result rather than returned.
func (e *Executor) Execute(ctx context.Context, action models.Action) models.ExecutionResult {
	switch a := action.(type) {
	case models.CreateIssue:
		return e.create(ctx, a)
	case models.SearchIssues:
		return e.search(ctx, a)
	case models.AssignIssues:
		return e.assign(ctx, a)
	case models.Unknown:
		return models.ExecutionResult{Action: models.ActionUnknown, Reason: a.Reason}
	}
	return models.ExecutionResult{
		Action: models.ActionUnknown,
		Reason: fmt.Sprintf("unsupported action %T", action),
	}
}

// Plan translates the filters of a search or assign action into the native
// query without running it. ok is false for actions that carry no filters.
func (e *Executor) Plan(ctx context.Context, action models.Action) (q query.Query, ok bool) {
	var fs models.FilterSet
	switch a := action.(type) {
	case models.SearchIssues:
		fs = a.Filters
	case models.AssignIssues:
		fs = a.Filters
	default:
		return query.Query{}, false
	}
	return query.Translate(fs, e.tracker.Dialect(), e.resolveFilterUser(ctx, fs)), true
}

func (e *Executor) create(ctx context.Context, a models.CreateIssue) models.ExecutionResult {
	result := models.ExecutionResult{Action: models.ActionCreateIssue}

	logging.Info("creating issue", "summary", a.Summary)
	ref, err := e.tracker.CreateIssue(ctx, models.IssueFields{
		Summary:     a.Summary,
		Description: a.Description,
		StoryPoints: a.StoryPoints,
		DueDate:     a.DueDate,
		Priority:    a.Priority,
	})
	if err != nil {
		logging.Error("failed to create issue", "error", err)
		result.Err = fmt.Errorf("failed to create issue: %w", err)
		return result
	}

	logging.Info("created issue", "issue_key", ref.Key)
	result.Created = &ref
	return result
}

func (e *Executor) search(ctx context.Context, a models.SearchIssues) models.ExecutionResult {
	result := models.ExecutionResult{Action: models.ActionSearchIssues, Intent: a.Intent}

	q := query.Translate(a.Filters, e.tracker.Dialect(), e.resolveFilterUser(ctx, a.Filters))
	result.Query, result.Unbounded, result.Warnings = q.Native, q.Unbounded, q.Warnings

	logging.Debug("searching issues", "query", q.Native, "intent", a.Intent)
	issues, err := e.tracker.Search(ctx, q.Native)
	if err != nil {
		logging.Error("search failed", "query", q.Native, "error", err)
		result.Err = fmt.Errorf("failed to search issues: %w", err)
		return result
	}
	logging.Debug("search returned", "count", len(issues))

	if a.Intent == models.IntentSuggest {
		result.Suggestions = ranker.Rank(issues, e.now())
		return result
	}
	result.Issues = issues
	return result
}

func (e *Executor) assign(ctx context.Context, a models.AssignIssues) models.ExecutionResult {
	result := models.ExecutionResult{Action: models.ActionAssignIssues}

	target, err := e.resolveAssignee(ctx, a.Assignee)
	if err != nil {
		result.Err = err
		return result
	}

	fs := a.Filters.Normalize()
	var resolved *models.UserRef
	if fs.Assignment == models.AssignmentUser {
		resolved = e.resolveFilterUser(ctx, fs)
		if resolved == nil {
			// Dropping the predicate would widen a mutation; refuse instead.
			result.Warnings = append(result.Warnings, models.Warning{
				Kind:    models.WarningUnresolvedUser,
				Message: fmt.Sprintf("could not find a user matching %q", fs.User),
			})
			result.Err = fmt.Errorf("no tracker user matches %q; nothing was assigned", fs.User)
			return result
		}
	}

	q := query.Translate(fs, e.tracker.Dialect(), resolved)
	result.Query, result.Unbounded, result.Warnings = q.Native, q.Unbounded, append(result.Warnings, q.Warnings...)

	issues, err := e.tracker.Search(ctx, q.Native)
	if err != nil {
		logging.Error("search failed", "query", q.Native, "error", err)
		result.Err = fmt.Errorf("failed to search issues: %w", err)
		return result
	}

	if q.Unbounded && e.confirm != nil && len(issues) > 0 && !e.confirm(ctx, a, q, len(issues)) {
		logging.Info("bulk assignment declined", "matches", len(issues))
		result.Declined = true
		return result
	}

	logging.Info("assigning issues", "count", len(issues), "assignee", target.String())
	result.Succeeded, result.Failed = e.assignAll(ctx, issues, target)
	logging.Info("assignment finished", "succeeded", len(result.Succeeded), "failed", len(result.Failed))
	return result
}

// assignAll attempts every issue independently through a bounded pool.
// Each worker owns one result slot, so the merged order follows issues
// regardless of completion order.
func (e *Executor) assignAll(ctx context.Context, issues []models.Issue, user models.UserRef) ([]models.IssueRef, []models.Failure) {
	errs := make([]error, len(issues))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, issue := range issues {
		g.Go(func() error {
			errs[i] = e.tracker.Assign(ctx, issue.Key, user)
			if errs[i] != nil {
				logging.Warn("failed to assign issue", "issue_key", issue.Key, "error", errs[i])
			} else {
				logging.Debug("assigned issue", "issue_key", issue.Key)
			}
			return nil
		})
	}
	_ = g.Wait()

	var succeeded []models.IssueRef
	var failed []models.Failure
	for i, issue := range issues {
		if errs[i] != nil {
			failed = append(failed, models.Failure{Issue: issue.Ref(), Reason: errs[i].Error()})
			continue
		}
		succeeded = append(succeeded, issue.Ref())
	}
	return succeeded, failed
}

func (e *Executor) resolveAssignee(ctx context.Context, a models.Assignee) (models.UserRef, error) {
	if a.Me {
		me, err := e.tracker.CurrentUser(ctx)
		if err != nil {
			return models.UserRef{}, fmt.Errorf("failed to look up the current user: %w", err)
		}
		return me, nil
	}

	user, err := e.tracker.ResolveUser(ctx, a.User)
	if err != nil {
		return models.UserRef{}, fmt.Errorf("failed to look up user %q: %w", a.User, err)
	}
	if user == nil {
		return models.UserRef{}, fmt.Errorf("no tracker user matches %q", a.User)
	}
	return *user, nil
}

// resolveFilterUser looks up the account named by a userRef filter. Lookup
// failures are treated as unresolved.
func (e *Executor) resolveFilterUser(ctx context.Context, fs models.FilterSet) *models.UserRef {
	fs = fs.Normalize()
	if fs.Assignment != models.AssignmentUser {
		return nil
	}
	user, err := e.tracker.ResolveUser(ctx, fs.User)
	if err != nil {
		logging.Warn("user lookup failed", "user", fs.User, "error", err)
		return nil
	}
	return user
}
