package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/jassist/internal/insight"
	"github.com/danielolaszy/jassist/internal/logging"
	"github.com/danielolaszy/jassist/internal/output"
	"github.com/danielolaszy/jassist/internal/query"
	"github.com/danielolaszy/jassist/internal/tracker"
	"github.com/danielolaszy/jassist/pkg/models"
)

var summaryLimit int

// summaryCmd summarizes the open backlog.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the open backlog",
	Long: `Fetch the open issues and ask the language model for a short summary of
themes, blockers and priorities.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd.Context())
		defer cancel()

		backend, analyst, err := newReportDeps()
		if err != nil {
			return err
		}
		return runSummary(ctx, ui, backend, analyst, summaryLimit)
	},
}

// analyzeCmd analyzes one issue.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <issue-key>",
	Short: "Analyze one issue",
	Long: `Fetch an issue with its comments and ask the language model for an
analysis of its scope, risks and next steps.

Example:
  jassist analyze SCRUM-12
  jassist -t github analyze 42`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIssueCommand(cmd.Context(), args[0], "Analysis of", (*insight.Analyst).Analyze)
	},
}

// improveCmd suggests edits to one issue.
var improveCmd = &cobra.Command{
	Use:   "improve <issue-key>",
	Short: "Suggest improvements to one issue",
	Long: `Fetch an issue and ask the language model how its summary, description,
priority and estimate could be improved. Nothing is changed in the tracker.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIssueCommand(cmd.Context(), args[0], "Suggested improvements for", (*insight.Analyst).Improve)
	},
}

func init() {
	summaryCmd.Flags().IntVarP(&summaryLimit, "limit", "n", insight.MaxSummaryIssues, "Maximum number of issues to summarize")
}

// requestContext applies the configured request timeout.
func requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if cfg.Assistant.RequestTimeout > 0 {
		return context.WithTimeout(ctx, cfg.Assistant.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

func newReportDeps() (reportTracker, *insight.Analyst, error) {
	backend, err := newTracker(cfg)
	if err != nil {
		return nil, nil, err
	}
	model, err := newModel(cfg)
	if err != nil {
		return nil, nil, err
	}
	reader, ok := backend.(reportTracker)
	if !ok {
		return nil, nil, fmt.Errorf("%s does not support reading single issues", trackerTitle(cfg.Tracker))
	}
	return reader, insight.New(model, trackerTitle(cfg.Tracker)), nil
}

func runIssueCommand(ctx context.Context, key, title string, report issueReport) error {
	ctx, cancel := requestContext(ctx)
	defer cancel()

	backend, analyst, err := newReportDeps()
	if err != nil {
		return err
	}
	return runIssueReport(ctx, ui, backend, key, title, func(ctx context.Context, issue models.Issue) (string, error) {
		return report(analyst, ctx, issue)
	})
}

// backlogSearcher is the tracker surface a summary needs.
type backlogSearcher interface {
	Search(ctx context.Context, native string) ([]models.Issue, error)
	Dialect() query.Dialect
}

// issueReader fetches one issue with its comments.
type issueReader interface {
	GetIssue(ctx context.Context, key string) (models.Issue, error)
}

type reportTracker interface {
	backlogSearcher
	issueReader
}

type issueReport func(a *insight.Analyst, ctx context.Context, issue models.Issue) (string, error)

func runSummary(ctx context.Context, ui *output.UI, t backlogSearcher, a *insight.Analyst, limit int) error {
	if limit <= 0 || limit > insight.MaxSummaryIssues {
		limit = insight.MaxSummaryIssues
	}

	q := query.Translate(models.FilterSet{Status: models.StatusOpen}, t.Dialect(), nil)
	logging.Debug("fetching backlog for summary", "query", q.Native, "limit", limit)
	issues, err := t.Search(ctx, q.Native)
	if err != nil {
		return fmt.Errorf("failed to fetch issues: %w", err)
	}
	if len(issues) > limit {
		issues = issues[:limit]
	}

	body, err := a.Summarize(ctx, issues)
	if errors.Is(err, insight.ErrNoIssues) {
		ui.Info("No open issues found.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to summarize issues: %w", err)
	}
	return ui.Report(fmt.Sprintf("Summary of %d open issue(s)", len(issues)), body)
}

func runIssueReport(ctx context.Context, ui *output.UI, r issueReader, key, title string, report func(context.Context, models.Issue) (string, error)) error {
	key = strings.TrimSpace(key)
	issue, err := r.GetIssue(ctx, key)
	if err != nil {
		var te *tracker.Error
		if errors.As(err, &te) && te.Kind == tracker.KindNotFound {
			return fmt.Errorf("issue %s not found", key)
		}
		return fmt.Errorf("failed to fetch issue %s: %w", key, err)
	}
	logging.Debug("fetched issue", "issue_key", issue.Key, "comments", len(issue.Comments))

	body, err := report(ctx, issue)
	if err != nil {
		return err
	}
	return ui.Report(fmt.Sprintf("%s %s: %s", title, issue.Key, issue.Summary), body)
}
