package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/jassist/internal/classifier"
	"github.com/danielolaszy/jassist/internal/executor"
	"github.com/danielolaszy/jassist/internal/output"
	"github.com/danielolaszy/jassist/internal/query"
	"github.com/danielolaszy/jassist/pkg/models"
)

// queryCmd prints the native query for a request without running it.
var queryCmd = &cobra.Command{
	Use:   "query <request>",
	Short: "Show the tracker query for a request without running it",
	Long: `Translate a plain-language search into the tracker's own query language
(JQL or GitHub search syntax) and print it. Nothing is searched or changed.

Example:
  jassist query high priority bugs assigned to me
  jassist -t github query unassigned issues about payments`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd.Context())
		defer cancel()

		backend, err := newTracker(cfg)
		if err != nil {
			return err
		}
		model, err := newModel(cfg)
		if err != nil {
			return err
		}

		c := classifier.New(model, classifier.WithTrackerName(trackerTitle(cfg.Tracker)))
		return runPlan(ctx, ui, c, executor.New(backend), strings.Join(args, " "))
	},
}

// actionPlanner is the part of executor.Executor that builds queries.
type actionPlanner interface {
	Plan(ctx context.Context, action models.Action) (query.Query, bool)
}

func runPlan(ctx context.Context, ui *output.UI, c actionClassifier, p actionPlanner, utterance string) error {
	action := c.Classify(ctx, utterance, classifier.NewConversation(0))
	if u, ok := action.(models.Unknown); ok {
		ui.Warning("Sorry, I could not turn that into a query: %s", u.Reason)
		return fmt.Errorf("request not understood")
	}

	q, ok := p.Plan(ctx, action)
	if !ok {
		return fmt.Errorf("%s does not search for issues", action.Kind())
	}
	return ui.Query(q)
}
