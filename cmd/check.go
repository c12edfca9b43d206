package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/jassist/internal/llm"
	"github.com/danielolaszy/jassist/internal/logging"
	"github.com/danielolaszy/jassist/internal/output"
	"github.com/danielolaszy/jassist/pkg/models"
)

// checkCmd verifies tracker and model credentials.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify tracker and language model credentials",
	Long: `Verify that the configured credentials work.

The tracker check looks up the authenticated user. The model check sends one
tiny completion request.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd.Context())
		defer cancel()

		failed := 0

		ui.Info("Checking %s connection...", trackerTitle(cfg.Tracker))
		backend, err := newTracker(cfg)
		if err == nil {
			err = checkTracker(ctx, ui, backend)
		}
		if err != nil {
			ui.Error("%s: %v", trackerTitle(cfg.Tracker), err)
			failed++
		}

		ui.Info("Checking language model (%s)...", cfg.Anthropic.Model)
		model, err := newModel(cfg)
		if err == nil {
			err = checkModel(ctx, ui, model)
		}
		if err != nil {
			ui.Error("language model: %v", err)
			failed++
		}

		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		return nil
	},
}

// currentUserLookup is the tracker call the check needs.
type currentUserLookup interface {
	CurrentUser(ctx context.Context) (models.UserRef, error)
}

func checkTracker(ctx context.Context, ui *output.UI, t currentUserLookup) error {
	user, err := t.CurrentUser(ctx)
	if err != nil {
		return err
	}
	ui.Success("Connected as %s", output.Bold(user.String()))
	return nil
}

// completer is the model call the check needs.
type completer interface {
	Complete(ctx context.Context, p llm.Prompt) (string, error)
}

func checkModel(ctx context.Context, ui *output.UI, m completer) error {
	reply, err := m.Complete(ctx, llm.Prompt{User: "Reply with the single word: ok"})
	if err != nil {
		return err
	}
	logging.Debug("model check reply", "reply", reply)
	ui.Success("Language model responded")
	return nil
}
