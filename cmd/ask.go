package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/jassist/pkg/models"
)

// askCmd handles a single request and exits.
var askCmd = &cobra.Command{
	Use:   "ask <request>",
	Short: "Handle a single request",
	Long: `Handle a single plain-language request and exit.

All arguments are joined into one request, so quoting is optional.

Example:
  jassist ask show me my high priority tasks
  jassist ask -o json "what should I work on next?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cfg, ui, cmd.InOrStdin())
		if err != nil {
			return err
		}

		result := s.run(cmd.Context(), strings.Join(args, " "))
		return resultError(result)
	},
}

// resultError turns a failed result into a non-zero exit.
func resultError(r models.ExecutionResult) error {
	switch {
	case r.Err != nil:
		return fmt.Errorf("%s failed", r.Action)
	case r.Action == models.ActionUnknown:
		return fmt.Errorf("request not understood")
	case len(r.Failed) > 0:
		return fmt.Errorf("%d of %d assignments failed", len(r.Failed), len(r.Failed)+len(r.Succeeded))
	}
	return nil
}
