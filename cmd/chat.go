package cmd

import (
	"github.com/spf13/cobra"

	"github.com/danielolaszy/jassist/internal/logging"
)

// chatCmd runs the interactive session. It is also the root command's default.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Start an interactive session with the assistant.

Each line is one request. Recent requests are remembered, so follow-ups such
as "now only the high priority ones" work as expected.

Session commands:
  help      print example requests
  verbose   toggle debug logging and native query output
  exit      leave the session (also quit, bye or Ctrl-D)

Ctrl-C cancels the request in flight.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	s, err := newSession(cfg, ui, cmd.InOrStdin())
	if err != nil {
		return err
	}

	logging.Debug("starting interactive session", "tracker", cfg.Tracker)
	return s.loop(cmd.Context())
}
