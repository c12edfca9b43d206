// Package cmd provides the command-line interface for jassist.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/jassist/internal/config"
	"github.com/danielolaszy/jassist/internal/logging"
	"github.com/danielolaszy/jassist/internal/output"
)

// Package-level shared dependencies, initialized before any command runs.
var (
	ui  *output.UI
	cfg *config.Config

	verbose     bool
	assumeYes   bool
	configPath  string
	trackerName string
	outputName  string
)

var rootCmd = &cobra.Command{
	Use:   "jassist",
	Short: "jassist turns plain-language requests into issue tracker actions",
	Long: `jassist is a command-line assistant for Jira and GitHub Issues.

Describe what you want in plain language and it will create issues, list
and filter them, suggest what to work on next, or assign issues in bulk.

Examples:
  jassist                                   start an interactive session
  jassist ask "show me my high priority tasks"
  jassist ask "create a task to fix the login page, 3 story points"
  jassist query "unassigned bugs"           show the tracker query without running it
  jassist summary                           summarize the open backlog
  jassist analyze SCRUM-12                  analyze one issue
  jassist check                             verify tracker and model credentials`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initDeps,
	RunE:              runChat,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logs and native queries)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/jassist/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&trackerName, "tracker", "t", "", "Issue tracker: jira or github (overrides JASSIST_TRACKER)")
	rootCmd.PersistentFlags().StringVarP(&outputName, "output", "o", "text", "Output format: text, yaml or json")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask before assigning across the whole backlog")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(improveCmd)
}

// initDeps loads configuration and prepares the terminal UI.
func initDeps(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputName)
	if err != nil {
		return err
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if trackerName != "" {
		switch name := strings.ToLower(trackerName); name {
		case config.TrackerJira, config.TrackerGitHub:
			loaded.Tracker = name
		default:
			return fmt.Errorf("unsupported tracker %q: expected %q or %q", trackerName, config.TrackerJira, config.TrackerGitHub)
		}
	}
	cfg = loaded

	logging.SetVerbose(verbose)
	ui = output.New()
	ui.Verbose = verbose
	ui.Format = format
	ui.Out = cmd.OutOrStdout()
	ui.ErrOut = cmd.ErrOrStderr()

	logging.Debug("configuration loaded",
		"tracker", cfg.Tracker,
		"model", cfg.Anthropic.Model,
		"concurrency", cfg.Assistant.Concurrency)
	return nil
}
