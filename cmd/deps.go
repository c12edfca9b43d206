package cmd

import (
	"bufio"
	"fmt"
	"io"

	"github.com/danielolaszy/jassist/internal/classifier"
	"github.com/danielolaszy/jassist/internal/config"
	"github.com/danielolaszy/jassist/internal/executor"
	"github.com/danielolaszy/jassist/internal/github"
	"github.com/danielolaszy/jassist/internal/jira"
	"github.com/danielolaszy/jassist/internal/llm"
	"github.com/danielolaszy/jassist/internal/logging"
	"github.com/danielolaszy/jassist/internal/output"
	"github.com/danielolaszy/jassist/internal/tracker"
)

// newTracker builds the backend selected by cfg.Tracker.
func newTracker(cfg *config.Config) (executor.Tracker, error) {
	if err := config.ValidateTrackerConfig(cfg); err != nil {
		return nil, err
	}
	retry := tracker.DefaultRetryPolicy(cfg.Assistant.RetryMaxElapsed)

	switch cfg.Tracker {
	case config.TrackerGitHub:
		client, err := github.NewClient(cfg.GitHub, retry)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize github client: %w", err)
		}
		return client, nil
	default:
		client, err := jira.NewClient(cfg.Jira, retry)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize jira client: %w", err)
		}
		return client, nil
	}
}

// newModel builds the language model client.
func newModel(cfg *config.Config) (*llm.Client, error) {
	if err := config.ValidateLLMConfig(cfg); err != nil {
		return nil, err
	}
	logging.Debug("initializing language model client",
		"model", cfg.Anthropic.Model,
		"api_key", logging.MaskSensitive(cfg.Anthropic.APIKey))
	return llm.NewClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model), nil
}

// trackerTitle is the tracker name used in prompts.
func trackerTitle(name string) string {
	if name == config.TrackerGitHub {
		return "GitHub"
	}
	return "Jira"
}

// newSession wires the classifier and executor for one CLI invocation.
func newSession(cfg *config.Config, ui *output.UI, in io.Reader) (*session, error) {
	backend, err := newTracker(cfg)
	if err != nil {
		return nil, err
	}
	model, err := newModel(cfg)
	if err != nil {
		return nil, err
	}

	s := &session{
		ui:        ui,
		in:        bufio.NewReader(in),
		conv:      classifier.NewConversation(cfg.Assistant.History),
		timeout:   cfg.Assistant.RequestTimeout,
		assumeYes: assumeYes,
	}
	s.classifier = classifier.New(model,
		classifier.WithHistory(cfg.Assistant.History),
		classifier.WithTrackerName(trackerTitle(cfg.Tracker)))
	s.executor = executor.New(backend,
		executor.WithConcurrency(cfg.Assistant.Concurrency),
		executor.WithConfirm(s.confirm))
	return s, nil
}
