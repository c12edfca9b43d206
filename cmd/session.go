package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/danielolaszy/jassist/internal/classifier"
	"github.com/danielolaszy/jassist/internal/logging"
	"github.com/danielolaszy/jassist/internal/output"
	"github.com/danielolaszy/jassist/internal/query"
	"github.com/danielolaszy/jassist/pkg/models"
)

const prompt = "jassist> "

// actionClassifier is the part of classifier.Classifier a session uses.
type actionClassifier interface {
	Classify(ctx context.Context, utterance string, conv *classifier.Conversation) models.Action
}

// actionExecutor is the part of executor.Executor a session uses.
type actionExecutor interface {
	Execute(ctx context.Context, action models.Action) models.ExecutionResult
}

// session runs requests for one invocation and owns its conversation.
type session struct {
	classifier actionClassifier
	executor   actionExecutor
	ui         *output.UI
	in         *bufio.Reader
	conv       *classifier.Conversation
	timeout    time.Duration
	assumeYes  bool
}

var exampleRequests = []string{
	"show me my high priority tasks",
	"what's a good task for me to work on now?",
	"create a task to implement the login page with 5 story points, due next friday",
	"assign all unassigned high priority issues to me",
	"find in progress issues about payments assigned to alice",
}

// loop reads one request per line until exit or end of input.
func (s *session) loop(ctx context.Context) error {
	s.ui.Info("Ask me about your issues. Type %s for examples, %s to leave.", output.Cyan("help"), output.Cyan("exit"))
	for {
		fmt.Fprint(s.ui.Out, prompt)
		line, err := s.in.ReadString('\n')
		if line != "" && s.handle(ctx, line) {
			s.ui.Info("Bye.")
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.ui.Out)
				s.ui.Info("Bye.")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}
	}
}

// handle processes one line and reports whether the session should end.
func (s *session) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	switch strings.ToLower(line) {
	case "exit", "quit", "bye":
		return true
	case "verbose":
		on := !logging.Verbose()
		logging.SetVerbose(on)
		s.ui.Verbose = on
		if on {
			s.ui.Info("Verbose mode on.")
		} else {
			s.ui.Info("Verbose mode off.")
		}
		return false
	case "help":
		s.help()
		return false
	}

	s.run(ctx, line)
	return false
}

func (s *session) help() {
	s.ui.Info("Describe what you want in plain language, for example:")
	for _, ex := range exampleRequests {
		fmt.Fprintf(s.ui.Out, "  %s\n", ex)
	}
	s.ui.Info("Commands: %s, %s, %s", output.Cyan("help"), output.Cyan("verbose"), output.Cyan("exit"))
}

// run classifies and executes one utterance under the request timeout.
// Ctrl-C cancels the request in flight.
func (s *session) run(ctx context.Context, utterance string) models.ExecutionResult {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	action := s.classifier.Classify(ctx, utterance, s.conv)
	logging.Debug("request classified", "action", action.Kind(), "describe", action.Describe())

	result := s.executor.Execute(ctx, action)
	s.conv.Add(utterance, action)

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		s.ui.Warning("The request timed out after %s.", s.timeout)
	case errors.Is(ctx.Err(), context.Canceled):
		s.ui.Warning("Request cancelled.")
	}
	if err := s.ui.Render(result); err != nil {
		s.ui.Error("failed to render result: %v", err)
	}

	logging.Debug("request finished",
		"action", result.Action,
		"ok", result.OK(),
		"duration", time.Since(started))
	return result
}

// confirm asks before assigning across an unbounded query.
func (s *session) confirm(ctx context.Context, action models.AssignIssues, q query.Query, matches int) bool {
	if s.assumeYes {
		return true
	}
	s.ui.Warning("This will assign %d issue(s) to %s and the query has no filters: %s", matches, action.Assignee, q.Native)
	fmt.Fprint(s.ui.Out, "Continue? [y/N] ")

	answer, err := s.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
