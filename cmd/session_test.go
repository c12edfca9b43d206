package cmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/jassist/internal/classifier"
	"github.com/danielolaszy/jassist/internal/llm"
	"github.com/danielolaszy/jassist/internal/logging"
	"github.com/danielolaszy/jassist/internal/output"
	"github.com/danielolaszy/jassist/internal/query"
	"github.com/danielolaszy/jassist/pkg/models"
)

// mockClassifier records requests and returns a fixed action.
type mockClassifier struct {
	action     models.Action
	block      bool
	utterances []string
	historyLen []int
}

func (m *mockClassifier) Classify(ctx context.Context, utterance string, conv *classifier.Conversation) models.Action {
	m.utterances = append(m.utterances, utterance)
	m.historyLen = append(m.historyLen, conv.Len())
	if m.block {
		<-ctx.Done()
		return models.Unknown{RawText: utterance, Reason: ctx.Err().Error()}
	}
	return m.action
}

// mockExecutor returns a fixed result.
type mockExecutor struct {
	result  models.ExecutionResult
	actions []models.Action
}

func (m *mockExecutor) Execute(ctx context.Context, action models.Action) models.ExecutionResult {
	m.actions = append(m.actions, action)
	if ctx.Err() != nil {
		return models.ExecutionResult{Action: action.Kind(), Reason: "cancelled", Err: ctx.Err()}
	}
	return m.result
}

func newTestSession(input string, c *mockClassifier, e *mockExecutor) (*session, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &session{
		classifier: c,
		executor:   e,
		ui:         &output.UI{Format: output.FormatText, Out: out, ErrOut: errOut},
		in:         bufio.NewReader(strings.NewReader(input)),
		conv:       classifier.NewConversation(6),
	}, out, errOut
}

var listMine = models.SearchIssues{
	Filters: models.FilterSet{Assignment: models.AssignmentMe},
	Intent:  models.IntentList,
}

func TestHandle_SessionCommands(t *testing.T) {
	testCases := []struct {
		name     string
		line     string
		wantDone bool
	}{
		{name: "Blank line", line: "   \n", wantDone: false},
		{name: "Exit", line: "exit\n", wantDone: true},
		{name: "Quit", line: "quit", wantDone: true},
		{name: "Bye in capitals", line: "  BYE  ", wantDone: true},
		{name: "Help", line: "help", wantDone: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &mockClassifier{action: listMine}
			s, _, _ := newTestSession("", c, &mockExecutor{})

			done := s.handle(context.Background(), tc.line)

			assert.Equal(t, tc.wantDone, done)
			assert.Empty(t, c.utterances, "session commands must not reach the classifier")
		})
	}
}

func TestHandle_Help(t *testing.T) {
	s, out, _ := newTestSession("", &mockClassifier{}, &mockExecutor{})
	s.handle(context.Background(), "help")
	assert.Contains(t, out.String(), "show me my high priority tasks")
	assert.Contains(t, out.String(), "verbose")
}

func TestHandle_VerboseToggle(t *testing.T) {
	t.Cleanup(func() { logging.SetVerbose(false) })
	logging.SetVerbose(false)

	s, out, _ := newTestSession("", &mockClassifier{}, &mockExecutor{})

	s.handle(context.Background(), "verbose")
	assert.True(t, logging.Verbose())
	assert.True(t, s.ui.Verbose)
	assert.Contains(t, out.String(), "Verbose mode on")

	s.handle(context.Background(), "Verbose")
	assert.False(t, logging.Verbose())
	assert.False(t, s.ui.Verbose)
	assert.Contains(t, out.String(), "Verbose mode off")
}

func TestRun_RecordsTurnsAndRenders(t *testing.T) {
	c := &mockClassifier{action: listMine}
	e := &mockExecutor{result: models.ExecutionResult{
		Action: models.ActionSearchIssues,
		Intent: models.IntentList,
		Issues: []models.Issue{{Key: "SCRUM-1", Summary: "Fix login", Priority: models.PriorityHigh}},
	}}
	s, out, _ := newTestSession("", c, e)

	s.run(context.Background(), "show my tasks")
	s.run(context.Background(), "only the high priority ones")

	assert.Equal(t, []string{"show my tasks", "only the high priority ones"}, c.utterances)
	assert.Equal(t, []int{0, 1}, c.historyLen, "second request should see the first")
	assert.Equal(t, 2, s.conv.Len())
	require.Len(t, e.actions, 2)
	assert.Equal(t, listMine, e.actions[0])
	assert.Contains(t, out.String(), "SCRUM-1")
}

func TestRun_Timeout(t *testing.T) {
	c := &mockClassifier{block: true}
	s, _, errOut := newTestSession("", c, &mockExecutor{})
	s.timeout = 20 * time.Millisecond

	result := s.run(context.Background(), "show my tasks")

	assert.False(t, result.OK())
	assert.Contains(t, errOut.String(), "timed out")
}

func TestLoop(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		wantCalls []string
	}{
		{
			name:      "Exit ends the session",
			input:     "show my tasks\n\nexit\nshow everything\n",
			wantCalls: []string{"show my tasks"},
		},
		{
			name:      "End of input ends the session",
			input:     "show my tasks\nwhat next?",
			wantCalls: []string{"show my tasks", "what next?"},
		},
		{
			name:      "Empty input",
			input:     "",
			wantCalls: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &mockClassifier{action: listMine}
			e := &mockExecutor{result: models.ExecutionResult{Action: models.ActionSearchIssues, Intent: models.IntentList}}
			s, out, _ := newTestSession(tc.input, c, e)

			err := s.loop(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tc.wantCalls, c.utterances)
			assert.Contains(t, out.String(), "Bye.")
		})
	}
}

func TestConfirm(t *testing.T) {
	action := models.AssignIssues{Assignee: models.AssigneeMe}
	q := query.Query{Native: `project = "SCRUM" ORDER BY priority DESC, updated DESC`, Unbounded: true}

	testCases := []struct {
		name      string
		input     string
		assumeYes bool
		want      bool
	}{
		{name: "Yes", input: "y\n", want: true},
		{name: "Yes spelled out", input: " YES \n", want: true},
		{name: "No", input: "n\n", want: false},
		{name: "Just enter", input: "\n", want: false},
		{name: "End of input", input: "", want: false},
		{name: "Assume yes skips the prompt", input: "", assumeYes: true, want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, out, errOut := newTestSession(tc.input, &mockClassifier{}, &mockExecutor{})
			s.assumeYes = tc.assumeYes

			got := s.confirm(context.Background(), action, q, 42)

			assert.Equal(t, tc.want, got)
			if !tc.assumeYes {
				assert.Contains(t, errOut.String(), "42 issue(s)")
				assert.Contains(t, out.String(), "[y/N]")
			}
		})
	}
}

func TestResultError(t *testing.T) {
	testCases := []struct {
		name    string
		result  models.ExecutionResult
		wantErr string
	}{
		{
			name:   "Success",
			result: models.ExecutionResult{Action: models.ActionCreateIssue, Created: &models.IssueRef{Key: "SCRUM-1"}},
		},
		{
			name:   "Declined",
			result: models.ExecutionResult{Action: models.ActionAssignIssues, Declined: true},
		},
		{
			name:    "Tracker failure",
			result:  models.ExecutionResult{Action: models.ActionSearchIssues, Err: errors.New("boom")},
			wantErr: "search_issues failed",
		},
		{
			name:    "Not understood",
			result:  models.ExecutionResult{Action: models.ActionUnknown, Reason: "out of scope"},
			wantErr: "request not understood",
		},
		{
			name: "Partial assignment",
			result: models.ExecutionResult{
				Action:    models.ActionAssignIssues,
				Succeeded: []models.IssueRef{{Key: "SCRUM-1"}},
				Failed:    []models.Failure{{Issue: models.IssueRef{Key: "SCRUM-2"}, Reason: "forbidden"}},
			},
			wantErr: "1 of 2 assignments failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := resultError(tc.result)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.wantErr)
		})
	}
}

type mockUserLookup struct {
	user models.UserRef
	err  error
}

func (m mockUserLookup) CurrentUser(ctx context.Context) (models.UserRef, error) {
	return m.user, m.err
}

type mockCompleter struct {
	reply  string
	err    error
	prompt llm.Prompt
}

func (m *mockCompleter) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	m.prompt = p
	return m.reply, m.err
}

func TestCheckTracker(t *testing.T) {
	s, out, _ := newTestSession("", nil, nil)

	err := checkTracker(context.Background(), s.ui, mockUserLookup{user: models.UserRef{ID: "557058:abc", DisplayName: "Alice"}})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Alice")

	err = checkTracker(context.Background(), s.ui, mockUserLookup{err: errors.New("401 unauthorized")})
	assert.EqualError(t, err, "401 unauthorized")
}

func TestCheckModel(t *testing.T) {
	s, out, _ := newTestSession("", nil, nil)

	m := &mockCompleter{reply: "ok"}
	require.NoError(t, checkModel(context.Background(), s.ui, m))
	assert.NotEmpty(t, m.prompt.User)
	assert.Contains(t, out.String(), "Language model responded")

	m = &mockCompleter{err: &llm.ProviderError{StatusCode: 401, Err: errors.New("invalid x-api-key")}}
	err := checkModel(context.Background(), s.ui, m)
	assert.ErrorContains(t, err, "invalid x-api-key")
}

func TestTrackerTitle(t *testing.T) {
	assert.Equal(t, "GitHub", trackerTitle("github"))
	assert.Equal(t, "Jira", trackerTitle("jira"))
}
