package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/danielolaszy/jassist/internal/query"
	"github.com/danielolaszy/jassist/pkg/models"
)

func newTestUI() (*UI, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &UI{Format: FormatText, Out: out, ErrOut: errOut}, out, errOut
}

func intPtr(v int) *int { return &v }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestInfo(t *testing.T) {
	u, out, _ := newTestUI()
	u.Info("hello %s", "world")
	assert.Contains(t, out.String(), "hello world")
}

func TestSuccess(t *testing.T) {
	u, out, _ := newTestUI()
	u.Success("done %d", 42)
	assert.Contains(t, out.String(), "done 42")
}

func TestWarning(t *testing.T) {
	u, _, errOut := newTestUI()
	u.Warning("careful %s", "now")
	assert.Contains(t, errOut.String(), "careful now")
}

func TestError(t *testing.T) {
	u, _, errOut := newTestUI()
	u.Error("failed %s", "badly")
	assert.Contains(t, errOut.String(), "failed badly")
}

func TestVerboseLog(t *testing.T) {
	u, out, _ := newTestUI()
	u.VerboseLog("detail %d", 1)
	assert.Empty(t, out.String())

	u.Verbose = true
	u.VerboseLog("detail %d", 1)
	assert.Contains(t, out.String(), "detail 1")
}

func TestColorHelpers(t *testing.T) {
	assert.NotEmpty(t, Cyan("test"))
	assert.NotEmpty(t, Bold("test"))
	assert.NotEmpty(t, StatusColor("In Progress"))
	assert.Equal(t, "Blocked", StatusColor("Blocked"))
	assert.NotEmpty(t, PriorityColor("Highest"))
	assert.Equal(t, "Low", PriorityColor("Low"))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{" YAML ", FormatYAML, false},
		{"json", FormatJSON, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_Created(t *testing.T) {
	u, out, _ := newTestUI()
	err := u.Render(models.ExecutionResult{
		Action:  models.ActionCreateIssue,
		Created: &models.IssueRef{Key: "SCRUM-7", URL: "https://example.atlassian.net/browse/SCRUM-7"},
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "SCRUM-7")
	assert.Contains(t, out.String(), "browse/SCRUM-7")
}

func TestRender_IssueList(t *testing.T) {
	u, out, errOut := newTestUI()
	u.Verbose = true
	err := u.Render(models.ExecutionResult{
		Action: models.ActionSearchIssues,
		Intent: models.IntentList,
		Query:  `project = "SCRUM" ORDER BY priority DESC, updated DESC`,
		Issues: []models.Issue{
			{Key: "SCRUM-1", Summary: "Fix login", Status: "To Do", Priority: models.PriorityHigh, StoryPoints: intPtr(3)},
			{Key: "SCRUM-2", Summary: "Write docs", Status: "In Progress", DueDate: datePtr(2024, 3, 20),
				Assignee: &models.UserRef{ID: "abc", DisplayName: "Alice"}},
		},
		Warnings: []models.Warning{{Kind: models.WarningUnboundedQuery, Message: "this query matches the whole backlog"}},
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "query: project")
	assert.Contains(t, out.String(), "Found 2 issue(s)")
	assert.Contains(t, out.String(), "SCRUM-1")
	assert.Contains(t, out.String(), "2024-03-20")
	assert.Contains(t, out.String(), "Alice")
	assert.Contains(t, errOut.String(), "whole backlog")
}

func TestRender_EmptyList(t *testing.T) {
	u, out, _ := newTestUI()
	require.NoError(t, u.Render(models.ExecutionResult{Action: models.ActionSearchIssues, Intent: models.IntentList}))
	assert.Contains(t, out.String(), "No issues found")
}

func TestRender_Suggestions(t *testing.T) {
	u, out, _ := newTestUI()
	err := u.Render(models.ExecutionResult{
		Action: models.ActionSearchIssues,
		Intent: models.IntentSuggest,
		Suggestions: []models.ScoredIssue{
			{Issue: models.Issue{Key: "SCRUM-4", Summary: "Patch CVE"}, Score: 0.91, Rationale: "Highest priority, due today"},
			{Issue: models.Issue{Key: "SCRUM-9", Summary: "Tidy README"}, Score: 0.2, Rationale: "Low priority"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Suggested next: ")
	assert.Contains(t, out.String(), "Patch CVE")
	assert.Contains(t, out.String(), "0.91")
	assert.Contains(t, out.String(), "SCRUM-9")
}

func TestRender_EmptySuggestions(t *testing.T) {
	u, out, _ := newTestUI()
	require.NoError(t, u.Render(models.ExecutionResult{Action: models.ActionSearchIssues, Intent: models.IntentSuggest}))
	assert.Contains(t, out.String(), "nothing to suggest")
}

func TestRender_PartialAssignment(t *testing.T) {
	u, out, errOut := newTestUI()
	err := u.Render(models.ExecutionResult{
		Action:    models.ActionAssignIssues,
		Succeeded: []models.IssueRef{{Key: "SCRUM-1"}, {Key: "SCRUM-3"}},
		Failed:    []models.Failure{{Issue: models.IssueRef{Key: "SCRUM-2"}, Reason: "permission denied"}},
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Assigned 2 issue(s): SCRUM-1, SCRUM-3")
	assert.Contains(t, errOut.String(), "SCRUM-2: permission denied")
}

func TestRender_NoMatchesToAssign(t *testing.T) {
	u, out, _ := newTestUI()
	require.NoError(t, u.Render(models.ExecutionResult{Action: models.ActionAssignIssues}))
	assert.Contains(t, out.String(), "nothing was assigned")
}

func TestRender_Unknown(t *testing.T) {
	u, out, errOut := newTestUI()
	require.NoError(t, u.Render(models.ExecutionResult{Action: models.ActionUnknown, Reason: "weather is out of scope"}))
	assert.Contains(t, errOut.String(), "weather is out of scope")
	assert.Contains(t, out.String(), "Try rephrasing")
}

func TestRender_Failure(t *testing.T) {
	u, out, errOut := newTestUI()
	require.NoError(t, u.Render(models.ExecutionResult{
		Action: models.ActionCreateIssue,
		Err:    errors.New("create issue: forbidden"),
	}))
	assert.Contains(t, errOut.String(), "create issue: forbidden")
	assert.Empty(t, out.String())
}

func TestRender_Declined(t *testing.T) {
	u, out, _ := newTestUI()
	require.NoError(t, u.Render(models.ExecutionResult{Action: models.ActionAssignIssues, Declined: true}))
	assert.Contains(t, out.String(), "nothing was changed")
}

func TestRender_JSON(t *testing.T) {
	u, out, _ := newTestUI()
	u.Format = FormatJSON
	err := u.Render(models.ExecutionResult{
		Action:    models.ActionAssignIssues,
		Query:     `project = "SCRUM" AND assignee is EMPTY ORDER BY priority DESC, updated DESC`,
		Succeeded: []models.IssueRef{{Key: "SCRUM-1"}},
		Failed:    []models.Failure{{Issue: models.IssueRef{Key: "SCRUM-2"}, Reason: "not found"}},
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "assign_issues", got["action"])
	assert.Equal(t, []any{"SCRUM-1"}, got["succeeded"])
	assert.Equal(t, []any{map[string]any{"key": "SCRUM-2", "reason": "not found"}}, got["failed"])
	assert.NotContains(t, got, "error")
}

func TestRender_YAML(t *testing.T) {
	u, out, _ := newTestUI()
	u.Format = FormatYAML
	err := u.Render(models.ExecutionResult{
		Action: models.ActionSearchIssues,
		Intent: models.IntentList,
		Issues: []models.Issue{{Key: "42", Summary: "Fix login", Priority: models.PriorityHigh, DueDate: datePtr(2024, 3, 20)}},
		Err:    errors.New("partial page"),
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "search_issues", got["action"])
	assert.Equal(t, "list", got["intent"])
	assert.Equal(t, "partial page", got["error"])

	issues, ok := got["issues"].([]any)
	require.True(t, ok)
	require.Len(t, issues, 1)
	issue := issues[0].(map[string]any)
	assert.Equal(t, "42", issue["key"])
	assert.Equal(t, "high", issue["priority"])
	assert.Equal(t, "2024-03-20", issue["due_date"])
}

func TestReport(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		check  func(t *testing.T, out []byte)
	}{
		{
			name:   "text",
			format: FormatText,
			check: func(t *testing.T, out []byte) {
				assert.Contains(t, string(out), "Backlog summary")
				assert.Contains(t, string(out), "\n\nTwo issues are blocked.\n")
			},
		},
		{
			name:   "json",
			format: FormatJSON,
			check: func(t *testing.T, out []byte) {
				var got map[string]any
				require.NoError(t, json.Unmarshal(out, &got))
				assert.Equal(t, "Backlog summary", got["title"])
				assert.Equal(t, "Two issues are blocked.", got["body"])
			},
		},
		{
			name:   "yaml",
			format: FormatYAML,
			check: func(t *testing.T, out []byte) {
				var got map[string]any
				require.NoError(t, yaml.Unmarshal(out, &got))
				assert.Equal(t, "Two issues are blocked.", got["body"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, out, _ := newTestUI()
			u.Format = tt.format
			require.NoError(t, u.Report("Backlog summary", "\nTwo issues are blocked.\n\n"))
			tt.check(t, out.Bytes())
		})
	}
}

func TestQuery(t *testing.T) {
	unbounded := query.Query{
		Native:    "ORDER BY priority DESC, updated DESC",
		Unbounded: true,
		Warnings: []models.Warning{{
			Kind:    models.WarningUnboundedQuery,
			Message: "no filters given; this matches the entire backlog",
		}},
	}

	t.Run("text", func(t *testing.T) {
		u, out, errOut := newTestUI()
		require.NoError(t, u.Query(unbounded))
		assert.Equal(t, "ORDER BY priority DESC, updated DESC\n", out.String())
		assert.Contains(t, errOut.String(), "matches the entire backlog")
	})

	t.Run("json", func(t *testing.T) {
		u, out, _ := newTestUI()
		u.Format = FormatJSON
		require.NoError(t, u.Query(unbounded))

		var got map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, "ORDER BY priority DESC, updated DESC", got["query"])
		assert.Equal(t, true, got["unbounded"])
		assert.Len(t, got["warnings"], 1)
	})

	t.Run("bounded yaml has no warnings", func(t *testing.T) {
		u, out, _ := newTestUI()
		u.Format = FormatYAML
		require.NoError(t, u.Query(query.Query{Native: `project = "SCRUM"`}))

		var got map[string]any
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, `project = "SCRUM"`, got["query"])
		assert.Equal(t, false, got["unbounded"])
		assert.NotContains(t, got, "warnings")
	})
}
