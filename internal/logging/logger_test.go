package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// captureLogs routes the default logger to a buffer at lvl for one test.
func captureLogs(t *testing.T, lvl LogLevel) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetupLogger(&buf, lvl)
	t.Cleanup(func() { SetupLogger(os.Stderr, LevelInfo) })
	return &buf
}

func TestSetupLogger_LevelFiltering(t *testing.T) {
	testCases := []struct {
		name      string
		level     LogLevel
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{name: "Debug", level: LevelDebug, wantDebug: true, wantInfo: true, wantWarn: true},
		{name: "Info", level: LevelInfo, wantInfo: true, wantWarn: true},
		{name: "Warn", level: LevelWarn, wantWarn: true},
		{name: "Error", level: LevelError},
		{name: "Upper case", level: LogLevel("DEBUG"), wantDebug: true, wantInfo: true, wantWarn: true},
		{name: "Unknown defaults to info", level: LogLevel("chatty"), wantInfo: true, wantWarn: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := captureLogs(t, tc.level)

			Debug("request classified", "action", "search_issues")
			Info("created issue", "issue_key", "SCRUM-12")
			Warn("retrying tracker call", "attempt", 2)
			Error("bulk assignment failed", "issue_key", "SCRUM-3")

			out := buf.String()
			assert.Equal(t, tc.wantDebug, strings.Contains(out, "request classified"))
			assert.Equal(t, tc.wantInfo, strings.Contains(out, "issue_key=SCRUM-12"))
			assert.Equal(t, tc.wantWarn, strings.Contains(out, "attempt=2"))
			assert.Contains(t, out, "bulk assignment failed")
		})
	}
}

func TestSetVerbose(t *testing.T) {
	buf := captureLogs(t, LevelWarn)
	assert.False(t, Verbose())

	SetVerbose(true)
	assert.True(t, Verbose())
	Debug("calling language model", "prompt_chars", 512)
	assert.Contains(t, buf.String(), "prompt_chars=512")

	SetVerbose(false)
	assert.False(t, Verbose())
	buf.Reset()
	Info("created issue")
	assert.Empty(t, buf.String(), "turning verbose off should restore the configured level, not info")
}

func TestVerbose_ConfiguredDebug(t *testing.T) {
	captureLogs(t, LevelDebug)
	assert.True(t, Verbose())

	SetVerbose(false)
	assert.True(t, Verbose(), "debug configured through LOG_LEVEL stays on")
}

func TestWith(t *testing.T) {
	buf := captureLogs(t, LevelInfo)
	With("op", "assign").Info("tracker call failed", "attempts", 3)
	assert.Contains(t, buf.String(), "op=assign")
	assert.Contains(t, buf.String(), "attempts=3")
}

func TestMaskSensitive(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Not set", input: "", expected: "<not set>"},
		{name: "Too short to show a prefix", input: "abcd", expected: "<set>"},
		{name: "Anthropic key", input: "sk-ant-api03-secret", expected: "sk-a...***"},
		{name: "Jira API token", input: "ATATT3xFfGF0secret", expected: "ATAT...***"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MaskSensitive(tc.input))
		})
	}
}
