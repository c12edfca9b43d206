package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv isolates a test from the caller's environment and home directory.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{
		"JASSIST_TRACKER", "JIRA_URL", "JIRA_BASE_URL", "JIRA_USERNAME", "JIRA_EMAIL",
		"JIRA_TOKEN", "JIRA_API_TOKEN", "JIRA_PROJECT", "JIRA_ISSUE_TYPE",
		"JIRA_STORY_POINTS_FIELD", "GITHUB_TOKEN", "GITHUB_DOMAIN", "GITHUB_REPOSITORY",
		"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "JASSIST_HISTORY", "JASSIST_CONCURRENCY",
		"JASSIST_RETRY_MAX_ELAPSED", "JASSIST_REQUEST_TIMEOUT",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, TrackerJira, config.Tracker)
	assert.Equal(t, "SCRUM", config.Jira.Project)
	assert.Equal(t, "Task", config.Jira.IssueType)
	assert.Equal(t, "customfield_10016", config.Jira.StoryPointsField)
	assert.Equal(t, "github.com", config.GitHub.Domain)
	assert.Equal(t, "claude-haiku-4-5-20251001", config.Anthropic.Model)
	assert.Equal(t, 6, config.Assistant.History)
	assert.Equal(t, 5, config.Assistant.Concurrency)
	assert.Equal(t, 20*time.Second, config.Assistant.RetryMaxElapsed)
	assert.Equal(t, 60*time.Second, config.Assistant.RequestTimeout)
}

func TestLoadGitHubConfig(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		token  string
	}{
		{
			name:   "Explicit github.com",
			domain: "github.com",
			token:  "test-token",
		},
		{
			name:   "Custom GitHub domain",
			domain: "github.example.com",
			token:  "test-token",
		},
		{
			name:   "Empty domain should default to github.com",
			domain: "",
			token:  "test-token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("GITHUB_DOMAIN", tt.domain)
			t.Setenv("GITHUB_TOKEN", tt.token)

			config, err := LoadConfig()
			require.NoError(t, err)
			if tt.domain == "" {
				assert.Equal(t, "github.com", config.GitHub.Domain)
			} else {
				assert.Equal(t, tt.domain, config.GitHub.Domain)
			}
			assert.Equal(t, tt.token, config.GitHub.Token)
		})
	}
}

func TestLoadConfigAliases(t *testing.T) {
	clearEnv(t)
	t.Setenv("JIRA_BASE_URL", "https://example.atlassian.net")
	t.Setenv("JIRA_EMAIL", "dev@example.com")
	t.Setenv("JIRA_API_TOKEN", "secret")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://example.atlassian.net", config.Jira.URL)
	assert.Equal(t, "dev@example.com", config.Jira.Username)
	assert.Equal(t, "secret", config.Jira.Token)
	assert.NoError(t, ValidateJiraConfig(config))
}

func TestLoadConfigClamps(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"0", 1},
		{"3", 3},
		{"50", 10},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JASSIST_CONCURRENCY", tt.value)

			config, err := LoadConfig()
			require.NoError(t, err)
			assert.Equal(t, tt.want, config.Assistant.Concurrency)
		})
	}
}

func TestLoadConfigRejectsUnknownTracker(t *testing.T) {
	clearEnv(t)
	t.Setenv("JASSIST_TRACKER", "trello")

	config, err := LoadConfig()
	assert.Error(t, err)
	assert.Nil(t, config)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `tracker: github
github:
  repository: acme/widgets
jira:
  project: OPS
assistant:
  history: 2
  request_timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("GITHUB_TOKEN", "from-env")

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TrackerGitHub, config.Tracker)
	assert.Equal(t, "acme/widgets", config.GitHub.Repository)
	assert.Equal(t, "from-env", config.GitHub.Token)
	assert.Equal(t, "OPS", config.Jira.Project)
	assert.Equal(t, 2, config.Assistant.History)
	assert.Equal(t, 5*time.Second, config.Assistant.RequestTimeout)
	assert.NoError(t, ValidateTrackerConfig(config))
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateJiraConfig(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		username string
		token    string
		wantErr  bool
	}{
		{
			name:     "All fields present",
			url:      "https://jira.example.com",
			username: "test-user",
			token:    "test-token",
			wantErr:  false,
		},
		{
			name:     "Missing URL",
			url:      "",
			username: "test-user",
			token:    "test-token",
			wantErr:  true,
		},
		{
			name:     "Missing username",
			url:      "https://jira.example.com",
			username: "",
			token:    "test-token",
			wantErr:  true,
		},
		{
			name:     "Missing token",
			url:      "https://jira.example.com",
			username: "test-user",
			token:    "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{
				Jira: JiraConfig{
					URL:      tt.url,
					Username: tt.username,
					Token:    tt.token,
				},
			}

			err := ValidateJiraConfig(config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateGitHubConfig(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		repository string
		wantErr    string
	}{
		{"valid", "tok", "acme/widgets", ""},
		{"missing token", "", "acme/widgets", "GITHUB_TOKEN"},
		{"missing repository", "tok", "", "GITHUB_REPOSITORY"},
		{"bad repository", "tok", "widgets", "owner/repo"},
		{"empty owner", "tok", "/widgets", "owner/repo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGitHubConfig(&Config{GitHub: GitHubConfig{Token: tt.token, Repository: tt.repository}})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateLLMConfig(t *testing.T) {
	assert.Error(t, ValidateLLMConfig(&Config{}))
	assert.NoError(t, ValidateLLMConfig(&Config{Anthropic: AnthropicConfig{APIKey: "k"}}))
}
