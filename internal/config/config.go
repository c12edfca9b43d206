// Package config provides centralized configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// TrackerJira selects the Jira backend.
	TrackerJira = "jira"
	// TrackerGitHub selects the GitHub Issues backend.
	TrackerGitHub = "github"

	maxConcurrency = 10
)

// Config holds all configuration parameters for the application.
type Config struct {
	Tracker   string
	Jira      JiraConfig
	GitHub    GitHubConfig
	Anthropic AnthropicConfig
	Assistant AssistantConfig
}

// JiraConfig holds JIRA specific configuration.
type JiraConfig struct {
	URL              string
	Username         string
	Token            string
	Project          string
	IssueType        string
	StoryPointsField string
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token      string
	Domain     string
	Repository string
}

// AnthropicConfig holds language model configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// AssistantConfig tunes the request pipeline.
type AssistantConfig struct {
	// History is the number of prior turns included in prompts.
	History int
	// Concurrency caps parallel per-issue tracker mutations.
	Concurrency int
	// RetryMaxElapsed bounds retries of transient tracker failures.
	RetryMaxElapsed time.Duration
	// RequestTimeout bounds the handling of one utterance.
	RequestTimeout time.Duration
}

// LoadConfig loads configuration from environment variables and the default
// config file, if one exists.
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load reads configuration from environment variables and a YAML file.
// An explicit path must exist; the default path
// (~/.config/jassist/config.yaml) is optional.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map specific environment variables; later names are accepted as
	// aliases (JIRA_BASE_URL, JIRA_EMAIL, JIRA_API_TOKEN).
	v.BindEnv("tracker", "JASSIST_TRACKER")
	v.BindEnv("jira.url", "JIRA_URL", "JIRA_BASE_URL")
	v.BindEnv("jira.username", "JIRA_USERNAME", "JIRA_EMAIL")
	v.BindEnv("jira.token", "JIRA_TOKEN", "JIRA_API_TOKEN")
	v.BindEnv("jira.project", "JIRA_PROJECT")
	v.BindEnv("jira.issue_type", "JIRA_ISSUE_TYPE")
	v.BindEnv("jira.story_points_field", "JIRA_STORY_POINTS_FIELD")
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("github.domain", "GITHUB_DOMAIN")
	v.BindEnv("github.repository", "GITHUB_REPOSITORY")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "ANTHROPIC_MODEL")
	v.BindEnv("assistant.history", "JASSIST_HISTORY")
	v.BindEnv("assistant.concurrency", "JASSIST_CONCURRENCY")
	v.BindEnv("assistant.retry_max_elapsed", "JASSIST_RETRY_MAX_ELAPSED")
	v.BindEnv("assistant.request_timeout", "JASSIST_REQUEST_TIMEOUT")

	v.SetDefault("tracker", TrackerJira)
	v.SetDefault("jira.project", "SCRUM")
	v.SetDefault("jira.issue_type", "Task")
	v.SetDefault("jira.story_points_field", "customfield_10016")
	v.SetDefault("github.domain", "github.com")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("assistant.history", 6)
	v.SetDefault("assistant.concurrency", 5)
	v.SetDefault("assistant.retry_max_elapsed", 20*time.Second)
	v.SetDefault("assistant.request_timeout", 60*time.Second)

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	config := &Config{
		Tracker: strings.ToLower(v.GetString("tracker")),
		Jira: JiraConfig{
			URL:              v.GetString("jira.url"),
			Username:         v.GetString("jira.username"),
			Token:            v.GetString("jira.token"),
			Project:          v.GetString("jira.project"),
			IssueType:        v.GetString("jira.issue_type"),
			StoryPointsField: v.GetString("jira.story_points_field"),
		},
		GitHub: GitHubConfig{
			Token:      v.GetString("github.token"),
			Domain:     v.GetString("github.domain"),
			Repository: v.GetString("github.repository"),
		},
		Anthropic: AnthropicConfig{
			APIKey: v.GetString("anthropic.api_key"),
			Model:  v.GetString("anthropic.model"),
		},
		Assistant: AssistantConfig{
			History:         v.GetInt("assistant.history"),
			Concurrency:     v.GetInt("assistant.concurrency"),
			RetryMaxElapsed: v.GetDuration("assistant.retry_max_elapsed"),
			RequestTimeout:  v.GetDuration("assistant.request_timeout"),
		},
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(filepath.Join(home, ".config", "jassist"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// validateConfig checks values that apply regardless of backend and
// clamps tunables into their accepted range.
func validateConfig(config *Config) error {
	switch config.Tracker {
	case TrackerJira, TrackerGitHub:
	default:
		return fmt.Errorf("unsupported tracker %q: expected %q or %q", config.Tracker, TrackerJira, TrackerGitHub)
	}

	if config.GitHub.Domain == "" {
		config.GitHub.Domain = "github.com"
	}
	if config.Assistant.Concurrency < 1 {
		config.Assistant.Concurrency = 1
	}
	if config.Assistant.Concurrency > maxConcurrency {
		config.Assistant.Concurrency = maxConcurrency
	}
	if config.Assistant.History < 0 {
		config.Assistant.History = 0
	}

	return nil
}

// ValidateJiraConfig validates JIRA-specific configuration.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	// JIRA validation
	if config.Jira.URL == "" {
		missingVars = append(missingVars, "JIRA_URL")
	}
	if config.Jira.Username == "" {
		missingVars = append(missingVars, "JIRA_USERNAME")
	}
	if config.Jira.Token == "" {
		missingVars = append(missingVars, "JIRA_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}

// ValidateGitHubConfig validates GitHub-specific configuration.
func ValidateGitHubConfig(config *Config) error {
	var missingVars []string

	if config.GitHub.Token == "" {
		missingVars = append(missingVars, "GITHUB_TOKEN")
	}
	if config.GitHub.Repository == "" {
		missingVars = append(missingVars, "GITHUB_REPOSITORY")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	if parts := strings.Split(config.GitHub.Repository, "/"); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid repository format: %s, expected format: owner/repo", config.GitHub.Repository)
	}

	return nil
}

// ValidateLLMConfig validates language model configuration.
func ValidateLLMConfig(config *Config) error {
	if config.Anthropic.APIKey == "" {
		return fmt.Errorf("missing required environment variables: %v", []string{"ANTHROPIC_API_KEY"})
	}
	return nil
}

// ValidateTrackerConfig validates the configuration of the selected tracker.
func ValidateTrackerConfig(config *Config) error {
	if config.Tracker == TrackerGitHub {
		return ValidateGitHubConfig(config)
	}
	return ValidateJiraConfig(config)
}
