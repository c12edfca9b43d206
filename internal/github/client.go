// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/danielolaszy/jassist/internal/config"
	"github.com/danielolaszy/jassist/internal/logging"
	"github.com/danielolaszy/jassist/internal/query"
	"github.com/danielolaszy/jassist/internal/tracker"
	"github.com/danielolaszy/jassist/pkg/models"
)

const (
	perPage          = 100
	maxSearchResults = 500
)

// Client encapsulates the GitHub API client for one repository.
type Client struct {
	client *github.Client
	owner  string
	repo   string
	retry  tracker.RetryPolicy
}

// apiURL returns the REST endpoint for a GitHub or GitHub Enterprise domain.
func apiURL(domain string) string {
	if domain == "" || domain == "github.com" {
		return "https://api.github.com/"
	}
	return fmt.Sprintf("https://%s/api/v3/", domain)
}

// parseRepository splits "owner/repo".
func parseRepository(repository string) (string, string, error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format: %s, expected format: owner/repo", repository)
	}
	return parts[0], parts[1], nil
}

// NewClient creates a GitHub API client authenticated with the configured
// token, pointed at the configured domain and repository.
func NewClient(cfg config.GitHubConfig, retry tracker.RetryPolicy) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github token not found in configuration")
	}
	owner, repo, err := parseRepository(cfg.Repository)
	if err != nil {
		return nil, err
	}

	endpoint := apiURL(cfg.Domain)
	logging.Debug("github configuration",
		"domain", cfg.Domain,
		"api_url", endpoint,
		"repository", cfg.Repository,
		"token", logging.MaskSensitive(cfg.Token))

	// Create the oauth2 client
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	client := github.NewClient(tc)

	// If not using default GitHub.com, set custom API endpoint
	if endpoint != "https://api.github.com/" {
		parsedURL, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		client.BaseURL = parsedURL
		// For GitHub Enterprise, set the upload URL to the same endpoint
		client.UploadURL = parsedURL
	}

	return &Client{client: client, owner: owner, repo: repo, retry: retry}, nil
}

// Dialect returns GitHub issue search scoped to the repository.
func (c *Client) Dialect() query.Dialect {
	return query.GitHub{Repository: c.owner + "/" + c.repo}
}

// CreateIssue opens an issue. Priority and story points become labels;
// GitHub has no per-issue due date, so it is written into the body.
func (c *Client) CreateIssue(ctx context.Context, fields models.IssueFields) (models.IssueRef, error) {
	var labels []string
	if fields.Priority != "" && fields.Priority != models.PriorityAny {
		labels = append(labels, query.PriorityLabel(fields.Priority))
	}
	if fields.StoryPoints != nil {
		labels = append(labels, query.PointsLabelPrefix+strconv.Itoa(*fields.StoryPoints))
	}

	body := fields.Description
	if fields.DueDate != nil {
		if body != "" {
			body += "\n\n"
		}
		body += "Due: " + fields.DueDate.Format(time.DateOnly)
	}

	req := &github.IssueRequest{
		Title: github.String(fields.Summary),
		Body:  github.String(body),
	}
	if len(labels) > 0 {
		req.Labels = &labels
	}

	var created *github.Issue
	err := c.retry.Do(ctx, "create issue", func() error {
		issue, resp, err := c.client.Issues.Create(ctx, c.owner, c.repo, req)
		if err != nil {
			return classify("create issue", resp, err)
		}
		created = issue
		return nil
	})
	if err != nil {
		return models.IssueRef{}, err
	}

	logging.Debug("created github issue", "number", created.GetNumber(), "labels", labels)
	return models.IssueRef{Key: issueKey(created.GetNumber()), URL: created.GetHTMLURL()}, nil
}

// Search runs a GitHub issue search, newest activity first.
func (c *Client) Search(ctx context.Context, q string) ([]models.Issue, error) {
	opts := &github.SearchOptions{
		Sort:        "updated",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var issues []models.Issue
	for {
		var result *github.IssuesSearchResult
		var resp *github.Response
		err := c.retry.Do(ctx, "search issues", func() error {
			var err error
			result, resp, err = c.client.Search.Issues(ctx, q, opts)
			if err != nil {
				return classify("search issues", resp, err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		for _, issue := range result.Issues {
			if issue.IsPullRequest() {
				continue
			}
			issues = append(issues, toIssue(issue))
		}

		if resp.NextPage == 0 {
			break
		}
		if len(issues) >= maxSearchResults {
			logging.Warn("search truncated", "limit", maxSearchResults, "total", result.GetTotal())
			break
		}
		opts.Page = resp.NextPage
	}

	return issues, nil
}

// GetIssue fetches one issue (key "#N" or "N") with its first page of comments.
func (c *Client) GetIssue(ctx context.Context, key string) (models.Issue, error) {
	op := "get issue " + key
	number, err := issueNumber(key)
	if err != nil {
		return models.Issue{}, &tracker.Error{Kind: tracker.KindValidation, Op: op, Err: err}
	}

	var found *github.Issue
	var comments []*github.IssueComment
	err = c.retry.Do(ctx, op, func() error {
		issue, resp, err := c.client.Issues.Get(ctx, c.owner, c.repo, number)
		if err != nil {
			return classify(op, resp, err)
		}
		found = issue
		if issue.GetComments() == 0 {
			return nil
		}
		comments, resp, err = c.client.Issues.ListComments(ctx, c.owner, c.repo, number, &github.IssueListCommentsOptions{
			ListOptions: github.ListOptions{PerPage: perPage},
		})
		if err != nil {
			return classify(op, resp, err)
		}
		return nil
	})
	if err != nil {
		return models.Issue{}, err
	}

	out := toIssue(found)
	for _, cm := range comments {
		out.Comments = append(out.Comments, models.Comment{
			Author:  cm.GetUser().GetLogin(),
			Body:    cm.GetBody(),
			Created: cm.GetCreatedAt(),
		})
	}
	return out, nil
}

// Assign adds user to the issue's assignees.
func (c *Client) Assign(ctx context.Context, key string, user models.UserRef) error {
	op := "assign " + key
	number, err := issueNumber(key)
	if err != nil {
		return &tracker.Error{Kind: tracker.KindValidation, Op: op, Err: err}
	}

	return c.retry.Do(ctx, op, func() error {
		_, resp, err := c.client.Issues.AddAssignees(ctx, c.owner, c.repo, number, []string{user.ID})
		if err != nil {
			return classify(op, resp, err)
		}
		return nil
	})
}

// ResolveUser finds a login by exact login or by user search. It returns
// nil when nothing matches.
func (c *Client) ResolveUser(ctx context.Context, nameOrEmail string) (*models.UserRef, error) {
	nameOrEmail = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(nameOrEmail), "@"))
	if nameOrEmail == "" {
		return nil, nil
	}

	var users []*github.User
	err := c.retry.Do(ctx, "find user", func() error {
		result, resp, err := c.client.Search.Users(ctx, nameOrEmail, &github.SearchOptions{
			ListOptions: github.ListOptions{PerPage: 10},
		})
		if err != nil {
			return classify("find user", resp, err)
		}
		users = result.Users
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		logging.Debug("no github user matched", "query", nameOrEmail)
		return nil, nil
	}

	for _, u := range users {
		if strings.EqualFold(u.GetLogin(), nameOrEmail) {
			ref := toUserRef(u)
			return &ref, nil
		}
	}
	ref := toUserRef(users[0])
	return &ref, nil
}

// CurrentUser returns the account that owns the token.
func (c *Client) CurrentUser(ctx context.Context) (models.UserRef, error) {
	var me *github.User
	err := c.retry.Do(ctx, "get current user", func() error {
		user, resp, err := c.client.Users.Get(ctx, "")
		if err != nil {
			return classify("get current user", resp, err)
		}
		me = user
		return nil
	})
	if err != nil {
		return models.UserRef{}, err
	}
	return toUserRef(me), nil
}

func toIssue(issue *github.Issue) models.Issue {
	out := models.Issue{
		Key:         issueKey(issue.GetNumber()),
		Summary:     issue.GetTitle(),
		Description: issue.GetBody(),
		Status:      issue.GetState(),
		CreatedAt:   issue.GetCreatedAt(),
		URL:         issue.GetHTMLURL(),
	}

	for _, label := range issue.Labels {
		name := strings.ToLower(label.GetName())
		switch {
		case name == query.LabelInProgress && out.Status == "open":
			out.Status = query.LabelInProgress
		case strings.HasPrefix(name, query.PriorityLabelPrefix):
			out.Priority = models.ParsePriority(strings.TrimPrefix(name, query.PriorityLabelPrefix))
		case strings.HasPrefix(name, query.PointsLabelPrefix):
			if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(name, query.PointsLabelPrefix))); err == nil {
				out.StoryPoints = &n
			}
		}
	}

	if issue.Assignee != nil {
		ref := toUserRef(issue.Assignee)
		out.Assignee = &ref
	}
	if due := issue.GetMilestone().GetDueOn(); !due.IsZero() {
		out.DueDate = &due
	}
	return out
}

func toUserRef(u *github.User) models.UserRef {
	return models.UserRef{ID: u.GetLogin(), DisplayName: u.GetName()}
}

func issueKey(number int) string {
	return "#" + strconv.Itoa(number)
}

func issueNumber(key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(key), "#"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid issue key %q", key)
	}
	return n, nil
}

// classify maps a go-github error onto the tracker taxonomy. GitHub reports
// exhausted rate limits as 403, so those are recognised by type first.
func classify(op string, resp *github.Response, err error) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		e := &tracker.Error{Kind: tracker.KindRateLimit, Op: op, Err: err}
		if resp != nil && resp.Response != nil {
			e.StatusCode = resp.StatusCode
		}
		return e
	}

	var hr *http.Response
	if resp != nil {
		hr = resp.Response
	}
	return tracker.NewError(op, hr, err)
}
