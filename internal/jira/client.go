package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/danielolaszy/jassist/internal/config"
	"github.com/danielolaszy/jassist/internal/logging"
	"github.com/danielolaszy/jassist/internal/query"
	"github.com/danielolaszy/jassist/internal/tracker"
	"github.com/danielolaszy/jassist/pkg/models"
)

const (
	pageSize = 50
	// maxSearchResults caps how many issues a single search pages through.
	maxSearchResults = 500

	commentTimeLayout = "2006-01-02T15:04:05.000-0700"
)

// Client handles interactions with the JIRA API
type Client struct {
	client      *jira.Client
	baseURL     string
	project     string
	issueType   string
	pointsField string
	retry       tracker.RetryPolicy
}

// NewClient creates a new JIRA client from configuration.
func NewClient(cfg config.JiraConfig, retry tracker.RetryPolicy) (*Client, error) {
	if cfg.URL == "" || cfg.Username == "" || cfg.Token == "" {
		return nil, fmt.Errorf("JIRA_URL, JIRA_USERNAME and JIRA_TOKEN must be set")
	}

	// Create JIRA authentication transport
	tp := jira.BasicAuthTransport{
		Username: cfg.Username,
		Password: cfg.Token,
	}

	client, err := jira.NewClient(tp.Client(), cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create JIRA client: %w", err)
	}

	logging.Debug("jira client created",
		"url", cfg.URL,
		"username", cfg.Username,
		"token", logging.MaskSensitive(cfg.Token),
		"project", cfg.Project)

	return &Client{
		client:      client,
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		project:     cfg.Project,
		issueType:   cfg.IssueType,
		pointsField: cfg.StoryPointsField,
		retry:       retry,
	}, nil
}

// Dialect returns JQL scoped to the configured project.
func (c *Client) Dialect() query.Dialect {
	return query.JQL{Project: c.project}
}

// CreateIssue creates an issue in the configured project.
func (c *Client) CreateIssue(ctx context.Context, fields models.IssueFields) (models.IssueRef, error) {
	if c.client == nil {
		return models.IssueRef{}, fmt.Errorf("JIRA client not initialized")
	}

	issueFields := &jira.IssueFields{
		Project: jira.Project{
			Key: c.project,
		},
		Summary:     fields.Summary,
		Description: fields.Description,
		Type: jira.IssueType{
			Name: c.issueType,
		},
	}
	if fields.Priority != "" && fields.Priority != models.PriorityAny {
		issueFields.Priority = &jira.Priority{Name: fields.Priority.Title()}
	}
	if fields.DueDate != nil {
		issueFields.Duedate = jira.Date(*fields.DueDate)
	}
	if fields.StoryPoints != nil && c.pointsField != "" {
		issueFields.Unknowns = map[string]interface{}{c.pointsField: *fields.StoryPoints}
	}

	var created *jira.Issue
	err := c.retry.Do(ctx, "create issue", func() error {
		issue, resp, err := c.client.Issue.CreateWithContext(ctx, &jira.Issue{Fields: issueFields})
		if err != nil {
			return tracker.NewError("create issue", httpResponse(resp), err)
		}
		created = issue
		return nil
	})
	if err != nil {
		return models.IssueRef{}, err
	}

	return models.IssueRef{Key: created.Key, URL: c.browseURL(created.Key)}, nil
}

// Search pages through every issue matching jql, up to maxSearchResults.
func (c *Client) Search(ctx context.Context, jql string) ([]models.Issue, error) {
	if c.client == nil {
		return nil, fmt.Errorf("JIRA client not initialized")
	}

	opts := &jira.SearchOptions{
		MaxResults: pageSize,
		Fields:     []string{"summary", "status", "priority", "assignee", "duedate", "created"},
	}
	if c.pointsField != "" {
		opts.Fields = append(opts.Fields, c.pointsField)
	}

	var issues []models.Issue
	for {
		var page []jira.Issue
		var resp *jira.Response
		err := c.retry.Do(ctx, "search issues", func() error {
			var err error
			page, resp, err = c.client.Issue.SearchWithContext(ctx, jql, opts)
			if err != nil {
				return tracker.NewError("search issues", httpResponse(resp), err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		for _, issue := range page {
			issues = append(issues, c.toIssue(issue))
		}
		logging.Debug("fetched search page", "start_at", opts.StartAt, "count", len(page), "total", resp.Total)

		opts.StartAt += len(page)
		if len(page) == 0 || opts.StartAt >= resp.Total {
			break
		}
		if len(issues) >= maxSearchResults {
			logging.Warn("search truncated", "limit", maxSearchResults, "total", resp.Total)
			break
		}
	}

	return issues, nil
}

// GetIssue fetches one issue with its description and comments.
func (c *Client) GetIssue(ctx context.Context, issueKey string) (models.Issue, error) {
	if c.client == nil {
		return models.Issue{}, fmt.Errorf("JIRA client not initialized")
	}

	op := "get issue " + issueKey
	var found *jira.Issue
	err := c.retry.Do(ctx, op, func() error {
		issue, resp, err := c.client.Issue.GetWithContext(ctx, issueKey, nil)
		if err != nil {
			return tracker.NewError(op, httpResponse(resp), err)
		}
		found = issue
		return nil
	})
	if err != nil {
		return models.Issue{}, err
	}

	out := c.toIssue(*found)
	if f := found.Fields; f != nil && f.Comments != nil {
		for _, cm := range f.Comments.Comments {
			if cm == nil {
				continue
			}
			created, _ := time.Parse(commentTimeLayout, cm.Created)
			out.Comments = append(out.Comments, models.Comment{
				Author:  cm.Author.DisplayName,
				Body:    cm.Body,
				Created: created,
			})
		}
	}
	return out, nil
}

// Assign sets the assignee of issueKey.
func (c *Client) Assign(ctx context.Context, issueKey string, user models.UserRef) error {
	if c.client == nil {
		return fmt.Errorf("JIRA client not initialized")
	}

	op := "assign " + issueKey
	return c.retry.Do(ctx, op, func() error {
		resp, err := c.client.Issue.UpdateAssigneeWithContext(ctx, issueKey, assignee(user))
		if err != nil {
			return tracker.NewError(op, httpResponse(resp), err)
		}
		return nil
	})
}

// ResolveUser finds an account by name or email. It returns nil when no
// account matches, and prefers an exact email or display name match.
func (c *Client) ResolveUser(ctx context.Context, nameOrEmail string) (*models.UserRef, error) {
	if c.client == nil {
		return nil, fmt.Errorf("JIRA client not initialized")
	}
	nameOrEmail = strings.TrimSpace(nameOrEmail)
	if nameOrEmail == "" {
		return nil, nil
	}

	var users []jira.User
	err := c.retry.Do(ctx, "find user", func() error {
		req, err := c.client.NewRequestWithContext(ctx, http.MethodGet,
			"rest/api/2/user/search?query="+url.QueryEscape(nameOrEmail), nil)
		if err != nil {
			return &tracker.Error{Kind: tracker.KindValidation, Op: "find user", Err: err}
		}
		resp, err := c.client.Do(req, &users)
		if err != nil {
			return tracker.NewError("find user", httpResponse(resp), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var active []jira.User
	for _, u := range users {
		if u.Active {
			active = append(active, u)
		}
	}
	if len(active) == 0 {
		logging.Debug("no jira user matched", "query", nameOrEmail)
		return nil, nil
	}
	for _, u := range active {
		if strings.EqualFold(u.EmailAddress, nameOrEmail) || strings.EqualFold(u.DisplayName, nameOrEmail) {
			ref := toUserRef(u)
			return &ref, nil
		}
	}
	ref := toUserRef(active[0])
	return &ref, nil
}

// CurrentUser returns the authenticated account (/myself).
func (c *Client) CurrentUser(ctx context.Context) (models.UserRef, error) {
	if c.client == nil {
		return models.UserRef{}, fmt.Errorf("JIRA client not initialized")
	}

	var me *jira.User
	err := c.retry.Do(ctx, "get current user", func() error {
		user, resp, err := c.client.User.GetSelfWithContext(ctx)
		if err != nil {
			return tracker.NewError("get current user", httpResponse(resp), err)
		}
		me = user
		return nil
	})
	if err != nil {
		return models.UserRef{}, err
	}
	return toUserRef(*me), nil
}

func (c *Client) toIssue(issue jira.Issue) models.Issue {
	out := models.Issue{
		Key: issue.Key,
		URL: c.browseURL(issue.Key),
	}
	f := issue.Fields
	if f == nil {
		return out
	}

	out.Summary = f.Summary
	out.Description = f.Description
	if f.Status != nil {
		out.Status = f.Status.Name
	}
	if f.Priority != nil {
		out.Priority = models.ParsePriority(f.Priority.Name)
	}
	if f.Assignee != nil {
		ref := toUserRef(*f.Assignee)
		out.Assignee = &ref
	}
	if due := time.Time(f.Duedate); !due.IsZero() {
		out.DueDate = &due
	}
	out.CreatedAt = time.Time(f.Created)
	if v, ok := f.Unknowns[c.pointsField]; ok {
		if pts, ok := v.(float64); ok {
			n := int(pts + 0.5)
			out.StoryPoints = &n
		}
	}
	return out
}

func (c *Client) browseURL(key string) string {
	return c.baseURL + "/browse/" + key
}

// toUserRef prefers the Cloud accountId and falls back to the Server username.
func toUserRef(u jira.User) models.UserRef {
	if u.AccountID == "" && u.Name != "" {
		return models.UserRef{ID: u.Name, DisplayName: u.DisplayName, IDIsName: true}
	}
	return models.UserRef{ID: u.AccountID, DisplayName: u.DisplayName}
}

// assignee is the request body for an assignment: accountId on Cloud, name on Server.
func assignee(user models.UserRef) *jira.User {
	if user.IDIsName {
		return &jira.User{Name: user.ID}
	}
	return &jira.User{AccountID: user.ID}
}

func httpResponse(resp *jira.Response) *http.Response {
	if resp == nil {
		return nil
	}
	return resp.Response
}
