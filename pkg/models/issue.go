// Package models defines data structures shared across the application.
package models

import (
	"strings"
	"time"
)

// Priority is the urgency level of an issue.
type Priority string

const (
	PriorityAny     Priority = "any"
	PriorityHighest Priority = "highest"
	PriorityHigh    Priority = "high"
	PriorityMedium  Priority = "medium"
	PriorityLow     Priority = "low"
	PriorityLowest  Priority = "lowest"
)

// Priorities lists the concrete priority levels from most to least urgent.
var Priorities = []Priority{PriorityHighest, PriorityHigh, PriorityMedium, PriorityLow, PriorityLowest}

// ParsePriority maps a tracker or model supplied name onto a Priority.
// Unrecognised names return the empty Priority.
func ParsePriority(name string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(name)))
	switch p {
	case PriorityAny, PriorityHighest, PriorityHigh, PriorityMedium, PriorityLow, PriorityLowest:
		return p
	}
	return ""
}

// Rank orders priorities: highest is 5, lowest is 1, unknown is 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHighest:
		return 5
	case PriorityHigh:
		return 4
	case PriorityMedium:
		return 3
	case PriorityLow:
		return 2
	case PriorityLowest:
		return 1
	}
	return 0
}

// Title returns the capitalised name trackers use ("High").
func (p Priority) Title() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// UserRef identifies an account on the tracker.
type UserRef struct {
	// ID is the tracker account identifier (Jira accountId, GitHub login)
	ID string

	// DisplayName is the human readable name, if known
	DisplayName string

	// IDIsName is set when ID is a Jira Server username rather than an
	// account id
	IDIsName bool
}

// String returns the display name, falling back to the ID.
func (u UserRef) String() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ID
}

// IssueRef points at an issue on the tracker.
type IssueRef struct {
	// Key is the tracker identifier (e.g., "SCRUM-12" or "#42")
	Key string

	// URL is a browsable link to the issue, if known
	URL string
}

// Issue represents a tracker issue with the fields the assistant reads.
type Issue struct {
	// Key is the tracker identifier (e.g., "SCRUM-12")
	Key string

	// Summary is the issue's title
	Summary string

	// Description is the issue body
	Description string

	// Status is the tracker's native status name (e.g., "In Progress")
	Status string

	// Priority is the normalised priority, empty when the tracker has none
	Priority Priority

	// Assignee is nil for unassigned issues
	Assignee *UserRef

	// StoryPoints is the effort estimate, nil when not estimated
	StoryPoints *int

	// DueDate is nil when the issue has no due date
	DueDate *time.Time

	// CreatedAt is the timestamp when the issue was created
	CreatedAt time.Time

	// URL is a browsable link to the issue
	URL string

	// Comments is only filled when a single issue is fetched
	Comments []Comment
}

// Comment is a discussion entry on an issue.
type Comment struct {
	Author  string
	Body    string
	Created time.Time
}

// Ref returns the IssueRef for the issue.
func (i Issue) Ref() IssueRef {
	return IssueRef{Key: i.Key, URL: i.URL}
}

// IssueFields holds the values used to create an issue.
type IssueFields struct {
	Summary     string
	Description string
	StoryPoints *int
	DueDate     *time.Time
	Priority    Priority
}
