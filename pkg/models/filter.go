package models

import (
	"fmt"
	"strings"
)

// Status is the workflow dimension of a FilterSet.
type Status string

const (
	StatusAny        Status = "any"
	StatusOpen       Status = "open"
	StatusInProgress Status = "inProgress"
	StatusDone       Status = "done"
)

// Assignment is the ownership dimension of a FilterSet.
type Assignment string

const (
	AssignmentAny        Assignment = "any"
	AssignmentUnassigned Assignment = "unassigned"
	AssignmentMe         Assignment = "me"
	AssignmentUser       Assignment = "userRef"
)

// FilterSet is a tracker independent description of which issues to select.
// The zero value selects every issue.
type FilterSet struct {
	Status     Status
	Priority   Priority
	Assignment Assignment

	// User names the account when Assignment is AssignmentUser
	User string

	// FreeText is matched against issue text when non-empty
	FreeText string
}

// Normalize returns a copy with unspecified dimensions set to "any".
func (f FilterSet) Normalize() FilterSet {
	if f.Status == "" {
		f.Status = StatusAny
	}
	if f.Priority == "" {
		f.Priority = PriorityAny
	}
	if f.Assignment == "" {
		f.Assignment = AssignmentAny
	}
	if f.Assignment != AssignmentUser {
		f.User = ""
	}
	f.FreeText = strings.TrimSpace(f.FreeText)
	return f
}

// IsUnbounded reports whether the filter matches the entire backlog.
// Callers should treat such queries as potentially expensive.
func (f FilterSet) IsUnbounded() bool {
	n := f.Normalize()
	return n.Status == StatusAny && n.Priority == PriorityAny &&
		n.Assignment == AssignmentAny && n.FreeText == ""
}

func (f FilterSet) String() string {
	n := f.Normalize()
	var parts []string
	if n.Status != StatusAny {
		parts = append(parts, "status="+string(n.Status))
	}
	if n.Priority != PriorityAny {
		parts = append(parts, "priority="+string(n.Priority))
	}
	switch n.Assignment {
	case AssignmentAny:
	case AssignmentUser:
		parts = append(parts, "assignee="+n.User)
	default:
		parts = append(parts, "assignment="+string(n.Assignment))
	}
	if n.FreeText != "" {
		parts = append(parts, fmt.Sprintf("text=%q", n.FreeText))
	}
	if len(parts) == 0 {
		return "all issues"
	}
	return strings.Join(parts, " ")
}
