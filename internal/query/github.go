package query

import (
	"strings"

	"github.com/danielolaszy/jassist/pkg/models"
)

// Labels the GitHub backend uses to carry fields GitHub Issues lacks.
const (
	LabelInProgress     = "in progress"
	PriorityLabelPrefix = "priority: "
	PointsLabelPrefix   = "points: "
)

// PriorityLabel returns the label that marks an issue with priority p.
func PriorityLabel(p models.Priority) string {
	return PriorityLabelPrefix + string(p)
}

// GitHub is the GitHub issue search dialect scoped to one repository.
type GitHub struct {
	// Repository is "owner/name"
	Repository string
}

func (g GitHub) Scope() []string {
	scope := []string{"is:issue"}
	if g.Repository != "" {
		scope = append([]string{"repo:" + g.Repository}, scope...)
	}
	return scope
}

func (GitHub) Status(s models.Status) string {
	switch s {
	case models.StatusOpen:
		return "is:open"
	case models.StatusInProgress:
		return "is:open " + labelQualifier(LabelInProgress)
	case models.StatusDone:
		return "is:closed"
	}
	return ""
}

func (GitHub) Priority(p models.Priority) string {
	return labelQualifier(PriorityLabel(p))
}

func (GitHub) Assignment(a models.Assignment, user *models.UserRef) string {
	switch a {
	case models.AssignmentMe:
		return "assignee:@me"
	case models.AssignmentUnassigned:
		return "no:assignee"
	case models.AssignmentUser:
		return "assignee:" + user.ID
	}
	return ""
}

func (GitHub) Text(s string) string {
	return quoteGitHub(s) + " in:title,body"
}

// Combine joins with spaces; GitHub search ANDs qualifiers implicitly.
func (GitHub) Combine(clauses []string) string {
	var parts []string
	for _, c := range clauses {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

func labelQualifier(label string) string {
	if strings.ContainsAny(label, " :") {
		return "label:" + quoteGitHub(label)
	}
	return "label:" + label
}

func quoteGitHub(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "") + `"`
}
