package query

import (
	"fmt"
	"strings"

	"github.com/danielolaszy/jassist/pkg/models"
)

// JQLOrder is appended to every Jira search.
const JQLOrder = "ORDER BY priority DESC, updated DESC"

// JQL is the Jira Query Language dialect scoped to one project.
type JQL struct {
	Project string
}

func (j JQL) Scope() []string {
	if j.Project == "" {
		return nil
	}
	return []string{"project = " + quoteJQL(j.Project)}
}

func (JQL) Status(s models.Status) string {
	switch s {
	case models.StatusOpen:
		return "statusCategory != Done"
	case models.StatusInProgress:
		return `statusCategory = "In Progress"`
	case models.StatusDone:
		return "statusCategory = Done"
	}
	return ""
}

func (JQL) Priority(p models.Priority) string {
	return "priority = " + quoteJQL(p.Title())
}

func (JQL) Assignment(a models.Assignment, user *models.UserRef) string {
	switch a {
	case models.AssignmentMe:
		return "assignee = currentUser()"
	case models.AssignmentUnassigned:
		return "assignee is EMPTY"
	case models.AssignmentUser:
		return "assignee = " + quoteJQL(user.ID)
	}
	return ""
}

func (JQL) Text(s string) string {
	return "text ~ " + quoteJQL(s)
}

func (JQL) Combine(clauses []string) string {
	var parts []string
	for _, c := range clauses {
		if c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return JQLOrder
	}
	return strings.Join(parts, " AND ") + " " + JQLOrder
}

func quoteJQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return fmt.Sprintf(`"%s"`, s)
}
