// Package query turns a FilterSet into a tracker's native search syntax.
package query

import (
	"fmt"

	"github.com/danielolaszy/jassist/pkg/models"
)

// Dialect renders individual predicates in one tracker's query language.
// Methods are only called for dimensions that are not "any".
type Dialect interface {
	// Scope returns clauses that always apply, such as the project.
	Scope() []string
	Status(s models.Status) string
	Priority(p models.Priority) string
	// Assignment renders me, unassigned, or a resolved user.
	Assignment(a models.Assignment, user *models.UserRef) string
	Text(s string) string
	// Combine joins clauses with logical AND.
	Combine(clauses []string) string
}

// Query is a translated FilterSet.
type Query struct {
	Native    string
	Unbounded bool
	Warnings  []models.Warning
}

// Translate maps each non-any dimension of fs onto d and combines them with
// AND. resolved is the tracker account for an AssignmentUser filter; when it
// is nil the assignment predicate is dropped and a warning is attached.
func Translate(fs models.FilterSet, d Dialect, resolved *models.UserRef) Query {
	fs = fs.Normalize()
	var q Query

	clauses := append([]string(nil), d.Scope()...)
	if fs.Status != models.StatusAny {
		clauses = append(clauses, d.Status(fs.Status))
	}
	if fs.Priority != models.PriorityAny {
		clauses = append(clauses, d.Priority(fs.Priority))
	}

	effective := fs
	switch fs.Assignment {
	case models.AssignmentAny:
	case models.AssignmentUser:
		if resolved == nil {
			effective.Assignment = models.AssignmentAny
			q.Warnings = append(q.Warnings, models.Warning{
				Kind:    models.WarningUnresolvedUser,
				Message: fmt.Sprintf("could not find a user matching %q; showing issues for any assignee", fs.User),
			})
			break
		}
		clauses = append(clauses, d.Assignment(fs.Assignment, resolved))
	default:
		clauses = append(clauses, d.Assignment(fs.Assignment, nil))
	}

	if fs.FreeText != "" {
		clauses = append(clauses, d.Text(fs.FreeText))
	}

	q.Native = d.Combine(clauses)
	q.Unbounded = effective.IsUnbounded()
	if q.Unbounded {
		q.Warnings = append(q.Warnings, models.Warning{
			Kind:    models.WarningUnboundedQuery,
			Message: "no filters given; this matches the entire backlog",
		})
	}
	return q
}
