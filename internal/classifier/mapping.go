package classifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/danielolaszy/jassist/internal/validator"
	"github.com/danielolaszy/jassist/pkg/models"
)

// toAction builds the typed Action from a validated value. It returns a
// ValidationError for combinations the schema cannot express.
func toAction(p validator.Parsed, utterance string) (models.Action, *validator.ValidationError) {
	v := p.Value

	switch models.ActionKind(p.Variant) {
	case models.ActionCreateIssue:
		a := models.CreateIssue{
			Summary:     str(v, fieldSummary),
			Description: str(v, fieldDescription),
			Priority:    models.Priority(str(v, fieldPriority)),
		}
		if n, ok := v[fieldStoryPoints].(int); ok {
			a.StoryPoints = &n
		}
		if d, ok := v[fieldDueDate].(time.Time); ok {
			a.DueDate = &d
		}
		return a, nil

	case models.ActionSearchIssues:
		fs, verr := toFilters(v[fieldFilters])
		if verr != nil {
			return nil, verr
		}
		intent := models.Intent(str(v, fieldIntent))
		if intent == "" {
			intent = models.IntentList
		}
		return models.SearchIssues{Filters: fs, Intent: intent}, nil

	case models.ActionAssignIssues:
		raw, _ := v[fieldFilters].(map[string]any)
		fs, verr := toFilters(raw)
		if verr != nil {
			return nil, verr
		}
		if len(raw) == 0 {
			// "assign issues to me" with no criteria picks up unassigned work.
			fs.Assignment = models.AssignmentUnassigned
		}
		return models.AssignIssues{Filters: fs, Assignee: toAssignee(str(v, fieldAssignee))}, nil

	case models.ActionUnknown:
		reason := str(v, fieldReason)
		if reason == "" {
			reason = "the request does not match a supported action"
		}
		return models.Unknown{RawText: utterance, Reason: reason}, nil
	}

	return models.Unknown{
		RawText: utterance,
		Reason:  fmt.Sprintf("unsupported action %q", p.Variant),
	}, nil
}

func toFilters(raw any) (models.FilterSet, *validator.ValidationError) {
	obj, _ := raw.(map[string]any)
	fs := models.FilterSet{
		Status:     models.Status(str(obj, fieldStatus)),
		Priority:   models.Priority(str(obj, fieldPriority)),
		Assignment: models.Assignment(str(obj, fieldAssignment)),
		User:       str(obj, fieldUser),
		FreeText:   str(obj, fieldText),
	}

	switch {
	case fs.Assignment == "" && fs.User != "":
		fs.Assignment = models.AssignmentUser
	case fs.Assignment == models.AssignmentUser && fs.User == "":
		return models.FilterSet{}, &validator.ValidationError{
			Kind:  validator.KindMissingField,
			Field: fieldFilters + "." + fieldUser,
		}
	}
	if fs.Assignment == models.AssignmentUser && isSelf(fs.User) {
		fs.Assignment, fs.User = models.AssignmentMe, ""
	}
	return fs.Normalize(), nil
}

func toAssignee(s string) models.Assignee {
	if isSelf(s) {
		return models.AssigneeMe
	}
	return models.Assignee{User: s}
}

func isSelf(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "me", "myself", "i", "self", "current user", "currentuser()":
		return true
	}
	return false
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
