package classifier

import (
	"github.com/danielolaszy/jassist/internal/validator"
	"github.com/danielolaszy/jassist/pkg/models"
)

// Action shape field names, as the model emits them.
const (
	fieldAction      = "action"
	fieldSummary     = "summary"
	fieldDescription = "description"
	fieldStoryPoints = "story_points"
	fieldDueDate     = "due_date"
	fieldPriority    = "priority"
	fieldIntent      = "intent"
	fieldFilters     = "filters"
	fieldStatus      = "status"
	fieldAssignment  = "assignment"
	fieldUser        = "user"
	fieldText        = "text"
	fieldAssignee    = "assignee"
	fieldReason      = "reason"
)

var zeroPoints = 0

func priorityNames(withAny bool) []string {
	var names []string
	for _, p := range models.Priorities {
		names = append(names, string(p))
	}
	if withAny {
		names = append(names, string(models.PriorityAny))
	}
	return names
}

var filterFields = []validator.Field{
	{Name: fieldStatus, Type: validator.TypeString, Enum: []string{
		string(models.StatusOpen), string(models.StatusInProgress), string(models.StatusDone), string(models.StatusAny),
	}},
	{Name: fieldPriority, Type: validator.TypeString, Enum: priorityNames(true)},
	{Name: fieldAssignment, Type: validator.TypeString, Enum: []string{
		string(models.AssignmentMe), string(models.AssignmentUnassigned), string(models.AssignmentUser), string(models.AssignmentAny),
	}},
	{Name: fieldUser, Type: validator.TypeString, Doc: "name or email when assignment is userRef"},
	{Name: fieldText, Type: validator.TypeString, Doc: "keywords"},
}

// ActionSchema is the JSON shape the model must produce.
var ActionSchema = validator.Schema{
	Discriminator: fieldAction,
	Variants: []validator.Variant{
		{
			Name: string(models.ActionCreateIssue),
			Doc:  "create one issue",
			Fields: []validator.Field{
				{Name: fieldSummary, Type: validator.TypeString, Required: true, Doc: "short imperative title"},
				{Name: fieldDescription, Type: validator.TypeString},
				{Name: fieldStoryPoints, Type: validator.TypeInteger, Min: &zeroPoints},
				{Name: fieldDueDate, Type: validator.TypeDate, Doc: "YYYY-MM-DD"},
				{Name: fieldPriority, Type: validator.TypeString, Enum: priorityNames(false)},
			},
		},
		{
			Name: string(models.ActionSearchIssues),
			Doc:  "list issues, or suggest what to work on next",
			Fields: []validator.Field{
				{Name: fieldIntent, Type: validator.TypeString, Enum: []string{string(models.IntentList), string(models.IntentSuggest)}},
				{Name: fieldFilters, Type: validator.TypeObject, Fields: filterFields},
			},
		},
		{
			Name: string(models.ActionAssignIssues),
			Doc:  "assign every matching issue",
			Fields: []validator.Field{
				{Name: fieldAssignee, Type: validator.TypeString, Required: true, Doc: `"me" or a name or email`},
				{Name: fieldFilters, Type: validator.TypeObject, Fields: filterFields},
			},
		},
		{
			Name: string(models.ActionUnknown),
			Doc:  "anything else",
			Fields: []validator.Field{
				{Name: fieldReason, Type: validator.TypeString},
			},
		},
	},
}
