// Package ranker scores candidate issues for "what should I work on next".
package ranker

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/danielolaszy/jassist/pkg/models"
)

// Score weights. They sum to 1.
const (
	WeightPriority = 0.45
	WeightUrgency  = 0.35
	WeightEffort   = 0.15
	WeightAge      = 0.05
)

// Neutral defaults for missing data.
const (
	// DefaultPriorityWeight is used for issues without a priority (medium).
	DefaultPriorityWeight = 0.5
	// DefaultUrgency is used for issues without a due date; it equals a due
	// date four weeks out.
	DefaultUrgency = 0.2
	// DefaultEffort is used for unestimated issues (about 4.5 points).
	DefaultEffort = 0.4
)

const (
	urgencyHalfLifeDays = 7.0
	overdueCapDays      = 14.0
	overdueBonusMax     = 0.25
	effortScalePoints   = 3.0
	ageSaturationDays   = 90.0
)

// Rank scores issues against now and returns them best first. The order is
// total: equal scores fall back to earlier due date, then higher priority,
// then issue key. The input slice is not modified.
func Rank(issues []models.Issue, now time.Time) []models.ScoredIssue {
	scored := make([]models.ScoredIssue, 0, len(issues))
	for _, issue := range issues {
		scored = append(scored, Score(issue, now))
	}

	slices.SortStableFunc(scored, compare)
	return scored
}

// Score computes the score and rationale for a single issue.
func Score(issue models.Issue, now time.Time) models.ScoredIssue {
	score := priorityWeight(issue.Priority)*WeightPriority +
		urgency(issue.DueDate, now)*WeightUrgency +
		effortInverse(issue.StoryPoints)*WeightEffort +
		age(issue.CreatedAt, now)*WeightAge

	return models.ScoredIssue{
		Issue:     issue,
		Score:     score,
		Rationale: rationale(issue, now),
	}
}

func compare(a, b models.ScoredIssue) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := compareDue(a.Issue.DueDate, b.Issue.DueDate); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Issue.Priority.Rank(), a.Issue.Priority.Rank()); c != 0 {
		return c
	}
	return strings.Compare(a.Issue.Key, b.Issue.Key)
}

// compareDue orders earlier dates first and missing dates last.
func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

func priorityWeight(p models.Priority) float64 {
	switch p {
	case models.PriorityHighest:
		return 1
	case models.PriorityHigh:
		return 0.75
	case models.PriorityMedium:
		return 0.5
	case models.PriorityLow:
		return 0.25
	case models.PriorityLowest:
		return 0
	}
	return DefaultPriorityWeight
}

// urgency is 1 on the due date, decays with days remaining and grows
// slightly (capped) once overdue.
func urgency(due *time.Time, now time.Time) float64 {
	if due == nil {
		return DefaultUrgency
	}
	days := daysUntil(*due, now)
	if days <= 0 {
		overdue := math.Min(float64(-days), overdueCapDays)
		return 1 + overdueBonusMax*overdue/overdueCapDays
	}
	return 1 / (1 + float64(days)/urgencyHalfLifeDays)
}

func effortInverse(points *int) float64 {
	if points == nil {
		return DefaultEffort
	}
	return 1 / (1 + float64(max(*points, 0))/effortScalePoints)
}

func age(created, now time.Time) float64 {
	if created.IsZero() {
		return 0
	}
	days := now.Sub(created).Hours() / 24
	return math.Min(math.Max(days, 0), ageSaturationDays) / ageSaturationDays
}

// daysUntil counts calendar days from now's date to due's date. A due date is
// a calendar day, so it is read in its own location: trackers hand out
// midnight UTC and converting it would move it to the previous evening west
// of UTC.
func daysUntil(due, now time.Time) int {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = due.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(day.Sub(today).Hours() / 24)
}

func rationale(issue models.Issue, now time.Time) string {
	var parts []string

	if issue.Priority != "" && issue.Priority != models.PriorityAny {
		parts = append(parts, issue.Priority.Title()+" priority")
	} else {
		parts = append(parts, "no priority")
	}

	if issue.DueDate == nil {
		parts = append(parts, "no due date")
	} else {
		switch days := daysUntil(*issue.DueDate, now); {
		case days < 0:
			parts = append(parts, fmt.Sprintf("overdue by %dd", -days))
		case days == 0:
			parts = append(parts, "due today")
		default:
			parts = append(parts, fmt.Sprintf("due in %dd", days))
		}
	}

	if issue.StoryPoints == nil {
		parts = append(parts, "unestimated")
	} else if *issue.StoryPoints <= 3 {
		parts = append(parts, fmt.Sprintf("%d pts, quick win", *issue.StoryPoints))
	} else {
		parts = append(parts, fmt.Sprintf("%d pts", *issue.StoryPoints))
	}

	return strings.Join(parts, ", ")
}
