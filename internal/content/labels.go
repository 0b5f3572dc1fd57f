package content

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"littlesteps/internal/models"
)

// Title turns a slug such as "in-progress" into "In Progress". Casers are
// stateful, so one is built per call.
func Title(slug string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}

// Period is the AI insights reporting window
type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
)

// Periods lists the selectable windows in display order
var Periods = []Period{PeriodWeek, PeriodMonth, PeriodQuarter}

// ParsePeriod accepts a period name and falls back to the week
func ParsePeriod(s string) Period {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PeriodWeek, PeriodMonth, PeriodQuarter:
		return p
	}
	return PeriodWeek
}

// Label renders the selector text, e.g. "Past Month"
func (p Period) Label() string {
	return "Past " + Title(string(p))
}

// Band classifies a screening score
type Band string

const (
	BandGood Band = "good"
	BandFair Band = "fair"
	BandLow  Band = "low"
)

// ScoreBand maps a score to good (80+), fair (60+) or low
func ScoreBand(score int) Band {
	switch {
	case score >= 80:
		return BandGood
	case score >= 60:
		return BandFair
	}
	return BandLow
}

// MilestoneLabel is the badge text for a milestone status
func MilestoneLabel(s models.MilestoneStatus) string {
	switch s {
	case models.MilestoneAchieved:
		return "Achieved"
	case models.MilestoneConcern:
		return "Needs Attention"
	}
	return "In Progress"
}

// MoodLabel is the badge text for a journal mood
func MoodLabel(m models.Mood) string {
	if m == models.MoodSad {
		return "Needs Support"
	}
	return Title(string(m))
}
