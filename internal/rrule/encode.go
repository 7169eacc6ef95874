package rrule

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/hray3182/ClassSync/internal/models"
)

// Encoded is a weekly rule plus the first concrete occurrence, which is the
// anchor instance sent to the provider.
type Encoded struct {
	Rule            string
	FirstOccurrence models.Date
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// FirstOccurrence scans start..end inclusive and returns the first day whose
// weekday is in days.
func FirstOccurrence(start, end models.Date, days models.Weekdays) (models.Date, error) {
	if len(days) == 0 {
		return models.Date{}, ErrNoDays
	}
	if start.After(end) {
		return models.Date{}, ErrInvalidRange
	}
	for d := start; !d.After(end); d = d.AddDays(1) {
		if days.Contains(d.Weekday()) {
			return d, nil
		}
	}
	return models.Date{}, ErrNoMatchingDate
}

// Encode builds RRULE:FREQ=WEEKLY;BYDAY=..;UNTIL=<end>T235959Z for days
// between start and end.
func Encode(start, end models.Date, days models.Weekdays) (Encoded, error) {
	first, err := FirstOccurrence(start, end, days)
	if err != nil {
		return Encoded{}, err
	}

	until := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC)
	b := RRuleBuilder{
		Freq:      FreqWeekly,
		ByWeekday: toRRuleWeekdays(days),
		Until:     &until,
	}
	return Encoded{Rule: b.String(), FirstOccurrence: first}, nil
}

// EncodeCount builds the COUNT variant: count weekly occurrences on days
// starting from the first matching day on or after start.
func EncodeCount(start models.Date, days models.Weekdays, count int) (Encoded, error) {
	// Every weekday appears within seven days.
	first, err := FirstOccurrence(start, start.AddDays(6), days)
	if err != nil {
		return Encoded{}, err
	}
	b := RRuleBuilder{
		Freq:      FreqWeekly,
		ByWeekday: toRRuleWeekdays(days),
		Count:     count,
	}
	return Encoded{Rule: b.String(), FirstOccurrence: first}, nil
}

func toRRuleWeekdays(days models.Weekdays) []rrule.Weekday {
	norm := days.Normalize()
	out := make([]rrule.Weekday, len(norm))
	for i, d := range norm {
		out[i] = rruleWeekdays[d]
	}
	return out
}
