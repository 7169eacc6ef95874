package rrule

import (
	"fmt"
	"strings"

	"github.com/teambition/rrule-go"

	"github.com/hray3182/ClassSync/internal/models"
)

// DefaultWeekday is used for FREQ=WEEKLY rules without BYDAY when translating
// to a pattern. The value is inherited behavior and not a confirmed product
// decision.
const DefaultWeekday = "monday"

// Shape selects which native recurrence representation a provider consumes.
type Shape int

const (
	// ShapeRFC5545 passes the rule text through unchanged (Google).
	ShapeRFC5545 Shape = iota
	// ShapePatternRange is the pattern/range object used by Microsoft Graph.
	ShapePatternRange
)

func (s Shape) String() string {
	switch s {
	case ShapeRFC5545:
		return "rfc5545"
	case ShapePatternRange:
		return "pattern_range"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Target is the provider-native recurrence: either RFC5545Text or
// *PatternRange.
type Target interface {
	shape() Shape
}

// RFC5545Text is a rule consumed as-is.
type RFC5545Text struct {
	Rule string
}

func (RFC5545Text) shape() Shape { return ShapeRFC5545 }

// PatternRange mirrors the Graph patternedRecurrence resource.
type PatternRange struct {
	Pattern Pattern `json:"pattern"`
	Range   Range   `json:"range"`
}

func (*PatternRange) shape() Shape { return ShapePatternRange }

type Pattern struct {
	Type       string   `json:"type"`
	Interval   int      `json:"interval"`
	DaysOfWeek []string `json:"daysOfWeek,omitempty"`
	DayOfMonth int      `json:"dayOfMonth,omitempty"`
	Month      int      `json:"month,omitempty"`
}

type Range struct {
	Type                string `json:"type"`
	StartDate           string `json:"startDate"`
	EndDate             string `json:"endDate,omitempty"`
	NumberOfOccurrences int    `json:"numberOfOccurrences,omitempty"`
}

// Range types.
const (
	RangeEndDate  = "endDate"
	RangeNumbered = "numbered"
	RangeNoEnd    = "noEnd"
)

var patternDayNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Decode translates rule into the representation selected by shape. anchor is
// the first occurrence and becomes range.startDate for ShapePatternRange.
//
// Rules whose FREQ is not DAILY, WEEKLY, MONTHLY or YEARLY return
// ErrUnsupportedFrequency; callers then create a single non-recurring event.
func Decode(ruleStr string, shape Shape, anchor models.Date) (Target, error) {
	freq := strings.ToUpper(splitRule(ruleStr)["FREQ"])
	switch freq {
	case "DAILY", "WEEKLY", "MONTHLY", "YEARLY":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFrequency, freq)
	}

	body := strings.TrimPrefix(strings.TrimSpace(ruleStr), rulePrefix)
	opt, err := rrule.StrToROption(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}

	switch shape {
	case ShapeRFC5545:
		// Parts the pattern shape cannot carry (ordinal BYDAY, BYSETPOS,
		// WKST) must reach the provider untouched.
		return RFC5545Text{Rule: rulePrefix + body}, nil
	case ShapePatternRange:
		return toPatternRange(opt, anchor), nil
	default:
		return nil, fmt.Errorf("unknown recurrence shape %s", shape)
	}
}

func toPatternRange(opt *rrule.ROption, anchor models.Date) *PatternRange {
	interval := opt.Interval
	if interval <= 0 {
		interval = 1
	}

	var p Pattern
	switch opt.Freq {
	case rrule.DAILY:
		p = Pattern{Type: "daily", Interval: interval}
	case rrule.WEEKLY:
		days := make([]string, 0, len(opt.Byweekday))
		for _, d := range opt.Byweekday {
			days = append(days, patternDayNames[d.Day()])
		}
		if len(days) == 0 {
			days = []string{DefaultWeekday}
		}
		p = Pattern{Type: "weekly", Interval: interval, DaysOfWeek: days}
	case rrule.MONTHLY:
		if len(opt.Bymonthday) > 0 {
			p = Pattern{Type: "absoluteMonthly", Interval: interval, DayOfMonth: opt.Bymonthday[0]}
		} else {
			p = Pattern{Type: "relativeMonthly", Interval: interval}
		}
	case rrule.YEARLY:
		p = Pattern{Type: "absoluteYearly", Interval: interval}
		if len(opt.Bymonthday) > 0 {
			p.DayOfMonth = opt.Bymonthday[0]
		}
		if len(opt.Bymonth) > 0 {
			p.Month = opt.Bymonth[0]
		}
	}

	r := Range{StartDate: anchor.String()}
	switch {
	case !opt.Until.IsZero():
		r.Type = RangeEndDate
		r.EndDate = opt.Until.UTC().Format("2006-01-02")
	case opt.Count > 0:
		r.Type = RangeNumbered
		r.NumberOfOccurrences = opt.Count
	default:
		r.Type = RangeNoEnd
	}

	return &PatternRange{Pattern: p, Range: r}
}
