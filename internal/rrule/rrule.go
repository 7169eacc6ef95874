package rrule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

const (
	rulePrefix   = "RRULE:"
	untilLayout  = "20060102T150405Z"
	maxInstances = 1000 // safety limit for rules without COUNT or UNTIL
)

var (
	ErrNoDays               = errors.New("no weekdays selected")
	ErrInvalidRange         = errors.New("start date is after end date")
	ErrNoMatchingDate       = errors.New("no date in range falls on a selected weekday")
	ErrUnsupportedFrequency = errors.New("unsupported recurrence frequency")
)

// ParseRRule parses an RFC 5545 RRULE string and returns the RRule object
func ParseRRule(ruleStr string, dtstart time.Time) (*rrule.RRule, error) {
	opt, err := rrule.StrToROption(strings.TrimPrefix(ruleStr, rulePrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}
	opt.Dtstart = dtstart
	return rrule.NewRRule(*opt)
}

// Occurrences returns every start time of the rule beginning at dtstart.
// Open-ended rules are cut off after maxInstances entries.
func Occurrences(ruleStr string, dtstart time.Time) ([]time.Time, error) {
	rule, err := ParseRRule(ruleStr, dtstart)
	if err != nil {
		return nil, err
	}

	iterator := rule.Iterator()
	var results []time.Time
	for len(results) < maxInstances {
		next, ok := iterator()
		if !ok {
			break
		}
		results = append(results, next)
	}
	return results, nil
}

// RRuleBuilder creates an RRULE string from components
type RRuleBuilder struct {
	Freq       rrule.Frequency
	Interval   int
	ByWeekday  []rrule.Weekday
	ByMonthDay []int
	ByMonth    []int
	Count      int
	Until      *time.Time
}

// Frequencies the decoder can translate for both providers.
const (
	FreqDaily   = rrule.DAILY
	FreqWeekly  = rrule.WEEKLY
	FreqMonthly = rrule.MONTHLY
	FreqYearly  = rrule.YEARLY
)

var freqNames = map[rrule.Frequency]string{
	rrule.DAILY:   "DAILY",
	rrule.WEEKLY:  "WEEKLY",
	rrule.MONTHLY: "MONTHLY",
	rrule.YEARLY:  "YEARLY",
}

// dayCodes is indexed by rrule.Weekday.Day() (0 = Monday).
var dayCodes = [7]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

func (b *RRuleBuilder) String() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("FREQ=%s", freqNames[b.Freq]))

	if b.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", b.Interval))
	}

	if len(b.ByWeekday) > 0 {
		days := make([]string, len(b.ByWeekday))
		for i, d := range b.ByWeekday {
			days[i] = dayCodes[d.Day()]
		}
		parts = append(parts, fmt.Sprintf("BYDAY=%s", strings.Join(days, ",")))
	}

	if len(b.ByMonthDay) > 0 {
		parts = append(parts, fmt.Sprintf("BYMONTHDAY=%s", joinInts(b.ByMonthDay)))
	}

	if len(b.ByMonth) > 0 {
		parts = append(parts, fmt.Sprintf("BYMONTH=%s", joinInts(b.ByMonth)))
	}

	if b.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", b.Count))
	}

	if b.Until != nil {
		parts = append(parts, fmt.Sprintf("UNTIL=%s", b.Until.UTC().Format(untilLayout)))
	}

	return rulePrefix + strings.Join(parts, ";")
}

func joinInts(values []int) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(out, ",")
}

// Describe returns a short English description of the rule, e.g.
// "Weekly on Mon, Wed until 2025-12-31". Unparseable input is returned as is.
func Describe(ruleStr string) string {
	if !IsRecurring(ruleStr) {
		return "One time"
	}
	info := splitRule(ruleStr)

	var sb strings.Builder
	freq := strings.ToLower(info["FREQ"])
	if freq == "" {
		return ruleStr
	}
	if interval := info["INTERVAL"]; interval != "" && interval != "1" {
		unit := map[string]string{"daily": "days", "weekly": "weeks", "monthly": "months", "yearly": "years"}[freq]
		sb.WriteString(fmt.Sprintf("Every %s %s", interval, unit))
	} else {
		sb.WriteString(strings.ToUpper(freq[:1]) + freq[1:])
	}

	if byDay := info["BYDAY"]; byDay != "" {
		short := map[string]string{
			"MO": "Mon", "TU": "Tue", "WE": "Wed", "TH": "Thu",
			"FR": "Fri", "SA": "Sat", "SU": "Sun",
		}
		var names []string
		for _, d := range strings.Split(byDay, ",") {
			if n, ok := short[d]; ok {
				names = append(names, n)
			}
		}
		if len(names) > 0 {
			sb.WriteString(" on " + strings.Join(names, ", "))
		}
	}

	if count := info["COUNT"]; count != "" {
		sb.WriteString(fmt.Sprintf(", %s times", count))
	}

	if until := info["UNTIL"]; len(until) >= 8 {
		if t, err := time.Parse("20060102", until[:8]); err == nil {
			sb.WriteString(" until " + t.Format("2006-01-02"))
		}
	}

	return sb.String()
}

// IsRecurring checks if the RRULE string represents a recurring event
func IsRecurring(ruleStr string) bool {
	return ruleStr != "" && strings.Contains(strings.ToUpper(ruleStr), "FREQ=")
}

// splitRule breaks "RRULE:K=V;K=V" into a map with upper-cased keys.
func splitRule(ruleStr string) map[string]string {
	ruleStr = strings.TrimPrefix(strings.TrimSpace(ruleStr), rulePrefix)
	info := make(map[string]string)
	for _, p := range strings.Split(ruleStr, ";") {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) == 2 {
			info[strings.ToUpper(strings.TrimSpace(kv[0]))] = strings.TrimSpace(kv[1])
		}
	}
	return info
}
