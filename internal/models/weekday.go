package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Weekdays is a set of meeting days. It is kept sorted Monday first and
// without duplicates.
type Weekdays []time.Weekday

var weekdayByName = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ParseWeekday accepts a full English weekday name in any case.
func ParseWeekday(name string) (time.Weekday, error) {
	d, ok := weekdayByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
	return d, nil
}

// ParseWeekdays parses a list of weekday names into a normalized set.
func ParseWeekdays(names []string) (Weekdays, error) {
	days := make(Weekdays, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		d, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days.Normalize(), nil
}

// ParseWeekdayList parses the comma-delimited form used for storage.
func ParseWeekdayList(s string) (Weekdays, error) {
	if strings.TrimSpace(s) == "" {
		return Weekdays{}, nil
	}
	return ParseWeekdays(strings.Split(s, ","))
}

// mondayIndex maps Monday..Sunday to 0..6.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Normalize sorts Monday first and drops duplicates.
func (w Weekdays) Normalize() Weekdays {
	seen := make(map[time.Weekday]bool, len(w))
	out := make(Weekdays, 0, len(w))
	for _, d := range w {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return mondayIndex(out[i]) < mondayIndex(out[j]) })
	return out
}

func (w Weekdays) Contains(d time.Weekday) bool {
	for _, x := range w {
		if x == d {
			return true
		}
	}
	return false
}

func (w Weekdays) Equal(o Weekdays) bool {
	a, b := w.Normalize(), o.Normalize()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (w Weekdays) Names() []string {
	names := make([]string, len(w))
	for i, d := range w {
		names[i] = d.String()
	}
	return names
}

// String returns the comma-delimited storage form, e.g. "Monday,Wednesday".
func (w Weekdays) String() string {
	return strings.Join(w.Names(), ",")
}

func (w Weekdays) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Names())
}

func (w *Weekdays) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	days, err := ParseWeekdays(names)
	if err != nil {
		return err
	}
	*w = days
	return nil
}
