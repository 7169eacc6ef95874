package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/hray3182/ClassSync/internal/models"
)

const clockLayout = "3:04 PM"

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) String() string {
	return time.Date(0, 1, 1, c.Hour, c.Minute, 0, 0, time.UTC).Format(clockLayout)
}

// TimeSlot is a class period such as "9:00 AM - 10:00 AM".
type TimeSlot struct {
	Start Clock
	End   Clock
}

// ParseTimeSlot parses "h:mm AM - h:mm PM". The end must be after the start.
func ParseTimeSlot(s string) (TimeSlot, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return TimeSlot{}, fmt.Errorf("invalid time slot %q: want \"h:mm AM - h:mm PM\"", s)
	}

	var clocks [2]Clock
	for i, p := range parts {
		t, err := time.Parse(clockLayout, strings.ToUpper(strings.Join(strings.Fields(p), " ")))
		if err != nil {
			return TimeSlot{}, fmt.Errorf("invalid time slot %q: %w", s, err)
		}
		clocks[i] = Clock{Hour: t.Hour(), Minute: t.Minute()}
	}

	slot := TimeSlot{Start: clocks[0], End: clocks[1]}
	if slot.End.minutes() <= slot.Start.minutes() {
		return TimeSlot{}, fmt.Errorf("invalid time slot %q: ends before it starts", s)
	}
	return slot, nil
}

func (s TimeSlot) String() string {
	return s.Start.String() + " - " + s.End.String()
}

// On returns the start and end instants of the slot on date in loc.
func (s TimeSlot) On(date models.Date, loc *time.Location) (time.Time, time.Time) {
	return date.At(s.Start.Hour, s.Start.Minute, loc), date.At(s.End.Hour, s.End.Minute, loc)
}
