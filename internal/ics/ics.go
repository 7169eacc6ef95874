// Package ics writes scheduled classes as an iCalendar feed.
package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/hray3182/ClassSync/internal/calendar"
	"github.com/hray3182/ClassSync/internal/models"
)

const (
	productID   = "-//ClassSync//Class Schedule//EN"
	utcLayout   = "20060102T150405Z"
	localLayout = "20060102T150405"
	uidSuffix   = "@classsync"
	calendarTag = "Class Schedule"
)

// Export renders events in loc. deleted maps an event id to the dates
// removed from its series; they become EXDATE entries. Times carry a TZID
// for loc so that occurrences keep their wall-clock time across DST
// changes. Events whose time slot cannot be parsed are skipped and
// returned by id.
func Export(events []*models.ScheduledEvent, deleted map[string][]models.Date, loc *time.Location, now time.Time) (string, []string) {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetName(calendarTag)
	cal.SetXWRTimezone(loc.String())

	var skipped []string
	for _, ev := range events {
		slot, err := calendar.ParseTimeSlot(ev.TimeSlot)
		if err != nil {
			skipped = append(skipped, ev.EventID)
			continue
		}
		start, end := slot.On(ev.StartDate, loc)

		e := cal.AddEvent(ev.EventID + uidSuffix)
		e.SetDtStampTime(now)
		e.SetSummary(ev.ClassName)
		if ev.Location != "" {
			e.SetLocation(ev.Location)
		}
		e.SetProperty(ical.ComponentPropertyDtStart, stamp(start, loc), zoneParams(loc)...)
		e.SetProperty(ical.ComponentPropertyDtEnd, stamp(end, loc), zoneParams(loc)...)
		if !ev.CreatedAt.IsZero() {
			e.SetCreatedTime(ev.CreatedAt)
		}

		if ev.RecurrenceRule != "" {
			e.AddRrule(strings.TrimPrefix(ev.RecurrenceRule, "RRULE:"))
			for _, d := range deleted[ev.EventID] {
				exStart, _ := slot.On(d, loc)
				e.AddExdate(stamp(exStart, loc), zoneParams(loc)...)
			}
		}
	}
	return cal.Serialize(), skipped
}

// stamp formats t as a floating local time for a TZID property, or as UTC
// when loc is UTC.
func stamp(t time.Time, loc *time.Location) string {
	if loc == time.UTC {
		return t.UTC().Format(utcLayout)
	}
	return t.In(loc).Format(localLayout)
}

func zoneParams(loc *time.Location) []ical.PropertyParameter {
	if loc == time.UTC {
		return nil
	}
	return []ical.PropertyParameter{ical.WithTZID(loc.String())}
}
