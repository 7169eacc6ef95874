package ics

import (
	"strings"
	"testing"
	"time"

	goics "github.com/arran4/golang-ical"

	"github.com/hray3182/ClassSync/internal/models"
)

func TestExport(t *testing.T) {
	events := []*models.ScheduledEvent{
		{
			EventID:        "ev1",
			ClassName:      "Math 101",
			Location:       "SMI 101",
			TimeSlot:       "9:00 AM - 10:00 AM",
			Days:           models.Weekdays{time.Monday, time.Wednesday},
			StartDate:      models.NewDate(2025, time.September, 1),
			EndDate:        models.NewDate(2025, time.December, 31),
			RecurrenceRule: "RRULE:FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20251231T235959Z",
		},
		{EventID: "bad", ClassName: "Broken", TimeSlot: "whenever"},
	}
	deleted := map[string][]models.Date{"ev1": {models.NewDate(2025, time.September, 3)}}
	now := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)

	out, skipped := Export(events, deleted, time.UTC, now)
	if len(skipped) != 1 || skipped[0] != "bad" {
		t.Errorf("skipped = %v", skipped)
	}

	for _, want := range []string{
		"UID:ev1@classsync",
		"SUMMARY:Math 101",
		"DTSTART:20250901T090000Z",
		"DTEND:20250901T100000Z",
		"RRULE:FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20251231T235959Z",
		"EXDATE:20250903T090000Z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	cal, err := goics.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	if n := len(cal.Events()); n != 1 {
		t.Errorf("parsed %d events, want 1", n)
	}
}

func TestExportSingleEventHasNoRule(t *testing.T) {
	out, _ := Export([]*models.ScheduledEvent{{
		EventID:   "one",
		ClassName: "Exam",
		TimeSlot:  "1:00 PM - 2:30 PM",
		StartDate: models.NewDate(2025, time.December, 15),
		EndDate:   models.NewDate(2025, time.December, 15),
	}}, nil, time.UTC, time.Now())
	if strings.Contains(out, "RRULE") {
		t.Errorf("single event has a rule:\n%s", out)
	}
}

func TestExportKeepsWallClockAcrossDST(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	events := []*models.ScheduledEvent{{
		EventID:        "ev2",
		ClassName:      "Chem 105",
		TimeSlot:       "9:00 AM - 9:50 AM",
		Days:           models.Weekdays{time.Tuesday},
		StartDate:      models.NewDate(2025, time.September, 2),
		EndDate:        models.NewDate(2025, time.December, 31),
		RecurrenceRule: "RRULE:FREQ=WEEKLY;BYDAY=TU;UNTIL=20251231T235959Z",
	}}
	deleted := map[string][]models.Date{"ev2": {models.NewDate(2025, time.November, 4)}}

	out, _ := Export(events, deleted, denver, time.Now())
	for _, want := range []string{
		"DTSTART;TZID=America/Denver:20250902T090000",
		"DTEND;TZID=America/Denver:20250902T095000",
		"EXDATE;TZID=America/Denver:20251104T090000",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// 09:00 MDT is 15:00Z; after DST ends the same wall clock is 16:00Z.
	if strings.Contains(out, "20251104T150000Z") {
		t.Errorf("exdate pinned to the summer UTC offset:\n%s", out)
	}

	cal, err := goics.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	ev := cal.Events()[0]
	start, err := ev.GetStartAt()
	if err != nil {
		t.Fatalf("GetStartAt: %v", err)
	}
	if start.In(denver).Hour() != 9 {
		t.Errorf("start = %v, want 09:00 in Denver", start.In(denver))
	}
}
