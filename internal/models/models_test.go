package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseWeekdaysNormalizes(t *testing.T) {
	days, err := ParseWeekdays([]string{"friday", " Monday", "", "FRIDAY", "Sunday"})
	if err != nil {
		t.Fatal(err)
	}
	if got := days.String(); got != "Monday,Friday,Sunday" {
		t.Errorf("days = %s", got)
	}
	if _, err := ParseWeekdays([]string{"Mon"}); err == nil {
		t.Error("abbreviation accepted")
	}
}

func TestParseWeekdayList(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Tuesday,Thursday", "Tuesday,Thursday"},
		{"Thursday,Tuesday,Tuesday", "Tuesday,Thursday"},
	}
	for _, tt := range tests {
		got, err := ParseWeekdayList(tt.in)
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		if got.String() != tt.want {
			t.Errorf("ParseWeekdayList(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWeekdaysEqualIgnoresOrder(t *testing.T) {
	a := Weekdays{time.Friday, time.Monday}
	b := Weekdays{time.Monday, time.Friday, time.Friday}
	if !a.Equal(b) {
		t.Error("sets should be equal")
	}
	if a.Equal(Weekdays{time.Monday}) {
		t.Error("different sets reported equal")
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		Start Date `json:"start"`
		End   Date `json:"end"`
	}
	if err := json.Unmarshal([]byte(`{"start":"2025-09-02","end":""}`), &v); err != nil {
		t.Fatal(err)
	}
	if !v.Start.Equal(NewDate(2025, time.September, 2)) || !v.End.IsZero() {
		t.Errorf("decoded = %+v", v)
	}
	out, _ := json.Marshal(v)
	if string(out) != `{"start":"2025-09-02","end":""}` {
		t.Errorf("encoded = %s", out)
	}
	if err := json.Unmarshal([]byte(`{"start":"09/02/2025"}`), &v); err == nil {
		t.Error("bad layout accepted")
	}
}

func TestDateOfKeepsLocalDay(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Skip("tzdata not available")
	}
	late := time.Date(2025, time.September, 2, 23, 30, 0, 0, denver)
	if got := DateOf(late).String(); got != "2025-09-02" {
		t.Errorf("DateOf = %s", got)
	}
	if got := NewDate(2025, time.December, 31).AddDays(1).String(); got != "2026-01-01" {
		t.Errorf("AddDays = %s", got)
	}
}

func TestEventPatchApply(t *testing.T) {
	ev := &ScheduledEvent{ClassName: "Math", Location: "SMI 101", Days: Weekdays{time.Monday}}
	name, loc := "  Math 2 ", ""
	days := Weekdays{time.Tuesday}
	EventPatch{ClassName: &name, Location: &loc, Days: &days}.Apply(ev)

	if ev.ClassName != "Math 2" || ev.Location != "" || !ev.Days.Equal(days) {
		t.Errorf("patched = %+v", ev)
	}
	days[0] = time.Friday
	if ev.Days[0] != time.Tuesday {
		t.Error("patch days aliased")
	}
	if !(EventPatch{}).IsEmpty() {
		t.Error("zero patch not empty")
	}
}

func TestCloneIsDeep(t *testing.T) {
	ev := &ScheduledEvent{EventID: "a", Days: Weekdays{time.Monday}}
	c := ev.Clone()
	c.Days[0] = time.Sunday
	if ev.Days[0] != time.Monday {
		t.Error("clone shares days")
	}
	if (*ScheduledEvent)(nil).Clone() != nil {
		t.Error("nil clone")
	}
}
