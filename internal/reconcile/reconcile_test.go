package reconcile

import (
	"reflect"
	"testing"
	"time"

	"github.com/hray3182/ClassSync/internal/models"
)

func event(id, name string) *models.ScheduledEvent {
	return &models.ScheduledEvent{
		EventID:   id,
		ClassName: name,
		TimeSlot:  "9:00 AM - 10:00 AM",
		Days:      models.Weekdays{time.Monday, time.Wednesday},
		StartDate: models.NewDate(2025, time.September, 1),
		EndDate:   models.NewDate(2025, time.December, 31),
	}
}

func byID(events []*models.ScheduledEvent) map[string]*models.ScheduledEvent {
	m := make(map[string]*models.ScheduledEvent, len(events))
	for _, ev := range events {
		m[ev.EventID] = ev
	}
	return m
}

func TestMerge_EphemeralWins(t *testing.T) {
	durable := []*models.ScheduledEvent{event("id1", "A")}
	ephemeral := []*models.ScheduledEvent{event("id1", "B"), event("id2", "C")}
	ephemeral[0].Location = ""
	durable[0].Location = "KIM 101"

	got := byID(Merge(ephemeral, durable))
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if !reflect.DeepEqual(got["id1"], ephemeral[0]) {
		t.Errorf("id1 = %+v, want ephemeral copy %+v", got["id1"], ephemeral[0])
	}
	if got["id1"].Location != "" {
		t.Errorf("fields were merged: location = %q", got["id1"].Location)
	}
	if got["id2"].ClassName != "C" {
		t.Errorf("id2 class = %q, want C", got["id2"].ClassName)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	x := []*models.ScheduledEvent{event("a", "Math"), event("b", "Bio"), event("c", "Art")}
	got := Merge(x, x)
	if !reflect.DeepEqual(byID(got), byID(x)) {
		t.Errorf("Merge(X, X) = %v, want %v", got, x)
	}
	if len(got) != len(x) {
		t.Errorf("len = %d, want %d", len(got), len(x))
	}
}

func TestMerge_OneRecordPerID(t *testing.T) {
	durable := []*models.ScheduledEvent{event("a", "1"), event("b", "2"), event("a", "3")}
	ephemeral := []*models.ScheduledEvent{event("c", "4"), nil, event("", "blank"), event("b", "5")}

	got := Merge(ephemeral, durable)
	ids := make([]string, len(got))
	for i, ev := range got {
		ids[i] = ev.EventID
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if got[1].ClassName != "5" {
		t.Errorf("b = %q, want ephemeral value 5", got[1].ClassName)
	}
}

func TestMerge_Empty(t *testing.T) {
	if got := Merge(nil, nil); len(got) != 0 {
		t.Errorf("Merge(nil, nil) = %v", got)
	}
}

func TestDiff(t *testing.T) {
	durable := []*models.ScheduledEvent{event("old", "A"), event("shared", "B")}
	ephemeral := []*models.ScheduledEvent{event("shared", "B2"), event("new", "C")}

	r := Diff(ephemeral, durable)
	if !reflect.DeepEqual(r.OnlyDurable, []string{"old"}) {
		t.Errorf("only durable = %v", r.OnlyDurable)
	}
	if !reflect.DeepEqual(r.OnlyEphemeral, []string{"new"}) {
		t.Errorf("only ephemeral = %v", r.OnlyEphemeral)
	}
	if !reflect.DeepEqual(r.Both, []string{"shared"}) {
		t.Errorf("both = %v", r.Both)
	}
	if len(r.Merged) != 3 {
		t.Errorf("merged = %d records, want 3", len(r.Merged))
	}
}
