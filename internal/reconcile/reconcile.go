// Package reconcile merges the session's in-memory event list with the
// durable table into one view keyed by provider event id.
package reconcile

import "github.com/hray3182/ClassSync/internal/models"

// Merge returns one record per distinct EventID found in either input. When
// both contain the same id the ephemeral record wins in full; fields are never
// combined. There is no timestamp comparison, so callers must keep the
// ephemeral list current with the latest user action.
//
// Output order is durable order, followed by ids that only exist in
// ephemeral, in their input order. Records without an EventID are dropped.
func Merge(ephemeral, durable []*models.ScheduledEvent) []*models.ScheduledEvent {
	byID := make(map[string]*models.ScheduledEvent, len(durable)+len(ephemeral))
	order := make([]string, 0, len(durable)+len(ephemeral))

	put := func(ev *models.ScheduledEvent) {
		if ev == nil || ev.EventID == "" {
			return
		}
		if _, ok := byID[ev.EventID]; !ok {
			order = append(order, ev.EventID)
		}
		byID[ev.EventID] = ev
	}

	for _, ev := range durable {
		put(ev)
	}
	for _, ev := range ephemeral {
		put(ev)
	}

	merged := make([]*models.ScheduledEvent, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	return merged
}

// Report describes how the two sources relate.
type Report struct {
	Merged        []*models.ScheduledEvent `json:"merged"`
	OnlyEphemeral []string                 `json:"only_ephemeral"` // created this session, not yet cached
	OnlyDurable   []string                 `json:"only_durable"`   // cached from an earlier session
	Both          []string                 `json:"both"`
}

// Diff merges like Merge and also reports which side each id came from.
func Diff(ephemeral, durable []*models.ScheduledEvent) Report {
	inDurable := make(map[string]bool, len(durable))
	for _, ev := range durable {
		if ev != nil && ev.EventID != "" {
			inDurable[ev.EventID] = true
		}
	}
	inEphemeral := make(map[string]bool, len(ephemeral))
	for _, ev := range ephemeral {
		if ev != nil && ev.EventID != "" {
			inEphemeral[ev.EventID] = true
		}
	}

	r := Report{
		Merged:        Merge(ephemeral, durable),
		OnlyEphemeral: []string{},
		OnlyDurable:   []string{},
		Both:          []string{},
	}
	for _, ev := range r.Merged {
		switch {
		case inDurable[ev.EventID] && inEphemeral[ev.EventID]:
			r.Both = append(r.Both, ev.EventID)
		case inEphemeral[ev.EventID]:
			r.OnlyEphemeral = append(r.OnlyEphemeral, ev.EventID)
		default:
			r.OnlyDurable = append(r.OnlyDurable, ev.EventID)
		}
	}
	return r
}
