package models

import (
	"strings"
	"time"
)

// ScheduledEvent is one class meeting pattern pushed to a remote calendar.
// EventID is issued by the provider and is the key in every store.
type ScheduledEvent struct {
	EventID        string    `json:"event_id"`
	UserID         string    `json:"user_id,omitempty"`
	Provider       string    `json:"provider"`
	ClassName      string    `json:"class_name"`
	Location       string    `json:"location,omitempty"`
	TimeSlot       string    `json:"time_slot"`
	Days           Weekdays  `json:"days"`
	StartDate      Date      `json:"start_date"` // first matching day, not the semester start
	RangeStart     Date      `json:"range_start,omitempty"`
	EndDate        Date      `json:"end_date"`
	RecurrenceRule string    `json:"recurrence_rule,omitempty"` // RFC 5545 RRULE
	CreatedAt      time.Time `json:"created_at"`
}

// IsRecurring returns true if this event has a recurrence rule
func (e *ScheduledEvent) IsRecurring() bool {
	return e.RecurrenceRule != ""
}

// Anchor is the date rules are derived from: the requested range start when
// known, otherwise the first occurrence.
func (e *ScheduledEvent) Anchor() Date {
	if !e.RangeStart.IsZero() {
		return e.RangeStart
	}
	return e.StartDate
}

// Clone returns a deep copy so callers can hand records out of a session
// without sharing the Days slice.
func (e *ScheduledEvent) Clone() *ScheduledEvent {
	if e == nil {
		return nil
	}
	c := *e
	c.Days = append(Weekdays(nil), e.Days...)
	return &c
}

// EventPatch holds the mutable fields of a ScheduledEvent. Nil fields are left
// untouched. StartDate and RecurrenceRule are never user supplied; they are
// re-derived from Days.
type EventPatch struct {
	ClassName      *string
	Location       *string
	TimeSlot       *string
	Days           *Weekdays
	StartDate      *Date
	RecurrenceRule *string
}

// Apply writes the non-nil patch fields onto e.
func (p EventPatch) Apply(e *ScheduledEvent) {
	if p.ClassName != nil {
		e.ClassName = strings.TrimSpace(*p.ClassName)
	}
	if p.Location != nil {
		e.Location = strings.TrimSpace(*p.Location)
	}
	if p.TimeSlot != nil {
		e.TimeSlot = *p.TimeSlot
	}
	if p.Days != nil {
		e.Days = append(Weekdays(nil), (*p.Days)...)
	}
	if p.StartDate != nil {
		e.StartDate = *p.StartDate
	}
	if p.RecurrenceRule != nil {
		e.RecurrenceRule = *p.RecurrenceRule
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return p.ClassName == nil && p.Location == nil && p.TimeSlot == nil && p.Days == nil &&
		p.StartDate == nil && p.RecurrenceRule == nil
}
