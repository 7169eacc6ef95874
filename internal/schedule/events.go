package schedule

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hray3182/ClassSync/internal/errkind"
	"github.com/hray3182/ClassSync/internal/models"
	"github.com/hray3182/ClassSync/internal/rrule"
	"github.com/hray3182/ClassSync/internal/session"
)

// UpdateInput carries the user-editable fields. Nil fields are kept.
type UpdateInput struct {
	ClassName *string   `json:"class_name"`
	Location  *string   `json:"location"`
	TimeSlot  *string   `json:"time_slot"`
	Days      *[]string `json:"days"`
}

// Update edits an event remotely, then applies the same change to the
// session copy and the durable row. The first occurrence and the rule are
// re-derived from the requested range, so an earlier weekday keeps the first
// week.
func (s *Service) Update(ctx context.Context, sess *session.Session, eventID string, in UpdateInput) (*models.ScheduledEvent, error) {
	current, err := s.Get(ctx, sess, eventID)
	if err != nil {
		return nil, err
	}

	var patch models.EventPatch
	if in.ClassName != nil {
		name := strings.TrimSpace(*in.ClassName)
		if name == "" {
			return nil, fmt.Errorf("%w: class name is required", errkind.ErrInvalid)
		}
		patch.ClassName = &name
	}
	if in.TimeSlot != nil {
		slot := strings.TrimSpace(*in.TimeSlot)
		patch.TimeSlot = &slot
	}
	if in.Days != nil {
		days, err := models.ParseWeekdays(*in.Days)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errkind.ErrInvalid, err)
		}
		patch.Days = &days
	}

	updated := current.Clone()
	patch.Apply(updated)

	rawLocation := current.Location
	if in.Location != nil {
		rawLocation = *in.Location
	}
	loc, err := ValidateLocation(rawLocation, s.catalog.Buildings)
	if err != nil {
		return nil, err
	}
	if in.Location != nil {
		formatted := loc.String()
		patch.Location = &formatted
		updated.Location = formatted
	}

	first, rule, err := encode(current.Anchor(), current.EndDate, updated.Days)
	if err != nil {
		return nil, err
	}
	updated.StartDate = first
	updated.RecurrenceRule = rule
	patch.StartDate = &first
	patch.RecurrenceRule = &rule

	spec, err := s.buildSpec(updated, loc, nil)
	if err != nil {
		return nil, err
	}
	p, err := s.provider(ctx, sess, current.Provider)
	if err != nil {
		return nil, err
	}
	if err := p.Update(ctx, eventID, spec); err != nil {
		return nil, fmt.Errorf("update %s: %w", eventID, err)
	}

	if !sess.UpdateEvent(eventID, patch) {
		sess.AddEvent(updated)
	}
	if err := s.events.Update(ctx, eventID, patch); err != nil && !isNotFound(err) {
		s.logger.Error("failed to update stored event", zap.String("event_id", eventID), zap.Error(err))
	}
	s.logger.Info("updated event", zap.String("event_id", eventID))
	return updated, nil
}

// DeleteSeries removes the whole series remotely and, only when that
// succeeds, locally. eventID may name a single instance; its series master
// is deleted then. A series already gone remotely counts as deleted.
func (s *Service) DeleteSeries(ctx context.Context, sess *session.Session, eventID string) error {
	current, err := s.Get(ctx, sess, eventID)
	if err != nil {
		return err
	}
	p, err := s.provider(ctx, sess, current.Provider)
	if err != nil {
		return err
	}

	target := eventID
	remote, err := p.Get(ctx, eventID)
	switch {
	case err == nil && remote.RecurringEventID != "":
		target = remote.RecurringEventID
	case err != nil && !isNotFound(err):
		return fmt.Errorf("delete %s: %w", eventID, err)
	}

	if err == nil {
		if err := p.Delete(ctx, target); err != nil && !isNotFound(err) {
			return fmt.Errorf("delete %s: %w", target, err)
		}
	}

	for _, id := range []string{eventID, target} {
		sess.RemoveEvent(id)
		if err := s.events.Delete(ctx, id); err != nil {
			s.logger.Error("failed to delete stored event", zap.String("event_id", id), zap.Error(err))
		}
	}
	s.logger.Info("deleted series", zap.String("event_id", eventID), zap.String("series_id", target))
	return nil
}

// OccurrenceResult is the outcome of deleting one date.
type OccurrenceResult struct {
	Date    models.Date  `json:"date"`
	Deleted bool         `json:"deleted"`
	Error   string       `json:"error,omitempty"`
	Kind    errkind.Kind `json:"kind,omitempty"`
}

// DeleteOccurrences removes single dates from a series. The series and its
// local row stay; each removed date is recorded as an exception.
func (s *Service) DeleteOccurrences(ctx context.Context, sess *session.Session, eventID string, dates []models.Date) ([]OccurrenceResult, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: no dates given", errkind.ErrInvalid)
	}
	current, err := s.Get(ctx, sess, eventID)
	if err != nil {
		return nil, err
	}
	p, err := s.provider(ctx, sess, current.Provider)
	if err != nil {
		return nil, err
	}

	results := make([]OccurrenceResult, 0, len(dates))
	for _, d := range dates {
		res := OccurrenceResult{Date: d}
		if d.Before(current.StartDate) || d.After(current.EndDate) {
			res.Error = fmt.Sprintf("%s is outside %s..%s", d, current.StartDate, current.EndDate)
			res.Kind = errkind.Invalid
			results = append(results, res)
			continue
		}

		if err := p.DeleteInstance(ctx, eventID, d, s.loc); err != nil {
			res.Error = err.Error()
			res.Kind = errkind.Of(err)
			results = append(results, res)
			if res.Kind == errkind.AuthExpired {
				return results, err
			}
			continue
		}
		res.Deleted = true
		if s.occurrences != nil {
			if _, err := s.occurrences.RecordDeleted(ctx, eventID, d); err != nil && !isNotFound(err) {
				s.logger.Error("failed to record deleted occurrence",
					zap.String("event_id", eventID), zap.String("date", d.String()), zap.Error(err))
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// Occurrence is one meeting of a class.
type Occurrence struct {
	Date    models.Date `json:"date"`
	Deleted bool        `json:"deleted"`
}

// Occurrences expands the event's rule and marks the dates removed from it.
func (s *Service) Occurrences(ctx context.Context, sess *session.Session, eventID string) ([]Occurrence, error) {
	ev, err := s.Get(ctx, sess, eventID)
	if err != nil {
		return nil, err
	}

	dates := []models.Date{ev.StartDate}
	if ev.RecurrenceRule != "" {
		times, err := rrule.Occurrences(ev.RecurrenceRule, ev.StartDate.At(0, 0, s.loc))
		if err != nil {
			return nil, err
		}
		dates = dates[:0]
		for _, t := range times {
			dates = append(dates, models.DateOf(t))
		}
	}

	deleted := map[string]bool{}
	if s.occurrences != nil {
		removed, err := s.occurrences.ListDeleted(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to load deleted occurrences: %w", err)
		}
		for _, d := range removed {
			deleted[d.String()] = true
		}
	}

	out := make([]Occurrence, len(dates))
	for i, d := range dates {
		out[i] = Occurrence{Date: d, Deleted: deleted[d.String()]}
	}
	return out, nil
}

// DeletedDates lists the recorded exceptions of an event.
func (s *Service) DeletedDates(ctx context.Context, eventID string) ([]models.Date, error) {
	if s.occurrences == nil {
		return nil, nil
	}
	return s.occurrences.ListDeleted(ctx, eventID)
}
