package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hray3182/ClassSync/internal/calendar"
	"github.com/hray3182/ClassSync/internal/errkind"
	"github.com/hray3182/ClassSync/internal/models"
	"github.com/hray3182/ClassSync/internal/repository"
	"github.com/hray3182/ClassSync/internal/session"
)

// ClassInput is one row of the schedule form.
type ClassInput struct {
	ClassName string   `json:"class_name"`
	Location  string   `json:"location"`
	Days      []string `json:"days"`
	TimeSlot  string   `json:"time_slot"`
}

// PushRequest creates one recurring event per class. When Semester is set
// and the dates are zero, the semester preset supplies the range.
type PushRequest struct {
	Provider  string       `json:"provider"`
	Semester  string       `json:"semester,omitempty"`
	StartDate models.Date  `json:"start_date"`
	EndDate   models.Date  `json:"end_date"`
	Reminders []int        `json:"reminders,omitempty"`
	Classes   []ClassInput `json:"classes"`
}

// ClassResult is the outcome for one class. Exactly one of Event and Error
// is set.
type ClassResult struct {
	ClassName string                 `json:"class_name"`
	Event     *models.ScheduledEvent `json:"event,omitempty"`
	Stored    bool                   `json:"stored"`
	Error     string                 `json:"error,omitempty"`
	Kind      errkind.Kind           `json:"kind,omitempty"`
	Attempts  []calendar.Attempt     `json:"attempts,omitempty"`
}

type PushSummary struct {
	Provider  string        `json:"provider"`
	StartDate models.Date   `json:"start_date"`
	EndDate   models.Date   `json:"end_date"`
	Results   []ClassResult `json:"results"`
	Created   int           `json:"created"`
	Failed    int           `json:"failed"`
}

// Push creates every class independently; one failing class does not stop
// the others. The returned error covers request-level problems only.
func (s *Service) Push(ctx context.Context, sess *session.Session, req PushRequest) (*PushSummary, error) {
	if len(req.Classes) == 0 {
		return nil, fmt.Errorf("%w: no classes given", errkind.ErrInvalid)
	}
	start, end, err := s.resolveRange(req)
	if err != nil {
		return nil, err
	}

	p, err := s.provider(ctx, sess, req.Provider)
	if err != nil {
		return nil, err
	}

	summary := &PushSummary{Provider: p.Name(), StartDate: start, EndDate: end}
	for _, class := range req.Classes {
		res := ClassResult{ClassName: strings.TrimSpace(class.ClassName)}
		ev, stored, err := s.createClass(ctx, sess, p, start, end, req.Reminders, class)
		if err != nil {
			res.Error = err.Error()
			res.Kind = errkind.Of(err)
			res.Attempts = errkind.Attempts(err)
			summary.Failed++
			s.logger.Warn("class not created",
				zap.String("class", res.ClassName), zap.String("kind", string(res.Kind)), zap.Error(err))
			// Nothing else will succeed without a fresh sign-in.
			if errors.Is(err, calendar.ErrAuthExpired) {
				summary.Results = append(summary.Results, res)
				return summary, err
			}
		} else {
			res.Event = ev
			res.Stored = stored
			summary.Created++
		}
		summary.Results = append(summary.Results, res)
	}

	s.logger.Info("pushed schedule",
		zap.String("provider", summary.Provider),
		zap.Int("created", summary.Created),
		zap.Int("failed", summary.Failed))

	if s.notifier != nil {
		if err := s.notifier.NotifyPush(ctx, *summary); err != nil {
			s.logger.Warn("push notification failed", zap.Error(err))
		}
	}
	return summary, nil
}

func (s *Service) resolveRange(req PushRequest) (models.Date, models.Date, error) {
	start, end := req.StartDate, req.EndDate
	if req.Semester != "" && start.IsZero() && end.IsZero() {
		from, to, err := s.catalog.SemesterRange(req.Semester, s.Today())
		if err != nil {
			return models.Date{}, models.Date{}, fmt.Errorf("%w: %v", errkind.ErrInvalid, err)
		}
		return from, to, nil
	}
	if start.IsZero() || end.IsZero() {
		return models.Date{}, models.Date{}, fmt.Errorf("%w: start_date and end_date are required", errkind.ErrInvalid)
	}
	if start.After(end) {
		return models.Date{}, models.Date{}, fmt.Errorf("%w: start_date %s is after end_date %s", errkind.ErrInvalid, start, end)
	}
	return start, end, nil
}

// createClass validates, encodes, creates remotely, then records the event
// in the session and the durable table. A durable failure is logged and
// reported through stored=false; the remote event exists either way.
func (s *Service) createClass(ctx context.Context, sess *session.Session, p calendar.Provider,
	start, end models.Date, reminders []int, in ClassInput) (*models.ScheduledEvent, bool, error) {
	name := strings.TrimSpace(in.ClassName)
	if name == "" {
		return nil, false, fmt.Errorf("%w: class name is required", errkind.ErrInvalid)
	}
	loc, err := ValidateLocation(in.Location, s.catalog.Buildings)
	if err != nil {
		return nil, false, err
	}
	days, err := models.ParseWeekdays(in.Days)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", errkind.ErrInvalid, err)
	}

	first, rule, err := encode(start, end, days)
	if err != nil {
		return nil, false, err
	}

	ev := &models.ScheduledEvent{
		UserID:         sess.UserID(),
		Provider:       p.Name(),
		ClassName:      name,
		Location:       loc.String(),
		TimeSlot:       strings.TrimSpace(in.TimeSlot),
		Days:           days,
		StartDate:      first,
		RangeStart:     start,
		EndDate:        end,
		RecurrenceRule: rule,
		CreatedAt:      s.now(),
	}
	spec, err := s.buildSpec(ev, loc, reminders)
	if err != nil {
		return nil, false, err
	}

	id, err := p.Create(ctx, spec)
	if err != nil {
		return nil, false, fmt.Errorf("class %s: %w", name, err)
	}
	ev.EventID = id
	sess.AddEvent(ev)

	stored := true
	if err := s.events.Put(ctx, ev); err != nil {
		stored = false
		if errors.Is(err, repository.ErrDuplicateKey) {
			s.logger.Info("event already recorded", zap.String("event_id", id))
		} else {
			s.logger.Error("failed to store event", zap.String("event_id", id), zap.Error(err))
		}
	}
	return ev, stored, nil
}
