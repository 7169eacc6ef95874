// Package schedule turns class definitions into remote calendar events and
// keeps the session list and the durable table in step with the provider.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/hray3182/ClassSync/internal/calendar"
	"github.com/hray3182/ClassSync/internal/config"
	"github.com/hray3182/ClassSync/internal/errkind"
	"github.com/hray3182/ClassSync/internal/models"
	"github.com/hray3182/ClassSync/internal/reconcile"
	"github.com/hray3182/ClassSync/internal/repository"
	"github.com/hray3182/ClassSync/internal/rrule"
	"github.com/hray3182/ClassSync/internal/session"
)

// ProviderSource hands out a calendar provider for a user's token.
type ProviderSource interface {
	Provider(ctx context.Context, name string, tok *oauth2.Token) (calendar.Provider, error)
}

// Notifier is told about finished pushes.
type Notifier interface {
	NotifyPush(ctx context.Context, summary PushSummary) error
}

type Service struct {
	providers   ProviderSource
	events      repository.EventStore
	occurrences repository.OccurrenceStore
	users       repository.UserStore
	catalog     *config.Catalog
	loc         *time.Location
	notifier    Notifier
	logger      *zap.Logger
	now         func() time.Time
}

type Options struct {
	Providers   ProviderSource
	Events      repository.EventStore
	Occurrences repository.OccurrenceStore
	Users       repository.UserStore
	Catalog     *config.Catalog
	Notifier    Notifier
	Logger      *zap.Logger
}

func NewService(opts Options) *Service {
	if opts.Catalog == nil {
		opts.Catalog = config.DefaultCatalog()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		providers:   opts.Providers,
		events:      opts.Events,
		occurrences: opts.Occurrences,
		users:       opts.Users,
		catalog:     opts.Catalog,
		loc:         opts.Catalog.Location(),
		notifier:    opts.Notifier,
		logger:      opts.Logger,
		now:         time.Now,
	}
}

func (s *Service) Catalog() *config.Catalog { return s.catalog }

// Today is the current date in the catalog time zone.
func (s *Service) Today() models.Date {
	return models.DateOf(s.now().In(s.loc))
}

func (s *Service) provider(ctx context.Context, sess *session.Session, name string) (calendar.Provider, error) {
	return s.providers.Provider(ctx, name, sess.Token(name))
}

// SignIn stores tok on the session and records the account behind it.
func (s *Service) SignIn(ctx context.Context, sess *session.Session, providerName string, tok *oauth2.Token) (*models.User, error) {
	sess.SetToken(providerName, tok)

	p, err := s.provider(ctx, sess, providerName)
	if err != nil {
		return nil, err
	}
	id, err := p.Whoami(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read account: %w", err)
	}

	user := &models.User{UserID: newUserID(), Email: strings.ToLower(id.Email), Name: id.Name}
	if s.users != nil && user.Email != "" {
		if err := s.users.Upsert(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to save user: %w", err)
		}
	}
	sess.SetUser(user.UserID, user.Email)
	s.logger.Info("signed in", zap.String("provider", providerName), zap.String("user_id", user.UserID))
	return user, nil
}

// Profile returns the stored account behind the session.
func (s *Service) Profile(ctx context.Context, sess *session.Session) (*models.User, error) {
	if sess.UserID() == "" {
		return nil, fmt.Errorf("profile: %w", calendar.ErrAuthExpired)
	}
	email := sess.Email()
	if s.users == nil || email == "" {
		return nil, fmt.Errorf("profile of %s: %w", sess.UserID(), repository.ErrNotFound)
	}
	return s.users.GetByEmail(ctx, email)
}

// Rename changes the display name of the session's account.
func (s *Service) Rename(ctx context.Context, sess *session.Session, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", errkind.ErrInvalid)
	}
	if _, err := s.Profile(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.users.UpdateName(ctx, sess.Email(), name); err != nil {
		return nil, fmt.Errorf("failed to rename user: %w", err)
	}
	s.logger.Info("renamed user", zap.String("user_id", sess.UserID()))
	return s.Profile(ctx, sess)
}

// List merges the session's events over the durable rows of the session user.
func (s *Service) List(ctx context.Context, sess *session.Session) ([]*models.ScheduledEvent, error) {
	durable, err := s.events.GetAll(ctx, repository.Filter{UserID: sess.UserID()})
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return reconcile.Merge(sess.Events(), durable), nil
}

// Get finds one event, preferring the session copy.
func (s *Service) Get(ctx context.Context, sess *session.Session, eventID string) (*models.ScheduledEvent, error) {
	for _, ev := range sess.Events() {
		if ev.EventID == eventID {
			return ev, nil
		}
	}
	ev, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if uid := sess.UserID(); uid != "" && ev.UserID != "" && ev.UserID != uid {
		return nil, fmt.Errorf("event %s: %w", eventID, repository.ErrNotFound)
	}
	return ev, nil
}

// SyncStatus reports which ids live only in the session or only in the table.
func (s *Service) SyncStatus(ctx context.Context, sess *session.Session) (reconcile.Report, error) {
	durable, err := s.events.GetAll(ctx, repository.Filter{UserID: sess.UserID()})
	if err != nil {
		return reconcile.Report{}, fmt.Errorf("failed to load events: %w", err)
	}
	return reconcile.Diff(sess.Events(), durable), nil
}

// Stats counts the durable table as a whole, the session list, and the
// merged view the session sees.
type Stats struct {
	TotalEvents   int `json:"total_events"`
	SessionEvents int `json:"session_events"`
	VisibleEvents int `json:"visible_events"`
}

func (s *Service) Stats(ctx context.Context, sess *session.Session) (Stats, error) {
	total, err := s.events.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count events: %w", err)
	}
	merged, err := s.List(ctx, sess)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalEvents:   total,
		SessionEvents: len(sess.Events()),
		VisibleEvents: len(merged),
	}, nil
}

// buildSpec derives the remote event for ev: first meeting at the time slot
// in the catalog zone, recurring per ev.RecurrenceRule.
func (s *Service) buildSpec(ev *models.ScheduledEvent, loc Location, reminders []int) (calendar.EventSpec, error) {
	slot, err := calendar.ParseTimeSlot(ev.TimeSlot)
	if err != nil {
		return calendar.EventSpec{}, fmt.Errorf("%w: %v", errkind.ErrInvalid, err)
	}
	start, end := slot.On(ev.StartDate, s.loc)

	spec := calendar.EventSpec{
		Summary:    ev.ClassName,
		Location:   loc.String(),
		Start:      start,
		End:        end,
		TimeZone:   s.catalog.Timezone,
		Recurrence: ev.RecurrenceRule,
		Reminders:  append(append([]int(nil), s.catalog.DefaultReminders...), reminders...),
	}
	if loc.Building != "" {
		spec.Description = loc.Building
	}
	return spec, nil
}

// encode derives first occurrence and rule for a date range. A range of one
// day is a single event with no rule.
func encode(start, end models.Date, days models.Weekdays) (models.Date, string, error) {
	if start.Equal(end) {
		first, err := rrule.FirstOccurrence(start, end, days)
		return first, "", err
	}
	enc, err := rrule.Encode(start, end, days)
	if err != nil {
		return models.Date{}, "", err
	}
	return enc.FirstOccurrence, enc.Rule, nil
}

func newUserID() string { return uuid.NewString() }

func isNotFound(err error) bool {
	return errors.Is(err, calendar.ErrNotFound) || errors.Is(err, repository.ErrNotFound)
}
