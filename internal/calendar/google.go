package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/hray3182/ClassSync/internal/models"
	"github.com/hray3182/ClassSync/internal/rrule"
)

// GoogleOptions overrides endpoints, mainly for tests.
type GoogleOptions struct {
	CalendarID       string
	CalendarEndpoint string
	UserinfoEndpoint string
	Timeout          time.Duration
}

// Google implements Provider on the Calendar v3 API. Recurrence is sent as
// RFC 5545 text.
type Google struct {
	events     *gcal.Service
	users      *goauth2.Service
	calendarID string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewGoogle builds a provider around an authorized http client.
func NewGoogle(ctx context.Context, client *http.Client, opts GoogleOptions, logger *zap.Logger) (*Google, error) {
	calOpts := []option.ClientOption{option.WithHTTPClient(client)}
	if opts.CalendarEndpoint != "" {
		calOpts = append(calOpts, option.WithEndpoint(opts.CalendarEndpoint))
	}
	events, err := gcal.NewService(ctx, calOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	userOpts := []option.ClientOption{option.WithHTTPClient(client)}
	if opts.UserinfoEndpoint != "" {
		userOpts = append(userOpts, option.WithEndpoint(opts.UserinfoEndpoint))
	}
	users, err := goauth2.NewService(ctx, userOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}

	if opts.CalendarID == "" {
		opts.CalendarID = "primary"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Google{
		events:     events,
		users:      users,
		calendarID: opts.CalendarID,
		timeout:    opts.Timeout,
		logger:     logger.With(zap.String("provider", ProviderGoogle)),
	}, nil
}

func (g *Google) Name() string                 { return ProviderGoogle }
func (g *Google) RecurrenceShape() rrule.Shape { return rrule.ShapeRFC5545 }

func (g *Google) endpoint(path string) string {
	return "calendars/" + g.calendarID + "/events" + path
}

func (g *Google) Create(ctx context.Context, spec EventSpec) (string, error) {
	ev, err := g.toEvent(spec)
	if err != nil {
		return "", err
	}

	var created *gcal.Event
	err = withTimeout(ctx, g.timeout, func(ctx context.Context) error {
		created, err = g.events.Events.Insert(g.calendarID, ev).Context(ctx).Do()
		return googleError(err)
	})
	if err := classify("create event", g.endpoint(""), err); err != nil {
		return "", err
	}
	g.logger.Info("created event", zap.String("event_id", created.Id), zap.String("summary", spec.Summary))
	return created.Id, nil
}

func (g *Google) Update(ctx context.Context, eventID string, spec EventSpec) error {
	ev, err := g.toEvent(spec)
	if err != nil {
		return err
	}
	if len(ev.Recurrence) == 0 {
		ev.NullFields = append(ev.NullFields, "Recurrence")
	}

	err = withTimeout(ctx, g.timeout, func(ctx context.Context) error {
		_, err := g.events.Events.Patch(g.calendarID, eventID, ev).Context(ctx).Do()
		return googleError(err)
	})
	return classify("update event", g.endpoint("/"+eventID), err)
}

func (g *Google) Delete(ctx context.Context, eventID string) error {
	err := withTimeout(ctx, g.timeout, func(ctx context.Context) error {
		return googleError(g.events.Events.Delete(g.calendarID, eventID).Context(ctx).Do())
	})
	return classify("delete event", g.endpoint("/"+eventID), err)
}

func (g *Google) Get(ctx context.Context, eventID string) (*EventSpec, error) {
	var ev *gcal.Event
	err := withTimeout(ctx, g.timeout, func(ctx context.Context) error {
		var err error
		ev, err = g.events.Events.Get(g.calendarID, eventID).Context(ctx).Do()
		return googleError(err)
	})
	if err := classify("get event", g.endpoint("/"+eventID), err); err != nil {
		return nil, err
	}

	spec := &EventSpec{
		Summary:          ev.Summary,
		Location:         ev.Location,
		Description:      ev.Description,
		RecurringEventID: ev.RecurringEventId,
		HTMLLink:         ev.HtmlLink,
	}
	if ev.Start != nil {
		spec.Start, _ = parseGoogleTime(ev.Start)
		spec.TimeZone = ev.Start.TimeZone
	}
	if ev.End != nil {
		spec.End, _ = parseGoogleTime(ev.End)
	}
	for _, line := range ev.Recurrence {
		if strings.HasPrefix(line, "RRULE:") {
			spec.Recurrence = line
			break
		}
	}
	if ev.Reminders != nil {
		for _, r := range ev.Reminders.Overrides {
			spec.Reminders = append(spec.Reminders, int(r.Minutes))
		}
	}
	return spec, nil
}

func (g *Google) ListInstances(ctx context.Context, seriesID string, from, to time.Time) ([]Instance, error) {
	var instances []Instance
	err := withTimeout(ctx, g.timeout, func(ctx context.Context) error {
		call := g.events.Events.Instances(g.calendarID, seriesID).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339))
		return googleError(call.Pages(ctx, func(page *gcal.Events) error {
			for _, item := range page.Items {
				if item.Status == "cancelled" {
					continue
				}
				in := Instance{ID: item.Id}
				if item.Start != nil {
					in.Start, _ = parseGoogleTime(item.Start)
				}
				if item.End != nil {
					in.End, _ = parseGoogleTime(item.End)
				}
				instances = append(instances, in)
			}
			return nil
		}))
	})
	if err := classify("list instances", g.endpoint("/"+seriesID+"/instances"), err); err != nil {
		return nil, err
	}
	return instances, nil
}

// DeleteInstance removes the single occurrence of seriesID that falls on date.
func (g *Google) DeleteInstance(ctx context.Context, seriesID string, date models.Date, loc *time.Location) error {
	from, to := dayWindow(date, loc)
	instances, err := g.ListInstances(ctx, seriesID, from, to)
	if err != nil {
		return err
	}
	in, ok := findInstanceOn(instances, date, loc)
	if !ok {
		return fmt.Errorf("no occurrence of %s on %s: %w", seriesID, date, ErrNotFound)
	}
	if err := g.Delete(ctx, in.ID); err != nil {
		return err
	}
	g.logger.Info("deleted occurrence", zap.String("event_id", seriesID), zap.String("date", date.String()))
	return nil
}

func (g *Google) Whoami(ctx context.Context) (Identity, error) {
	var info *goauth2.Userinfo
	err := withTimeout(ctx, g.timeout, func(ctx context.Context) error {
		var err error
		info, err = g.users.Userinfo.Get().Context(ctx).Do()
		return googleError(err)
	})
	if err := classify("get userinfo", "userinfo", err); err != nil {
		return Identity{}, err
	}
	return Identity{Email: info.Email, Name: info.Name}, nil
}

func (g *Google) toEvent(spec EventSpec) (*gcal.Event, error) {
	ev := &gcal.Event{
		Summary:     spec.Summary,
		Location:    spec.Location,
		Description: spec.Description,
		Start:       &gcal.EventDateTime{DateTime: spec.Start.Format(time.RFC3339), TimeZone: spec.TimeZone},
		End:         &gcal.EventDateTime{DateTime: spec.End.Format(time.RFC3339), TimeZone: spec.TimeZone},
		Reminders:   &gcal.EventReminders{UseDefault: false, ForceSendFields: []string{"UseDefault"}},
	}
	for _, m := range reminderMinutes(spec.Reminders) {
		ev.Reminders.Overrides = append(ev.Reminders.Overrides, &gcal.EventReminder{Method: "popup", Minutes: int64(m)})
	}

	target, err := nativeRecurrence(g.RecurrenceShape(), spec, g.logger)
	if err != nil {
		return nil, err
	}
	if text, ok := target.(rrule.RFC5545Text); ok {
		ev.Recurrence = []string{text.Rule}
	}
	return ev, nil
}

func parseGoogleTime(dt *gcal.EventDateTime) (time.Time, error) {
	if dt.DateTime != "" {
		return time.Parse(time.RFC3339, dt.DateTime)
	}
	return time.Parse("2006-01-02", dt.Date)
}

// googleError converts API and token errors into the package's shapes.
func googleError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &StatusError{Code: apiErr.Code, Message: apiErr.Message}
	}
	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		return fmt.Errorf("%w: %v", ErrAuthExpired, tokenErr)
	}
	return err
}
