package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/hray3182/ClassSync/internal/models"
	"github.com/hray3182/ClassSync/internal/rrule"
)

const (
	DefaultGraphURL = "https://graph.microsoft.com/v1.0"
	graphTimeLayout = "2006-01-02T15:04:05.9999999"
)

// createEndpoints are tried in order when creating an event.
var createEndpoints = []string{"/me/events", "/me/calendar/events"}

// Outlook implements Provider on Microsoft Graph. Recurrence is sent as a
// pattern/range object.
type Outlook struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

func NewOutlook(client *http.Client, baseURL string, timeout time.Duration, logger *zap.Logger) *Outlook {
	if baseURL == "" {
		baseURL = DefaultGraphURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Outlook{
		client:  client,
		baseURL: baseURL,
		timeout: timeout,
		logger:  logger.With(zap.String("provider", ProviderOutlook)),
	}
}

func (o *Outlook) Name() string                 { return ProviderOutlook }
func (o *Outlook) RecurrenceShape() rrule.Shape { return rrule.ShapePatternRange }

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphLocation struct {
	DisplayName string `json:"displayName"`
}

type graphBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphEvent struct {
	ID                         string              `json:"id,omitempty"`
	Subject                    string              `json:"subject,omitempty"`
	Body                       *graphBody          `json:"body,omitempty"`
	Start                      *graphDateTime      `json:"start,omitempty"`
	End                        *graphDateTime      `json:"end,omitempty"`
	Location                   *graphLocation      `json:"location,omitempty"`
	Recurrence                 *rrule.PatternRange `json:"recurrence,omitempty"`
	IsReminderOn               *bool               `json:"isReminderOn,omitempty"`
	ReminderMinutesBeforeStart *int                `json:"reminderMinutesBeforeStart,omitempty"`
	SeriesMasterID             string              `json:"seriesMasterId,omitempty"`
	WebLink                    string              `json:"webLink,omitempty"`
	IsCancelled                bool                `json:"isCancelled,omitempty"`
}

type graphUser struct {
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Create posts to each create endpoint in turn and returns the first id.
func (o *Outlook) Create(ctx context.Context, spec EventSpec) (string, error) {
	body, err := o.toEvent(spec)
	if err != nil {
		return "", err
	}

	created, err := tryEach(ctx, "create event", o.timeout, createEndpoints,
		func(ctx context.Context, endpoint string) (graphEvent, error) {
			var out graphEvent
			err := o.do(ctx, http.MethodPost, endpoint, body, &out)
			if err == nil && out.ID == "" {
				err = &StatusError{Code: http.StatusOK, Message: "response carried no event id"}
			}
			return out, err
		})
	if err != nil {
		o.logger.Warn("create failed", zap.String("summary", spec.Summary), zap.Error(err))
		return "", err
	}
	o.logger.Info("created event", zap.String("event_id", created.ID), zap.String("summary", spec.Summary))
	return created.ID, nil
}

func (o *Outlook) Update(ctx context.Context, eventID string, spec EventSpec) error {
	body, err := o.toEvent(spec)
	if err != nil {
		return err
	}
	path := "/me/events/" + url.PathEscape(eventID)
	err = withTimeout(ctx, o.timeout, func(ctx context.Context) error {
		return o.do(ctx, http.MethodPatch, path, body, nil)
	})
	return classify("update event", path, err)
}

func (o *Outlook) Delete(ctx context.Context, eventID string) error {
	path := "/me/events/" + url.PathEscape(eventID)
	err := withTimeout(ctx, o.timeout, func(ctx context.Context) error {
		return o.do(ctx, http.MethodDelete, path, nil, nil)
	})
	return classify("delete event", path, err)
}

// Get reads an event back. Graph returns recurrence as a pattern object; it
// is not converted back to a rule, so Recurrence is left empty.
func (o *Outlook) Get(ctx context.Context, eventID string) (*EventSpec, error) {
	path := "/me/events/" + url.PathEscape(eventID)
	var ev graphEvent
	err := withTimeout(ctx, o.timeout, func(ctx context.Context) error {
		return o.do(ctx, http.MethodGet, path, nil, &ev)
	})
	if err := classify("get event", path, err); err != nil {
		return nil, err
	}

	spec := &EventSpec{
		Summary:          ev.Subject,
		RecurringEventID: ev.SeriesMasterID,
		HTMLLink:         ev.WebLink,
	}
	if ev.Location != nil {
		spec.Location = ev.Location.DisplayName
	}
	if ev.Body != nil {
		spec.Description = ev.Body.Content
	}
	if ev.Start != nil {
		spec.Start, _ = parseGraphTime(*ev.Start)
		spec.TimeZone = ev.Start.TimeZone
	}
	if ev.End != nil {
		spec.End, _ = parseGraphTime(*ev.End)
	}
	if ev.ReminderMinutesBeforeStart != nil && (ev.IsReminderOn == nil || *ev.IsReminderOn) {
		spec.Reminders = []int{*ev.ReminderMinutesBeforeStart}
	}
	return spec, nil
}

func (o *Outlook) ListInstances(ctx context.Context, seriesID string, from, to time.Time) ([]Instance, error) {
	q := url.Values{}
	q.Set("startDateTime", from.UTC().Format(time.RFC3339))
	q.Set("endDateTime", to.UTC().Format(time.RFC3339))
	path := "/me/events/" + url.PathEscape(seriesID) + "/instances?" + q.Encode()

	var instances []Instance
	err := withTimeout(ctx, o.timeout, func(ctx context.Context) error {
		next := path
		for next != "" {
			var page struct {
				Value    []graphEvent `json:"value"`
				NextLink string       `json:"@odata.nextLink"`
			}
			if err := o.do(ctx, http.MethodGet, next, nil, &page); err != nil {
				return err
			}
			for _, ev := range page.Value {
				if ev.IsCancelled || ev.Start == nil {
					continue
				}
				in := Instance{ID: ev.ID}
				in.Start, _ = parseGraphTime(*ev.Start)
				if ev.End != nil {
					in.End, _ = parseGraphTime(*ev.End)
				}
				instances = append(instances, in)
			}
			next = page.NextLink
		}
		return nil
	})
	if err := classify("list instances", path, err); err != nil {
		return nil, err
	}
	return instances, nil
}

func (o *Outlook) DeleteInstance(ctx context.Context, seriesID string, date models.Date, loc *time.Location) error {
	from, to := dayWindow(date, loc)
	instances, err := o.ListInstances(ctx, seriesID, from, to)
	if err != nil {
		return err
	}
	in, ok := findInstanceOn(instances, date, loc)
	if !ok {
		return fmt.Errorf("no occurrence of %s on %s: %w", seriesID, date, ErrNotFound)
	}
	if err := o.Delete(ctx, in.ID); err != nil {
		return err
	}
	o.logger.Info("deleted occurrence", zap.String("event_id", seriesID), zap.String("date", date.String()))
	return nil
}

func (o *Outlook) Whoami(ctx context.Context) (Identity, error) {
	var me graphUser
	err := withTimeout(ctx, o.timeout, func(ctx context.Context) error {
		return o.do(ctx, http.MethodGet, "/me", nil, &me)
	})
	if err := classify("get profile", "/me", err); err != nil {
		return Identity{}, err
	}
	email := me.Mail
	if email == "" {
		email = me.UserPrincipalName
	}
	return Identity{Email: email, Name: me.DisplayName}, nil
}

func (o *Outlook) toEvent(spec EventSpec) (*graphEvent, error) {
	tz := spec.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	ev := &graphEvent{
		Subject: spec.Summary,
		Start:   &graphDateTime{DateTime: spec.Start.Format("2006-01-02T15:04:05"), TimeZone: tz},
		End:     &graphDateTime{DateTime: spec.End.Format("2006-01-02T15:04:05"), TimeZone: tz},
	}
	if spec.Description != "" {
		ev.Body = &graphBody{ContentType: "text", Content: spec.Description}
	}
	if spec.Location != "" {
		ev.Location = &graphLocation{DisplayName: spec.Location}
	}

	// Graph keeps a single reminder per event; the earliest one wins.
	if mins := reminderMinutes(spec.Reminders); len(mins) > 0 {
		earliest := mins[0]
		for _, m := range mins[1:] {
			earliest = max(earliest, m)
		}
		on := true
		ev.IsReminderOn = &on
		ev.ReminderMinutesBeforeStart = &earliest
	}

	target, err := nativeRecurrence(o.RecurrenceShape(), spec, o.logger)
	if err != nil {
		return nil, err
	}
	if pr, ok := target.(*rrule.PatternRange); ok {
		ev.Recurrence = pr
	}
	return ev, nil
}

// do sends one request. path is relative to baseURL unless it is absolute,
// as Graph next links are.
func (o *Outlook) do(ctx context.Context, method, path string, in, out any) error {
	target := path
	if u, err := url.Parse(path); err != nil || !u.IsAbs() {
		target = o.baseURL + path
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := o.client.Do(req)
	if err != nil {
		var tokenErr *oauth2.RetrieveError
		if errors.As(err, &tokenErr) {
			return fmt.Errorf("%w: %v", ErrAuthExpired, tokenErr)
		}
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Message: graphMessage(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// graphMessage prefers the message of a Graph error body over the raw text.
func graphMessage(data []byte) string {
	var e struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error.Message != "" {
		return e.Error.Code + ": " + e.Error.Message
	}
	return string(data)
}

func parseGraphTime(dt graphDateTime) (time.Time, error) {
	loc := time.UTC
	if dt.TimeZone != "" {
		if l, err := time.LoadLocation(dt.TimeZone); err == nil {
			loc = l
		}
	}
	return time.ParseInLocation(graphTimeLayout, dt.DateTime, loc)
}
