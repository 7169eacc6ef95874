// Package calendar talks to the remote calendar services. Each provider is
// bound to one user's OAuth client and is created per request.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hray3182/ClassSync/internal/models"
	"github.com/hray3182/ClassSync/internal/rrule"
)

// Provider names as stored in ScheduledEvent.Provider.
const (
	ProviderGoogle  = "google"
	ProviderOutlook = "outlook"
)

// DefaultTimeout bounds every remote attempt.
const DefaultTimeout = 10 * time.Second

// EventSpec is what we send to and read back from a provider. Start and End
// are the first occurrence. Recurrence is an RRULE line or empty.
type EventSpec struct {
	Summary          string
	Location         string
	Description      string
	Start            time.Time
	End              time.Time
	TimeZone         string
	Recurrence       string
	Reminders        []int
	RecurringEventID string
	HTMLLink         string
}

// Instance is one expanded occurrence of a series.
type Instance struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Identity is the signed-in account behind a provider client.
type Identity struct {
	Email string
	Name  string
}

type Provider interface {
	Name() string
	RecurrenceShape() rrule.Shape
	Create(ctx context.Context, spec EventSpec) (string, error)
	Update(ctx context.Context, eventID string, spec EventSpec) error
	Delete(ctx context.Context, eventID string) error
	Get(ctx context.Context, eventID string) (*EventSpec, error)
	ListInstances(ctx context.Context, seriesID string, from, to time.Time) ([]Instance, error)
	DeleteInstance(ctx context.Context, seriesID string, date models.Date, loc *time.Location) error
	Whoami(ctx context.Context) (Identity, error)
}

// nativeRecurrence decodes spec.Recurrence for shape. A rule with an
// unsupported frequency yields a nil target so the event is created once.
func nativeRecurrence(shape rrule.Shape, spec EventSpec, logger *zap.Logger) (rrule.Target, error) {
	if spec.Recurrence == "" {
		return nil, nil
	}
	target, err := rrule.Decode(spec.Recurrence, shape, models.DateOf(spec.Start))
	if errors.Is(err, rrule.ErrUnsupportedFrequency) {
		logger.Warn("creating single event for unsupported recurrence",
			zap.String("rule", spec.Recurrence), zap.Error(err))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence: %w", err)
	}
	return target, nil
}

// findInstanceOn returns the instance that starts on date in loc.
func findInstanceOn(instances []Instance, date models.Date, loc *time.Location) (Instance, bool) {
	for _, in := range instances {
		if models.DateOf(in.Start.In(loc)).Equal(date) {
			return in, true
		}
	}
	return Instance{}, false
}

// dayWindow spans date in loc, padded a day each side for providers that
// filter on UTC boundaries.
func dayWindow(date models.Date, loc *time.Location) (time.Time, time.Time) {
	start := date.At(0, 0, loc)
	return start.AddDate(0, 0, -1), start.AddDate(0, 0, 2)
}

func reminderMinutes(reminders []int) []int {
	out := make([]int, 0, len(reminders))
	seen := make(map[int]bool)
	for _, m := range reminders {
		if m < 0 || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
