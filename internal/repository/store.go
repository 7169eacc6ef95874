package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hray3182/ClassSync/internal/models"
)

var (
	// ErrDuplicateKey means a row with the same event id is already recorded.
	// It is a signal, not a failure: the existing row is left unchanged.
	ErrDuplicateKey = errors.New("event already recorded")
	ErrNotFound     = errors.New("not found")
)

// Filter narrows GetAll. Zero values match everything.
type Filter struct {
	UserID   string
	Provider string
}

func (f Filter) matches(ev *models.ScheduledEvent) bool {
	if f.UserID != "" && ev.UserID != f.UserID {
		return false
	}
	if f.Provider != "" && ev.Provider != f.Provider {
		return false
	}
	return true
}

// EventStore is the durable cache of created events.
type EventStore interface {
	Put(ctx context.Context, event *models.ScheduledEvent) error
	Get(ctx context.Context, eventID string) (*models.ScheduledEvent, error)
	GetAll(ctx context.Context, filter Filter) ([]*models.ScheduledEvent, error)
	Update(ctx context.Context, eventID string, patch models.EventPatch) error
	Delete(ctx context.Context, eventID string) error
	Count(ctx context.Context) (int, error)
}

// OccurrenceStore records single occurrences removed from a series.
type OccurrenceStore interface {
	RecordDeleted(ctx context.Context, eventID string, date models.Date) (bool, error)
	ListDeleted(ctx context.Context, eventID string) ([]models.Date, error)
}

// UserStore keeps authenticated principals for multi-user mode.
type UserStore interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateName(ctx context.Context, email, name string) error
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
