package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hray3182/ClassSync/internal/database"
	"github.com/hray3182/ClassSync/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `event_id, COALESCE(user_id, ''), provider, class_name, location, time_slot,
	days, start_date, COALESCE(range_start, start_date), end_date, recurrence_rule, created_at`

// Put inserts a new row. An existing event_id yields ErrDuplicateKey.
func (r *EventRepository) Put(ctx context.Context, event *models.ScheduledEvent) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO events (event_id, user_id, provider, class_name, location, time_slot,
		 days, start_date, range_start, end_date, recurrence_rule)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at`,
		event.EventID, event.UserID, event.Provider, event.ClassName, event.Location, event.TimeSlot,
		event.Days.String(), event.StartDate.Time, nullDate(event.RangeStart), event.EndDate.Time, event.RecurrenceRule,
	).Scan(&event.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, event.EventID)
	}
	return err
}

func (r *EventRepository) Get(ctx context.Context, eventID string) (*models.ScheduledEvent, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE event_id = $1`,
		eventID,
	)
	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	return event, err
}

func (r *EventRepository) GetAll(ctx context.Context, filter Filter) ([]*models.ScheduledEvent, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE ($1 = '' OR user_id = $1) AND ($2 = '' OR provider = $2)
		 ORDER BY created_at ASC, event_id ASC`,
		filter.UserID, filter.Provider,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.ScheduledEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Update writes only the fields set in patch.
func (r *EventRepository) Update(ctx context.Context, eventID string, patch models.EventPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.ClassName != nil {
		add("class_name", strings.TrimSpace(*patch.ClassName))
	}
	if patch.Location != nil {
		add("location", strings.TrimSpace(*patch.Location))
	}
	if patch.TimeSlot != nil {
		add("time_slot", *patch.TimeSlot)
	}
	if patch.Days != nil {
		add("days", patch.Days.Normalize().String())
	}
	if patch.StartDate != nil {
		add("start_date", patch.StartDate.Time)
	}
	if patch.RecurrenceRule != nil {
		add("recurrence_rule", *patch.RecurrenceRule)
	}
	args = append(args, eventID)

	tag, err := r.db.Pool.Exec(ctx,
		fmt.Sprintf(`UPDATE events SET %s WHERE event_id = $%d`, strings.Join(sets, ", "), len(args)),
		args...,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, eventID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM events WHERE event_id = $1`,
		eventID,
	)
	return err
}

func (r *EventRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

func scanEvent(row pgx.Row) (*models.ScheduledEvent, error) {
	var (
		event            models.ScheduledEvent
		days             string
		start, from, end time.Time
	)
	if err := row.Scan(&event.EventID, &event.UserID, &event.Provider, &event.ClassName,
		&event.Location, &event.TimeSlot, &days, &start, &from, &end, &event.RecurrenceRule,
		&event.CreatedAt); err != nil {
		return nil, err
	}

	parsed, err := models.ParseWeekdayList(days)
	if err != nil {
		return nil, fmt.Errorf("event %s has bad days column: %w", event.EventID, err)
	}
	event.Days = parsed
	event.StartDate = models.DateOf(start)
	event.RangeStart = models.DateOf(from)
	event.EndDate = models.DateOf(end)
	return &event, nil
}

// nullDate stores a zero date as NULL.
func nullDate(d models.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	return &d.Time
}
