package repository

import (
	"context"
	"time"

	"github.com/hray3182/ClassSync/internal/database"
	"github.com/hray3182/ClassSync/internal/models"
)

type OccurrenceRepository struct {
	db *database.DB
}

func NewOccurrenceRepository(db *database.DB) *OccurrenceRepository {
	return &OccurrenceRepository{db: db}
}

// RecordDeleted stores one removed occurrence. It reports false when the date
// was already recorded.
func (r *OccurrenceRepository) RecordDeleted(ctx context.Context, eventID string, date models.Date) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`INSERT INTO deleted_occurrences (event_id, deleted_date) VALUES ($1, $2)
		 ON CONFLICT (event_id, deleted_date) DO NOTHING`,
		eventID, date.Time,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OccurrenceRepository) ListDeleted(ctx context.Context, eventID string) ([]models.Date, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT deleted_date FROM deleted_occurrences WHERE event_id = $1 ORDER BY deleted_date ASC`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []models.Date
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, models.DateOf(d))
	}
	return dates, rows.Err()
}
