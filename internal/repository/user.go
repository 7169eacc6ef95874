package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hray3182/ClassSync/internal/database"
	"github.com/hray3182/ClassSync/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates the user or refreshes name and last_login. The stored
// user_id is written back, so a returning user keeps their original id.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO users (user_id, email, name, last_login) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, last_login = NOW()
		 RETURNING user_id, created_at, last_login`,
		user.UserID, user.Email, user.Name,
	).Scan(&user.UserID, &user.CreatedAt, &user.LastLogin)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT user_id, email, name, created_at, last_login FROM users WHERE email = $1`,
		email,
	).Scan(&user.UserID, &user.Email, &user.Name, &user.CreatedAt, &user.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateName sets the display name. A later sign-in refreshes it from the
// provider again.
func (r *UserRepository) UpdateName(ctx context.Context, email, name string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE users SET name = $2 WHERE email = $1`, email, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	return nil
}
