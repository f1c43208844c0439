package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/forgehex/hexwar/api/internal/model"
)

// UserRepo handles human-controller database operations.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// FindByID looks up a user by their UUID.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name, created_at, updated_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &u, nil
}

// Upsert creates a new user or updates the display name if it already exists.
func (r *UserRepo) Upsert(ctx context.Context, id, displayName string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, display_name)
		 VALUES ($1, $2)
		 ON CONFLICT (id)
		 DO UPDATE SET display_name = EXCLUDED.display_name, updated_at = now()
		 RETURNING id, display_name, created_at, updated_at`,
		id, displayName,
	).Scan(&u.ID, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}
