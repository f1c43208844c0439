package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/forgehex/hexwar/api/internal/model"
)

// BattleRepo handles battle record database operations.
type BattleRepo struct {
	db *sql.DB
}

// NewBattleRepo creates a BattleRepo.
func NewBattleRepo(db *sql.DB) *BattleRepo {
	return &BattleRepo{db: db}
}

// Create inserts a new battle record in "pending" status.
func (r *BattleRepo) Create(ctx context.Context, attackerBoard, defenderBoard, attackerControl, defenderControl string, seed int64) (*model.BattleRecord, error) {
	var b model.BattleRecord
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO battles (attacker_board, defender_board, attacker_control, defender_control, seed)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, attacker_board, defender_board, attacker_control, defender_control, status, seed, created_at`,
		attackerBoard, defenderBoard, attackerControl, defenderControl, seed,
	).Scan(&b.ID, &b.AttackerBoard, &b.DefenderBoard, &b.AttackerControl, &b.DefenderControl, &b.Status, &b.Seed, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create battle: %w", err)
	}
	return &b, nil
}

// FindByID returns a battle record by ID.
func (r *BattleRepo) FindByID(ctx context.Context, id string) (*model.BattleRecord, error) {
	var b model.BattleRecord
	var outcome sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, attacker_board, defender_board, attacker_control, defender_control, status, outcome, turns,
		        seed, created_at, started_at, finished_at
		 FROM battles WHERE id = $1`, id,
	).Scan(&b.ID, &b.AttackerBoard, &b.DefenderBoard, &b.AttackerControl, &b.DefenderControl, &b.Status, &outcome,
		&b.Turns, &b.Seed, &b.CreatedAt, &b.StartedAt, &b.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find battle: %w", err)
	}
	b.Outcome = outcome.String
	return &b, nil
}

// ListActive returns battles currently in progress.
func (r *BattleRepo) ListActive(ctx context.Context) ([]model.BattleRecord, error) {
	return r.listByStatus(ctx, "active", 50)
}

// ListFinished returns finished battles, most recent first.
func (r *BattleRepo) ListFinished(ctx context.Context) ([]model.BattleRecord, error) {
	return r.listByStatus(ctx, "finished", 100)
}

func (r *BattleRepo) listByStatus(ctx context.Context, status string, limit int) ([]model.BattleRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, attacker_board, defender_board, attacker_control, defender_control, status, seed, created_at
		 FROM battles WHERE status = $1 ORDER BY created_at DESC LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list battles by status: %w", err)
	}
	defer rows.Close()

	var battles []model.BattleRecord
	for rows.Next() {
		var b model.BattleRecord
		if err := rows.Scan(&b.ID, &b.AttackerBoard, &b.DefenderBoard, &b.AttackerControl, &b.DefenderControl, &b.Status, &b.Seed, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan battle: %w", err)
		}
		battles = append(battles, b)
	}
	return battles, rows.Err()
}

// SetActive marks a pending battle as active, stamping started_at.
func (r *BattleRepo) SetActive(ctx context.Context, battleID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE battles SET status = 'active', started_at = now() WHERE id = $1`, battleID,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	return nil
}

// SetFinished marks a battle as finished with its terminal outcome.
func (r *BattleRepo) SetFinished(ctx context.Context, battleID, outcome string, turns int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE battles SET status = 'finished', outcome = $1, turns = $2, finished_at = now() WHERE id = $3`,
		outcome, turns, battleID,
	)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return nil
}

// Delete removes a battle and its associated command log/messages (cascades).
func (r *BattleRepo) Delete(ctx context.Context, battleID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM battles WHERE id = $1`, battleID)
	if err != nil {
		return fmt.Errorf("delete battle: %w", err)
	}
	return nil
}
