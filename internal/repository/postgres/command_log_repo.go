package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/forgehex/hexwar/api/internal/model"
)

// CommandLogRepo persists each battle's resolved command log.
type CommandLogRepo struct {
	db *sql.DB
}

// NewCommandLogRepo creates a CommandLogRepo.
func NewCommandLogRepo(db *sql.DB) *CommandLogRepo {
	return &CommandLogRepo{db: db}
}

// AppendCommands inserts a batch of resolved commands for a battle.
func (r *CommandLogRepo) AppendCommands(ctx context.Context, battleID string, rows []model.BattleCommandRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO battle_commands (battle_id, turn, kind, payload, accepted, reason, damage, killed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("prepare insert command: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx, battleID, row.Turn, row.Kind, row.Payload, row.Accepted,
			nullStr(row.Reason), row.Damage, row.Killed)
		if err != nil {
			return fmt.Errorf("insert command: %w", err)
		}
	}
	return tx.Commit()
}

// CommandsByBattle returns every logged command for a battle in order.
func (r *CommandLogRepo) CommandsByBattle(ctx context.Context, battleID string) ([]model.BattleCommandRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, battle_id, turn, kind, payload, accepted, reason, damage, killed, created_at
		 FROM battle_commands WHERE battle_id = $1 ORDER BY created_at`, battleID,
	)
	if err != nil {
		return nil, fmt.Errorf("commands by battle: %w", err)
	}
	defer rows.Close()

	var out []model.BattleCommandRow
	for rows.Next() {
		var c model.BattleCommandRow
		var reason sql.NullString
		if err := rows.Scan(&c.ID, &c.BattleID, &c.Turn, &c.Kind, &c.Payload, &c.Accepted, &reason, &c.Damage, &c.Killed, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		c.Reason = reason.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
