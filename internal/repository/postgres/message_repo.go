package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/forgehex/hexwar/api/internal/model"
)

// MessageRepo handles spectator chat message database operations.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo creates a MessageRepo.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create inserts a new public message against a battle.
func (r *MessageRepo) Create(ctx context.Context, battleID, senderID, content string) (*model.Message, error) {
	var m model.Message
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO messages (battle_id, sender_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, battle_id, sender_id, content, created_at`,
		battleID, senderID, content,
	).Scan(&m.ID, &m.BattleID, &m.SenderID, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &m, nil
}

// ListByBattle returns every message posted against a battle, oldest first.
func (r *MessageRepo) ListByBattle(ctx context.Context, battleID string) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, battle_id, sender_id, content, created_at
		 FROM messages WHERE battle_id = $1 ORDER BY created_at`, battleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.BattleID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
