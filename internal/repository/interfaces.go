package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/forgehex/hexwar/api/internal/model"
)

// UserRepository defines human controller data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	Upsert(ctx context.Context, id, displayName string) (*model.User, error)
}

// BattleRepository defines battle record persistence, the analogue of
// the teacher's GameRepository.
type BattleRepository interface {
	Create(ctx context.Context, attackerBoard, defenderBoard, attackerControl, defenderControl string, seed int64) (*model.BattleRecord, error)
	FindByID(ctx context.Context, id string) (*model.BattleRecord, error)
	ListActive(ctx context.Context) ([]model.BattleRecord, error)
	ListFinished(ctx context.Context) ([]model.BattleRecord, error)
	SetActive(ctx context.Context, battleID string) error
	SetFinished(ctx context.Context, battleID, outcome string, turns int) error
	Delete(ctx context.Context, battleID string) error
}

// CommandLogRepository persists each battle's resolved command log, the
// analogue of the teacher's PhaseRepository/order storage.
type CommandLogRepository interface {
	AppendCommands(ctx context.Context, battleID string, rows []model.BattleCommandRow) error
	CommandsByBattle(ctx context.Context, battleID string) ([]model.BattleCommandRow, error)
}

// MessageRepository defines spectator chat persistence.
type MessageRepository interface {
	Create(ctx context.Context, battleID, senderID, content string) (*model.Message, error)
	ListByBattle(ctx context.Context, battleID string) ([]model.Message, error)
}

// BattleCache defines live battle state operations (Redis): the
// serialized board snapshot and the pending-command suspension point a
// host polls while waiting on a human controller or the AI planner.
type BattleCache interface {
	SetBattleState(ctx context.Context, battleID string, state json.RawMessage) error
	GetBattleState(ctx context.Context, battleID string) (json.RawMessage, error)
	PushPendingCommand(ctx context.Context, battleID string, cmd json.RawMessage) error
	PopPendingCommand(ctx context.Context, battleID string) (json.RawMessage, error)
	SetTurnTimer(ctx context.Context, battleID string, deadline time.Time) error
	ClearTurnTimer(ctx context.Context, battleID string) error
	DeleteBattleData(ctx context.Context, battleID string) error
}
