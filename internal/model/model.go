package model

import (
	"encoding/json"
	"time"
)

// User represents a human controller allowed to submit commands for a
// side in interactive mode.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BattleRecord is the persisted summary of one battle, from setup
// through its terminal Result.
type BattleRecord struct {
	ID              string     `json:"id"`
	AttackerBoard   string     `json:"attacker_board"`   // roster snapshot, opaque to the host
	DefenderBoard   string     `json:"defender_board"`
	AttackerControl string     `json:"attacker_control"` // "human" or a planner disposition name
	DefenderControl string     `json:"defender_control"`
	Status          string     `json:"status"` // pending, active, finished
	Outcome         string     `json:"outcome,omitempty"`
	Turns           int        `json:"turns,omitempty"`
	Seed            int64      `json:"seed"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

// BattleCommandRow is one logged command within a battle, mirroring
// pkg/battle.ResolvedCommand for persistence.
type BattleCommandRow struct {
	ID        string          `json:"id"`
	BattleID  string          `json:"battle_id"`
	Turn      int             `json:"turn"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Accepted  bool            `json:"accepted"`
	Reason    string          `json:"reason,omitempty"`
	Damage    int             `json:"damage,omitempty"`
	Killed    int             `json:"killed,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Message is a spectator chat line broadcast alongside a battle, kept
// for parity with the host's websocket hub even though spec.md scopes
// out a full UI.
type Message struct {
	ID        string    `json:"id"`
	BattleID  string    `json:"battle_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
