// Package arena runs whole battles end-to-end with both sides under AI
// control, the analogue of the teacher's internal/bot package but driving
// pkg/battle.Arena directly instead of a Diplomacy game loop. It backs
// cmd/battlearena's batch runner and is also reachable from tests that
// want a complete battle without an HTTP server.
package arena

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/forgehex/hexwar/api/internal/ai"
	"github.com/forgehex/hexwar/api/internal/model"
	"github.com/forgehex/hexwar/api/internal/repository"
	"github.com/forgehex/hexwar/api/pkg/battle"
)

// UnitSpec mirrors service.UnitSpec: one roster entry's static stats and
// starting cell. Duplicated here (rather than imported) to keep this
// batch-runner package independent of the HTTP service layer, the way
// the teacher's internal/bot avoided depending on internal/service.
type UnitSpec struct {
	Kind      string `json:"kind"`
	Count     int    `json:"count"`
	HPMax     int    `json:"hp_max"`
	Attack    int    `json:"attack"`
	Defense   int    `json:"defense"`
	DamageMin int    `json:"damage_min"`
	DamageMax int    `json:"damage_max"`
	Speed     int    `json:"speed"`
	Shots      int    `json:"shots"`
	IsWide     bool   `json:"is_wide"`
	IsFlying   bool   `json:"is_flying"`
	IsUndead   bool   `json:"is_undead"`
	UndeadBane bool   `json:"undead_bane"`
	IsDragon   bool   `json:"is_dragon"`
	Affinity   int    `json:"affinity"`
	Weakness   int    `json:"weakness"`
	StartCell  int    `json:"start_cell"`
	Morale     int    `json:"morale"`
	Luck       int    `json:"luck"`
}

// Config configures a single AI-vs-AI battle.
type Config struct {
	BattleName          string
	AttackerRoster       []UnitSpec
	DefenderRoster       []UnitSpec
	AttackerDisposition ai.Disposition
	DefenderDisposition ai.Disposition
	Siege               bool
	MaxTurns            int   // stall cap; Arena's own MaxTurnsWithoutAction also applies
	Seed                int64 // passed to battle.NewArena as is; 0 is an ordinary seed
	DryRun              bool  // skip database writes
}

// Result describes the outcome of a completed arena battle.
type Result struct {
	BattleID  string
	Winner    string // "attacker", "defender", or "" for draw
	Turns     int
	AttackerHP int
	DefenderHP int
}

// RunBattle plays a full battle with both sides under AI control, saving
// the record and command log to Postgres unless cfg.DryRun is set.
func RunBattle(ctx context.Context, cfg Config, battleRepo repository.BattleRepository, cmdRepo repository.CommandLogRepository) (*Result, error) {
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = 500
	}

	a := battle.NewArena(cfg.Seed)
	if cfg.Siege {
		a.EnableSiege()
	} else {
		a.ScatterObstacles()
	}
	placeRoster(a, cfg.AttackerRoster, battle.SideAttacker)
	placeRoster(a, cfg.DefenderRoster, battle.SideDefender)

	var battleID string
	if !cfg.DryRun {
		attackerJSON, err := json.Marshal(cfg.AttackerRoster)
		if err != nil {
			return nil, fmt.Errorf("marshal attacker roster: %w", err)
		}
		defenderJSON, err := json.Marshal(cfg.DefenderRoster)
		if err != nil {
			return nil, fmt.Errorf("marshal defender roster: %w", err)
		}
		rec, err := battleRepo.Create(ctx, string(attackerJSON), string(defenderJSON),
			dispositionName(cfg.AttackerDisposition), dispositionName(cfg.DefenderDisposition), cfg.Seed)
		if err != nil {
			return nil, fmt.Errorf("create battle record: %w", err)
		}
		battleID = rec.ID
	}

	a.BuildTurnOrder()
	var rows []model.BattleCommandRow

	for turns := 0; turns < cfg.MaxTurns; turns++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if outcome := a.Outcome(); outcome.Kind != battle.ResultOngoing {
			break
		}
		if !a.AdvanceToNextActor() {
			break
		}

		actor := a.Units[a.ActingUnit]
		disposition := cfg.AttackerDisposition
		if actor.Side == battle.SideDefender {
			disposition = cfg.DefenderDisposition
		}

		if a.RollBadMorale(actor) {
			cmd := battle.MoraleCommand{Unit: actor.ID}
			err := a.ApplyCommand(cmd)
			rows = append(rows, commandRow(battleID, a, cmd, err))
			continue
		}
		for _, cmd := range ai.PlanTurn(a, actor, disposition) {
			err := a.ApplyCommand(cmd)
			rows = append(rows, commandRow(battleID, a, cmd, err))
			if err != nil {
				log.Warn().Err(err).Str("kind", cmd.Kind().String()).Msg("arena: AI command rejected")
				break
			}
		}
		// Good morale grants one extra action (spec §4.5).
		if a.MoraleBonusAvailable[actor.ID] && !actor.IsDead() {
			cmd := battle.MoraleCommand{Unit: actor.ID, Good: true}
			if err := a.ApplyCommand(cmd); err == nil {
				rows = append(rows, commandRow(battleID, a, cmd, nil))
				for _, extra := range ai.PlanTurn(a, actor, disposition) {
					err := a.ApplyCommand(extra)
					rows = append(rows, commandRow(battleID, a, extra, err))
					if err != nil {
						break
					}
				}
			}
		}
	}

	outcome := a.EndBattle(nil)
	result := &Result{
		BattleID: battleID,
		Turns:    outcome.Turns,
	}
	switch outcome.Kind {
	case battle.ResultAttackerWins:
		result.Winner = "attacker"
	case battle.ResultDefenderWins:
		result.Winner = "defender"
	}
	for _, u := range a.Units {
		if u.Side == battle.SideAttacker {
			result.AttackerHP += u.TotalHP()
		} else {
			result.DefenderHP += u.TotalHP()
		}
	}

	if !cfg.DryRun {
		if len(rows) > 0 {
			if err := cmdRepo.AppendCommands(ctx, battleID, rows); err != nil {
				return nil, fmt.Errorf("append command log: %w", err)
			}
		}
		outcomeName := result.Winner
		if outcomeName == "" {
			outcomeName = "draw"
		}
		if err := battleRepo.SetFinished(ctx, battleID, outcomeName, result.Turns); err != nil {
			return nil, fmt.Errorf("set finished: %w", err)
		}
	}

	log.Info().Str("battleId", battleID).Str("winner", result.Winner).Int("turns", result.Turns).Msg("Arena battle completed")
	return result, nil
}

func dispositionName(d ai.Disposition) string {
	switch d {
	case ai.DispositionDefensive:
		return "defensive"
	case ai.DispositionBerserk:
		return "berserk"
	default:
		return "offensive"
	}
}

func commandRow(battleID string, a *battle.Arena, cmd battle.Command, applyErr error) model.BattleCommandRow {
	payload, _ := json.Marshal(cmd)
	row := model.BattleCommandRow{
		BattleID: battleID,
		Kind:     cmd.Kind().String(),
		Payload:  payload,
		Accepted: applyErr == nil,
	}
	if applyErr != nil {
		row.Reason = applyErr.Error()
	}
	if n := len(a.Log); n > 0 {
		last := a.Log[n-1]
		row.Turn = last.Turn
		row.Damage = last.Damage
		row.Killed = last.Killed
	}
	return row
}

func placeRoster(a *battle.Arena, roster []UnitSpec, side battle.Side) {
	for _, s := range roster {
		u := &battle.Unit{
			Side:      side,
			Kind:      s.Kind,
			Count:     s.Count,
			HPMax:     s.HPMax,
			HPFirst:   s.HPMax,
			Attack:    s.Attack,
			Defense:   s.Defense,
			DamageMin: s.DamageMin,
			DamageMax: s.DamageMax,
			Speed:     s.Speed,
			Shots:        s.Shots,
			IsWide:       s.IsWide,
			IsFlying:     s.IsFlying,
			IsUndead:     s.IsUndead,
			IsUndeadBane: s.UndeadBane,
			IsDragon:     s.IsDragon,
			Affinity:     battle.Element(s.Affinity),
			Weakness:     battle.Element(s.Weakness),
			Morale:       s.Morale,
			Luck:         s.Luck,
		}
		u.Pos = battle.ForUnit(a.Board, u, battle.CellIndex(s.StartCell))
		a.AddUnit(u)
	}
}
