package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/forgehex/hexwar/api/internal/ai"
	"github.com/forgehex/hexwar/api/internal/model"
	"github.com/forgehex/hexwar/api/internal/repository"
	"github.com/forgehex/hexwar/api/pkg/battle"
)

// UnitSpec is one roster entry as submitted to CreateBattle: the static
// stats and starting cell of a single army stack. AttackerBoard and
// DefenderBoard in model.BattleRecord are the JSON encoding of
// []UnitSpec, kept opaque to the repository layer per spec §13.
type UnitSpec struct {
	Kind      string `json:"kind"`
	Count     int    `json:"count"`
	HPMax     int    `json:"hp_max"`
	Attack    int    `json:"attack"`
	Defense   int    `json:"defense"`
	DamageMin int    `json:"damage_min"`
	DamageMax int    `json:"damage_max"`
	Speed     int    `json:"speed"`
	Shots        int    `json:"shots"`
	Cost         int    `json:"cost"`
	IsWide       bool   `json:"is_wide"`
	IsFlying     bool   `json:"is_flying"`
	IsUndead     bool   `json:"is_undead"`
	NoRetaliate  bool   `json:"no_retaliate"`
	DoubleAttack bool   `json:"double_attack"`
	UndeadBane   bool   `json:"undead_bane"`
	IsDragon     bool   `json:"is_dragon"`
	Affinity     int    `json:"affinity"`
	Weakness     int    `json:"weakness"`
	SpellResist  int    `json:"spell_resist"`
	StartCell    int    `json:"start_cell"`
	Morale       int    `json:"morale"`
	Luck         int    `json:"luck"`
}

// CreateBattleRequest is the payload for BattleService.CreateBattle.
type CreateBattleRequest struct {
	AttackerRoster  []UnitSpec `json:"attacker_roster"`
	DefenderRoster  []UnitSpec `json:"defender_roster"`
	AttackerControl string     `json:"attacker_control"` // "human" or a Disposition name
	DefenderControl string     `json:"defender_control"`
	Siege           bool       `json:"siege"`
	Seed            int64      `json:"seed"`
}

// CommandRequest is the wire shape a client POSTs to submit one command.
// Exactly the fields relevant to Kind are read; the rest are ignored.
type CommandRequest struct {
	Kind       string `json:"kind"`
	Unit       int    `json:"unit"`
	Target     int    `json:"target"`
	TargetCell int    `json:"target_cell"`
	FromCell   *int   `json:"from_cell,omitempty"` // absent means "stay put"
	Ranged     bool   `json:"ranged"`
	Spell      int    `json:"spell"`
	Tower      int    `json:"tower"`
	Side       int    `json:"side"`
	Good       bool   `json:"good"` // morale command polarity
}

// liveBattle bundles a running Arena with the dispositions assigned to
// each side for auto-combat/quick-combat AI turns.
type liveBattle struct {
	mu           sync.Mutex
	arena        *battle.Arena
	control      map[battle.Side]string // "human" or a Disposition name
	necromancers map[battle.Side]bool
}

// BattleService orchestrates pkg/battle.Arena and internal/ai.PlanTurn on
// behalf of the HTTP/WebSocket handlers, the analogue of the teacher's
// GameService/OrderService/PhaseService trio collapsed into one service
// because a single Arena owns validate-resolve-apply atomically instead
// of splitting order submission from phase adjudication.
type BattleService struct {
	battleRepo repository.BattleRepository
	cmdRepo    repository.CommandLogRepository
	cache      repository.BattleCache
	broadcast  Broadcaster

	mu      sync.Mutex
	battles map[string]*liveBattle
}

// NewBattleService creates a BattleService.
func NewBattleService(battleRepo repository.BattleRepository, cmdRepo repository.CommandLogRepository, cache repository.BattleCache, broadcast Broadcaster) *BattleService {
	if broadcast == nil {
		broadcast = NoopBroadcaster{}
	}
	return &BattleService{
		battleRepo: battleRepo,
		cmdRepo:    cmdRepo,
		cache:      cache,
		broadcast:  broadcast,
		battles:    map[string]*liveBattle{},
	}
}

func dispositionFor(name string) ai.Disposition {
	switch name {
	case "defensive":
		return ai.DispositionDefensive
	case "berserk":
		return ai.DispositionBerserk
	default:
		return ai.DispositionOffensive
	}
}

func buildArena(req CreateBattleRequest) *battle.Arena {
	a := battle.NewArena(req.Seed)
	if req.Siege {
		a.EnableSiege()
	} else {
		a.ScatterObstacles()
	}
	placeRoster(a, req.AttackerRoster, battle.SideAttacker)
	placeRoster(a, req.DefenderRoster, battle.SideDefender)
	return a
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
			Shots:              s.Shots,
			Cost:               s.Cost,
			IsWide:             s.IsWide,
			IsFlying:           s.IsFlying,
			IsUndead:           s.IsUndead,
			IsNoRetaliate:      s.NoRetaliate,
			IsDoubleAttack:     s.DoubleAttack,
			IsUndeadBane:       s.UndeadBane,
			IsDragon:           s.IsDragon,
			Affinity:           battle.Element(s.Affinity),
			Weakness:           battle.Element(s.Weakness),
			SpellResistPercent: s.SpellResist,
			Morale:             s.Morale,
			Luck:               s.Luck,
		}
		u.Pos = battle.ForUnit(a.Board, u, battle.CellIndex(s.StartCell))
		a.AddUnit(u)
	}
}

// CreateBattle validates the roster payload, builds the in-memory Arena
// and persists a pending BattleRecord.
func (s *BattleService) CreateBattle(ctx context.Context, req CreateBattleRequest) (*model.BattleRecord, error) {
	if len(req.AttackerRoster) == 0 || len(req.DefenderRoster) == 0 {
		return nil, fmt.Errorf("both rosters must have at least one unit")
	}

	attackerJSON, err := json.Marshal(req.AttackerRoster)
	if err != nil {
		return nil, err
	}
	defenderJSON, err := json.Marshal(req.DefenderRoster)
	if err != nil {
		return nil, err
	}

	rec, err := s.battleRepo.Create(ctx, string(attackerJSON), string(defenderJSON), req.AttackerControl, req.DefenderControl, req.Seed)
	if err != nil {
		return nil, err
	}

	arena := buildArena(req)
	lb := &liveBattle{
		arena: arena,
		control: map[battle.Side]string{
			battle.SideAttacker: req.AttackerControl,
			battle.SideDefender: req.DefenderControl,
		},
		necromancers: map[battle.Side]bool{},
	}
	s.mu.Lock()
	s.battles[rec.ID] = lb
	s.mu.Unlock()

	return rec, nil
}

// StartBattle builds the first turn order and marks the record active.
func (s *BattleService) StartBattle(ctx context.Context, battleID string) (*model.BattleRecord, error) {
	lb, err := s.live(battleID)
	if err != nil {
		return nil, err
	}

	lb.mu.Lock()
	lb.arena.BuildTurnOrder()
	lb.arena.AdvanceToNextActor()
	lb.mu.Unlock()

	if err := s.battleRepo.SetActive(ctx, battleID); err != nil {
		return nil, err
	}

	rec, err := s.battleRepo.FindByID(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("battle %s not found", battleID)
	}

	s.broadcast.BroadcastBattleEvent(battleID, "battle_started", rec)
	return rec, nil
}

func (s *BattleService) live(battleID string) (*liveBattle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lb, ok := s.battles[battleID]
	if !ok {
		return nil, fmt.Errorf("battle %s is not loaded", battleID)
	}
	return lb, nil
}

// decodeCommand maps a CommandRequest onto a concrete battle.Command.
func decodeCommand(req CommandRequest) (battle.Command, error) {
	switch req.Kind {
	case "move":
		return battle.MoveCommand{Unit: battle.UnitID(req.Unit), Target: battle.CellIndex(req.TargetCell)}, nil
	case "attack":
		fromCell := battle.InvalidCell
		if req.FromCell != nil {
			fromCell = battle.CellIndex(*req.FromCell)
		}
		return battle.AttackCommand{
			Unit:     battle.UnitID(req.Unit),
			Target:   battle.UnitID(req.Target),
			FromCell: fromCell,
			Ranged:   req.Ranged,
		}, nil
	case "spellcast":
		return battle.SpellcastCommand{
			Unit:       battle.UnitID(req.Unit),
			Spell:      battle.SpellID(req.Spell),
			Target:     battle.UnitID(req.Target),
			TargetCell: battle.CellIndex(req.TargetCell),
		}, nil
	case "morale":
		return battle.MoraleCommand{Unit: battle.UnitID(req.Unit), Target: battle.UnitID(req.Target), Good: req.Good}, nil
	case "catapult":
		return battle.CatapultCommand{Unit: battle.UnitID(req.Unit), Target: battle.SiegeTargetID(req.Target)}, nil
	case "tower":
		return battle.TowerCommand{Tower: battle.TowerID(req.Tower), Target: battle.UnitID(req.Target)}, nil
	case "retreat":
		return battle.RetreatCommand{Unit: battle.UnitID(req.Unit)}, nil
	case "surrender":
		return battle.SurrenderCommand{Side: battle.Side(req.Side)}, nil
	case "skip":
		return battle.SkipCommand{Unit: battle.UnitID(req.Unit)}, nil
	case "toggle-auto-combat":
		return battle.ToggleAutoCombatCommand{Side: battle.Side(req.Side)}, nil
	case "quick-combat":
		return battle.QuickCombatCommand{}, nil
	default:
		return nil, fmt.Errorf("unknown command kind %q", req.Kind)
	}
}

// SubmitCommand validates and applies one command, persists the log row,
// broadcasts the result, then lets the Arena's auto-combat sides act
// until a human-controlled unit is next (or the battle ends).
func (s *BattleService) SubmitCommand(ctx context.Context, battleID string, req CommandRequest) (*battle.Result, error) {
	lb, err := s.live(battleID)
	if err != nil {
		return nil, err
	}

	cmd, err := decodeCommand(req)
	if err != nil {
		return nil, err
	}

	lb.mu.Lock()
	applyErr := lb.arena.ApplyCommand(cmd)
	lb.mu.Unlock()

	row := s.logRow(battleID, lb, cmd, applyErr)
	if err := s.cmdRepo.AppendCommands(ctx, battleID, []model.BattleCommandRow{row}); err != nil {
		log.Warn().Err(err).Str("battleId", battleID).Msg("failed to persist command row")
	}
	s.broadcast.BroadcastBattleEvent(battleID, "command_applied", row)

	if applyErr != nil {
		return nil, applyErr
	}

	if cmd.Kind() == battle.CommandQuickCombat {
		return s.runQuickCombat(ctx, lb, battleID)
	}

	lb.mu.Lock()
	lb.arena.AdvanceToNextActor()
	s.driveAutoCombat(lb)
	outcome := lb.arena.Outcome()
	lb.mu.Unlock()

	if outcome.Kind != battle.ResultOngoing {
		s.finish(ctx, battleID, lb, outcome)
	}
	return &outcome, nil
}

func (s *BattleService) logRow(battleID string, lb *liveBattle, cmd battle.Command, applyErr error) model.BattleCommandRow {
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
	if n := len(lb.arena.Log); n > 0 {
		last := lb.arena.Log[n-1]
		row.Turn = last.Turn
		row.Damage = last.Damage
		row.Killed = last.Killed
	}
	return row
}

// driveAutoCombat lets the AI planner act for every side with
// auto-combat enabled until control returns to a human side or the
// battle ends. Caller must hold lb.mu.
func (s *BattleService) driveAutoCombat(lb *liveBattle) {
	for {
		outcome := lb.arena.Outcome()
		if outcome.Kind != battle.ResultOngoing {
			return
		}
		actor, ok := lb.arena.Units[lb.arena.ActingUnit]
		if !ok {
			return
		}
		if !lb.arena.AutoCombat[actor.Side] {
			return
		}
		s.aiAct(lb, actor)
		lb.arena.AdvanceToNextActor()
	}
}

func (s *BattleService) aiAct(lb *liveBattle, actor *battle.Unit) {
	if lb.arena.RollBadMorale(actor) {
		_ = lb.arena.ApplyCommand(battle.MoraleCommand{Unit: actor.ID})
		return
	}
	disposition := dispositionFor(lb.control[actor.Side])
	s.applyPlanned(lb, actor, disposition)
	// A good-morale roll grants one extra action this turn (spec §4.5).
	if lb.arena.MoraleBonusAvailable[actor.ID] && !actor.IsDead() {
		if err := lb.arena.ApplyCommand(battle.MoraleCommand{Unit: actor.ID, Good: true}); err == nil {
			s.applyPlanned(lb, actor, disposition)
		}
	}
}

func (s *BattleService) applyPlanned(lb *liveBattle, actor *battle.Unit, disposition ai.Disposition) {
	for _, c := range ai.PlanTurn(lb.arena, actor, disposition) {
		if err := lb.arena.ApplyCommand(c); err != nil {
			log.Warn().Err(err).Str("unit", actor.Kind).Msg("AI planner issued an invalid command")
			break
		}
	}
}

// runQuickCombat resolves the remainder of the battle with both sides
// under AI control, matching spec §4.5's QuickCombat command.
func (s *BattleService) runQuickCombat(ctx context.Context, lb *liveBattle, battleID string) (*battle.Result, error) {
	lb.mu.Lock()
	for {
		outcome := lb.arena.Outcome()
		if outcome.Kind != battle.ResultOngoing {
			lb.mu.Unlock()
			s.finish(ctx, battleID, lb, outcome)
			return &outcome, nil
		}
		if !lb.arena.AdvanceToNextActor() {
			outcome = lb.arena.Outcome()
			lb.mu.Unlock()
			s.finish(ctx, battleID, lb, outcome)
			return &outcome, nil
		}
		actor := lb.arena.Units[lb.arena.ActingUnit]
		s.aiAct(lb, actor)
	}
}

func (s *BattleService) finish(ctx context.Context, battleID string, lb *liveBattle, outcome battle.Result) {
	res := lb.arena.EndBattle(lb.necromancers)
	outcomeName := map[battle.ResultKind]string{
		battle.ResultAttackerWins: "attacker_wins",
		battle.ResultDefenderWins: "defender_wins",
		battle.ResultDraw:         "draw",
	}[res.Kind]

	if err := s.battleRepo.SetFinished(ctx, battleID, outcomeName, res.Turns); err != nil {
		log.Warn().Err(err).Str("battleId", battleID).Msg("failed to mark battle finished")
	}
	s.broadcast.BroadcastBattleEvent(battleID, "battle_ended", res)

	s.mu.Lock()
	delete(s.battles, battleID)
	s.mu.Unlock()
	_ = ctx
	_ = outcome
}

// ListActive returns every battle currently in progress.
func (s *BattleService) ListActive(ctx context.Context) ([]model.BattleRecord, error) {
	return s.battleRepo.ListActive(ctx)
}

// ListFinished returns every completed battle.
func (s *BattleService) ListFinished(ctx context.Context) ([]model.BattleRecord, error) {
	return s.battleRepo.ListFinished(ctx)
}

// GetBattle returns one battle's persisted record.
func (s *BattleService) GetBattle(ctx context.Context, battleID string) (*model.BattleRecord, error) {
	return s.battleRepo.FindByID(ctx, battleID)
}

// ListCommands returns the full resolved command log for a battle.
func (s *BattleService) ListCommands(ctx context.Context, battleID string) ([]model.BattleCommandRow, error) {
	return s.cmdRepo.CommandsByBattle(ctx, battleID)
}

// AutoSkipTurn submits a Skip command for the currently acting unit, used
// by TurnTimerListener when a human controller's turn timer expires
// without a submission.
func (s *BattleService) AutoSkipTurn(ctx context.Context, battleID string) error {
	lb, err := s.live(battleID)
	if err != nil {
		return err
	}

	lb.mu.Lock()
	actor, ok := lb.arena.Units[lb.arena.ActingUnit]
	lb.mu.Unlock()
	if !ok {
		return nil
	}

	_, err = s.SubmitCommand(ctx, battleID, CommandRequest{Kind: "skip", Unit: int(actor.ID)})
	return err
}
