package battle

import "testing"

func newTestArena() *Arena {
	return NewArena(42)
}

func TestApplyCommandRejectsWrongActor(t *testing.T) {
	a := newTestArena()
	atk := testUnit(0, SideAttacker, 3, 10)
	atk.Pos = NewPosition(0)
	def := testUnit(0, SideDefender, 3, 10)
	def.Pos = NewPosition(2)
	a.AddUnit(atk)
	a.AddUnit(def)
	a.BuildTurnOrder()
	a.ActingUnit = atk.ID

	err := a.ApplyCommand(MoveCommand{Unit: def.ID, Target: 1})
	if err == nil {
		t.Fatalf("expected validation error for wrong actor")
	}
	if len(a.Log) != 1 || a.Log[0].Accepted {
		t.Fatalf("expected a rejected log entry")
	}
}

func TestApplyMoveUpdatesBoardOccupancy(t *testing.T) {
	a := newTestArena()
	u := testUnit(0, SideAttacker, 3, 10)
	u.Pos = NewPosition(0)
	a.AddUnit(u)
	a.BuildTurnOrder()
	a.ActingUnit = u.ID

	target := a.Board.Neighbor(0, DirRight)
	if err := a.ApplyCommand(MoveCommand{Unit: u.ID, Target: target}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Board.OccupantAt(target) != u.ID {
		t.Fatalf("expected unit to occupy new cell")
	}
	if a.Board.Occupied(0) {
		t.Fatalf("expected old cell to be vacated")
	}
}

func TestMeleeAttackRetaliates(t *testing.T) {
	a := newTestArena()
	atk := testUnit(0, SideAttacker, 5, 10)
	atk.Pos = NewPosition(0)
	def := testUnit(0, SideDefender, 5, 10)
	def.Pos = NewPosition(a.Board.Neighbor(0, DirRight))
	a.AddUnit(atk)
	a.AddUnit(def)
	a.BuildTurnOrder()
	a.ActingUnit = atk.ID

	if err := a.ApplyCommand(AttackCommand{Unit: atk.ID, Target: def.ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry := a.Log[len(a.Log)-1]
	if entry.Damage <= 0 {
		t.Fatalf("expected nonzero damage logged")
	}
}

func TestOutcomeDeclaresWinnerOnWipe(t *testing.T) {
	a := newTestArena()
	atk := testUnit(0, SideAttacker, 1, 10)
	def := testUnit(0, SideDefender, 1, 10)
	def.Pos = NewPosition(1)
	a.AddUnit(atk)
	a.AddUnit(def)
	def.ApplyDamage(1000)
	a.onUnitKilled(def, 1)

	if got := a.Outcome().Kind; got != ResultAttackerWins {
		t.Fatalf("expected attacker win, got %v", got)
	}
}

func TestSurrenderEndsBattleImmediately(t *testing.T) {
	a := newTestArena()
	atk := testUnit(0, SideAttacker, 3, 10)
	def := testUnit(0, SideDefender, 3, 10)
	def.Pos = NewPosition(1)
	a.AddUnit(atk)
	a.AddUnit(def)

	if err := a.ApplyCommand(SurrenderCommand{Side: SideAttacker}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.Outcome().Kind; got != ResultDefenderWins {
		t.Fatalf("expected defender win after attacker surrender, got %v", got)
	}
}

func TestRetreatWithdrawsWholeArmy(t *testing.T) {
	a := newTestArena()
	atk := testUnit(0, SideAttacker, 3, 10)
	atk.Pos = NewPosition(0)
	ally := testUnit(0, SideAttacker, 3, 10)
	ally.Pos = NewPosition(22)
	def := testUnit(0, SideDefender, 3, 10)
	def.Pos = NewPosition(1)
	a.AddUnit(atk)
	a.AddUnit(ally)
	a.AddUnit(def)
	a.BuildTurnOrder()
	a.ActingUnit = atk.ID

	if err := a.ApplyCommand(RetreatCommand{Unit: atk.ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := a.Outcome()
	if res.Kind != ResultDefenderWins || res.Retreated != SideAttacker {
		t.Fatalf("expected a defender win by retreat, got %+v", res)
	}
	if a.Board.Occupied(0) || a.Board.Occupied(22) {
		t.Fatalf("expected the fleeing army's cells vacated")
	}
	if atk.IsDead() || ally.IsDead() {
		t.Fatalf("a retreating army marches away alive")
	}
}

func TestExperienceCreditedForKills(t *testing.T) {
	a := newTestArena()
	atk := testUnit(0, SideAttacker, 5, 20)
	atk.DamageMin, atk.DamageMax = 100, 100
	atk.Pos = NewPosition(0)
	def := testUnit(0, SideDefender, 2, 10)
	def.Pos = NewPosition(a.Board.Neighbor(0, DirRight))
	a.AddUnit(atk)
	a.AddUnit(def)
	a.BuildTurnOrder()
	a.ActingUnit = atk.ID

	if err := a.ApplyCommand(AttackCommand{Unit: atk.ID, Target: def.ID, FromCell: InvalidCell}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := a.EndBattle(nil)
	if res.Experience[SideAttacker] != 2*10 {
		t.Fatalf("expected 20 xp for wiping 2x10hp creatures, got %d", res.Experience[SideAttacker])
	}
}

func TestSurrenderCostSumsSurvivorValue(t *testing.T) {
	a := newTestArena()
	a.Statics.SurrenderCostPercent = 50
	u1 := testUnit(0, SideAttacker, 4, 10)
	u1.Cost = 100
	u2 := testUnit(0, SideAttacker, 2, 10)
	u2.Cost = 300
	u2.Pos = NewPosition(22)
	a.AddUnit(u1)
	a.AddUnit(u2)

	if got := a.SurrenderCost(SideAttacker); got != (4*100+2*300)/2 {
		t.Fatalf("expected surrender cost 500, got %d", got)
	}
}

func TestSpellcastRequiresCommanderWhenConfigured(t *testing.T) {
	a := newTestArena()
	caster := testUnit(0, SideAttacker, 1, 20)
	target := testUnit(0, SideDefender, 3, 20)
	target.Pos = NewPosition(1)
	a.AddUnit(caster)
	a.AddUnit(target)
	a.BuildTurnOrder()
	a.ActingUnit = caster.ID
	a.SetCommander(SideDefender, &Commander{Side: SideDefender})

	err := a.ApplyCommand(SpellcastCommand{Unit: caster.ID, Spell: SpellLightningBolt, Target: target.ID})
	if err == nil {
		t.Fatalf("expected a cast without a commanding hero to be rejected")
	}
}

func TestSpellcastSpendsCommanderPointsOncePerRound(t *testing.T) {
	a := newTestArena()
	caster := testUnit(0, SideAttacker, 1, 20)
	target := testUnit(0, SideDefender, 30, 20)
	target.Pos = NewPosition(1)
	a.AddUnit(caster)
	a.AddUnit(target)
	a.BuildTurnOrder()
	a.ActingUnit = caster.ID
	cm := &Commander{
		Side:        SideAttacker,
		SpellPoints: 10,
		KnownSpells: map[SpellID]int{SpellLightningBolt: 4},
	}
	a.SetCommander(SideAttacker, cm)

	if err := a.ApplyCommand(SpellcastCommand{Unit: caster.ID, Spell: SpellLightningBolt, Target: target.ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cm.SpellPoints != 6 || !cm.CastThisTurn {
		t.Fatalf("expected 4 points spent and the round's cast used, got %d/%v", cm.SpellPoints, cm.CastThisTurn)
	}
	err := a.ApplyCommand(SpellcastCommand{Unit: caster.ID, Spell: SpellLightningBolt, Target: target.ID})
	if err == nil {
		t.Fatalf("expected a second cast in the same round to be rejected")
	}
	a.BuildTurnOrder()
	if cm.CastThisTurn {
		t.Fatalf("expected the cast budget to reset with the new round")
	}
}

func TestBridgeLowersForSortieAndRaisesWhenClear(t *testing.T) {
	a := newTestArena()
	a.EnableSiege()
	a.Siege.Bridge.Down = false
	garrison := testUnit(0, SideDefender, 3, 10)
	garrison.Speed = 12
	start := a.Board.Neighbor(gateCell, DirRight)
	garrison.Pos = NewPosition(start)
	a.AddUnit(garrison)
	a.BuildTurnOrder()
	a.ActingUnit = garrison.ID

	if err := a.ApplyCommand(MoveCommand{Unit: garrison.ID, Target: gateCell}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.Siege.Bridge.Down {
		t.Fatalf("expected the bridge lowered for the garrison's sortie")
	}

	a.BuildTurnOrder()
	a.ActingUnit = garrison.ID
	away := a.Board.Neighbor(gateCell, DirRight)
	if err := a.ApplyCommand(MoveCommand{Unit: garrison.ID, Target: away}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Siege.Bridge.Down {
		t.Fatalf("expected the bridge raised once the gate cell cleared")
	}
}

func TestHypnotizedUnitStillCountsForItsArmy(t *testing.T) {
	a := newTestArena()
	atk := testUnit(0, SideAttacker, 3, 10)
	def := testUnit(0, SideDefender, 3, 10)
	def.Pos = NewPosition(1)
	a.AddUnit(atk)
	a.AddUnit(def)
	def.CurSide = SideAttacker // hypnotized

	if got := a.Outcome().Kind; got != ResultOngoing {
		t.Fatalf("a hypnotized defender keeps its army alive, got %v", got)
	}
}

func TestSiegeAutomationFiresTowersOnDefenderTurn(t *testing.T) {
	a := newTestArena()
	a.EnableSiege()
	atk := testUnit(0, SideAttacker, 3, 300)
	atk.Pos = NewPosition(a.Siege.Towers[0].Position + 1)
	def := testUnit(0, SideDefender, 3, 300)
	def.Pos = NewPosition(60)
	a.AddUnit(atk)
	a.AddUnit(def)

	before := atk.TotalHP()
	for a.AdvanceToNextActor() {
		_ = a.ApplyCommand(SkipCommand{Unit: a.ActingUnit})
		if a.Outcome().Turns > 1 {
			break
		}
	}
	if atk.TotalHP() >= before {
		t.Fatalf("expected tower fire to wound the attacker during automation")
	}
}

func TestScatterObstaclesKeepsDeploymentColumnsClear(t *testing.T) {
	a := NewArena(7)
	a.ScatterObstacles()
	for idx := CellIndex(0); int(idx) < CellCount; idx++ {
		obj := a.Board.Cell(idx).Object
		if obj == ObjectEmpty {
			continue
		}
		col := idx.Col()
		if col < 2 || col > BoardWidth-3 {
			t.Fatalf("obstacle on deployment column %d (cell %d)", col, idx)
		}
	}
}

func TestScatterObstaclesIsSeedDeterministic(t *testing.T) {
	layout := func(seed int64) []ObjectCode {
		a := NewArena(seed)
		a.ScatterObstacles()
		out := make([]ObjectCode, CellCount)
		for i := range out {
			out[i] = a.Board.Cell(CellIndex(i)).Object
		}
		return out
	}
	x, y := layout(99), layout(99)
	for i := range x {
		if x[i] != y[i] {
			t.Fatalf("same seed produced different obstacle layouts at cell %d", i)
		}
	}
}
