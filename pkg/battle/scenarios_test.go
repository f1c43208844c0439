package battle

import "testing"

// TestScenarioMoatBlock covers spec §8 scenario 1: a walking unit next to
// the moat can step into it (spending its whole turn, plus a percentage
// of its current total HP), but cannot then cross it to the far side in
// the same turn because entering the moat uses up all remaining movement.
func TestScenarioMoatBlock(t *testing.T) {
	a := newTestArena()
	a.EnableSiege()
	a.Siege.Bridge.Down = false // bridge up, gate cell behaves as moat
	u := testUnit(0, SideAttacker, 10, 10)
	u.Speed = 4
	start := a.Board.Neighbor(gateCell, DirLeft)
	u.Pos = NewPosition(start)
	a.AddUnit(u)
	a.BuildTurnOrder()
	a.ActingUnit = u.ID

	far := a.Board.Neighbor(gateCell, DirRight)
	if _, ok := a.Pathfinder.Reachable(u)[far]; ok {
		t.Fatalf("expected the far side of the moat to be unreachable in one turn")
	}

	before := u.TotalHP()
	if err := a.ApplyCommand(MoveCommand{Unit: u.ID, Target: gateCell}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := u.TotalHP()
	if after >= before {
		t.Fatalf("expected moat damage, hp went from %d to %d", before, after)
	}

	a.BuildTurnOrder()
	a.ActingUnit = u.ID
	if err := a.ApplyCommand(MoveCommand{Unit: u.ID, Target: far}); err != nil {
		t.Fatalf("expected crossing the moat on a fresh turn to succeed: %v", err)
	}
}

// TestScenarioWideUnitReversal covers spec §8 scenario 2: a wide unit
// whose natural tail direction runs off the board reflects instead of
// producing an invalid position.
func TestScenarioWideUnitReversal(t *testing.T) {
	b := NewBoard()
	u := &Unit{ID: 1, Side: SideAttacker, IsWide: true, Count: 1, HPMax: 10, HPFirst: 10, Alive: true}
	edge := CellIndex(0) // leftmost column: a left-facing tail would go off-board
	pos := ForUnit(b, u, edge)
	if !pos.Tail.Valid() {
		t.Fatalf("expected wide unit to reflect rather than leave an invalid tail")
	}
}

// TestScenarioChainLightningHops covers the primary strike of spec §8
// scenario 3: a Chain Lightning cast lands nonzero damage on the unit it
// targets. The hop falloff is checked by
// TestCastChainLightningFallsOffAndHopsToNearestEnemy; the fallback onto
// the caster's own side (the isCrossSideSpellBypass rule) is not asserted.
func TestScenarioChainLightningHops(t *testing.T) {
	a := newTestArena()
	caster := testUnit(0, SideAttacker, 1, 10)
	caster.Pos = NewPosition(50)
	enemy := testUnit(0, SideDefender, 1, 50)
	enemy.Pos = NewPosition(a.Board.Neighbor(50, DirRight))
	a.AddUnit(caster)
	a.AddUnit(enemy)

	res := a.Cast(caster, SpellcastCommand{Unit: caster.ID, Spell: SpellChainLightning, Target: enemy.ID})
	if len(res.Hits) == 0 {
		t.Fatalf("expected chain lightning to hit at least the primary target")
	}
	if res.DamageDone[enemy.ID] <= 0 {
		t.Fatalf("expected nonzero damage on primary target")
	}
}

// TestScenarioBlindRetaliation covers spec §8 scenario 4: a blinded
// archer struck in melee retaliates at reduced force — 20 creatures
// dealing a flat 10 each, halved by the 50% blind reduction, land
// exactly 100.
func TestScenarioBlindRetaliation(t *testing.T) {
	a := newTestArena()
	a.Statics.BlindDamageReductionPercent = 50
	atk := testUnit(0, SideAttacker, 5, 1000)
	atk.Pos = NewPosition(0)
	def := testUnit(0, SideDefender, 20, 1000)
	def.DamageMin, def.DamageMax = 10, 10
	def.Shots = 12
	def.Pos = NewPosition(a.Board.Neighbor(0, DirRight))
	def.SetTimedMode(ModeBlinded, 2)
	a.AddUnit(atk)
	a.AddUnit(def)

	res := a.ResolveMeleeAttack(atk, def)
	if !res.Retaliated {
		t.Fatalf("expected the blinded defender to retaliate")
	}
	if res.RetalDmg != 100 {
		t.Fatalf("expected 10 x 20 x 50%% = 100 retaliation damage, got %d", res.RetalDmg)
	}
}

// TestScenarioMirrorImageFate covers spec §8 scenario 5: the clone and
// its original share a fate link — killing the image merely unlinks the
// original, while killing the original destroys the image with it.
func TestScenarioMirrorImageFate(t *testing.T) {
	a := newTestArena()
	caster := testUnit(0, SideAttacker, 1, 10)
	target := testUnit(0, SideAttacker, 3, 10)
	target.Pos = NewPosition(40)
	a.AddUnit(caster)
	a.AddUnit(target)

	before := len(a.Units)
	a.Cast(caster, SpellcastCommand{Unit: caster.ID, Spell: SpellMirrorImage, Target: target.ID})
	if len(a.Units) != before+1 {
		t.Fatalf("expected a new clone unit to be registered")
	}
	var clone *Unit
	for _, u := range a.Units {
		if u.Mode.Has(ModeCloned) {
			clone = u
		}
	}
	if clone == nil {
		t.Fatalf("expected to find the cloned unit")
	}
	if clone.HPFirst != 1 || clone.Count != 1 {
		t.Fatalf("expected clone to be a fragile 1-hp copy")
	}
	if clone.MirrorLink != target.ID || target.MirrorLink != clone.ID {
		t.Fatalf("expected a symmetric fate link between clone and original")
	}

	killed := clone.ApplyDamage(1)
	a.onUnitKilled(clone, killed)
	if !clone.IsDead() {
		t.Fatalf("expected clone to die in one hit")
	}
	if target.IsDead() {
		t.Fatalf("original must survive its image's death")
	}
	if target.MirrorLink != UnitIDNone {
		t.Fatalf("expected the original unlinked after its image died")
	}
}

func TestScenarioMirrorImageDiesWithOriginal(t *testing.T) {
	a := newTestArena()
	caster := testUnit(0, SideAttacker, 1, 10)
	target := testUnit(0, SideAttacker, 3, 10)
	target.Pos = NewPosition(40)
	a.AddUnit(caster)
	a.AddUnit(target)
	a.Cast(caster, SpellcastCommand{Unit: caster.ID, Spell: SpellMirrorImage, Target: target.ID})
	var clone *Unit
	for _, u := range a.Units {
		if u.Mode.Has(ModeCloned) {
			clone = u
		}
	}

	killed := target.ApplyDamage(1000)
	a.onUnitKilled(target, killed)
	if !clone.IsDead() {
		t.Fatalf("expected the image destroyed the moment its original died")
	}
	if a.Board.Occupied(clone.Pos.Head) {
		t.Fatalf("expected the dead image's cell vacated")
	}
}

// TestScenarioGraveyardKeepsWideUnitsUnderBothCells covers spec §4.8:
// a wide stack's corpse is findable under either of its cells.
func TestScenarioGraveyardKeepsWideUnitsUnderBothCells(t *testing.T) {
	a := newTestArena()
	wide := testUnit(0, SideDefender, 2, 10)
	wide.IsWide = true
	wide.Pos = ForUnit(a.Board, wide, 40)
	a.AddUnit(wide)

	killed := wide.ApplyDamage(1000)
	a.onUnitKilled(wide, killed)
	head, tail := wide.Pos.Head, wide.Pos.Tail
	if a.Graveyard.LastFallenAt(head) == nil || a.Graveyard.LastFallenAt(tail) == nil {
		t.Fatalf("expected the wide corpse recorded under both %d and %d", head, tail)
	}
}

// TestScenarioRetreatStall covers spec §8 scenario 6: when both sides
// pass repeatedly without acting, the Arena eventually ends the battle
// with the defender holding the field, instead of looping forever.
func TestScenarioRetreatStall(t *testing.T) {
	a := newTestArena()
	a.Statics.MaxTurnsWithoutAction = 3
	atk := testUnit(0, SideAttacker, 3, 10)
	def := testUnit(0, SideDefender, 3, 10)
	def.Pos = NewPosition(1)
	a.AddUnit(atk)
	a.AddUnit(def)
	a.BuildTurnOrder()

	for i := 0; i < 10 && a.Outcome().Kind == ResultOngoing; i++ {
		if !a.AdvanceToNextActor() {
			break
		}
		_ = a.ApplyCommand(SkipCommand{Unit: a.ActingUnit})
	}
	if got := a.Outcome().Kind; got != ResultDefenderWins {
		t.Fatalf("expected stalled battle to resolve in the defender's favor, got %v", got)
	}
}
