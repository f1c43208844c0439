package battle

import "testing"

func testUnit(id UnitID, side Side, count, hpMax int) *Unit {
	return &Unit{
		ID: id, Side: side, CurSide: side, Kind: "test-unit",
		Count: count, MaxCount: count, HPMax: hpMax, HPFirst: hpMax,
		Attack: 5, Defense: 5, DamageMin: 2, DamageMax: 4, Speed: 4, Alive: true, RetaliatesLeft: 1,
		MirrorLink: UnitIDNone,
		Pos:        NewPosition(0),
	}
}

func TestApplyDamageKillsWholeCreatures(t *testing.T) {
	u := testUnit(1, SideAttacker, 5, 10)
	killed := u.ApplyDamage(25)
	if killed != 2 {
		t.Fatalf("expected 2 killed, got %d", killed)
	}
	if u.Count != 3 {
		t.Fatalf("expected 3 remaining, got %d", u.Count)
	}
	if u.HPFirst != 5 {
		t.Fatalf("expected 5 hp on front creature, got %d", u.HPFirst)
	}
}

func TestApplyDamageCanKillStack(t *testing.T) {
	u := testUnit(1, SideAttacker, 2, 10)
	killed := u.ApplyDamage(100)
	if killed != 2 || !u.IsDead() {
		t.Fatalf("expected full stack wipe, got killed=%d dead=%v", killed, u.IsDead())
	}
}

func TestHealNeverExceedsMax(t *testing.T) {
	u := testUnit(1, SideAttacker, 3, 10)
	u.HPFirst = 4
	u.Heal(100)
	if u.TotalHP() != 30 {
		t.Fatalf("expected full heal to 30, got %d", u.TotalHP())
	}
}

func TestBeginTurnClearsDefendingAndWaited(t *testing.T) {
	u := testUnit(1, SideAttacker, 1, 10)
	u.Mode = ModeDefending.With(ModeWaited)
	u.BeginTurn()
	if u.Mode.Has(ModeDefending) || u.Mode.Has(ModeWaited) {
		t.Fatalf("expected defending/waited cleared on new turn")
	}
}

func TestTimedModeExpires(t *testing.T) {
	u := testUnit(1, SideAttacker, 1, 10)
	u.SetTimedMode(ModeSlowed, 1)
	u.BeginTurn()
	if u.Mode.Has(ModeSlowed) {
		t.Fatalf("expected slow to expire after its one turn")
	}
}

func TestNoRetaliateUnitNeverGetsCharge(t *testing.T) {
	u := testUnit(1, SideAttacker, 1, 10)
	u.IsNoRetaliate = true
	u.BeginTurn()
	if u.RetaliatesLeft != 0 {
		t.Fatalf("no-retaliate unit should never have a retaliation charge")
	}
}

func TestHealNeverGrowsPastMaxCount(t *testing.T) {
	u := testUnit(1, SideAttacker, 3, 10)
	u.Count = 1
	u.HPFirst = 2
	u.Heal(1000)
	if u.Count != 3 || u.TotalHP() != 30 {
		t.Fatalf("expected heal capped at 3 creatures / 30 hp, got %d / %d", u.Count, u.TotalHP())
	}
}

func TestRestoreRevivesDeadStack(t *testing.T) {
	u := testUnit(1, SideAttacker, 3, 10)
	u.ApplyDamage(1000)
	if !u.IsDead() {
		t.Fatalf("setup: expected a dead stack")
	}
	u.Restore(25)
	if u.IsDead() || u.TotalHP() != 25 || u.Count != 3 {
		t.Fatalf("expected 25 hp over 3 creatures after restore, got count=%d hp=%d", u.Count, u.TotalHP())
	}
}

func TestBeginTurnClearsLuck(t *testing.T) {
	u := testUnit(1, SideAttacker, 1, 10)
	u.Mode = ModeLuckGood.With(ModeLuckBad)
	u.BeginTurn()
	if u.Mode.Has(ModeLuckGood) || u.Mode.Has(ModeLuckBad) {
		t.Fatalf("luck is transient and must clear at turn start")
	}
}

func TestHypnotizeExpiryRevertsControllingSide(t *testing.T) {
	u := testUnit(1, SideDefender, 1, 10)
	u.CurSide = SideAttacker
	u.SetTimedMode(ModeHypnotized, 1)
	u.BeginTurn()
	if u.Mode.Has(ModeHypnotized) {
		t.Fatalf("expected hypnotize to expire")
	}
	if u.CurSide != SideDefender {
		t.Fatalf("expected control to revert to the original army")
	}
}

func TestClearModesRevertsControlAndDurations(t *testing.T) {
	u := testUnit(1, SideDefender, 1, 10)
	u.CurSide = SideAttacker
	u.SetTimedMode(ModeHypnotized, 3)
	u.SetTimedMode(ModeSlowed, 3)
	u.ClearModes()
	if u.Mode.Has(ModeHypnotized) || u.Mode.Has(ModeSlowed) {
		t.Fatalf("expected all spell modes cleared")
	}
	if u.CurSide != SideDefender {
		t.Fatalf("expected dispel to hand the stack back to its army")
	}
}

func TestBlindedUnitCannotAct(t *testing.T) {
	u := testUnit(1, SideAttacker, 1, 10)
	u.SetTimedMode(ModeBlinded, 2)
	if u.CanAct() {
		t.Fatalf("a blinded unit skips its turns")
	}
}

func TestCloneIsEphemeralAndNeverRetaliates(t *testing.T) {
	u := testUnit(1, SideAttacker, 1, 10)
	u.Mode = ModeCloned
	if !u.IsEphemeral() {
		t.Fatalf("mirror images leave no corpse")
	}
	u.BeginTurn()
	if u.RetaliatesLeft != 0 {
		t.Fatalf("mirror images never retaliate")
	}
}
