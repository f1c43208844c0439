package ai

import (
	"testing"

	"github.com/forgehex/hexwar/api/pkg/battle"
)

func testUnit(id battle.UnitID, side battle.Side, head battle.CellIndex) *battle.Unit {
	return &battle.Unit{
		ID: id, Side: side, Kind: "test-unit", Count: 5, HPMax: 10, HPFirst: 10,
		Attack: 6, Defense: 4, DamageMin: 2, DamageMax: 4, Speed: 5, Alive: true,
		RetaliatesLeft: 1, Pos: battle.NewPosition(head),
	}
}

func TestOffensivePlannerAttacksAdjacentWeakest(t *testing.T) {
	a := battle.NewArena(1)
	atk := testUnit(0, battle.SideAttacker, 10)
	def := testUnit(0, battle.SideDefender, a.Board.Neighbor(10, battle.DirLeft))
	a.AddUnit(atk)
	a.AddUnit(def)

	cmds := ForDisposition(DispositionOffensive).Plan(a, atk)
	if len(cmds) != 1 {
		t.Fatalf("expected exactly one command, got %d", len(cmds))
	}
	if _, ok := cmds[0].(battle.AttackCommand); !ok {
		t.Fatalf("expected an attack command, got %T", cmds[0])
	}
}

func TestDefensivePlannerSkipsWhenNoEnemyAdjacent(t *testing.T) {
	a := battle.NewArena(1)
	atk := testUnit(0, battle.SideAttacker, 0)
	def := testUnit(0, battle.SideDefender, battle.CellCount-1)
	a.AddUnit(atk)
	a.AddUnit(def)

	cmds := ForDisposition(DispositionDefensive).Plan(a, atk)
	if len(cmds) != 1 {
		t.Fatalf("expected one command, got %d", len(cmds))
	}
	switch cmds[0].(type) {
	case battle.MoveCommand, battle.SkipCommand:
	default:
		t.Fatalf("expected move or skip, got %T", cmds[0])
	}
}

func TestChooseDispositionSwitchesToBerserkAtLowHP(t *testing.T) {
	u := testUnit(0, battle.SideAttacker, 0)
	u.Count = 1
	u.HPFirst = 1
	got := ChooseDisposition(u, DispositionDefensive)
	if got != DispositionBerserk {
		t.Fatalf("expected berserk at low hp, got %v", got)
	}
}

func TestDistanceMatrixMatchesBoard(t *testing.T) {
	b := battle.NewBoard()
	for _, pair := range [][2]battle.CellIndex{{0, 10}, {5, 50}, {20, 80}} {
		if Distance(pair[0], pair[1]) != b.Distance(pair[0], pair[1]) {
			t.Fatalf("cached distance mismatch for %v", pair)
		}
	}
}

func TestShooterFiresWhenUnblocked(t *testing.T) {
	a := battle.NewArena(1)
	archer := testUnit(0, battle.SideAttacker, 0)
	archer.Shots = 10
	enemy := testUnit(0, battle.SideDefender, battle.CellCount-1)
	a.AddUnit(archer)
	a.AddUnit(enemy)

	cmds := ForDisposition(DispositionOffensive).Plan(a, archer)
	atk, ok := cmds[0].(battle.AttackCommand)
	if !ok || !atk.Ranged {
		t.Fatalf("expected a ranged attack from a free shooter, got %T %+v", cmds[0], cmds[0])
	}
	if atk.FromCell.Valid() {
		t.Fatalf("a ranged attack must not include movement")
	}
}

func TestBlockedShooterNeverEmitsRangedAttack(t *testing.T) {
	a := battle.NewArena(1)
	archer := testUnit(0, battle.SideAttacker, 10)
	archer.Shots = 10
	blocker := testUnit(0, battle.SideDefender, a.Board.Neighbor(10, battle.DirLeft))
	a.AddUnit(archer)
	a.AddUnit(blocker)

	a.BuildTurnOrder()
	a.ActingUnit = archer.ID
	cmds := ForDisposition(DispositionOffensive).Plan(a, archer)
	if atk, ok := cmds[0].(battle.AttackCommand); ok && atk.Ranged {
		t.Fatalf("a blocked shooter must not fire")
	}
	// The planner must only emit commands the arena will accept.
	if err := a.Validate(cmds[0]); err != nil {
		t.Fatalf("planner emitted an invalid command: %v", err)
	}
}

func TestPlanTurnRetreatsWhenHopelesslyOutmatched(t *testing.T) {
	a := battle.NewArena(1)
	lone := testUnit(0, battle.SideAttacker, 0)
	lone.Count = 1
	lone.HPFirst = 1
	lone.HPMax = 1
	a.AddUnit(lone)
	horde := testUnit(0, battle.SideDefender, 60)
	horde.Count = 500
	a.AddUnit(horde)
	a.SetCommander(battle.SideAttacker, &battle.Commander{Side: battle.SideAttacker, Level: 5})
	a.BuildTurnOrder()
	a.ActingUnit = lone.ID

	cmds := PlanTurn(a, lone, DispositionOffensive)
	if _, ok := cmds[0].(battle.RetreatCommand); !ok {
		t.Fatalf("expected a retreat from a hopeless position, got %T", cmds[0])
	}
}

func TestChooseSideDispositionDefensiveWithShooterEdge(t *testing.T) {
	a := battle.NewArena(1)
	archer := testUnit(0, battle.SideAttacker, 0)
	archer.Shots = 10
	brute := testUnit(0, battle.SideDefender, 60)
	a.AddUnit(archer)
	a.AddUnit(brute)

	if got := ChooseSideDisposition(a, battle.SideAttacker); got != DispositionDefensive {
		t.Fatalf("expected the shooter-heavy side to hold ground, got %v", got)
	}
	if got := ChooseSideDisposition(a, battle.SideDefender); got != DispositionOffensive {
		t.Fatalf("expected the shooterless side to push, got %v", got)
	}
}

func TestBerserkModeChargesNearestRegardlessOfSide(t *testing.T) {
	a := battle.NewArena(1)
	mad := testUnit(0, battle.SideAttacker, 40)
	mad.SetTimedMode(battle.ModeBerserk, 1)
	ally := testUnit(0, battle.SideAttacker, a.Board.Neighbor(40, battle.DirRight))
	enemy := testUnit(0, battle.SideDefender, battle.CellCount-1)
	a.AddUnit(mad)
	a.AddUnit(ally)
	a.AddUnit(enemy)

	cmds := PlanTurn(a, mad, DispositionOffensive)
	atk, ok := cmds[0].(battle.AttackCommand)
	if !ok {
		t.Fatalf("expected the berserk stack to attack, got %T", cmds[0])
	}
	if atk.Target != ally.ID {
		t.Fatalf("expected the nearest unit (the ally) targeted, got %v", atk.Target)
	}
}

func TestPlanTurnCastsBestSpellBeforeTactics(t *testing.T) {
	a := battle.NewArena(1)
	mover := testUnit(0, battle.SideAttacker, 0)
	enemy := testUnit(0, battle.SideDefender, 60)
	a.AddUnit(mover)
	a.AddUnit(enemy)
	a.SetCommander(battle.SideAttacker, &battle.Commander{
		Side:        battle.SideAttacker,
		SpellPoints: 20,
		KnownSpells: map[battle.SpellID]int{battle.SpellLightningBolt: 4},
	})
	a.BuildTurnOrder()
	a.ActingUnit = mover.ID

	cmds := PlanTurn(a, mover, DispositionOffensive)
	cast, ok := cmds[0].(battle.SpellcastCommand)
	if !ok {
		t.Fatalf("expected a spellcast before tactical play, got %T", cmds[0])
	}
	if cast.Spell != battle.SpellLightningBolt || cast.Target != enemy.ID {
		t.Fatalf("expected a lightning bolt at the enemy, got %+v", cast)
	}
}

func TestPlanTurnSkipsSpellsOnceCommanderHasCast(t *testing.T) {
	a := battle.NewArena(1)
	mover := testUnit(0, battle.SideAttacker, 0)
	enemy := testUnit(0, battle.SideDefender, 60)
	a.AddUnit(mover)
	a.AddUnit(enemy)
	cm := &battle.Commander{
		Side:        battle.SideAttacker,
		SpellPoints: 20,
		KnownSpells: map[battle.SpellID]int{battle.SpellLightningBolt: 4},
	}
	a.SetCommander(battle.SideAttacker, cm)
	a.BuildTurnOrder()
	cm.CastThisTurn = true // set after BuildTurnOrder, which resets it for the new round
	a.ActingUnit = mover.ID

	cmds := PlanTurn(a, mover, DispositionOffensive)
	if _, ok := cmds[0].(battle.SpellcastCommand); ok {
		t.Fatalf("the commander cannot cast twice in one round")
	}
}

func TestPlanTurnSkipsUnaffordableSpells(t *testing.T) {
	a := battle.NewArena(1)
	mover := testUnit(0, battle.SideAttacker, 0)
	enemy := testUnit(0, battle.SideDefender, 60)
	a.AddUnit(mover)
	a.AddUnit(enemy)
	a.SetCommander(battle.SideAttacker, &battle.Commander{
		Side:        battle.SideAttacker,
		SpellPoints: 2,
		KnownSpells: map[battle.SpellID]int{battle.SpellLightningBolt: 4},
	})
	a.BuildTurnOrder()
	a.ActingUnit = mover.ID

	cmds := PlanTurn(a, mover, DispositionOffensive)
	if _, ok := cmds[0].(battle.SpellcastCommand); ok {
		t.Fatalf("an unaffordable spell must not be cast")
	}
}

func TestPlanSpellcastPrefersHigherValueSpell(t *testing.T) {
	a := battle.NewArena(1)
	mover := testUnit(0, battle.SideAttacker, 0)
	// A big enemy stack: disabling it outvalues a 12-point bolt.
	enemy := testUnit(0, battle.SideDefender, 60)
	enemy.Count = 30
	a.AddUnit(mover)
	a.AddUnit(enemy)
	a.SetCommander(battle.SideAttacker, &battle.Commander{
		Side:        battle.SideAttacker,
		SpellPoints: 20,
		KnownSpells: map[battle.SpellID]int{battle.SpellLightningBolt: 4, battle.SpellBlind: 6},
	})
	a.BuildTurnOrder()
	a.ActingUnit = mover.ID

	cmd, ok := planSpellcast(a, mover)
	if !ok {
		t.Fatalf("expected a cast")
	}
	if cast := cmd.(battle.SpellcastCommand); cast.Spell != battle.SpellBlind {
		t.Fatalf("expected the higher-valued blind, got %v", cast.Spell)
	}
}
