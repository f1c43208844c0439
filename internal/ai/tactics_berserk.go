package ai

import "github.com/forgehex/hexwar/api/pkg/battle"

// berserkPlanner drives a stack that has stopped taking orders: under
// the Berserker spell, or so badly mauled it abandons tactics. It
// shoots the nearest living unit if it can, otherwise charges and
// strikes the nearest one regardless of side (spec §4.9 step 1); the
// Arena's friendly-fire validation still applies for ordinary units, so
// the friendly-target branch only survives for truly berserk stacks.
type berserkPlanner struct{}

func (berserkPlanner) Name() string { return "berserk" }

func (berserkPlanner) Plan(a *battle.Arena, u *battle.Unit) []battle.Command {
	var target *battle.Unit
	if u.Mode.Has(battle.ModeBerserk) {
		target = NearestAnyUnit(a, u)
	} else {
		target = NearestEnemy(a, u)
	}
	if target == nil {
		return []battle.Command{battle.SkipCommand{Unit: u.ID}}
	}
	if u.IsShooter() && adjacentEnemy(a, u) == nil {
		return []battle.Command{battle.AttackCommand{
			Unit: u.ID, Target: target.ID, FromCell: battle.InvalidCell, Ranged: true,
		}}
	}
	if cmd, ok := attackIfAdjacent(a, u, target); ok {
		return []battle.Command{cmd}
	}
	if cmd, ok := moveTowardAndStrike(a, u, target); ok {
		return []battle.Command{cmd}
	}
	if cmd, ok := approach(a, u, target.Pos.Head); ok {
		return []battle.Command{cmd}
	}
	return []battle.Command{battle.SkipCommand{Unit: u.ID}}
}
