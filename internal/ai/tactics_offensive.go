package ai

import "github.com/forgehex/hexwar/api/pkg/battle"

// offensivePlanner seeks out the most rewarding enemy stack and either
// strikes it immediately or moves to set up next turn's strike,
// mirroring the "aggressive" candidate bias in the teacher's hard
// strategy scoring. Shooters fire from where they stand unless blocked
// in melee, in which case they fight hand to hand or pull back.
type offensivePlanner struct{}

func (offensivePlanner) Name() string { return "offensive" }

func (offensivePlanner) Plan(a *battle.Arena, u *battle.Unit) []battle.Command {
	if cmds, ok := planShooterTurn(a, u); ok {
		return cmds
	}
	target := WeakestEnemy(a, u)
	if target == nil {
		return []battle.Command{battle.SkipCommand{Unit: u.ID}}
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

// planShooterTurn handles a unit with ammunition: shoot the best target
// when free, melee the adjacent enemy when blocked, or step out to a
// safer cell when blocked and outmatched. Returns ok=false for
// non-shooters so melee planning takes over.
func planShooterTurn(a *battle.Arena, u *battle.Unit) ([]battle.Command, bool) {
	if !u.IsShooter() {
		return nil, false
	}
	if blocker := adjacentEnemy(a, u); blocker != nil {
		// Blocked: trade in melee when the exchange favors us, otherwise
		// pull back toward the safest reachable cell and keep the bow.
		if AttackValue(u, blocker) > AttackValue(blocker, u)*0.8 {
			return []battle.Command{battle.AttackCommand{
				Unit: u.ID, Target: blocker.ID, FromCell: battle.InvalidCell,
			}}, true
		}
		if cell, ok := safestReachableCell(a, u); ok {
			return []battle.Command{battle.MoveCommand{Unit: u.ID, Target: cell}}, true
		}
		return []battle.Command{battle.SkipCommand{Unit: u.ID}}, true
	}
	if target := BestShotTarget(a, u); target != nil {
		return []battle.Command{battle.AttackCommand{
			Unit: u.ID, Target: target.ID, FromCell: battle.InvalidCell, Ranged: true,
		}}, true
	}
	return []battle.Command{battle.SkipCommand{Unit: u.ID}}, true
}

// adjacentEnemy returns a living enemy standing next to u, or nil.
func adjacentEnemy(a *battle.Arena, u *battle.Unit) *battle.Unit {
	for _, other := range a.Units {
		if other.IsDead() || !isEnemy(other, u.CurSide) {
			continue
		}
		for _, uc := range u.Pos.Cells() {
			for _, oc := range other.Pos.Cells() {
				if a.Board.AreAdjacent(uc, oc) {
					return other
				}
			}
		}
	}
	return nil
}

// attackIfAdjacent builds a melee AttackCommand when u is already
// adjacent to target.
func attackIfAdjacent(a *battle.Arena, u, target *battle.Unit) (battle.AttackCommand, bool) {
	for _, uc := range u.Pos.Cells() {
		for _, tc := range target.Pos.Cells() {
			if a.Board.AreAdjacent(uc, tc) {
				return battle.AttackCommand{Unit: u.ID, Target: target.ID, FromCell: battle.InvalidCell}, true
			}
		}
	}
	return battle.AttackCommand{}, false
}

// moveTowardAndStrike finds the best reachable attack position adjacent
// to target — ranked by PositionValue so the chosen cell also blocks
// shooters and avoids exposed ground — and issues a single
// attack-with-move command.
func moveTowardAndStrike(a *battle.Arena, u, target *battle.Unit) (battle.AttackCommand, bool) {
	reach := a.Pathfinder.Reachable(u)
	var best battle.CellIndex = battle.InvalidCell
	bestValue := 0.0
	for cell := range reach {
		adjacent := false
		for _, tc := range target.Pos.Cells() {
			if a.Board.AreAdjacent(cell, tc) {
				adjacent = true
			}
		}
		if !adjacent {
			continue
		}
		v := PositionValue(a, u, cell)
		if !best.Valid() || v > bestValue {
			best, bestValue = cell, v
		}
	}
	if !best.Valid() {
		return battle.AttackCommand{}, false
	}
	return battle.AttackCommand{Unit: u.ID, Target: target.ID, FromCell: best}, true
}

// approach moves u one step closer to dest when no attack is possible
// this turn, picking the reachable cell with the smallest remaining
// distance to dest.
func approach(a *battle.Arena, u *battle.Unit, dest battle.CellIndex) (battle.MoveCommand, bool) {
	reach := a.Pathfinder.Reachable(u)
	var best battle.CellIndex = battle.InvalidCell
	bestDist := Distance(u.Pos.Head, dest)
	for cell := range reach {
		if d := Distance(cell, dest); d < bestDist {
			best, bestDist = cell, d
		}
	}
	if !best.Valid() {
		return battle.MoveCommand{}, false
	}
	return battle.MoveCommand{Unit: u.ID, Target: best}, true
}
