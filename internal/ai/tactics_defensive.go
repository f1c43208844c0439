package ai

import "github.com/forgehex/hexwar/api/pkg/battle"

// defensivePlanner holds ground and covers the side's shooters: it only
// strikes when an enemy is already adjacent (or ammunition allows a
// free ranged shot) and otherwise moves to the best defensive cell,
// mirroring the teacher's "defensive" candidate bias
// (connectivity/threat-minimizing) in strategy_hard.go's scoring.
type defensivePlanner struct{}

func (defensivePlanner) Name() string { return "defensive" }

func (defensivePlanner) Plan(a *battle.Arena, u *battle.Unit) []battle.Command {
	if cmds, ok := planShooterTurn(a, u); ok {
		return cmds
	}
	if target := NearestEnemy(a, u); target != nil {
		if cmd, ok := attackIfAdjacent(a, u, target); ok {
			return []battle.Command{cmd}
		}
	}
	if cell, ok := bestCoverCell(a, u); ok {
		if cell != u.Pos.Head {
			return []battle.Command{battle.MoveCommand{Unit: u.ID, Target: cell}}
		}
		return []battle.Command{battle.SkipCommand{Unit: u.ID}}
	}
	if cell, ok := safestReachableCell(a, u); ok {
		return []battle.Command{battle.MoveCommand{Unit: u.ID, Target: cell}}
	}
	return []battle.Command{battle.SkipCommand{Unit: u.ID}}
}

// bestCoverCell finds the reachable cell that best screens the side's
// most valuable friendly shooter: adjacent to the archer, between it
// and the nearest enemy (spec §4.9 Defensive). ok=false when the side
// has no shooters worth covering.
func bestCoverCell(a *battle.Arena, u *battle.Unit) (battle.CellIndex, bool) {
	var archer *battle.Unit
	bestStrength := 0.0
	for _, f := range a.Units {
		if f.IsDead() || f.ID == u.ID || isEnemy(f, u.CurSide) || !f.IsShooter() {
			continue
		}
		s := float64(f.Count) * float64(f.DamageMax)
		if archer == nil || s > bestStrength {
			archer, bestStrength = f, s
		}
	}
	if archer == nil {
		return battle.InvalidCell, false
	}
	threat := NearestEnemy(a, archer)
	reach := a.Pathfinder.Reachable(u)
	var best battle.CellIndex = battle.InvalidCell
	bestScore := 0.0
	for cell := range reach {
		d := Distance(cell, archer.Pos.Head)
		if d > 2 {
			continue
		}
		score := bestStrength - float64(d)*10
		if threat != nil {
			score -= float64(Distance(cell, threat.Pos.Head)) * 5
		}
		if !best.Valid() || score > bestScore {
			best, bestScore = cell, score
		}
	}
	return best, best.Valid()
}

// safestReachableCell returns the reachable cell with the highest
// position value for u, breaking ties in favor of staying closer to
// weakened enemies so a defensive unit still contributes finishing
// blows when safe to do so.
func safestReachableCell(a *battle.Arena, u *battle.Unit) (battle.CellIndex, bool) {
	reach := a.Pathfinder.Reachable(u)
	var best battle.CellIndex = battle.InvalidCell
	bestValue := -1.0
	first := true
	for cell := range reach {
		v := PositionValue(a, u, cell)
		if first || v > bestValue {
			best, bestValue, first = cell, v, false
		}
	}
	return best, best.Valid()
}
