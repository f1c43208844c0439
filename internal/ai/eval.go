package ai

import (
	"sync"

	"github.com/forgehex/hexwar/api/pkg/battle"
)

// distMatrix is an all-pairs hex-distance table over the fixed-size
// battle board, computed once and cached, the way the teacher's
// distMatrix amortizes province BFS distances across an entire
// AI-vs-AI match. The board geometry never changes between battles (the
// cell count and adjacency rule are fixed), only passability does, so a
// single cached table of raw hex distances — ignoring obstacles — is
// safe to share across every battle and every planner instance.
type distMatrix struct {
	dist [battle.CellCount][battle.CellCount]int16
}

var (
	distOnce   sync.Once
	cachedDist *distMatrix
)

func getDistMatrix() *distMatrix {
	distOnce.Do(func() {
		b := battle.NewBoard()
		m := &distMatrix{}
		for i := 0; i < battle.CellCount; i++ {
			for j := 0; j < battle.CellCount; j++ {
				m.dist[i][j] = int16(b.Distance(battle.CellIndex(i), battle.CellIndex(j)))
			}
		}
		cachedDist = m
	})
	return cachedDist
}

// Distance returns the cached hex distance between two cells.
func Distance(a, c battle.CellIndex) int {
	return int(getDistMatrix().dist[a][c])
}

// isEnemy reports whether other currently fights against side, which is
// a question about controlling color: a hypnotized ally is an enemy for
// as long as the spell holds.
func isEnemy(other *battle.Unit, side battle.Side) bool {
	return other.CurSide != side
}

// ThreatScore estimates how dangerous it would be for a unit to end its
// turn on cell, counting enemy units within their own melee or ranged
// reach of it: each enemy able to reach and strike cell next turn adds
// its expected damage to the total.
func ThreatScore(a *battle.Arena, side battle.Side, cell battle.CellIndex) float64 {
	score := 0.0
	for _, u := range a.Units {
		if u.IsDead() || !isEnemy(u, side) {
			continue
		}
		reach := u.EffectiveSpeed() + 1
		if u.IsShooter() {
			reach = 8
		}
		if Distance(u.Pos.Head, cell) <= reach {
			score += float64(u.DamageMax) * float64(u.Count)
		}
	}
	return score
}

// AttackValue estimates the damage attacker would land on defender in
// one exchange, net of the expected retaliation: average damage scaled
// by the attack/defense gap, doubled for double-strikers, minus the
// defender's answer when it still holds a retaliation charge. The
// mirror-image multiplier makes one-hit-kills of clones irresistible.
func AttackValue(attacker, defender *battle.Unit) float64 {
	avg := func(u *battle.Unit) float64 {
		return float64(u.DamageMin+u.DamageMax) / 2 * float64(u.Count)
	}
	gap := float64(attacker.Attack-defender.Defense)*0.05 + 1
	if gap < 0.2 {
		gap = 0.2
	}
	value := avg(attacker) * gap
	if attacker.IsDoubleAttack {
		value *= 2
	}
	if defender.Mode.Has(battle.ModeCloned) {
		value *= 10
	}
	if defender.RetaliatesLeft > 0 && !attacker.IsNoRetaliate {
		value -= avg(defender) * 0.5
	}
	return value
}

// PositionValue scores how good cell is for side to occupy: closer to
// weak enemies is better, closer to strong threats is worse. This is the planner's equivalent of the teacher's
// ProvinceThreat/NearestUnownedSC scoring, adapted from "provinces with
// supply centers" to "cells near woundable enemy stacks".
func PositionValue(a *battle.Arena, mover *battle.Unit, cell battle.CellIndex) float64 {
	value := 0.0
	for _, u := range a.Units {
		if u.IsDead() {
			continue
		}
		d := Distance(cell, u.Pos.Head)
		if isEnemy(u, mover.CurSide) {
			weakness := 1.0 / float64(u.TotalHP()+1)
			value += weakness * 100.0 / float64(d+1)
			// Standing next to an enemy shooter gags it: adjacency forces
			// it into half-strength melee (spec §4.9's archer-blocking
			// preference).
			if u.IsShooter() && d <= 1 {
				value += float64(u.DamageMax) * float64(u.Count) * 0.05
			}
		}
	}
	value -= ThreatScore(a, mover.CurSide, cell) * 0.1
	return value
}

// SideStrength totals a side's fighting power by army color: the sum of
// every living stack's HP-weighted damage output.
func SideStrength(a *battle.Arena, side battle.Side) float64 {
	total := 0.0
	for _, u := range a.Units {
		if u.IsDead() || u.Side != side || u.IsEphemeral() {
			continue
		}
		total += float64(u.TotalHP()) * float64(u.DamageMin+u.DamageMax) / 2
	}
	return total
}

// NearestEnemy returns the living enemy unit closest to mover, or nil if
// none remain.
func NearestEnemy(a *battle.Arena, mover *battle.Unit) *battle.Unit {
	var best *battle.Unit
	bestDist := 1 << 30
	for _, u := range a.Units {
		if u.IsDead() || !isEnemy(u, mover.CurSide) {
			continue
		}
		d := Distance(mover.Pos.Head, u.Pos.Head)
		if d < bestDist {
			best, bestDist = u, d
		}
	}
	return best
}

// NearestAnyUnit returns the living unit closest to mover regardless of
// side, which is what a berserk stack charges.
func NearestAnyUnit(a *battle.Arena, mover *battle.Unit) *battle.Unit {
	var best *battle.Unit
	bestDist := 1 << 30
	for _, u := range a.Units {
		if u.IsDead() || u.ID == mover.ID {
			continue
		}
		d := Distance(mover.Pos.Head, u.Pos.Head)
		if d < bestDist {
			best, bestDist = u, d
		}
	}
	return best
}

// WeakestEnemy returns the living enemy unit with the least total HP,
// the planner's preferred finishing-blow target.
func WeakestEnemy(a *battle.Arena, mover *battle.Unit) *battle.Unit {
	var best *battle.Unit
	bestHP := 1 << 30
	for _, u := range a.Units {
		if u.IsDead() || !isEnemy(u, mover.CurSide) {
			continue
		}
		if hp := u.TotalHP(); hp < bestHP {
			best, bestHP = u, hp
		}
	}
	return best
}

// BestShotTarget ranks every enemy by AttackValue for a shooter and
// returns the highest scorer, or nil with no enemies left.
func BestShotTarget(a *battle.Arena, shooter *battle.Unit) *battle.Unit {
	var best *battle.Unit
	bestValue := 0.0
	for _, u := range a.Units {
		if u.IsDead() || !isEnemy(u, shooter.CurSide) {
			continue
		}
		v := AttackValue(shooter, u)
		if best == nil || v > bestValue {
			best, bestValue = u, v
		}
	}
	return best
}
