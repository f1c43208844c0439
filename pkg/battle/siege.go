package battle

// SiegeTargetID identifies one destructible castle structure a catapult
// shot or Earthquake can hit.
type SiegeTargetID byte

const (
	SiegeTargetWallLeft SiegeTargetID = iota
	SiegeTargetWallCenter
	SiegeTargetWallRight
	SiegeTargetGate
	SiegeTargetTowerLeft
	SiegeTargetTowerRight
)

// TowerID identifies one of the castle's defense towers.
type TowerID byte

const (
	TowerLeft TowerID = iota
	TowerRight
	TowerKeep
)

// WallSegment tracks one destructible structure's remaining condition.
type WallSegment struct {
	ID        SiegeTargetID
	Condition int
	MaxHP     int
	Destroyed bool
}

// Bridge is the castle gate's drawbridge: up (impassable, counts as
// moat), down (passable), or destroyed (permanently passable, counts as
// rubble rather than moat).
type Bridge struct {
	Down      bool
	Destroyed bool
}

// Passable reports whether the bridge currently lets units cross the
// gate cell.
func (br *Bridge) Passable() bool {
	return br.Down || br.Destroyed
}

// Tower is a castle defense structure that fires automatically each
// round at the most threatening attacker within range, independent of any unit
// command, until its host wall segment falls.
type Tower struct {
	ID       TowerID
	Damage   int
	Range    int
	Position CellIndex
	Disabled bool
}

// Siege bundles every castle-battle structure: the walls, the gate
// bridge and the defense towers. A non-castle battle leaves Arena.Siege
// nil.
type Siege struct {
	Walls  []WallSegment
	Bridge Bridge
	Towers []Tower
}

// NewSiege builds the standard castle siege layout: three wall segments,
// a gate/bridge, and two flanking towers plus the keep tower.
func NewSiege() *Siege {
	return &Siege{
		Walls: []WallSegment{
			{ID: SiegeTargetWallLeft, Condition: 20, MaxHP: 20},
			{ID: SiegeTargetWallCenter, Condition: 20, MaxHP: 20},
			{ID: SiegeTargetWallRight, Condition: 20, MaxHP: 20},
			{ID: SiegeTargetGate, Condition: 30, MaxHP: 30},
			{ID: SiegeTargetTowerLeft, Condition: 15, MaxHP: 15},
			{ID: SiegeTargetTowerRight, Condition: 15, MaxHP: 15},
		},
		Bridge: Bridge{Down: true},
		Towers: []Tower{
			{ID: TowerLeft, Damage: 10, Range: 6, Position: 8},
			{ID: TowerRight, Damage: 10, Range: 6, Position: 96},
			{ID: TowerKeep, Damage: 14, Range: 8, Position: 50},
		},
	}
}

// Wall returns the wall segment with the given id.
func (s *Siege) Wall(id SiegeTargetID) *WallSegment {
	for i := range s.Walls {
		if s.Walls[i].ID == id {
			return &s.Walls[i]
		}
	}
	return nil
}

// ApplyCatapultHit damages the targeted structure, disabling the
// matching tower if a tower's own wall section is destroyed.
func (s *Siege) ApplyCatapultHit(target SiegeTargetID, dmg int) {
	w := s.Wall(target)
	if w == nil || w.Destroyed {
		return
	}
	w.Condition -= dmg
	if w.Condition <= 0 {
		w.Condition = 0
		w.Destroyed = true
		if target == SiegeTargetGate {
			s.Bridge.Destroyed = true
		}
		for i := range s.Towers {
			if (target == SiegeTargetTowerLeft && s.Towers[i].ID == TowerLeft) ||
				(target == SiegeTargetTowerRight && s.Towers[i].ID == TowerRight) {
				s.Towers[i].Disabled = true
			}
		}
	}
}

// FireTowers resolves every active tower's automatic shot, each aimed
// at the most threatening attacker within range: the stack with the
// highest damage potential, shooters weighted up since they hurt the
// garrison from anywhere (spec §4.5 Tower).
func (a *Arena) FireTowers() map[UnitID]int {
	out := map[UnitID]int{}
	if a.Siege == nil {
		return out
	}
	for _, t := range a.Siege.Towers {
		if t.Disabled {
			continue
		}
		var target *Unit
		best := -1
		for _, u := range a.Units {
			if u.IsDead() || u.Side != SideAttacker {
				continue
			}
			if a.Board.Distance(t.Position, u.Pos.Head) > t.Range {
				continue
			}
			threat := u.Count * u.DamageMax
			if u.IsShooter() {
				threat *= 2
			}
			if threat > best {
				target, best = u, threat
			}
		}
		if target != nil {
			killed := target.ApplyDamage(t.Damage)
			out[target.ID] += t.Damage
			if killed > 0 {
				a.onUnitKilled(target, killed)
			}
		}
	}
	return out
}
