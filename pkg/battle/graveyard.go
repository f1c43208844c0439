package battle

// FallenUnit records a creature stack's casualties on the cells it held
// when it fell, kept so resurrection spells and necromancy can reason
// about where corpses lie (spec §4.8). A wide unit is findable under
// both of its cells.
type FallenUnit struct {
	UID      UnitID
	Kind     string
	Side     Side
	Count    int
	Cells    []CellIndex
	IsUndead bool
}

// Graveyard accumulates FallenUnit entries for the duration of a battle.
// Entries are appended as stacks take losses; resurrection reclaims
// creatures back out of an entry, and necromancy resolution at battle
// end consumes the remainder.
type Graveyard struct {
	entries []FallenUnit
}

// NewGraveyard returns an empty graveyard.
func NewGraveyard() *Graveyard {
	return &Graveyard{}
}

// Record adds count casualties from u under every cell of its current
// footprint. Ephemeral stacks (mirror images, summons) are the caller's
// responsibility to exclude; towers never reach here because they are
// structures, not units.
func (g *Graveyard) Record(u *Unit, count int) {
	if count <= 0 {
		return
	}
	cells := make([]CellIndex, len(u.Pos.Cells()))
	copy(cells, u.Pos.Cells())
	g.entries = append(g.entries, FallenUnit{
		UID: u.ID, Kind: u.Kind, Side: u.Side, Count: count,
		Cells: cells, IsUndead: u.IsUndead,
	})
}

// Entries returns every fallen stack recorded so far.
func (g *Graveyard) Entries() []FallenUnit {
	return g.entries
}

// LastFallenAt returns the most recently buried stack lying under cell,
// or nil if the cell holds no corpse.
func (g *Graveyard) LastFallenAt(cell CellIndex) *FallenUnit {
	for i := len(g.entries) - 1; i >= 0; i-- {
		for _, c := range g.entries[i].Cells {
			if c == cell {
				return &g.entries[i]
			}
		}
	}
	return nil
}

// LastFallenOfSide returns the most recently buried stack of side lying
// under cell, which is what a resurrection spell cast by that side's
// commander targets.
func (g *Graveyard) LastFallenOfSide(cell CellIndex, side Side) *FallenUnit {
	for i := len(g.entries) - 1; i >= 0; i-- {
		e := &g.entries[i]
		if e.Side != side {
			continue
		}
		for _, c := range e.Cells {
			if c == cell {
				return e
			}
		}
	}
	return nil
}

// Reclaim removes up to want creatures from the most recent entry for
// uid, returning how many were actually taken. Resurrection uses this
// so raised creatures stop counting toward enemy necromancy.
func (g *Graveyard) Reclaim(uid UnitID, want int) int {
	if want <= 0 {
		return 0
	}
	taken := 0
	for i := len(g.entries) - 1; i >= 0 && taken < want; i-- {
		e := &g.entries[i]
		if e.UID != uid {
			continue
		}
		n := minInt(e.Count, want-taken)
		e.Count -= n
		taken += n
	}
	return taken
}

// CountBySide totals how many non-undead creatures fell for a side,
// which is the pool necromancy converts at battle end.
func (g *Graveyard) CountBySide(side Side) int {
	total := 0
	for _, e := range g.entries {
		if e.Side == side && !e.IsUndead {
			total += e.Count
		}
	}
	return total
}

// RaiseSkeletons converts percent% of the enemy dead into skeleton
// creatures for raiser, per spec §4.8 and the NecromancyRaisePercent
// static. Returns the number of skeletons raised; the caller is
// responsible for adding a new Unit stack to the Arena's roster.
func (g *Graveyard) RaiseSkeletons(raiser Side, percent int) int {
	enemy := raiser.Opponent()
	fallen := g.CountBySide(enemy)
	if fallen <= 0 || percent <= 0 {
		return 0
	}
	raised := fallen * percent / 100
	return raised
}
