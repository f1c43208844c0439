package battle

// SpellID enumerates the fixed spellbook used by spell-casting units and
// the AI planner. Only the spells named in spec §4.5/§4.6/§8 are modeled;
// a host may extend this list but every cast still flows through Cast.
type SpellID byte

const (
	SpellNone SpellID = iota
	SpellLightningBolt
	SpellChainLightning
	SpellFireball
	SpellFrostRing
	SpellBless
	SpellCurse
	SpellHaste
	SpellSlow
	SpellShield
	SpellBlind
	SpellHypnotize
	SpellBerserker
	SpellPetrify
	SpellParalyze
	SpellBloodlust
	SpellStoneSkin
	SpellSteelSkin
	SpellDragonSlayer
	SpellAntiMagic
	SpellMirrorImage
	SpellSummonMonster
	SpellEarthquake
	SpellDispel
	SpellMassBless
	SpellMassCure
	SpellMassDispel
	SpellCure
	SpellResurrect
)

// TargetShape classifies how a spell selects its targets, which in turn
// determines what SpellcastCommand fields are meaningful.
type TargetShape int

const (
	TargetSingleUnit TargetShape = iota
	TargetChain                  // hits a primary target then hops to nearby units
	TargetAreaOfCells            // ground-targeted burst (Frost Ring, Fireball)
	TargetSide                   // affects every unit of one polarity, or conjures one
	TargetStructure              // affects castle walls (Earthquake)
)

// SpellDef describes one spell's fixed properties.
type SpellDef struct {
	ID         SpellID
	Name       string
	Shape      TargetShape
	BaseDamage int // 0 for non-damage spells
	// Hostile spells allow the target a resistance roll and are blocked
	// by mind-immunity where Mind is also set.
	Hostile bool
	Mind    bool
}

var spellbook = map[SpellID]SpellDef{
	SpellLightningBolt:  {ID: SpellLightningBolt, Name: "Lightning Bolt", Shape: TargetSingleUnit, BaseDamage: 12, Hostile: true},
	SpellChainLightning: {ID: SpellChainLightning, Name: "Chain Lightning", Shape: TargetChain, BaseDamage: 18, Hostile: true},
	SpellFireball:       {ID: SpellFireball, Name: "Fireball", Shape: TargetAreaOfCells, BaseDamage: 14, Hostile: true},
	SpellFrostRing:      {ID: SpellFrostRing, Name: "Frost Ring", Shape: TargetAreaOfCells, BaseDamage: 16, Hostile: true},
	SpellBless:          {ID: SpellBless, Name: "Bless", Shape: TargetSingleUnit},
	SpellCurse:          {ID: SpellCurse, Name: "Curse", Shape: TargetSingleUnit, Hostile: true},
	SpellHaste:          {ID: SpellHaste, Name: "Haste", Shape: TargetSingleUnit},
	SpellSlow:           {ID: SpellSlow, Name: "Slow", Shape: TargetSingleUnit, Hostile: true, Mind: true},
	SpellShield:         {ID: SpellShield, Name: "Shield", Shape: TargetSingleUnit},
	SpellBlind:          {ID: SpellBlind, Name: "Blind", Shape: TargetSingleUnit, Hostile: true, Mind: true},
	SpellHypnotize:      {ID: SpellHypnotize, Name: "Hypnotize", Shape: TargetSingleUnit, Hostile: true, Mind: true},
	SpellBerserker:      {ID: SpellBerserker, Name: "Berserker", Shape: TargetSingleUnit, Hostile: true, Mind: true},
	SpellPetrify:        {ID: SpellPetrify, Name: "Petrify", Shape: TargetSingleUnit, Hostile: true, Mind: true},
	SpellParalyze:       {ID: SpellParalyze, Name: "Paralyze", Shape: TargetSingleUnit, Hostile: true, Mind: true},
	SpellBloodlust:      {ID: SpellBloodlust, Name: "Bloodlust", Shape: TargetSingleUnit},
	SpellStoneSkin:      {ID: SpellStoneSkin, Name: "Stone Skin", Shape: TargetSingleUnit},
	SpellSteelSkin:      {ID: SpellSteelSkin, Name: "Steel Skin", Shape: TargetSingleUnit},
	SpellDragonSlayer:   {ID: SpellDragonSlayer, Name: "Dragon Slayer", Shape: TargetSingleUnit},
	SpellAntiMagic:      {ID: SpellAntiMagic, Name: "Anti-Magic", Shape: TargetSingleUnit},
	SpellMirrorImage:    {ID: SpellMirrorImage, Name: "Mirror Image", Shape: TargetSingleUnit},
	SpellSummonMonster:  {ID: SpellSummonMonster, Name: "Summon Monster", Shape: TargetSide},
	SpellEarthquake:     {ID: SpellEarthquake, Name: "Earthquake", Shape: TargetStructure},
	SpellDispel:         {ID: SpellDispel, Name: "Dispel", Shape: TargetSingleUnit},
	SpellMassBless:      {ID: SpellMassBless, Name: "Mass Bless", Shape: TargetSide},
	SpellMassCure:       {ID: SpellMassCure, Name: "Mass Cure", Shape: TargetSide},
	SpellMassDispel:     {ID: SpellMassDispel, Name: "Mass Dispel", Shape: TargetSide},
	SpellCure:           {ID: SpellCure, Name: "Cure", Shape: TargetSingleUnit},
	SpellResurrect:      {ID: SpellResurrect, Name: "Resurrect", Shape: TargetSingleUnit},
}

func (id SpellID) Def() (SpellDef, bool) {
	d, ok := spellbook[id]
	return d, ok
}

// isCrossSideSpellBypass names the spec §9 open question: Chain
// Lightning is the one spell allowed to hop onto units of the caster's
// OWN side once it runs out of enemy targets within range, modeling the
// original game's documented "hits anyone nearby" quirk rather than the
// stricter same-side-immune rule every other spell follows. Keeping this
// as a single named predicate (instead of an inline side-check scattered
// through the chain-resolution loop) is what the open question asked for.
func isCrossSideSpellBypass(spell SpellID) bool {
	return spell == SpellChainLightning
}

// MindImmune reports whether a unit can never be the target of a
// mind-affecting spell (Hypnotize, Berserker, Blind, Slow's lethargy):
// undead creatures are immune throughout.
func MindImmune(u *Unit) bool {
	return u.IsUndead
}

// CastResult reports what a resolved Spellcast did, for the command log
// and for visual-effect callbacks (spec §6).
type CastResult struct {
	Spell      SpellID
	Hits       []UnitID
	DamageDone map[UnitID]int
	Resisted   []UnitID
}

// resists rolls target's per-unit spell resistance against a hostile
// spell (spec §4.6): mind-immunity is absolute for mind spells; the
// percentage resistance is rolled on the battle RNG otherwise.
func (a *Arena) resists(target *Unit, def SpellDef) bool {
	if !def.Hostile {
		return false
	}
	if target.Mode.Has(ModeAntiMagic) {
		return true
	}
	if def.Mind && MindImmune(target) {
		return true
	}
	return a.RNG.Chance(target.SpellResistPercent)
}

// Cast resolves spell against the declared target(s) on behalf of
// caster, mutating unit state and recording damage/resist outcomes. It
// does not itself check spell-point cost or range legality; Validate
// handles that before Cast is ever invoked, matching the teacher's
// validate-then-resolve-then-apply split.
func (a *Arena) Cast(caster *Unit, cmd SpellcastCommand) CastResult {
	def, ok := cmd.Spell.Def()
	assertf(ok, "cast: unknown spell %d", cmd.Spell)

	res := CastResult{Spell: cmd.Spell, DamageDone: map[UnitID]int{}}
	switch def.Shape {
	case TargetSingleUnit:
		a.castSingleTarget(caster, cmd, def, &res)
	case TargetChain:
		a.castChain(caster, cmd, def, &res)
	case TargetAreaOfCells:
		a.castArea(caster, cmd, def, &res)
	case TargetSide:
		a.castSideEffect(caster, cmd, def, &res)
	case TargetStructure:
		a.castStructure(caster, cmd, def, &res)
	}
	return res
}

func (a *Arena) castSingleTarget(caster *Unit, cmd SpellcastCommand, def SpellDef, res *CastResult) {
	target := a.Units[cmd.Target]
	if target == nil {
		return
	}
	if target.IsDead() && def.ID != SpellResurrect {
		return
	}
	if a.resists(target, def) {
		res.Resisted = append(res.Resisted, target.ID)
		return
	}
	// Anti-Magic repels every spell but the dispels that would strip it.
	if target.Mode.Has(ModeAntiMagic) && def.ID != SpellDispel && def.ID != SpellAntiMagic {
		res.Resisted = append(res.Resisted, target.ID)
		return
	}
	if def.ID == SpellHypnotize && target.TotalHP() > a.Statics.HypnotizeHPThreshold {
		res.Resisted = append(res.Resisted, target.ID)
		return
	}
	switch def.ID {
	case SpellBless:
		target.Mode = target.Mode.Without(ModeCursed).With(ModeBlessed)
	case SpellCurse:
		target.Mode = target.Mode.Without(ModeBlessed).With(ModeCursed)
	case SpellHaste:
		target.SetTimedMode(ModeHasted, 3)
	case SpellSlow:
		target.SetTimedMode(ModeSlowed, 3)
	case SpellShield:
		target.Mode = target.Mode.With(ModeShielded)
	case SpellBlind:
		target.SetTimedMode(ModeBlinded, 2)
	case SpellHypnotize:
		target.CurSide = caster.CurSide
		target.SetTimedMode(ModeHypnotized, 1)
	case SpellBerserker:
		// A berserk stack answers to no one; it stays on its own army's
		// roster but the planner drives it at the nearest living unit.
		target.SetTimedMode(ModeBerserk, 1)
	case SpellPetrify:
		target.SetTimedMode(ModePetrified, 2)
	case SpellParalyze:
		target.SetTimedMode(ModeParalyzed, 2)
	case SpellBloodlust:
		target.SetTimedMode(ModeBloodlust, 3)
	case SpellStoneSkin:
		target.Mode = target.Mode.Without(ModeSteelSkin)
		target.SetTimedMode(ModeStoneSkin, 3)
	case SpellSteelSkin:
		target.Mode = target.Mode.Without(ModeStoneSkin)
		target.SetTimedMode(ModeSteelSkin, 3)
	case SpellDragonSlayer:
		target.SetTimedMode(ModeDragonSlayer, 3)
	case SpellAntiMagic:
		// Strips whatever is on the stack, then wards it.
		target.ClearModes()
		target.SetTimedMode(ModeAntiMagic, 3)
	case SpellCure:
		target.ClearModes()
		target.Heal(a.Statics.ResurrectHP / 2)
	case SpellMirrorImage:
		a.castMirrorImage(caster, target, res)
		return
	case SpellDispel:
		target.ClearModes()
	case SpellResurrect:
		a.castResurrect(caster, target, res)
		return
	default:
		dmg := def.BaseDamage
		killed := target.ApplyDamage(dmg)
		res.Hits = append(res.Hits, target.ID)
		res.DamageDone[target.ID] = dmg
		if killed > 0 {
			a.onUnitKilled(target, killed)
		}
		return
	}
	res.Hits = append(res.Hits, target.ID)
}

// castMirrorImage clones target onto the nearest free, passable cell
// within 4 hexes, links the pair's fates, and registers the clone as a
// fragile one-hit stack (spec §4.5/§8 scenario 5).
func (a *Arena) castMirrorImage(caster, target *Unit, res *CastResult) {
	cell, ok := a.nearestFreeCell(target.Pos.Head, 4, target.Pos)
	if !ok {
		res.Resisted = append(res.Resisted, target.ID)
		return
	}
	clone := *target
	clone.Mode = clone.Mode.With(ModeCloned)
	clone.ModeTurns = nil
	clone.HPFirst = 1
	clone.Count = 1
	clone.MaxCount = 1
	clone.RetaliatesLeft = 0
	clone.ID = a.nextUnitID()
	clone.CurSide = target.CurSide
	clone.Pos = ForUnit(a.Board, &clone, cell)
	clone.MirrorLink = target.ID
	target.MirrorLink = clone.ID
	a.Units[clone.ID] = &clone
	for _, c := range clone.Pos.Cells() {
		a.Board.PlaceOccupant(c, clone.ID)
	}
	a.Pathfinder.InvalidateBoard()
	res.Hits = append(res.Hits, clone.ID)
}

// castResurrect restores a stack from the graveyard (or tops up a
// wounded living stack), reclaiming the raised creatures so they no
// longer feed enemy necromancy (spec §4.8).
func (a *Arena) castResurrect(caster *Unit, target *Unit, res *CastResult) {
	if caster.CurSide != target.CurSide && caster.Side != target.Side {
		return
	}
	hp := a.Statics.ResurrectHP
	if target.IsDead() {
		fallen := a.Graveyard.LastFallenOfSide(target.Pos.Head, target.Side)
		if fallen == nil || fallen.UID != target.ID {
			return
		}
		for _, c := range target.Pos.Cells() {
			if occ := a.Board.OccupantAt(c); occ != UnitIDNone && occ != target.ID {
				// Someone stands on the corpse; the cast fizzles.
				return
			}
		}
		target.Restore(hp)
		a.Graveyard.Reclaim(target.ID, target.Count)
		for _, c := range target.Pos.Cells() {
			a.Board.PlaceOccupant(c, target.ID)
		}
		a.Pathfinder.InvalidateBoard()
	} else {
		before := target.Count
		target.Heal(hp)
		a.Graveyard.Reclaim(target.ID, target.Count-before)
	}
	res.Hits = append(res.Hits, target.ID)
}

// castChain resolves Chain Lightning: it strikes the primary target then
// hops to the nearest not-yet-hit unit within range, falling off in
// damage each hop. Resistance is rolled during selection (a resisting
// unit is skipped, not struck for zero), and — per
// isCrossSideSpellBypass — the bolt will hop onto the caster's own side
// once no enemies remain in range.
func (a *Arena) castChain(caster *Unit, cmd SpellcastCommand, def SpellDef, res *CastResult) {
	primary := a.Units[cmd.Target]
	if primary == nil || primary.IsDead() {
		return
	}
	hit := map[UnitID]bool{}
	dmg := def.BaseDamage
	current := primary
	for hop := 0; hop < a.Statics.ChainLightningMaxHops; hop++ {
		if current == nil || current.IsDead() {
			break
		}
		killed := current.ApplyDamage(dmg)
		res.Hits = append(res.Hits, current.ID)
		res.DamageDone[current.ID] = dmg
		hit[current.ID] = true
		if killed > 0 {
			a.onUnitKilled(current, killed)
		}
		dmg = dmg * a.Statics.ChainLightningFalloffPercent / 100
		current = a.nextChainTarget(current, hit, caster.CurSide, isCrossSideSpellBypass(def.ID), res)
	}
}

func (a *Arena) castArea(caster *Unit, cmd SpellcastCommand, def SpellDef, res *CastResult) {
	center := cmd.TargetCell
	for _, u := range a.Units {
		if u.IsDead() {
			continue
		}
		for _, c := range u.Pos.Cells() {
			if a.Board.Distance(center, c) <= 1 {
				if a.resists(u, def) {
					res.Resisted = append(res.Resisted, u.ID)
					break
				}
				killed := u.ApplyDamage(def.BaseDamage)
				res.Hits = append(res.Hits, u.ID)
				res.DamageDone[u.ID] = def.BaseDamage
				if killed > 0 {
					a.onUnitKilled(u, killed)
				}
				break
			}
		}
	}
}

func (a *Arena) castSideEffect(caster *Unit, cmd SpellcastCommand, def SpellDef, res *CastResult) {
	switch def.ID {
	case SpellMassBless:
		for _, u := range a.Units {
			if u.CurSide == caster.CurSide && !u.IsDead() {
				u.Mode = u.Mode.Without(ModeCursed).With(ModeBlessed)
				res.Hits = append(res.Hits, u.ID)
			}
		}
	case SpellMassCure:
		for _, u := range a.Units {
			if u.CurSide == caster.CurSide && !u.IsDead() {
				u.ClearModes()
				u.Heal(a.Statics.ResurrectHP / 2)
				res.Hits = append(res.Hits, u.ID)
			}
		}
	case SpellMassDispel:
		for _, u := range a.Units {
			if !u.IsDead() {
				u.ClearModes()
				res.Hits = append(res.Hits, u.ID)
			}
		}
	case SpellSummonMonster:
		a.castSummon(caster, res)
	}
}

// summonCandidateCells lists the fixed spawn cells a conjured elemental
// tries in order: the caster's own back column, top to bottom.
func summonCandidateCells(side Side) []CellIndex {
	col := 0
	if side == SideDefender {
		col = BoardWidth - 1
	}
	cells := make([]CellIndex, 0, BoardHeight)
	for row := 0; row < BoardHeight; row++ {
		cells = append(cells, CellIndex(row*BoardWidth+col))
	}
	return cells
}

// castSummon conjures an elemental stack on the first free candidate
// cell of the caster's side. At most one summon per side per battle.
func (a *Arena) castSummon(caster *Unit, res *CastResult) {
	if a.summoned[caster.CurSide] {
		return
	}
	for _, cell := range summonCandidateCells(caster.CurSide) {
		if a.Board.Occupied(cell) || !a.Board.Passable(cell) {
			continue
		}
		n := a.Statics.SummonMonsterCount
		u := &Unit{
			Side: caster.CurSide, Kind: "summoned-elemental",
			Count: n, MaxCount: n, HPMax: 15, HPFirst: 15,
			Attack: 8, Defense: 8, DamageMin: 2, DamageMax: 4, Speed: 6,
			IsSummoned: true,
			Pos:        NewPosition(cell),
		}
		a.AddUnit(u)
		a.summoned[caster.CurSide] = true
		a.Pathfinder.InvalidateBoard()
		res.Hits = append(res.Hits, u.ID)
		return
	}
}

// castStructure resolves Earthquake: it damages every standing wall
// segment by a random amount in the configured range; the bridge gets
// an extra chance to shrug the tremor off entirely (spec §4.5/§4.7).
func (a *Arena) castStructure(caster *Unit, cmd SpellcastCommand, def SpellDef, res *CastResult) {
	if a.Siege == nil {
		return
	}
	for i := range a.Siege.Walls {
		w := &a.Siege.Walls[i]
		if w.Destroyed {
			continue
		}
		if w.ID == SiegeTargetGate && a.RNG.Chance(a.Statics.EarthquakeBridgeMissPercent) {
			continue
		}
		dmg := a.RNG.Range(a.Statics.EarthquakeDamageMin, a.Statics.EarthquakeDamageMax)
		a.Siege.ApplyCatapultHit(w.ID, dmg)
	}
}

// nearestFreeCell finds the closest unoccupied, passable cell within
// maxDist of origin that is not part of exclude, for placing a Mirror
// Image clone off of its original's cell rather than stacking on it.
func (a *Arena) nearestFreeCell(origin CellIndex, maxDist int, exclude Position) (CellIndex, bool) {
	best := InvalidCell
	bestDist := 1 << 30
	for idx := CellIndex(0); int(idx) < CellCount; idx++ {
		if exclude.Contains(idx) || !a.Board.Passable(idx) || a.Board.Occupied(idx) {
			continue
		}
		d := a.Board.Distance(origin, idx)
		if d == 0 || d > maxDist {
			continue
		}
		if d < bestDist {
			best, bestDist = idx, d
		}
	}
	return best, best.Valid()
}

// nextChainTarget finds the closest living unit not already hit, per the
// chain-lightning hop rule: prefers the enemy side unless bypass allows
// falling back to the caster's own side when no enemies remain in
// range. A unit that wins its resistance roll is skipped for good and
// recorded as resisted.
func (a *Arena) nextChainTarget(from *Unit, hit map[UnitID]bool, casterSide Side, bypass bool, res *CastResult) *Unit {
	def := spellbook[SpellChainLightning]
	for {
		var best *Unit
		bestDist := 1 << 30
		consider := func(side Side) {
			for _, u := range a.Units {
				if u.IsDead() || hit[u.ID] || u.CurSide != side {
					continue
				}
				d := a.Board.Distance(from.Pos.Head, u.Pos.Head)
				if d <= 2 && d < bestDist {
					best, bestDist = u, d
				}
			}
		}
		consider(casterSide.Opponent())
		if best == nil && bypass {
			consider(casterSide)
		}
		if best == nil {
			return nil
		}
		if !a.resists(best, def) {
			return best
		}
		hit[best.ID] = true
		res.Resisted = append(res.Resisted, best.ID)
	}
}
