package ai

import (
	"sort"

	"github.com/forgehex/hexwar/api/pkg/battle"
)

// planSpellcast is spec §4.9 step 3: before a unit commits to a move or
// attack, the side's commander ranks every spell it knows and can
// afford by estimated net value — damage dealt, threats disabled,
// buffs restored — and casts the best one if that value is positive.
// Values are on the same scale as AttackValue (expected hit points), so
// "is this cast worth more than a sword stroke" is a direct comparison.
func planSpellcast(a *battle.Arena, u *battle.Unit) (battle.Command, bool) {
	cm := battleCommander(a, u.CurSide)
	if cm == nil || cm.CastThisTurn {
		return nil, false
	}
	known := make([]battle.SpellID, 0, len(cm.KnownSpells))
	for spell := range cm.KnownSpells {
		known = append(known, spell)
	}
	sort.Slice(known, func(i, j int) bool { return known[i] < known[j] })

	var best battle.Command
	bestValue := 0.0
	for _, spell := range known {
		if !cm.CanAfford(spell) {
			continue
		}
		cmd, value := scoreCast(a, u, spell)
		if cmd == nil || value <= 0 || value <= bestValue {
			continue
		}
		if a.Validate(cmd) != nil {
			continue
		}
		best, bestValue = cmd, value
	}
	return best, best != nil
}

// avgStackDamage is a stack's expected single-strike output.
func avgStackDamage(u *battle.Unit) float64 {
	return float64(u.DamageMin+u.DamageMax) / 2 * float64(u.Count)
}

// damageWorth values dmg points of spell damage against target: capped
// by its remaining HP, with a finishing-blow bonus.
func damageWorth(dmg int, target *battle.Unit) float64 {
	hp := target.TotalHP()
	if dmg >= hp {
		return float64(hp) * 1.5
	}
	return float64(dmg)
}

// spellLegalOn filters targets a hostile cast would waste itself on.
func spellLegalOn(def battle.SpellDef, target *battle.Unit) bool {
	if def.Mind && battle.MindImmune(target) {
		return false
	}
	return !target.Mode.Has(battle.ModeAntiMagic)
}

// scoreCast estimates the best target and net value for one spell, in
// expected hit points. Returns nil when the spell has no worthwhile
// target right now.
func scoreCast(a *battle.Arena, u *battle.Unit, spell battle.SpellID) (battle.Command, float64) {
	def, ok := spell.Def()
	if !ok {
		return nil, 0
	}
	cast := func(target battle.UnitID, cell battle.CellIndex) battle.Command {
		return battle.SpellcastCommand{Unit: u.ID, Spell: spell, Target: target, TargetCell: cell}
	}

	switch spell {
	case battle.SpellLightningBolt:
		if t := bestDamageTarget(a, u, def, def.BaseDamage); t != nil {
			return cast(t.ID, battle.InvalidCell), damageWorth(def.BaseDamage, t)
		}
	case battle.SpellChainLightning:
		// Primary at full damage plus roughly one half-damage hop; a
		// friendly stack near the target eats into the value because the
		// bolt hops onto our own side once enemies run out.
		if t := bestDamageTarget(a, u, def, def.BaseDamage); t != nil {
			value := damageWorth(def.BaseDamage, t)
			for _, other := range a.Units {
				if other.IsDead() || other.ID == t.ID {
					continue
				}
				if Distance(t.Pos.Head, other.Pos.Head) > 2 {
					continue
				}
				hop := damageWorth(def.BaseDamage/2, other)
				if isEnemy(other, u.CurSide) {
					value += hop / 2
				} else {
					value -= hop
				}
			}
			return cast(t.ID, battle.InvalidCell), value
		}
	case battle.SpellFireball, battle.SpellFrostRing:
		cell, value := bestBurstCenter(a, u, def)
		if cell.Valid() {
			return cast(battle.UnitIDNone, cell), value
		}
	case battle.SpellSlow, battle.SpellCurse:
		if t := strongestEnemyWithout(a, u, def, modeFor(spell)); t != nil {
			return cast(t.ID, battle.InvalidCell), avgStackDamage(t) * 0.4
		}
	case battle.SpellBlind, battle.SpellParalyze, battle.SpellPetrify:
		if t := strongestEnemyWithout(a, u, def, modeFor(spell)); t != nil {
			// Two lost turns, minus nothing: the stack is out of the fight.
			return cast(t.ID, battle.InvalidCell), avgStackDamage(t) * 1.5
		}
	case battle.SpellBerserker:
		if t := strongestEnemyWithout(a, u, def, battle.ModeBerserk); t != nil {
			return cast(t.ID, battle.InvalidCell), avgStackDamage(t) * 1.2
		}
	case battle.SpellHypnotize:
		if t := strongestEnemyWithout(a, u, def, battle.ModeHypnotized); t != nil &&
			t.TotalHP() <= a.Statics.HypnotizeHPThreshold {
			return cast(t.ID, battle.InvalidCell), avgStackDamage(t) * 2
		}
	case battle.SpellBless:
		if t := strongestAllyWithout(a, u, battle.ModeBlessed); t != nil {
			return cast(t.ID, battle.InvalidCell), blessGain(t)
		}
	case battle.SpellMassBless:
		total := 0.0
		for _, f := range a.Units {
			if !f.IsDead() && !isEnemy(f, u.CurSide) && !f.Mode.Has(battle.ModeBlessed) {
				total += blessGain(f)
			}
		}
		if total > 0 {
			return cast(battle.UnitIDNone, battle.InvalidCell), total
		}
	case battle.SpellHaste:
		if t := strongestAllyWithout(a, u, battle.ModeHasted); t != nil && NearestEnemy(a, t) != nil {
			return cast(t.ID, battle.InvalidCell), avgStackDamage(t) * 0.3
		}
	case battle.SpellBloodlust:
		if t := strongestAllyWithout(a, u, battle.ModeBloodlust); t != nil {
			return cast(t.ID, battle.InvalidCell), avgStackDamage(t) * 0.3
		}
	case battle.SpellStoneSkin, battle.SpellSteelSkin:
		if t := strongestAllyWithout(a, u, battle.ModeStoneSkin|battle.ModeSteelSkin); t != nil {
			return cast(t.ID, battle.InvalidCell), float64(t.TotalHP()) * 0.15
		}
	case battle.SpellShield:
		if enemyShooterDamage(a, u) <= 0 {
			return nil, 0
		}
		if t := strongestAllyWithout(a, u, battle.ModeShielded); t != nil {
			return cast(t.ID, battle.InvalidCell), enemyShooterDamage(a, u) * 0.25
		}
	case battle.SpellDragonSlayer:
		hasDragon := false
		for _, e := range a.Units {
			if !e.IsDead() && isEnemy(e, u.CurSide) && e.IsDragon {
				hasDragon = true
			}
		}
		if !hasDragon {
			return nil, 0
		}
		if t := strongestAllyWithout(a, u, battle.ModeDragonSlayer); t != nil {
			return cast(t.ID, battle.InvalidCell), avgStackDamage(t)
		}
	case battle.SpellCure, battle.SpellMassCure:
		if t := mostWoundedAlly(a, u); t != nil {
			missing := t.MaxCount*t.HPMax - t.TotalHP()
			heal := minInt(missing, a.Statics.ResurrectHP/2)
			return cast(t.ID, battle.InvalidCell), float64(heal)
		}
	case battle.SpellDispel:
		if t := mostAfflictedAlly(a, u); t != nil {
			return cast(t.ID, battle.InvalidCell), avgStackDamage(t) * 0.5
		}
	case battle.SpellMassDispel:
		// Strips everyone: enemy buffs are gains, our own are losses.
		const buffs = battle.ModeBlessed | battle.ModeHasted | battle.ModeShielded |
			battle.ModeBloodlust | battle.ModeStoneSkin | battle.ModeSteelSkin |
			battle.ModeDragonSlayer
		value := 0.0
		for _, other := range a.Units {
			if other.IsDead() || !other.Mode.Has(buffs) {
				continue
			}
			if isEnemy(other, u.CurSide) {
				value += avgStackDamage(other) * 0.3
			} else {
				value -= avgStackDamage(other) * 0.3
			}
		}
		if value > 0 {
			return cast(battle.UnitIDNone, battle.InvalidCell), value
		}
	case battle.SpellAntiMagic:
		if t := mostAfflictedAlly(a, u); t != nil {
			return cast(t.ID, battle.InvalidCell), avgStackDamage(t) * 0.5
		}
	case battle.SpellResurrect:
		for _, f := range a.Units {
			if f.Side != u.Side || !f.IsDead() || f.IsEphemeral() {
				continue
			}
			if a.Graveyard.LastFallenOfSide(f.Pos.Head, f.Side) == nil {
				continue
			}
			return cast(f.ID, battle.InvalidCell), float64(a.Statics.ResurrectHP)
		}
	case battle.SpellSummonMonster:
		if a.HasSummoned(u.CurSide) {
			return nil, 0
		}
		n := a.Statics.SummonMonsterCount
		return cast(battle.UnitIDNone, battle.InvalidCell), float64(n) * 5
	case battle.SpellMirrorImage:
		if t := strongestAllyWithout(a, u, battle.ModeCloned); t != nil && t.MirrorLink == battle.UnitIDNone {
			return cast(t.ID, battle.InvalidCell), avgStackDamage(t) * 0.5
		}
	case battle.SpellEarthquake:
		if a.Siege != nil && u.CurSide == battle.SideAttacker {
			standing := 0
			for _, w := range a.Siege.Walls {
				if !w.Destroyed {
					standing++
				}
			}
			return cast(battle.UnitIDNone, battle.InvalidCell), float64(standing) * 4
		}
	}
	return nil, 0
}

// modeFor maps a debuff spell to the mode it applies, for the
// already-afflicted filter.
func modeFor(spell battle.SpellID) battle.ModeFlag {
	switch spell {
	case battle.SpellSlow:
		return battle.ModeSlowed
	case battle.SpellCurse:
		return battle.ModeCursed
	case battle.SpellBlind:
		return battle.ModeBlinded
	case battle.SpellParalyze:
		return battle.ModeParalyzed
	case battle.SpellPetrify:
		return battle.ModePetrified
	}
	return battle.ModeNone
}

func bestDamageTarget(a *battle.Arena, u *battle.Unit, def battle.SpellDef, dmg int) *battle.Unit {
	var best *battle.Unit
	bestValue := 0.0
	for _, e := range a.Units {
		if e.IsDead() || !isEnemy(e, u.CurSide) || !spellLegalOn(def, e) {
			continue
		}
		v := damageWorth(dmg, e)
		if best == nil || v > bestValue {
			best, bestValue = e, v
		}
	}
	return best
}

// bestBurstCenter tries every enemy head as the burst center and sums
// the net value over all stacks in the one-hex radius.
func bestBurstCenter(a *battle.Arena, u *battle.Unit, def battle.SpellDef) (battle.CellIndex, float64) {
	best := battle.InvalidCell
	bestValue := 0.0
	for _, e := range a.Units {
		if e.IsDead() || !isEnemy(e, u.CurSide) {
			continue
		}
		center := e.Pos.Head
		value := 0.0
		for _, other := range a.Units {
			if other.IsDead() {
				continue
			}
			inRange := false
			for _, c := range other.Pos.Cells() {
				if Distance(center, c) <= 1 {
					inRange = true
				}
			}
			if !inRange || !spellLegalOn(def, other) {
				continue
			}
			worth := damageWorth(def.BaseDamage, other)
			if isEnemy(other, u.CurSide) {
				value += worth
			} else {
				value -= worth * 2
			}
		}
		if value > bestValue {
			best, bestValue = center, value
		}
	}
	return best, bestValue
}

func strongestEnemyWithout(a *battle.Arena, u *battle.Unit, def battle.SpellDef, mode battle.ModeFlag) *battle.Unit {
	var best *battle.Unit
	bestValue := 0.0
	for _, e := range a.Units {
		if e.IsDead() || !isEnemy(e, u.CurSide) || !spellLegalOn(def, e) {
			continue
		}
		if mode != battle.ModeNone && e.Mode.Has(mode) {
			continue
		}
		v := avgStackDamage(e)
		if best == nil || v > bestValue {
			best, bestValue = e, v
		}
	}
	return best
}

func strongestAllyWithout(a *battle.Arena, u *battle.Unit, mode battle.ModeFlag) *battle.Unit {
	var best *battle.Unit
	bestValue := 0.0
	for _, f := range a.Units {
		if f.IsDead() || isEnemy(f, u.CurSide) || f.Mode.Has(mode) || f.Mode.Has(battle.ModeAntiMagic) {
			continue
		}
		v := avgStackDamage(f)
		if best == nil || v > bestValue {
			best, bestValue = f, v
		}
	}
	return best
}

// blessGain is the damage a stack gains from always rolling max.
func blessGain(f *battle.Unit) float64 {
	return float64(f.DamageMax-f.DamageMin) / 2 * float64(f.Count)
}

func enemyShooterDamage(a *battle.Arena, u *battle.Unit) float64 {
	total := 0.0
	for _, e := range a.Units {
		if !e.IsDead() && isEnemy(e, u.CurSide) && e.IsShooter() {
			total += avgStackDamage(e)
		}
	}
	return total
}

func mostWoundedAlly(a *battle.Arena, u *battle.Unit) *battle.Unit {
	var best *battle.Unit
	bestMissing := 0
	for _, f := range a.Units {
		if f.IsDead() || isEnemy(f, u.CurSide) || f.Mode.Has(battle.ModeAntiMagic) {
			continue
		}
		missing := f.MaxCount*f.HPMax - f.TotalHP()
		if missing > bestMissing {
			best, bestMissing = f, missing
		}
	}
	return best
}

// mostAfflictedAlly finds the strongest friendly stack carrying a
// hostile mode worth stripping.
func mostAfflictedAlly(a *battle.Arena, u *battle.Unit) *battle.Unit {
	const afflictions = battle.ModeCursed | battle.ModeSlowed | battle.ModeBlinded |
		battle.ModeParalyzed | battle.ModePetrified | battle.ModeBerserk | battle.ModeHypnotized
	var best *battle.Unit
	bestValue := 0.0
	for _, f := range a.Units {
		if f.IsDead() || f.Side != u.Side || !f.Mode.Has(afflictions) {
			continue
		}
		v := avgStackDamage(f)
		if best == nil || v > bestValue {
			best, bestValue = f, v
		}
	}
	return best
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
