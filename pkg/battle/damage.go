package battle

// DamageResult reports the outcome of one strike for the command log and
// visual-effect callbacks.
type DamageResult struct {
	Attacker   UnitID
	Defender   UnitID
	Damage     int
	Killed     int
	Retaliated bool
	RetalDmg   int
	DoubleHit  bool // second strike of a double-attack creature landed
}

// strikeOpts carries the situational modifiers of one strike that the
// pure damage formula cannot derive from the two units alone.
type strikeOpts struct {
	ranged          bool
	fromTower       bool // tower shots ignore the Shield spell
	crossesWall     bool // ranged shot over an intact castle wall: halved
	pointBlank      bool // shooter firing while engaged in melee: halved
	defensePenalty  int  // e.g. moat debuff on the defender
	blindReduction  int  // percent damage lost by a blinded retaliator
}

// attackDefenseMultiplier converts the attack/defense gap into a damage
// multiplier: 10% per point of advantage capped at 20 points, or 5% per
// point of disadvantage capped at 16 points. The resulting damage (not
// this multiplier) is floored at 1 in computeDamage.
func attackDefenseMultiplier(attack, defense int) float64 {
	diff := attack - defense
	if diff > 0 {
		if diff > 20 {
			diff = 20
		}
		return float64(10+diff) / 10
	}
	if diff < -16 {
		diff = -16
	}
	return float64(100+diff*5) / 100
}

// rollBaseDamage returns the stack's base damage roll: a uniform draw in
// [DamageMin, DamageMax] per creature, scaled by Count. Bless forces the
// maximum and Curse the minimum, with no roll at all.
func (a *Arena) rollBaseDamage(u *Unit) int {
	per := u.DamageMin
	switch {
	case u.Mode.Has(ModeBlessed):
		per = u.DamageMax
	case u.Mode.Has(ModeCursed):
		per = u.DamageMin
	case u.DamageMax > u.DamageMin:
		per += a.RNG.Intn(u.DamageMax - u.DamageMin + 1)
	}
	return per * u.Count
}

// computeDamage applies the attack/defense multiplier and mode-based
// modifiers to a base damage roll with no situational context; the
// resolver paths use computeDamageOpts directly.
func computeDamage(attacker, defender *Unit, base int) int {
	return computeDamageOpts(attacker, defender, base, strikeOpts{})
}

// computeDamageOpts is the full damage pipeline of spec §4.6: the
// attack/defense differential, ability bonuses, luck, the defender's
// stance and state, and the ranged-fire penalties.
func computeDamageOpts(attacker, defender *Unit, base int, s strikeOpts) int {
	mult := attackDefenseMultiplier(attacker.EffectiveAttack(), defender.EffectiveDefense()-s.defensePenalty)
	if attacker.Affinity != ElementNone && attacker.Affinity == defender.Weakness {
		mult *= 2
	}
	if attacker.IsUndeadBane && defender.IsUndead {
		mult *= 2
	}
	if attacker.Mode.Has(ModeDragonSlayer) && defender.IsDragon {
		mult *= 2
	}
	if attacker.Mode.Has(ModeLuckGood) {
		mult *= 2
	}
	if attacker.Mode.Has(ModeLuckBad) {
		mult *= 0.5
	}
	if defender.Mode.Has(ModeDefending) {
		mult *= 0.8
	}
	if defender.Mode.Has(ModePetrified) {
		mult *= 0.5
	}
	if s.ranged {
		if s.pointBlank {
			mult *= 0.5
		}
		if s.crossesWall {
			mult *= 0.5
		}
		if defender.Mode.Has(ModeShielded) && !s.fromTower {
			mult *= 0.5
		}
	}
	dmg := int(float64(base) * mult)
	if s.blindReduction > 0 {
		dmg = dmg * (100 - s.blindReduction) / 100
	}
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// defenseDebuff returns the defense penalty a unit suffers from where it
// stands: the moat strips MoatDefensePenalty points (spec §4.1).
func (a *Arena) defenseDebuff(u *Unit) int {
	for _, c := range u.Pos.Cells() {
		if a.Board.IsMoatForSide(c, u.Side) {
			return a.Statics.MoatDefensePenalty
		}
	}
	return 0
}

// engagedInMelee reports whether any living enemy stands adjacent to u,
// which halves its ranged fire (spec §4.6) and blocks new shots in
// validation.
func (a *Arena) engagedInMelee(u *Unit) bool {
	for _, other := range a.Units {
		if other.IsDead() || other.CurSide == u.CurSide {
			continue
		}
		for _, uc := range u.Pos.Cells() {
			for _, oc := range other.Pos.Cells() {
				if a.Board.AreAdjacent(uc, oc) {
					return true
				}
			}
		}
	}
	return false
}

// shotCrossesWall reports whether a ranged shot from attacker to
// defender passes over the castle wall line: shooter outside, target
// inside (or vice versa) with the wall segment on that row standing.
func (a *Arena) shotCrossesWall(attacker, defender *Unit) bool {
	if !a.Board.IsCastle() || a.Siege == nil {
		return false
	}
	out1 := a.Board.IsOutsideWall(attacker.Pos.Head)
	out2 := a.Board.IsOutsideWall(defender.Pos.Head)
	if out1 == out2 {
		return false
	}
	for i := range a.Siege.Walls {
		w := &a.Siege.Walls[i]
		if !w.Destroyed {
			return true
		}
	}
	return false
}

// onUnitKilled removes a fully-dead stack from the board, records the
// casualties in the graveyard, credits experience to the opposing army,
// and settles a mirror-image fate link (spec §8 scenario 5). Killed is
// how many creatures died in the triggering blow, which may be less
// than the stack's starting count.
func (a *Arena) onUnitKilled(u *Unit, killed int) {
	if !u.IsEphemeral() {
		a.Graveyard.Record(u, killed)
	}
	a.creditExperience(u.Side.Opponent(), killed*u.HPMax)
	if !u.IsDead() {
		return
	}
	for _, c := range u.Pos.Cells() {
		a.Board.ClearOccupant(c)
	}
	a.Pathfinder.InvalidateBoard()
	a.settleMirrorLink(u)
}

// settleMirrorLink handles the shared fate of a mirror image and its
// original when either end dies: the image is destroyed with its owner,
// and a dead image simply unlinks from a surviving owner.
func (a *Arena) settleMirrorLink(dead *Unit) {
	if dead.MirrorLink == UnitIDNone || dead.MirrorLink == 0 {
		return
	}
	partner, ok := a.Units[dead.MirrorLink]
	dead.MirrorLink = UnitIDNone
	if !ok {
		return
	}
	partner.MirrorLink = UnitIDNone
	if dead.Mode.Has(ModeCloned) {
		// Image died; the original just loses the link.
		return
	}
	// Owner died; the image dissolves with it.
	if !partner.IsDead() {
		partner.Count = 0
		partner.HPFirst = 0
		partner.Alive = false
		for _, c := range partner.Pos.Cells() {
			a.Board.ClearOccupant(c)
		}
		a.Pathfinder.InvalidateBoard()
	}
}

func (a *Arena) creditExperience(side Side, xp int) {
	if xp <= 0 {
		return
	}
	if a.experience == nil {
		a.experience = map[Side]int{}
	}
	a.experience[side] += xp
}

// ResolveMeleeAttack strikes defender from attacker, then — unless
// defender cannot retaliate (already used its charge, is petrified, or
// never retaliates) — lets defender strike back once. A blinded
// defender retaliates at reduced damage rather than full force (spec §8
// scenario 4). Double-attack creatures strike a second time after the
// retaliation is resolved; the retaliation itself never repeats.
func (a *Arena) ResolveMeleeAttack(attacker, defender *Unit) DamageResult {
	opts := strikeOpts{defensePenalty: a.defenseDebuff(defender)}
	base := a.rollBaseDamage(attacker)
	dmg := computeDamageOpts(attacker, defender, base, opts)
	killed := defender.ApplyDamage(dmg)
	res := DamageResult{Attacker: attacker.ID, Defender: defender.ID, Damage: dmg, Killed: killed}
	if killed > 0 {
		a.onUnitKilled(defender, killed)
	}

	a.resolveRetaliation(attacker, defender, &res)

	if attacker.IsDoubleAttack && !attacker.IsDead() && !defender.IsDead() &&
		!attacker.Mode.Has(ModePetrified) {
		base2 := a.rollBaseDamage(attacker)
		dmg2 := computeDamageOpts(attacker, defender, base2, opts)
		killed2 := defender.ApplyDamage(dmg2)
		res.Damage += dmg2
		res.Killed += killed2
		res.DoubleHit = true
		if killed2 > 0 {
			a.onUnitKilled(defender, killed2)
		}
	}
	return res
}

func (a *Arena) resolveRetaliation(attacker, defender *Unit, res *DamageResult) {
	if defender.IsDead() || attacker.IsDead() || defender.RetaliatesLeft <= 0 {
		return
	}
	if defender.Mode.Has(ModePetrified) || defender.Mode.Has(ModeParalyzed) {
		return
	}
	if !defender.IsUnlimitedRetaliate {
		defender.RetaliatesLeft--
	}
	opts := strikeOpts{defensePenalty: a.defenseDebuff(attacker)}
	if defender.Mode.Has(ModeBlinded) {
		opts.blindReduction = a.Statics.BlindDamageReductionPercent
	}
	retalBase := a.rollBaseDamage(defender)
	retalDmg := computeDamageOpts(defender, attacker, retalBase, opts)
	retalKilled := attacker.ApplyDamage(retalDmg)
	res.Retaliated = true
	res.RetalDmg = retalDmg
	if retalKilled > 0 {
		a.onUnitKilled(attacker, retalKilled)
	}
}

// ResolveRangedAttack strikes defender from attacker at range: no
// retaliation is possible, and ammunition is consumed unless the
// attacker has unlimited shots (Shots < 0) or its army's commander
// carries the endless-ammunition artifact. The shot is halved when
// fired point-blank (attacker engaged in melee) and halved again when
// it crosses a standing castle wall.
func (a *Arena) ResolveRangedAttack(attacker, defender *Unit) DamageResult {
	opts := strikeOpts{
		ranged:         true,
		pointBlank:     a.engagedInMelee(attacker),
		crossesWall:    a.shotCrossesWall(attacker, defender),
		defensePenalty: a.defenseDebuff(defender),
	}
	base := a.rollBaseDamage(attacker)
	dmg := computeDamageOpts(attacker, defender, base, opts)
	if cm := a.commanderFor(attacker.Side); attacker.Shots > 0 && (cm == nil || !cm.HasEndlessAmmo) {
		attacker.Shots--
	}
	killed := defender.ApplyDamage(dmg)
	if killed > 0 {
		a.onUnitKilled(defender, killed)
	}
	return DamageResult{Attacker: attacker.ID, Defender: defender.ID, Damage: dmg, Killed: killed}
}
