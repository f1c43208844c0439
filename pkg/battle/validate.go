package battle

// Validate checks whether cmd is legal to apply against the Arena's
// current state, returning a *ValidationError describing the first
// violation found, or nil if the command may proceed. Validate never
// mutates state; Apply only runs after Validate returns nil, matching
// the teacher's validate-then-resolve-then-apply discipline.
func (a *Arena) Validate(cmd Command) error {
	switch c := cmd.(type) {
	case MoveCommand:
		return a.validateMove(c)
	case AttackCommand:
		return a.validateAttack(c)
	case SpellcastCommand:
		return a.validateSpellcast(c)
	case MoraleCommand:
		return a.validateMorale(c)
	case CatapultCommand:
		return a.validateCatapult(c)
	case TowerCommand:
		return nil // towers fire automatically; never player-submitted
	case RetreatCommand:
		return a.validateRetreat(c)
	case SurrenderCommand:
		return a.validateSurrender(c)
	case SkipCommand:
		return a.validateActor(cmd, c.Unit)
	case ToggleAutoCombatCommand:
		return nil
	case QuickCombatCommand:
		return nil
	default:
		return newInvalid(cmd, "unrecognized command type")
	}
}

// validateActor checks that uid names a living unit whose turn it
// currently is.
func (a *Arena) validateActor(cmd Command, uid UnitID) error {
	u, ok := a.Units[uid]
	if !ok || u.IsDead() {
		return newInvalid(cmd, "actor %d is not a living unit", uid)
	}
	if a.ActingUnit != uid {
		return newInvalid(cmd, "unit %d is not the acting unit", uid)
	}
	if !u.CanAct() {
		return newInvalid(cmd, "unit %d cannot act (petrified or incapacitated)", uid)
	}
	return nil
}

func (a *Arena) validateMove(c MoveCommand) error {
	if err := a.validateActor(c, c.Unit); err != nil {
		return err
	}
	u := a.Units[c.Unit]
	if !c.Target.Valid() {
		return newInvalid(c, "target cell %d is off the board", c.Target)
	}
	if occ := a.Board.OccupantAt(c.Target); occ != UnitIDNone && occ != u.ID {
		return newInvalid(c, "target cell %d is occupied", c.Target)
	}
	dst := ForUnit(a.Board, u, c.Target)
	if dst.IsWide() {
		if occ := a.Board.OccupantAt(dst.Tail); occ != UnitIDNone && occ != u.ID {
			return newInvalid(c, "target cell %d's tail %d is occupied", c.Target, dst.Tail)
		}
	}
	if _, ok := a.Pathfinder.Reachable(u)[c.Target]; !ok {
		return newInvalid(c, "cell %d is not reachable this turn", c.Target)
	}
	return nil
}

func (a *Arena) validateAttack(c AttackCommand) error {
	if err := a.validateActor(c, c.Unit); err != nil {
		return err
	}
	attacker := a.Units[c.Unit]
	target, ok := a.Units[c.Target]
	if !ok || target.IsDead() {
		return newInvalid(c, "target %d is not a living unit", c.Target)
	}
	// A berserk stack answers to no one and may strike anyone (glossary:
	// "full independence"); everyone else is bound to its controlling
	// color.
	if target.CurSide == attacker.CurSide && !attacker.Mode.Has(ModeBerserk) {
		return newInvalid(c, "cannot attack a friendly unit")
	}
	if c.Target == c.Unit {
		return newInvalid(c, "a unit cannot attack itself")
	}
	if c.Ranged {
		if attacker.Shots == 0 {
			return newInvalid(c, "attacker has no ammunition left")
		}
		if a.engagedInMelee(attacker) {
			return newInvalid(c, "shooter is blocked in melee and must fight hand to hand")
		}
		if c.FromCell.Valid() {
			return newInvalid(c, "a ranged attack cannot include movement")
		}
		return nil
	}
	head := attacker.Pos.Head
	if c.FromCell.Valid() && c.FromCell != head {
		if _, ok := a.Pathfinder.Reachable(attacker)[c.FromCell]; !ok {
			return newInvalid(c, "cell %d is not reachable this turn", c.FromCell)
		}
		head = c.FromCell
	}
	post := ForUnit(a.Board, attacker, head)
	adjacent := false
	for _, ac := range post.Cells() {
		for _, tc := range target.Pos.Cells() {
			if a.Board.AreAdjacent(ac, tc) {
				adjacent = true
			}
		}
	}
	if !adjacent {
		return newInvalid(c, "attacker would not be adjacent to target")
	}
	return nil
}

func (a *Arena) validateSpellcast(c SpellcastCommand) error {
	if err := a.validateActor(c, c.Unit); err != nil {
		return err
	}
	def, ok := c.Spell.Def()
	if !ok {
		return newInvalid(c, "unknown spell %d", c.Spell)
	}
	caster := a.Units[c.Unit]
	if err := a.validateCommanderCast(c, caster.CurSide); err != nil {
		return err
	}
	switch def.Shape {
	case TargetSingleUnit, TargetChain:
		target, ok := a.Units[c.Target]
		if !ok {
			return newInvalid(c, "spell target %d is not on the battlefield", c.Target)
		}
		if target.IsDead() && def.ID != SpellResurrect {
			return newInvalid(c, "spell target %d is not a living unit", c.Target)
		}
	case TargetAreaOfCells:
		if !c.TargetCell.Valid() {
			return newInvalid(c, "spell target cell %d is off the board", c.TargetCell)
		}
	case TargetStructure:
		if a.Siege == nil {
			return newInvalid(c, "no siege structures on this battlefield")
		}
	}
	return nil
}

// validateCommanderCast enforces the hero-gated casting rules when the
// battle has commanders configured: a commanding hero must exist, know
// the spell, afford it, not have cast already this round, and no Sphere
// of Negation may be in play. Battles without commanders (bare
// skirmishes, unit tests) skip all of this.
func (a *Arena) validateCommanderCast(c SpellcastCommand, side Side) error {
	if a.Commanders == nil {
		return nil
	}
	for _, cm := range a.Commanders {
		if cm != nil && cm.HasSphereOfNegation {
			return newInvalid(c, "the Sphere of Negation suppresses all spellcasting")
		}
	}
	cm := a.Commanders[side]
	if cm == nil {
		return newInvalid(c, "you cannot cast spells without a commanding hero")
	}
	if cm.CastThisTurn {
		return newInvalid(c, "the commander has already cast a spell this turn")
	}
	if !cm.Knows(c.Spell) {
		return newInvalid(c, "the commander does not know that spell")
	}
	if !cm.CanAfford(c.Spell) {
		return newInvalid(c, "not enough spell points")
	}
	return nil
}

func (a *Arena) validateMorale(c MoraleCommand) error {
	u, ok := a.Units[c.Unit]
	if !ok || u.IsDead() {
		return newInvalid(c, "actor %d is not a living unit", c.Unit)
	}
	if c.Good && !a.MoraleBonusAvailable[c.Unit] {
		return newInvalid(c, "unit %d has no pending morale bonus action", c.Unit)
	}
	return nil
}

func (a *Arena) validateCatapult(c CatapultCommand) error {
	if a.Siege == nil {
		return newInvalid(c, "no siege structures on this battlefield")
	}
	w := a.Siege.Wall(c.Target)
	if w == nil {
		return newInvalid(c, "unknown siege target %d", c.Target)
	}
	if w.Destroyed {
		return newInvalid(c, "target is already destroyed")
	}
	return nil
}

func (a *Arena) validateRetreat(c RetreatCommand) error {
	if err := a.validateActor(c, c.Unit); err != nil {
		return err
	}
	u := a.Units[c.Unit]
	if a.Board.IsCastle() {
		if u.Side == SideDefender {
			return newInvalid(c, "the castle garrison cannot flee its own walls")
		}
		if !a.Siege.Bridge.Passable() {
			return newInvalid(c, "retreat is blocked while the bridge is up")
		}
	}
	if a.Commanders != nil && a.Commanders[u.Side] == nil {
		return newInvalid(c, "an army cannot retreat without a commanding hero")
	}
	return nil
}

func (a *Arena) validateSurrender(c SurrenderCommand) error {
	if a.Board.IsCastle() && c.Side == SideDefender {
		return newInvalid(c, "the castle garrison cannot surrender its own walls")
	}
	if a.Commanders != nil && a.Commanders[c.Side] == nil {
		return newInvalid(c, "an army cannot surrender without a commanding hero")
	}
	return nil
}
