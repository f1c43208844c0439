package battle

// Commander is the hero leading one side's army. It never stands on the
// board; its presence gates spellcasting, retreat and surrender, and its
// artifacts tweak the combat rules (spec §4.5/§6).
type Commander struct {
	Name  string
	Side  Side
	Level int

	SpellPoints int
	// KnownSpells maps each spell the commander can cast to its spell
	// point cost. Casting an unknown spell is rejected in validation.
	KnownSpells map[SpellID]int
	// CastThisTurn blocks a second cast within the same battle round;
	// reset by Arena.BuildTurnOrder.
	CastThisTurn bool

	// HasEndlessAmmo keeps the side's shooters from consuming shot
	// tokens (the endless-ammunition artifact).
	HasEndlessAmmo bool
	// HasSphereOfNegation blocks all spellcasting for BOTH sides while
	// either commander carries it.
	HasSphereOfNegation bool
	// HasArtifacts marks a hero worth retreating to keep (spec §4.9's
	// retreat-worthiness flag, alongside Level).
	HasArtifacts bool
}

// Knows reports whether the commander can cast spell at all.
func (c *Commander) Knows(spell SpellID) bool {
	if c == nil || c.KnownSpells == nil {
		return false
	}
	_, ok := c.KnownSpells[spell]
	return ok
}

// CanAfford reports whether the commander has the points for spell.
func (c *Commander) CanAfford(spell SpellID) bool {
	if c == nil {
		return false
	}
	cost, ok := c.KnownSpells[spell]
	return ok && c.SpellPoints >= cost
}

// SpendFor deducts spell's cost and marks the per-round cast as used.
// Called only after validation has approved the cast.
func (c *Commander) SpendFor(spell SpellID) {
	if c == nil {
		return
	}
	if cost, ok := c.KnownSpells[spell]; ok {
		c.SpellPoints -= cost
	}
	c.CastThisTurn = true
}

// RetreatWorthwhile reports whether keeping this hero is worth fleeing
// the battle for: an experienced hero or one carrying artifacts (spec
// §4.9).
func (c *Commander) RetreatWorthwhile() bool {
	if c == nil {
		return false
	}
	return c.Level > 2 || c.HasArtifacts
}
