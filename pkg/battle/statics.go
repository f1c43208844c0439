package battle

// GameStatics collects the tunable numbers spec.md §9 leaves as an open
// question rather than baked-in constants: summon counts, thresholds and
// multipliers that a host may override per ruleset without touching
// resolution logic. The scenario tests in scenarios_test.go start from
// DefaultStatics and override single fields where they need other values.
type GameStatics struct {
	// SummonMonsterCount is how many creatures a Summon Monster spell
	// conjures per casting at base spell power.
	SummonMonsterCount int
	// HypnotizeHPThreshold is the maximum total HP a target may have to
	// be a legal Hypnotize target (spec §4.5).
	HypnotizeHPThreshold int
	// EarthquakeDamageMin/Max bound the per-wall-segment damage an
	// Earthquake spell deals (spec §4.7).
	EarthquakeDamageMin int
	EarthquakeDamageMax int
	// EarthquakeBridgeMissPercent is the extra chance an Earthquake
	// leaves the bridge standing even when it rolled damage for it.
	EarthquakeBridgeMissPercent int
	// NecromancyRaisePercent is the percentage of enemy creatures killed
	// this battle that necromancy converts into skeletons at battle end
	// (spec §4.8).
	NecromancyRaisePercent int
	// MoatDamagePercent is the percentage of a unit's total HP it loses
	// when forced to stop in a moat cell (spec §4.1/§8 scenario 1).
	MoatDamagePercent int
	// MoatDefensePenalty is how many defense points a unit standing in
	// the moat loses (spec §4.1).
	MoatDefensePenalty int
	// BlindDamageReductionPercent is how much of a blinded unit's
	// retaliation damage is lost (spec §8 scenario 4: 50 means half).
	BlindDamageReductionPercent int
	// ChainLightningFalloffPercent is the damage multiplier applied at
	// each successive hop of a Chain Lightning cast (spec §8 scenario 3).
	ChainLightningFalloffPercent int
	// ChainLightningMaxHops bounds how many targets a single cast chains
	// to.
	ChainLightningMaxHops int
	// LuckChancePercent is the per-turn chance a unit rolls good (or,
	// independently, bad) luck; good luck doubles its damage that turn
	// and bad luck halves it (spec §4.6).
	LuckChancePercent int
	// GoodMoraleBasePercent and MoraleStepPercent shape the per-action
	// good-morale roll: base + step*Morale, clamped at 0. Bad morale
	// uses the same step below a negative Morale score.
	GoodMoraleBasePercent int
	MoraleStepPercent     int
	// CatapultShots is how many stones the attacker's catapult lobs at
	// the start of each of its rounds in a siege.
	CatapultShots int
	// CatapultDamageMin/Max bound one stone's structure damage.
	CatapultDamageMin int
	CatapultDamageMax int
	// CatapultHitPercent is the chance each stone strikes rather than
	// sails wide.
	CatapultHitPercent int
	// ResurrectHP is how many hit points a Resurrect cast restores.
	ResurrectHP int
	// SurrenderCostPercent scales the gold price of surrendering: the
	// sum of surviving creature costs times this percentage.
	SurrenderCostPercent int
	// MaxTurnsWithoutAction bounds how many consecutive turns a side may
	// pass/skip before the battle is forcibly ended as a stall (spec §8
	// scenario 6, retreat stall).
	MaxTurnsWithoutAction int
}

// DefaultStatics returns the baseline tunable table used when a host does
// not override any value.
func DefaultStatics() GameStatics {
	return GameStatics{
		SummonMonsterCount:           6,
		HypnotizeHPThreshold:         600,
		EarthquakeDamageMin:          1,
		EarthquakeDamageMax:          2,
		EarthquakeBridgeMissPercent:  50,
		NecromancyRaisePercent:       10,
		MoatDamagePercent:            50,
		MoatDefensePenalty:           3,
		BlindDamageReductionPercent:  50,
		ChainLightningFalloffPercent: 50,
		ChainLightningMaxHops:        4,
		LuckChancePercent:            10,
		GoodMoraleBasePercent:        10,
		MoraleStepPercent:            5,
		CatapultShots:                1,
		CatapultDamageMin:            4,
		CatapultDamageMax:            8,
		CatapultHitPercent:           75,
		ResurrectHP:                  50,
		SurrenderCostPercent:         50,
		MaxTurnsWithoutAction:        50,
	}
}
