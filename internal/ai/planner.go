package ai

import "github.com/forgehex/hexwar/api/pkg/battle"

// Disposition selects which tactical branch a unit's planner uses, per
// spec §4.9: an aggressive attacker, a cautious defender, or a
// berserker that abandons positioning for raw damage.
type Disposition int

const (
	DispositionOffensive Disposition = iota
	DispositionDefensive
	DispositionBerserk
)

// Planner is the AI's per-unit decision-making interface, the analogue
// of the teacher's bot.Strategy but scoped to one unit's turn within an
// already-running Arena rather than a whole game's order set.
type Planner interface {
	Name() string
	Plan(a *battle.Arena, u *battle.Unit) []battle.Command
}

// ForDisposition returns the Planner for a given disposition, the
// analogue of the teacher's StrategyForDifficulty factory.
func ForDisposition(d Disposition) Planner {
	switch d {
	case DispositionDefensive:
		return defensivePlanner{}
	case DispositionBerserk:
		return berserkPlanner{}
	default:
		return offensivePlanner{}
	}
}

// berserkHPThreshold is the fraction of a unit's starting total HP below
// which it switches from its assigned disposition to Berserk regardless
// of what the host configured (spec §4.9).
const berserkHPThreshold = 0.25

// retreatStrengthRatio is the own-to-enemy strength ratio below which
// the planner considers fleeing the battle to save its commander (spec
// §4.9 step 2).
const retreatStrengthRatio = 0.2

// ChooseDisposition returns Berserk for a stack under the Berserker
// spell or one that has dropped below berserkHPThreshold of its maximum
// HP, else falls back to assigned.
func ChooseDisposition(u *battle.Unit, assigned Disposition) Disposition {
	if u.Mode.Has(battle.ModeBerserk) {
		return DispositionBerserk
	}
	maxHP := u.HPMax * cap0(u.Count)
	if maxHP <= 0 {
		return assigned
	}
	if float64(u.TotalHP())/float64(maxHP) <= berserkHPThreshold {
		return DispositionBerserk
	}
	return assigned
}

func cap0(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// ChooseSideDisposition picks a whole side's stance from the battle
// snapshot (spec §4.9 Tactics choice): hold ground while the side's
// shooters match the enemy's, push when the enemy has few shooters.
func ChooseSideDisposition(a *battle.Arena, side battle.Side) Disposition {
	ownShooters, enemyShooters := 0.0, 0.0
	for _, u := range a.Units {
		if u.IsDead() || !u.IsShooter() {
			continue
		}
		s := float64(u.Count) * float64(u.DamageMax)
		if u.Side == side {
			ownShooters += s
		} else {
			enemyShooters += s
		}
	}
	if ownShooters > 0 && ownShooters >= enemyShooters {
		return DispositionDefensive
	}
	return DispositionOffensive
}

// shouldFlee reports whether side is so outmatched that saving the
// commander is worth abandoning the army, and whether it can afford the
// gentler exit of surrendering instead.
func shouldFlee(a *battle.Arena, u *battle.Unit) bool {
	cm := battleCommander(a, u.Side)
	if cm == nil || !cm.RetreatWorthwhile() {
		return false
	}
	own := SideStrength(a, u.Side)
	enemy := SideStrength(a, u.Side.Opponent())
	return enemy > 0 && own/enemy < retreatStrengthRatio
}

func battleCommander(a *battle.Arena, side battle.Side) *battle.Commander {
	if a.Commanders == nil {
		return nil
	}
	return a.Commanders[side]
}

// PlanTurn resolves one unit's turn in spec §4.9's order: a berserk
// stack charges unconditionally; otherwise the side checks whether to
// cut its losses and retreat, then lets its commander cast the
// best-valued spell it knows (ending the turn), and only then falls
// through to the disposition's tactical plan. This is the single call a
// host or the Arena's auto-combat/quick-combat path needs to make per
// acting unit.
func PlanTurn(a *battle.Arena, u *battle.Unit, assigned Disposition) []battle.Command {
	d := ChooseDisposition(u, assigned)
	if d == DispositionBerserk {
		return ForDisposition(d).Plan(a, u)
	}
	if shouldFlee(a, u) {
		if cmd := (battle.RetreatCommand{Unit: u.ID}); a.Validate(cmd) == nil {
			return []battle.Command{cmd}
		}
	}
	if cmd, ok := planSpellcast(a, u); ok {
		return []battle.Command{cmd}
	}
	return ForDisposition(d).Plan(a, u)
}
