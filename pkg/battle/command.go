package battle

import "encoding/binary"

// CommandKind enumerates the closed set of player/AI actions from spec
// §4.5. The byte value is also the tag folded into the RNG stream.
type CommandKind byte

const (
	CommandMove CommandKind = iota + 1
	CommandAttack
	CommandSpellcast
	CommandMorale // voluntary extra action granted by a good-morale roll
	CommandCatapult
	CommandTower
	CommandRetreat
	CommandSurrender
	CommandSkip
	CommandToggleAutoCombat
	CommandQuickCombat
)

func (k CommandKind) String() string {
	switch k {
	case CommandMove:
		return "move"
	case CommandAttack:
		return "attack"
	case CommandSpellcast:
		return "spellcast"
	case CommandMorale:
		return "morale"
	case CommandCatapult:
		return "catapult"
	case CommandTower:
		return "tower"
	case CommandRetreat:
		return "retreat"
	case CommandSurrender:
		return "surrender"
	case CommandSkip:
		return "skip"
	case CommandToggleAutoCombat:
		return "toggle-auto-combat"
	case CommandQuickCombat:
		return "quick-combat"
	default:
		return "unknown"
	}
}

// Command is one action an Arena can validate and apply. Every concrete
// command type below implements it.
type Command interface {
	Kind() CommandKind
	Actor() UnitID
	// FoldBytes serializes the command's parameters (not its kind, which
	// the Arena folds separately) for the RNG.Fold call that precedes
	// resolution.
	FoldBytes() []byte
}

func putCell(buf []byte, offset int, c CellIndex) {
	binary.LittleEndian.PutUint32(buf[offset:], uint32(int32(c)))
}

// MoveCommand relocates Unit to Target, following a path the pathfinder
// has already validated as reachable this turn.
type MoveCommand struct {
	Unit   UnitID
	Target CellIndex
}

func (c MoveCommand) Kind() CommandKind { return CommandMove }
func (c MoveCommand) Actor() UnitID     { return c.Unit }
func (c MoveCommand) FoldBytes() []byte {
	buf := make([]byte, 4)
	putCell(buf, 0, c.Target)
	return buf
}

// AttackCommand moves Unit adjacent to Target (if FromCell is set and
// different from its current head) and strikes it, optionally firing at
// range when the attacker has ammunition and no adjacency is required.
type AttackCommand struct {
	Unit     UnitID
	Target   UnitID
	FromCell CellIndex // desired attacker head cell before striking; InvalidCell = stay put
	Ranged   bool
}

func (c AttackCommand) Kind() CommandKind { return CommandAttack }
func (c AttackCommand) Actor() UnitID     { return c.Unit }
func (c AttackCommand) FoldBytes() []byte {
	buf := make([]byte, 9)
	binary.LittleEndian.PutUint32(buf[0:], uint32(int32(c.Target)))
	putCell(buf, 4, c.FromCell)
	if c.Ranged {
		buf[8] = 1
	}
	return buf
}

// SpellcastCommand casts Spell from Unit's controlling side at Target
// (a unit, for single-target/chain spells) or TargetCell (for
// area/ground-targeted spells such as Earthquake).
type SpellcastCommand struct {
	Unit       UnitID
	Spell      SpellID
	Target     UnitID
	TargetCell CellIndex
}

func (c SpellcastCommand) Kind() CommandKind { return CommandSpellcast }
func (c SpellcastCommand) Actor() UnitID     { return c.Unit }
func (c SpellcastCommand) FoldBytes() []byte {
	buf := make([]byte, 9)
	buf[0] = byte(c.Spell)
	binary.LittleEndian.PutUint32(buf[1:], uint32(int32(c.Target)))
	putCell(buf, 5, c.TargetCell)
	return buf
}

// MoraleCommand records a morale event for Unit: good morale consumes
// the granted bonus action (the unit acts again this turn), bad morale
// freezes the unit for the turn (spec §4.5).
type MoraleCommand struct {
	Unit   UnitID
	Target UnitID
	Good   bool
}

func (c MoraleCommand) Kind() CommandKind { return CommandMorale }
func (c MoraleCommand) Actor() UnitID     { return c.Unit }
func (c MoraleCommand) FoldBytes() []byte {
	buf := make([]byte, 5)
	binary.LittleEndian.PutUint32(buf, uint32(int32(c.Target)))
	if c.Good {
		buf[4] = 1
	}
	return buf
}

// CatapultCommand fires the siege catapult at a wall/tower/gate segment.
type CatapultCommand struct {
	Unit   UnitID
	Target SiegeTargetID
}

func (c CatapultCommand) Kind() CommandKind { return CommandCatapult }
func (c CatapultCommand) Actor() UnitID     { return c.Unit }
func (c CatapultCommand) FoldBytes() []byte {
	return []byte{byte(c.Target)}
}

// TowerCommand fires one of the castle's defense towers at Target.
type TowerCommand struct {
	Tower  TowerID
	Target UnitID
}

func (c TowerCommand) Kind() CommandKind { return CommandTower }
func (c TowerCommand) Actor() UnitID     { return UnitIDNone }
func (c TowerCommand) FoldBytes() []byte {
	buf := make([]byte, 5)
	buf[0] = byte(c.Tower)
	binary.LittleEndian.PutUint32(buf[1:], uint32(int32(c.Target)))
	return buf
}

// RetreatCommand withdraws the acting unit's whole army from the
// battle: the opponent wins, the fleeing stacks leave the field alive
// with their hero (spec §4.5; §8 scenario 6 covers the stall that can
// result when retreat is blocked).
type RetreatCommand struct {
	Unit UnitID
}

func (c RetreatCommand) Kind() CommandKind { return CommandRetreat }
func (c RetreatCommand) Actor() UnitID     { return c.Unit }
func (c RetreatCommand) FoldBytes() []byte { return nil }

// SurrenderCommand ends the battle immediately in the opponent's favor
// for the issuing side.
type SurrenderCommand struct {
	Side Side
}

func (c SurrenderCommand) Kind() CommandKind { return CommandSurrender }
func (c SurrenderCommand) Actor() UnitID     { return UnitIDNone }
func (c SurrenderCommand) FoldBytes() []byte { return []byte{byte(c.Side)} }

// SkipCommand passes Unit's turn without acting, entering Defending mode.
type SkipCommand struct {
	Unit UnitID
}

func (c SkipCommand) Kind() CommandKind { return CommandSkip }
func (c SkipCommand) Actor() UnitID     { return c.Unit }
func (c SkipCommand) FoldBytes() []byte { return nil }

// ToggleAutoCombatCommand flips whether Side's remaining turns this
// battle are resolved by the AI planner instead of explicit commands.
type ToggleAutoCombatCommand struct {
	Side Side
}

func (c ToggleAutoCombatCommand) Kind() CommandKind { return CommandToggleAutoCombat }
func (c ToggleAutoCombatCommand) Actor() UnitID     { return UnitIDNone }
func (c ToggleAutoCombatCommand) FoldBytes() []byte { return []byte{byte(c.Side)} }

// QuickCombatCommand hands the remainder of the battle to the AI planner
// for both sides: applying it turns auto-combat on for both, and the
// host loop then drives the remaining turns until Outcome() is terminal.
// Applying it resolves no turns by itself.
type QuickCombatCommand struct{}

func (c QuickCombatCommand) Kind() CommandKind { return CommandQuickCombat }
func (c QuickCombatCommand) Actor() UnitID     { return UnitIDNone }
func (c QuickCombatCommand) FoldBytes() []byte { return nil }

// ResolvedCommand is one entry of the Arena's command log: the command as
// submitted plus the outcome it produced, suitable for persistence and
// replay verification.
type ResolvedCommand struct {
	Turn     int
	Command  Command
	Accepted bool
	Reason   string // populated when Accepted is false
	Damage   int
	Killed   int
}
