package battle

// ResultKind classifies how a battle ended (spec §4.4/§7).
type ResultKind int

const (
	ResultOngoing ResultKind = iota
	ResultAttackerWins
	ResultDefenderWins
	ResultDraw // both sides wiped out simultaneously
)

// Result is the terminal outcome of a battle, returned once the Arena's
// turn loop detects a side has no living units left, a surrender was
// issued, or the stall limit (GameStatics.MaxTurnsWithoutAction) is
// reached.
type Result struct {
	Kind            ResultKind
	Turns           int
	Experience      map[Side]int
	SkeletonsRaised map[Side]int
	Retreated       Side // SideNone unless a retreat ended the battle
	Surrendered     Side // SideNone unless a surrender ended the battle
	SurrenderPaid   int
}

// Arena owns one battle's full mutable state: the board, every unit,
// the graveyard, optional siege structures, the RNG and the command
// log. It is the single entry point a host (or the AI planner) drives
// through ApplyCommand, mirroring the teacher's Resolver: validate,
// resolve, apply, never partially.
type Arena struct {
	Board      *Board
	Units      map[UnitID]*Unit
	Graveyard  *Graveyard
	Siege      *Siege
	Pathfinder *Pathfinder
	RNG        *RNG
	Statics    GameStatics

	// Commanders holds each side's commanding hero, when one is present.
	// A nil map disables every hero-gated rule (spell points, surrender),
	// which is how headless tests and bare skirmishes run.
	Commanders map[Side]*Commander

	Log []ResolvedCommand

	ActingUnit           UnitID
	MoraleBonusAvailable map[UnitID]bool
	AutoCombat           map[Side]bool
	turnOrder            []UnitID
	turnIndex            int
	turn                 int
	turnsSinceAction     int
	surrendered          map[Side]bool
	retreated            map[Side]bool
	surrenderPaid        int
	automationDone       map[Side]bool
	summoned             map[Side]bool
	experience           map[Side]int
	nextID               UnitID
}

// NewArena creates an empty battle on a fresh board with the given RNG
// seed and default statics. Castle sieges are enabled via EnableSiege.
func NewArena(seed int64) *Arena {
	b := NewBoard()
	a := &Arena{
		Board:                b,
		Units:                map[UnitID]*Unit{},
		Graveyard:            NewGraveyard(),
		Pathfinder:           NewPathfinder(b),
		RNG:                  NewRNG(seed),
		Statics:              DefaultStatics(),
		MoraleBonusAvailable: map[UnitID]bool{},
		AutoCombat:           map[Side]bool{},
		surrendered:          map[Side]bool{},
		retreated:            map[Side]bool{},
		automationDone:       map[Side]bool{},
		summoned:             map[Side]bool{},
		experience:           map[Side]int{},
	}
	return a
}

// EnableSiege turns this Arena's board into a castle battlefield with
// walls, a gate bridge and defense towers.
func (a *Arena) EnableSiege() {
	a.Siege = NewSiege()
	a.Board.SetCastle(a.Siege, SideDefender)
}

// ScatterObstacles rolls 0-6 small and 0-3 wide obstacles onto the
// middle of a non-castle battlefield using the battle RNG (spec §4.1),
// leaving the outer two columns of each side clear for deployment.
// Call after NewArena and before any units are placed; castle maps get
// walls and moat instead via EnableSiege.
func (a *Arena) ScatterObstacles() {
	if a.Board.IsCastle() {
		return
	}
	smalls := a.RNG.Intn(7)
	wides := a.RNG.Intn(4)
	for i := 0; i < smalls+wides; i++ {
		for attempt := 0; attempt < 20; attempt++ {
			row := a.RNG.Intn(BoardHeight)
			col := 2 + a.RNG.Intn(BoardWidth-4)
			idx := CellIndex(row*BoardWidth + col)
			wide := i >= smalls
			if a.Board.Cell(idx).Object != ObjectEmpty || a.Board.Occupied(idx) {
				continue
			}
			if wide {
				right := a.Board.Neighbor(idx, DirRight)
				if !right.Valid() || right.Col() > BoardWidth-3 ||
					a.Board.Cell(right).Object != ObjectEmpty || a.Board.Occupied(right) {
					continue
				}
				a.Board.Cell(idx).Object = ObjectObstacleWide
				a.Board.Cell(right).Object = ObjectObstacleWide
			} else {
				a.Board.Cell(idx).Object = ObjectObstacleSmall
			}
			break
		}
	}
	a.Pathfinder.InvalidateBoard()
}

// SetCommander attaches a commanding hero to side, enabling spellcasting
// limits and the retreat/surrender rules that require one.
func (a *Arena) SetCommander(side Side, c *Commander) {
	if a.Commanders == nil {
		a.Commanders = map[Side]*Commander{}
	}
	a.Commanders[side] = c
}

func (a *Arena) nextUnitID() UnitID {
	a.nextID++
	return a.nextID
}

// AddUnit registers u on the roster and places it on the board. A zero
// u.ID is replaced with the next Arena-issued id; a nonzero id is kept,
// and later Arena-issued ids continue above it.
func (a *Arena) AddUnit(u *Unit) {
	if u.ID == 0 {
		u.ID = a.nextUnitID()
	} else if u.ID > a.nextID {
		a.nextID = u.ID
	}
	u.Alive = true
	u.CurSide = u.Side
	u.MirrorLink = UnitIDNone
	if u.MaxCount < u.Count {
		u.MaxCount = u.Count
	}
	if u.RetaliatesLeft == 0 && !u.IsNoRetaliate {
		u.RetaliatesLeft = 1
	}
	a.Units[u.ID] = u
	for _, c := range u.Pos.Cells() {
		a.Board.PlaceOccupant(c, u.ID)
	}
}

// BuildTurnOrder orders every living unit by effective speed descending,
// breaking ties by unit id for determinism, and resets the round: modes
// tick down, sides regain their once-per-round automation (catapult,
// towers) and commanders may cast again.
func (a *Arena) BuildTurnOrder() {
	var order []UnitID
	for id, u := range a.Units {
		if !u.IsDead() {
			order = append(order, id)
		}
	}
	// simple stable insertion sort: roster sizes are small (tens of units)
	for i := 1; i < len(order); i++ {
		j := i
		for j > 0 && lessTurnOrder(a.Units[order[j]], a.Units[order[j-1]]) {
			order[j], order[j-1] = order[j-1], order[j]
			j--
		}
	}
	a.turnOrder = order
	a.turnIndex = 0
	a.automationDone = map[Side]bool{}
	for _, id := range order {
		a.Units[id].BeginTurn()
	}
	for _, c := range a.Commanders {
		if c != nil {
			c.CastThisTurn = false
		}
	}
}

func lessTurnOrder(a, b *Unit) bool {
	if a.EffectiveSpeed() != b.EffectiveSpeed() {
		return a.EffectiveSpeed() > b.EffectiveSpeed()
	}
	return a.ID < b.ID
}

// AdvanceToNextActor sets ActingUnit to the next living unit in turn
// order, rebuilding the order for a new round when the current one is
// exhausted, and running the acting side's automatic subsystems
// (attacker catapult, defender towers) the first time that side comes
// up in a round. Returns false once a terminal Result has been reached.
func (a *Arena) AdvanceToNextActor() bool {
	if a.Outcome().Kind != ResultOngoing {
		return false
	}
	for {
		if a.turnOrder == nil || a.turnIndex >= len(a.turnOrder) {
			a.turn++
			a.BuildTurnOrder()
			if len(a.turnOrder) == 0 {
				return false
			}
		}
		id := a.turnOrder[a.turnIndex]
		a.turnIndex++
		u := a.Units[id]
		if u == nil || u.IsDead() {
			continue
		}
		a.runSideAutomation(u.Side)
		if a.Outcome().Kind != ResultOngoing {
			return false
		}
		if u.IsDead() || !u.CanAct() {
			continue
		}
		a.rollLuck(u)
		a.ActingUnit = id
		return true
	}
}

// runSideAutomation fires a side's automatic siege subsystem once per
// round the first time one of its units comes up: the attacker's
// catapult volley, the defender's wall towers (spec §4.4 step 3).
func (a *Arena) runSideAutomation(side Side) {
	if a.automationDone[side] || a.Siege == nil {
		return
	}
	a.automationDone[side] = true
	if side == SideAttacker {
		a.runCatapultVolley()
	} else {
		for uid, dmg := range a.FireTowers() {
			a.Log = append(a.Log, ResolvedCommand{
				Turn: a.turn, Command: TowerCommand{Tower: TowerKeep, Target: uid},
				Accepted: true, Damage: dmg,
			})
		}
	}
}

// runCatapultVolley pre-rolls the attacker's catapult shots for this
// round: each stone picks a random standing structure, rolls to hit,
// and rolls damage (spec §4.5 Catapult). Results are applied in the
// rolled order and logged as CatapultCommand entries.
func (a *Arena) runCatapultVolley() {
	for shot := 0; shot < a.Statics.CatapultShots; shot++ {
		var standing []SiegeTargetID
		for i := range a.Siege.Walls {
			if !a.Siege.Walls[i].Destroyed {
				standing = append(standing, a.Siege.Walls[i].ID)
			}
		}
		if len(standing) == 0 {
			return
		}
		target := standing[a.RNG.Intn(len(standing))]
		entry := ResolvedCommand{
			Turn: a.turn, Command: CatapultCommand{Target: target}, Accepted: true,
		}
		if a.RNG.Chance(a.Statics.CatapultHitPercent) {
			dmg := a.RNG.Range(a.Statics.CatapultDamageMin, a.Statics.CatapultDamageMax)
			a.Siege.ApplyCatapultHit(target, dmg)
			entry.Damage = dmg
		} else {
			entry.Reason = "missed"
		}
		a.Log = append(a.Log, entry)
	}
}

// rollLuck sets the acting unit's transient luck state for this turn:
// an independent chance each of good luck (double damage) and bad luck
// (half damage), neither most turns.
func (a *Arena) rollLuck(u *Unit) {
	u.Mode = u.Mode.Without(ModeLuckGood).Without(ModeLuckBad)
	chance := a.Statics.LuckChancePercent + u.Luck*a.Statics.MoraleStepPercent
	if a.RNG.Chance(chance) {
		u.Mode = u.Mode.With(ModeLuckGood)
	} else if a.RNG.Chance(a.Statics.LuckChancePercent - u.Luck*a.Statics.MoraleStepPercent) {
		u.Mode = u.Mode.With(ModeLuckBad)
	}
}

// Outcome reports the battle's current terminal state without mutating
// anything. Sides are judged by army color: a hypnotized stack still
// counts for the army it marched in with.
func (a *Arena) Outcome() Result {
	if a.surrendered[SideAttacker] {
		return Result{Kind: ResultDefenderWins, Turns: a.turn, Retreated: SideNone, Surrendered: SideAttacker, SurrenderPaid: a.surrenderPaid}
	}
	if a.surrendered[SideDefender] {
		return Result{Kind: ResultAttackerWins, Turns: a.turn, Retreated: SideNone, Surrendered: SideDefender, SurrenderPaid: a.surrenderPaid}
	}
	if a.retreated[SideAttacker] {
		return Result{Kind: ResultDefenderWins, Turns: a.turn, Retreated: SideAttacker, Surrendered: SideNone}
	}
	if a.retreated[SideDefender] {
		return Result{Kind: ResultAttackerWins, Turns: a.turn, Retreated: SideDefender, Surrendered: SideNone}
	}
	attackerAlive, defenderAlive := false, false
	for _, u := range a.Units {
		if u.IsDead() {
			continue
		}
		if u.Side == SideAttacker {
			attackerAlive = true
		} else {
			defenderAlive = true
		}
	}
	res := Result{Kind: ResultOngoing, Turns: a.turn, Retreated: SideNone, Surrendered: SideNone}
	switch {
	case !attackerAlive && !defenderAlive:
		res.Kind = ResultDraw
	case !attackerAlive:
		res.Kind = ResultDefenderWins
	case !defenderAlive:
		res.Kind = ResultAttackerWins
	case a.turnsSinceAction >= a.Statics.MaxTurnsWithoutAction:
		// Neither side pressed the fight to a conclusion; the defender holds
		// the field (spec §8 scenario 6).
		res.Kind = ResultDefenderWins
	}
	return res
}

// HasSummoned reports whether side has already used its one Summon
// Monster cast this battle.
func (a *Arena) HasSummoned(side Side) bool {
	return a.summoned[side]
}

// SurrenderCost returns the gold price for side to surrender: the sum
// of its surviving creatures' costs, scaled by SurrenderCostPercent.
func (a *Arena) SurrenderCost(side Side) int {
	total := 0
	for _, u := range a.Units {
		if u.IsDead() || u.Side != side || u.IsEphemeral() {
			continue
		}
		total += u.Cost * u.Count
	}
	return total * a.Statics.SurrenderCostPercent / 100
}

// ApplyCommand validates cmd, folds its bytes into the RNG, resolves its
// effect, applies every resulting mutation, appends a ResolvedCommand to
// the log, and returns any validation error (in which case nothing was
// mutated and nothing was logged but the rejection reason).
func (a *Arena) ApplyCommand(cmd Command) error {
	if err := a.Validate(cmd); err != nil {
		a.Log = append(a.Log, ResolvedCommand{Turn: a.turn, Command: cmd, Accepted: false, Reason: err.Error()})
		return err
	}
	a.RNG.Fold(byte(cmd.Kind()), cmd.FoldBytes())

	entry := ResolvedCommand{Turn: a.turn, Command: cmd, Accepted: true}
	switch c := cmd.(type) {
	case MoveCommand:
		a.applyMove(c)
		a.turnsSinceAction = 0
	case AttackCommand:
		entry.Damage, entry.Killed = a.applyAttack(c)
		a.turnsSinceAction = 0
	case SpellcastCommand:
		if cm := a.commanderFor(a.Units[c.Unit].CurSide); cm != nil {
			cm.SpendFor(c.Spell)
		}
		a.Cast(a.Units[c.Unit], c)
		a.turnsSinceAction = 0
	case MoraleCommand:
		if c.Good {
			delete(a.MoraleBonusAvailable, c.Unit)
		} else {
			u := a.Units[c.Unit]
			u.Mode = u.Mode.With(ModeWaited)
			a.turnsSinceAction++
		}
	case CatapultCommand:
		dmg := a.RNG.Range(a.Statics.CatapultDamageMin, a.Statics.CatapultDamageMax)
		a.Siege.ApplyCatapultHit(c.Target, dmg)
		entry.Damage = dmg
		a.turnsSinceAction = 0
	case TowerCommand:
		// towers normally fire via runSideAutomation; an explicit command
		// resolves one shot for hosts that drive towers externally
		if tgt, ok := a.Units[c.Target]; ok && !tgt.IsDead() {
			entry.Damage = a.fireOneTower(c.Tower, tgt)
		}
	case RetreatCommand:
		a.applyRetreat(c)
	case SurrenderCommand:
		a.surrendered[c.Side] = true
		a.surrenderPaid = a.SurrenderCost(c.Side)
	case SkipCommand:
		a.Units[c.Unit].Mode = a.Units[c.Unit].Mode.With(ModeDefending).With(ModeWaited)
		a.turnsSinceAction++
	case ToggleAutoCombatCommand:
		a.AutoCombat[c.Side] = !a.AutoCombat[c.Side]
	case QuickCombatCommand:
		// host/AI-layer concern: Arena only marks the toggle; the caller
		// loop is expected to keep invoking AdvanceToNextActor/planner
		// turns until Outcome() is terminal.
		a.AutoCombat[SideAttacker] = true
		a.AutoCombat[SideDefender] = true
	}
	a.Log = append(a.Log, entry)
	a.maybeGrantMoraleBonus(cmd.Actor())
	return nil
}

func (a *Arena) commanderFor(side Side) *Commander {
	if a.Commanders == nil {
		return nil
	}
	return a.Commanders[side]
}

func (a *Arena) applyMove(c MoveCommand) {
	u := a.Units[c.Unit]
	for _, old := range u.Pos.Cells() {
		a.Board.ClearOccupant(old)
	}
	if a.Board.IsCastle() && a.Board.IsMoatForSide(c.Target, u.Side) {
		dmg := u.TotalHP() * a.Statics.MoatDamagePercent / 100
		u.ApplyDamage(dmg)
	}
	u.Pos = ForUnit(a.Board, u, c.Target)
	for _, nc := range u.Pos.Cells() {
		a.Board.PlaceOccupant(nc, u.ID)
	}
	a.updateBridge(u)
	a.Pathfinder.InvalidateBoard()
}

// updateBridge applies the drawbridge transitions of spec §3: a
// castle-side unit reaching the gate or moat lowers it, and it raises
// again once the gate cell is empty. A destroyed bridge never moves.
func (a *Arena) updateBridge(mover *Unit) {
	if a.Siege == nil || a.Siege.Bridge.Destroyed {
		return
	}
	if mover.Side == SideDefender {
		for _, c := range mover.Pos.Cells() {
			if c == gateCell || moatCells[c] {
				a.Siege.Bridge.Down = true
				return
			}
		}
	}
	if !a.Board.Occupied(gateCell) {
		a.Siege.Bridge.Down = false
	}
}

func (a *Arena) applyAttack(c AttackCommand) (dmg, killed int) {
	attacker := a.Units[c.Unit]
	defender := a.Units[c.Target]
	var r DamageResult
	if c.Ranged {
		r = a.ResolveRangedAttack(attacker, defender)
	} else {
		if c.FromCell.Valid() && c.FromCell != attacker.Pos.Head {
			a.applyMove(MoveCommand{Unit: c.Unit, Target: c.FromCell})
		}
		a.faceToward(attacker, defender)
		r = a.ResolveMeleeAttack(attacker, defender)
	}
	// Post-attack bookkeeping (spec §4.5): luck is spent, and a
	// hypnotized or berserk attacker snaps out of it.
	attacker.Mode = attacker.Mode.Without(ModeLuckGood).Without(ModeLuckBad)
	if attacker.Mode.Has(ModeHypnotized) || attacker.Mode.Has(ModeBerserk) {
		attacker.Mode = attacker.Mode.Without(ModeHypnotized).Without(ModeBerserk)
		if attacker.ModeTurns != nil {
			delete(attacker.ModeTurns, ModeHypnotized)
			delete(attacker.ModeTurns, ModeBerserk)
		}
		attacker.CurSide = attacker.Side
	}
	return r.Damage, r.Killed
}

// faceToward flips a wide attacker's reflection when its target stands
// behind it, so the melee geometry matches the strike.
func (a *Arena) faceToward(attacker, defender *Unit) {
	if !attacker.IsWide {
		return
	}
	headDist := a.Board.Distance(attacker.Pos.Head, defender.Pos.Head)
	tailDist := a.Board.Distance(attacker.Pos.Tail, defender.Pos.Head)
	if tailDist >= headDist {
		return
	}
	rev := Reverse(a.Board, attacker, attacker.Pos)
	if !rev.Tail.Valid() {
		return
	}
	if occ := a.Board.OccupantAt(rev.Tail); occ != UnitIDNone && occ != attacker.ID {
		return
	}
	for _, c := range attacker.Pos.Cells() {
		a.Board.ClearOccupant(c)
	}
	attacker.Pos = rev
	for _, c := range attacker.Pos.Cells() {
		a.Board.PlaceOccupant(c, attacker.ID)
	}
}

func (a *Arena) fireOneTower(id TowerID, target *Unit) int {
	if a.Siege == nil {
		return 0
	}
	for _, t := range a.Siege.Towers {
		if t.ID != id || t.Disabled {
			continue
		}
		killed := target.ApplyDamage(t.Damage)
		if killed > 0 {
			a.onUnitKilled(target, killed)
		}
		return t.Damage
	}
	return 0
}

// applyRetreat withdraws the acting unit's whole army: the battle ends
// in the opponent's favor, the fleeing stacks leave the board intact
// (they march away with their hero rather than dying).
func (a *Arena) applyRetreat(c RetreatCommand) {
	side := a.Units[c.Unit].Side
	a.retreated[side] = true
	for _, u := range a.Units {
		if u.Side != side || u.IsDead() {
			continue
		}
		for _, cell := range u.Pos.Cells() {
			a.Board.ClearOccupant(cell)
		}
	}
	a.Pathfinder.InvalidateBoard()
}

// maybeGrantMoraleBonus rolls a good-morale check for actor after it
// acts: on success the unit may immediately issue one more command this
// round via MoraleCommand (spec §4.5). Undead never feel morale.
func (a *Arena) maybeGrantMoraleBonus(actor UnitID) {
	u, ok := a.Units[actor]
	if !ok || u.IsDead() || u.IsUndead {
		return
	}
	chance := a.Statics.GoodMoraleBasePercent + u.Morale*a.Statics.MoraleStepPercent
	if chance <= 0 {
		return
	}
	if a.RNG.Chance(chance) {
		a.MoraleBonusAvailable[actor] = true
	}
}

// RollBadMorale reports whether the acting unit freezes up this turn;
// the caller should then submit MoraleCommand{Good: false} for it.
// Undead and already-waited units never roll.
func (a *Arena) RollBadMorale(u *Unit) bool {
	if u.IsUndead || u.Morale >= 0 || u.Mode.Has(ModeWaited) {
		return false
	}
	chance := -u.Morale * a.Statics.MoraleStepPercent
	return a.RNG.Chance(chance)
}

// EndBattle finalizes experience and necromancy raises for any side
// whose units can raise skeletons, called once Outcome() is no longer
// ResultOngoing.
func (a *Arena) EndBattle(necromancers map[Side]bool) Result {
	res := a.Outcome()
	res.Experience = map[Side]int{}
	for side, xp := range a.experience {
		res.Experience[side] = xp
	}
	res.SkeletonsRaised = map[Side]int{}
	for side, can := range necromancers {
		if !can {
			continue
		}
		n := a.Graveyard.RaiseSkeletons(side, a.Statics.NecromancyRaisePercent)
		res.SkeletonsRaised[side] = n
	}
	return res
}
