package battle

// MoatStepPenalty marks a step that enters a moat cell (spec §4.1/§4.3:
// "a unit will only enter it as the last cell on its turn"). It is a
// sentinel, not added arithmetically: stepCost's caller clamps the move's
// total cost to exactly the unit's speed when it sees this value, so the
// moat cell is reachable the instant it comes within reach but nothing
// past it is, within the same turn.
const MoatStepPenalty = 65535

// PathKey fingerprints everything a reachability computation depends on,
// so results can be cached and safely reused across turns until any of
// these inputs change (spec §4.3): the unit's starting cell, its speed,
// whether it is wide or flying, which side it belongs to (for
// stop-before-enemy rules) and a snapshot of which cells the board
// currently blocks.
type PathKey struct {
	Start      CellIndex
	Speed      int
	IsWide     bool
	IsFlying   bool
	Side       Side
	BoardEpoch uint64
}

// Node is one entry of a computed reachability graph: the cost to reach
// Cell from Start and the predecessor cell used to get there.
type Node struct {
	Cell CellIndex
	Cost int
	From CellIndex
}

// reachSet is the cached result of one BFS/Dijkstra-style reachability
// computation, keyed by PathKey.
type reachSet struct {
	nodes map[CellIndex]Node
}

// Pathfinder computes and caches per-unit reachability graphs. It is
// owned by an Arena and invalidated whenever the board's passability
// changes (a unit dies, a wall falls, a moat drains).
type Pathfinder struct {
	board *Board
	epoch uint64
	cache map[PathKey]*reachSet
}

// NewPathfinder creates a Pathfinder bound to board.
func NewPathfinder(b *Board) *Pathfinder {
	return &Pathfinder{board: b, cache: map[PathKey]*reachSet{}}
}

// InvalidateBoard bumps the passability epoch, evicting every cached
// reachability graph computed against the old board state. Call this
// exactly once per board-affecting mutation (unit death/move, wall
// destruction, bridge state change).
func (p *Pathfinder) InvalidateBoard() {
	p.epoch++
}

// keyFor builds the PathKey for a reachability query on behalf of u
// starting at start.
func (p *Pathfinder) keyFor(u *Unit, start CellIndex) PathKey {
	return PathKey{
		Start:      start,
		Speed:      u.EffectiveSpeed(),
		IsWide:     u.IsWide,
		IsFlying:   u.IsFlying,
		Side:       u.Side,
		BoardEpoch: p.epoch,
	}
}

// Reachable returns every cell u can legally end its move on this turn,
// from its current head position, along with the cheapest path cost.
// Flying units ignore intervening occupancy/obstacles entirely; ground
// units are blocked by any occupied or impassable cell for either half
// of a wide unit's footprint, and pay MoatStepPenalty (clamped to the
// unit's remaining speed) when entering a moat cell.
func (p *Pathfinder) Reachable(u *Unit) map[CellIndex]Node {
	key := p.keyFor(u, u.Pos.Head)
	if cached, ok := p.cache[key]; ok {
		return cached.nodes
	}
	nodes := p.computeReachable(u)
	p.cache[key] = &reachSet{nodes: nodes}
	return nodes
}

// blocked reports whether u could never occupy pos: either half of its
// footprint is off-board, impassable for its side, or already held by a
// different living unit. Flying units ignore this entirely, per spec
// §4.3's "every cell that admits the unit's footprint has cost 1" —
// admission for fliers is the destination-only occupancy rule already
// enforced at Move-command validation, not here.
func (p *Pathfinder) blocked(u *Unit, pos Position) bool {
	if u.IsFlying {
		return false
	}
	for _, c := range pos.Cells() {
		if !c.Valid() {
			return true
		}
		if !p.board.PassableForSide(c, u.Side) {
			return true
		}
		if occ := p.board.OccupantAt(c); occ != UnitIDNone && occ != u.ID {
			return true
		}
	}
	return false
}

// stepCost returns the cost of entering pos for the first time, given
// the cells u's footprint already covered at the start of this move
// (which are exempt from the moat penalty). Flying units always cost 1.
func (p *Pathfinder) stepCost(u *Unit, pos Position, startCells map[CellIndex]bool) int {
	if u.IsFlying {
		return 1
	}
	for _, c := range pos.Cells() {
		if startCells[c] {
			continue
		}
		if p.board.IsMoatForSide(c, u.Side) {
			return MoatStepPenalty
		}
	}
	return 1
}

// pathMove is one candidate transition out of a Position during the
// reachability search.
type pathMove struct {
	pos  Position
	free bool // true for a wide unit's in-place reversal (cost 0)
}

// neighborMoves lists every position reachable from cur in one step: the
// six hex-direction moves (keeping facing fixed), plus — for wide units —
// a free in-place reversal that flips facing without moving the head
// (spec §4.3/§8 scenario 2).
func (p *Pathfinder) neighborMoves(u *Unit, cur Position) []pathMove {
	var out []pathMove
	for _, d := range AllDirections() {
		head := p.board.Neighbor(cur.Head, d)
		if !head.Valid() {
			continue
		}
		out = append(out, pathMove{pos: positionAt(p.board, u, head, cur.Reflected)})
	}
	if u.IsWide {
		rev := positionAt(p.board, u, cur.Head, !cur.Reflected)
		if rev.Tail.Valid() && !rev.Equal(cur) {
			out = append(out, pathMove{pos: rev, free: true})
		}
	}
	return out
}

// resolveOrigin walks a same-head chain of reversal transitions back to
// the nearest predecessor whose head actually differs from pos's, so the
// per-head Node built from it never points back to itself (which would
// make Path loop forever). Reversal never changes which head cell a unit
// occupies, so any amount of it collapses to a single edge in the public,
// head-keyed graph.
func resolveOrigin(from map[Position]Position, pos Position) CellIndex {
	cur := pos
	for i := 0; i < CellCount*2+2; i++ {
		pred, ok := from[cur]
		if !ok {
			return cur.Head
		}
		if pred.Head != pos.Head {
			return pred.Head
		}
		cur = pred
	}
	return cur.Head
}

// computeReachable relaxes a unit's full (head, tail, facing) position
// graph out to its speed budget, then collapses it down to the public
// per-head-cell API: for each reachable head cell, the cheapest cost at
// which any orientation reached it and the predecessor head cell used.
func (p *Pathfinder) computeReachable(u *Unit) map[CellIndex]Node {
	start := u.Pos
	speed := u.EffectiveSpeed()
	startCells := map[CellIndex]bool{}
	for _, c := range start.Cells() {
		startCells[c] = true
	}

	cost := map[Position]int{start: 0}
	from := map[Position]Position{}

	for changed := true; changed; {
		changed = false
		frontier := make([]Position, 0, len(cost))
		for pos := range cost {
			frontier = append(frontier, pos)
		}
		for _, cur := range frontier {
			curCost := cost[cur]
			if curCost > speed {
				continue
			}
			for _, mv := range p.neighborMoves(u, cur) {
				if p.blocked(u, mv.pos) {
					continue
				}
				var next int
				if mv.free {
					next = curCost
				} else {
					step := p.stepCost(u, mv.pos, startCells)
					if step >= MoatStepPenalty {
						next = speed // consumes all remaining movement this turn
					} else {
						next = curCost + step
					}
				}
				if next > speed {
					continue
				}
				if existing, ok := cost[mv.pos]; ok && existing <= next {
					continue
				}
				cost[mv.pos] = next
				from[mv.pos] = cur
				changed = true
			}
		}
	}

	nodes := map[CellIndex]Node{}
	for pos, c := range cost {
		if pos.Equal(start) {
			continue
		}
		if existing, ok := nodes[pos.Head]; ok && existing.Cost <= c {
			continue
		}
		nodes[pos.Head] = Node{Cell: pos.Head, Cost: c, From: resolveOrigin(from, pos)}
	}
	return nodes
}

// Path reconstructs the cell sequence from u's start to target using a
// previously computed reachability graph, or reports ok=false if target
// is unreachable this turn.
func (p *Pathfinder) Path(u *Unit, target CellIndex) (path []CellIndex, ok bool) {
	nodes := p.Reachable(u)
	node, found := nodes[target]
	if !found {
		return nil, false
	}
	start := u.Pos.Head
	path = []CellIndex{target}
	for node.From.Valid() && node.From != start {
		path = append([]CellIndex{node.From}, path...)
		var exists bool
		node, exists = nodes[node.From]
		if !exists {
			break
		}
	}
	return path, true
}
