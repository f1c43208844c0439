package battle

import "testing"

func TestNeighborStaysOnBoard(t *testing.T) {
	b := NewBoard()
	corner := CellIndex(0)
	for _, d := range AllDirections() {
		n := b.Neighbor(corner, d)
		if n.Valid() && n.Row() > 1 {
			t.Fatalf("neighbor %v of corner cell landed too far away: %d", d, n)
		}
	}
}

func TestNeighborRoundTrip(t *testing.T) {
	b := NewBoard()
	center := CellIndex(4*BoardWidth + 5)
	for _, d := range AllDirections() {
		n := b.Neighbor(center, d)
		if !n.Valid() {
			continue
		}
		if !b.AreAdjacent(center, n) {
			t.Fatalf("neighbor in direction %v not reported adjacent", d)
		}
	}
}

func TestDistanceSymmetric(t *testing.T) {
	b := NewBoard()
	a, c := CellIndex(12), CellIndex(57)
	if b.Distance(a, c) != b.Distance(c, a) {
		t.Fatalf("distance is not symmetric")
	}
}

func TestDistanceZeroForSameCell(t *testing.T) {
	b := NewBoard()
	if d := b.Distance(10, 10); d != 0 {
		t.Fatalf("expected 0, got %d", d)
	}
}

func TestAdjacentCellsHaveDistanceOne(t *testing.T) {
	b := NewBoard()
	start := CellIndex(50)
	for _, n := range b.Neighbors(start) {
		if d := b.Distance(start, n); d != 1 {
			t.Fatalf("adjacent cells %d,%d reported distance %d", start, n, d)
		}
	}
}

func TestMoatGateOnlyWhenBridgeUp(t *testing.T) {
	b := NewBoard()
	siege := &Siege{Bridge: Bridge{Down: true}}
	b.SetCastle(siege, SideDefender)
	if b.IsMoat(gateCell) {
		t.Fatalf("gate should not be moat while bridge is down")
	}
	siege.Bridge.Down = false
	if !b.IsMoat(gateCell) {
		t.Fatalf("gate should be moat while bridge is up")
	}
}

func TestMoatGateAttackerNeedsBridgeDestroyed(t *testing.T) {
	b := NewBoard()
	siege := &Siege{Bridge: Bridge{Down: true}}
	b.SetCastle(siege, SideDefender)
	if !b.IsMoatForSide(gateCell, SideAttacker) {
		t.Fatalf("attacker should still treat a merely-lowered bridge as moat")
	}
	siege.Bridge.Destroyed = true
	if b.IsMoatForSide(gateCell, SideAttacker) {
		t.Fatalf("a destroyed bridge should open the gate to the attacker too")
	}
}

func TestWallSegmentBlocksUntilDestroyed(t *testing.T) {
	b := NewBoard()
	siege := NewSiege()
	b.SetCastle(siege, SideDefender)
	cell := CellIndex(19)
	if b.PassableForSide(cell, SideAttacker) {
		t.Fatalf("intact wall segment should block movement")
	}
	siege.Wall(SiegeTargetWallLeft).Destroyed = true
	if !b.PassableForSide(cell, SideAttacker) {
		t.Fatalf("destroyed wall segment should no longer block movement")
	}
}

func TestPositionDistanceUsesClosestCells(t *testing.T) {
	b := NewBoard()
	narrow := NewPosition(50)
	wide := NewWidePosition(53, 52, false)
	d := b.PositionDistance(narrow, wide)
	if d != b.Distance(50, 52) {
		t.Fatalf("expected the tail-side distance %d, got %d", b.Distance(50, 52), d)
	}
	if b.PositionDistance(narrow, narrow) != 0 {
		t.Fatalf("distance to self must be 0")
	}
}
