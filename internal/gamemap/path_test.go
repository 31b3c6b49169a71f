package gamemap

import "testing"

func TestFindPathStraightLine(t *testing.T) {
	m := New(1, 10, 10, 32, 32)
	path := m.FindPath(0, 0, 3, 0, BlockmaskWall, 20)
	if len(path) != 3 {
		t.Fatalf("path length = %d, want 3", len(path))
	}
	if last := path[len(path)-1]; last.X != 3 || last.Y != 0 {
		t.Errorf("path end = %v, want (3,0)", last)
	}
	// First step adjacent to the start.
	if dx, dy := abs(path[0].X-0), abs(path[0].Y-0); dx > 1 || dy > 1 {
		t.Errorf("first step %v not adjacent to start", path[0])
	}
}

func TestFindPathAroundWall(t *testing.T) {
	m := New(1, 10, 10, 32, 32)
	// Vertical wall at x=5 with a gap at y=8.
	for y := 0; y < 8; y++ {
		m.BlockTile(5, y, BlockWall)
	}
	path := m.FindPath(0, 0, 9, 0, BlockmaskWall, 100)
	if len(path) == 0 {
		t.Fatal("no path found around wall")
	}
	// Consecutive steps stay 8-connected and never stand on a wall.
	prev := struct{ X, Y int }{0, 0}
	for _, p := range path {
		if abs(p.X-prev.X) > 1 || abs(p.Y-prev.Y) > 1 {
			t.Fatalf("discontinuous step %v -> %v", prev, p)
		}
		if !m.GetWalk(p.X, p.Y, BlockmaskWall) {
			t.Fatalf("path crosses blocked tile %v", p)
		}
		prev = struct{ X, Y int }{p.X, p.Y}
	}
}

func TestFindPathUnreachable(t *testing.T) {
	m := New(1, 10, 10, 32, 32)
	for y := 0; y < 10; y++ {
		m.BlockTile(5, y, BlockWall)
	}
	if path := m.FindPath(0, 0, 9, 0, BlockmaskWall, 100); len(path) != 0 {
		t.Errorf("path found through a solid wall: %v", path)
	}
}

func TestFindPathBlockedDestination(t *testing.T) {
	m := New(1, 10, 10, 32, 32)
	m.BlockTile(3, 3, BlockWall)
	if path := m.FindPath(0, 0, 3, 3, BlockmaskWall, 100); len(path) != 0 {
		t.Errorf("path found to blocked destination: %v", path)
	}
}

func TestFindPathMaxCostCap(t *testing.T) {
	m := New(1, 40, 2, 32, 32)
	// Destination 30 tiles away but a cap of 5 steps worth of cost.
	if path := m.FindPath(0, 0, 30, 0, BlockmaskWall, 5); len(path) != 0 {
		t.Errorf("path found beyond the cost cap: %v", path)
	}
}

func TestFindPathNoCornerCutting(t *testing.T) {
	m := New(1, 4, 4, 32, 32)
	// Blocked cardinals force the diagonal to be rejected.
	m.BlockTile(1, 0, BlockWall)
	m.BlockTile(0, 1, BlockWall)
	if path := m.FindPath(0, 0, 1, 1, BlockmaskWall, 10); len(path) != 0 {
		t.Errorf("diagonal cut through blocked corner: %v", path)
	}
}

func TestFindPathReusableAcrossSearches(t *testing.T) {
	m := New(1, 10, 10, 32, 32)
	for i := 0; i < 3; i++ {
		if path := m.FindPath(0, 0, 5, 5, BlockmaskWall, 100); len(path) == 0 {
			t.Fatalf("search %d found no path", i)
		}
	}
}
