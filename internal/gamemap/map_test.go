package gamemap

import "testing"

func TestBlockTileCounters(t *testing.T) {
	m := New(1, 4, 4, 32, 32)

	// Two monsters on one tile: both must leave before it unblocks.
	m.BlockTile(1, 1, BlockMonster)
	m.BlockTile(1, 1, BlockMonster)
	if m.GetWalk(1, 1, BlockmaskMonster) {
		t.Fatal("tile walkable with two occupants")
	}
	m.FreeTile(1, 1, BlockMonster)
	if m.GetWalk(1, 1, BlockmaskMonster) {
		t.Fatal("tile walkable with one occupant left")
	}
	m.FreeTile(1, 1, BlockMonster)
	if !m.GetWalk(1, 1, BlockmaskMonster) {
		t.Fatal("tile blocked after all occupants left")
	}
}

func TestWalkmaskSelectsClasses(t *testing.T) {
	m := New(1, 4, 4, 32, 32)
	m.BlockTile(2, 2, BlockCharacter)

	// A monster blocked by characters cannot enter; one that ignores them can.
	if m.GetWalk(2, 2, BlockmaskCharacter) {
		t.Error("character-blocking walkmask passed through occupied tile")
	}
	if !m.GetWalk(2, 2, BlockmaskWall) {
		t.Error("wall-only walkmask blocked by a character")
	}
}

func TestGetWalkOutOfBounds(t *testing.T) {
	m := New(1, 4, 4, 32, 32)
	if m.GetWalk(-1, 0, BlockmaskWall) || m.GetWalk(0, 4, BlockmaskWall) {
		t.Error("out-of-bounds tile reported walkable")
	}
}

func TestFreeTileUnderflowIgnored(t *testing.T) {
	m := New(1, 4, 4, 32, 32)
	m.FreeTile(0, 0, BlockWall) // never blocked; must not wrap the counter
	m.BlockTile(0, 0, BlockWall)
	if m.GetWalk(0, 0, BlockmaskWall) {
		t.Error("tile walkable after block following a spurious free")
	}
}
