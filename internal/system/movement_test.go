package system

import (
	"testing"

	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/gamemap"
	"github.com/emberfall/server/internal/geom"
)

func TestWalkAdvancesOneStepPerTick(t *testing.T) {
	f := newFixture(t, 16, 16)
	e := f.addCharacter(t, "alice", geom.Point{X: 16, Y: 16}, 100)
	f.tick(1) // insert

	being := f.deps.State.Stores.Beings.MustGet(e)
	actor := f.deps.State.Stores.Actors.MustGet(e)
	being.Destination = geom.Point{X: 80, Y: 16}
	being.Action = component.ActionWalk

	f.tick(1)
	if actor.Pos.X <= 16 {
		t.Fatalf("no progress after one tick: %v", actor.Pos)
	}
	f.tick(4)
	if actor.Pos != (geom.Point{X: 80, Y: 16}) {
		t.Fatalf("Pos = %v after walk, want (80,16)", actor.Pos)
	}
	if being.Action != component.ActionStand {
		t.Errorf("Action = %v at destination, want STAND", being.Action)
	}
}

func TestWalkBlockedByWall(t *testing.T) {
	f := newFixture(t, 16, 16)
	e := f.addCharacter(t, "alice", geom.Point{X: 16, Y: 16}, 100)
	f.tick(1)

	// Wall the destination column off entirely.
	m := f.deps.State.Map(1).Map()
	for y := 0; y < 16; y++ {
		m.BlockTile(2, y, gamemap.BlockWall)
	}

	being := f.deps.State.Stores.Beings.MustGet(e)
	actor := f.deps.State.Stores.Actors.MustGet(e)
	start := actor.Pos
	being.Destination = geom.Point{X: 112, Y: 16}
	being.Action = component.ActionWalk

	f.tick(2)
	if actor.Pos != start {
		t.Errorf("Pos = %v, want unchanged %v with no route", actor.Pos, start)
	}
	if being.Action != component.ActionStand {
		t.Errorf("Action = %v with no route, want STAND", being.Action)
	}
}

func TestTileOccupancyFollowsMovement(t *testing.T) {
	f := newFixture(t, 16, 16)
	e := f.addCharacter(t, "alice", geom.Point{X: 16, Y: 16}, 100)
	f.tick(1)

	being := f.deps.State.Stores.Beings.MustGet(e)
	actor := f.deps.State.Stores.Actors.MustGet(e)
	being.Destination = geom.Point{X: 144, Y: 16}
	being.Action = component.ActionWalk
	f.tick(8)

	m := f.deps.State.Map(1).Map()
	tx, ty := actor.Pos.X/32, actor.Pos.Y/32
	if occ := m.Occupancy(tx, ty, gamemap.BlockCharacter); occ < 1 {
		t.Errorf("occupancy at final tile = %d, want >= 1", occ)
	}
	if occ := m.Occupancy(0, 0, gamemap.BlockCharacter); occ != 0 {
		t.Errorf("occupancy at origin tile = %d, want 0", occ)
	}
}

func TestRegenPausesAfterHit(t *testing.T) {
	f := newFixture(t, 8, 8)
	f.deps.Cfg.Game.HPRegenBreakAfterHit = 10
	e := f.addCharacter(t, "alice", geom.Point{X: 16, Y: 16}, 100)
	f.tick(1)

	being := f.deps.State.Stores.Beings.MustGet(e)
	being.Attributes.SetBase(attribute.HPRegen, 1)
	being.Attributes.SetBase(attribute.HP, 50)

	f.tick(1)
	if hp := being.Attributes.Modified(attribute.HP); hp != 51 {
		t.Fatalf("HP = %v after regen tick, want 51", hp)
	}

	being.SetTimer(component.TimerRegenPause, 5)
	f.tick(3)
	if hp := being.Attributes.Modified(attribute.HP); hp != 51 {
		t.Errorf("HP = %v during regen pause, want 51", hp)
	}
}
