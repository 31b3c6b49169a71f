package world

import (
	"testing"

	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/gamemap"
	"github.com/emberfall/server/internal/geom"
)

func testComposite(widthTiles, heightTiles int) *MapComposite {
	return NewMapComposite(gamemap.New(1, widthTiles, heightTiles, 32, 32))
}

func TestInsertAssignsPublicIDAndZone(t *testing.T) {
	c := testComposite(32, 32) // 1024x1024 px, 4x4 zones
	pool := ecs.NewEntityPool()

	e := pool.Create(ecs.TypeCharacter)
	actor := &component.Actor{Pos: geom.Point{X: 300, Y: 40}, BlockType: gamemap.BlockCharacter}
	if err := c.Insert(e, ecs.TypeCharacter, actor); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if actor.PublicID == 0 || actor.PublicID == 0xFFFF {
		t.Errorf("PublicID = %d, reserved value issued", actor.PublicID)
	}

	// Exactly one zone contains the entity.
	found := 0
	for i := range c.zones {
		for _, id := range c.zones[i].All() {
			if id == e {
				found++
			}
		}
	}
	if found != 1 {
		t.Errorf("entity present in %d zones, want 1", found)
	}

	// The zone at its position is that zone.
	z := c.ZoneAt(actor.Pos)
	ok := false
	for _, id := range z.All() {
		if id == e {
			ok = true
		}
	}
	if !ok {
		t.Error("ZoneAt(pos) does not contain the entity")
	}

	// Tile occupancy raised for its block class.
	if occ := c.Map().Occupancy(300/32, 40/32, gamemap.BlockCharacter); occ < 1 {
		t.Errorf("tile occupancy = %d, want >= 1", occ)
	}
}

func TestPublicIDsUnique(t *testing.T) {
	c := testComposite(8, 8)
	pool := ecs.NewEntityPool()
	seen := make(map[uint16]bool)
	for i := 0; i < 600; i++ {
		e := pool.Create(ecs.TypeMonster)
		actor := &component.Actor{Pos: geom.Point{X: 16, Y: 16}, BlockType: gamemap.BlockMonster}
		if err := c.Insert(e, ecs.TypeMonster, actor); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
		if actor.PublicID == 0 || actor.PublicID == 0xFFFF {
			t.Fatalf("reserved public id %d issued", actor.PublicID)
		}
		if seen[actor.PublicID] {
			t.Fatalf("public id %d issued twice", actor.PublicID)
		}
		seen[actor.PublicID] = true
	}
}

func TestPublicIDReuseAfterRemove(t *testing.T) {
	c := testComposite(8, 8)
	pool := ecs.NewEntityPool()

	e := pool.Create(ecs.TypeNPC)
	actor := &component.Actor{Pos: geom.Point{X: 16, Y: 16}}
	if err := c.Insert(e, ecs.TypeNPC, actor); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	c.Remove(e, actor)

	if actor.PublicID != 0 {
		t.Errorf("PublicID = %d after Remove, want 0", actor.PublicID)
	}
	if len(c.Entities()) != 0 {
		t.Errorf("Entities() length = %d after Remove, want 0", len(c.Entities()))
	}
}

func TestZonePartitionOrder(t *testing.T) {
	c := testComposite(8, 8)
	pool := ecs.NewEntityPool()

	insert := func(typ ecs.EntityType) ecs.EntityID {
		e := pool.Create(typ)
		if err := c.Insert(e, typ, &component.Actor{Pos: geom.Point{X: 10, Y: 10}}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		return e
	}

	item := insert(ecs.TypeItem)
	mon := insert(ecs.TypeMonster)
	ch := insert(ecs.TypeCharacter)

	z := c.ZoneAt(geom.Point{X: 10, Y: 10})
	chars := z.Characters()
	if len(chars) != 1 || chars[0] != ch {
		t.Errorf("Characters() = %v, want [%v]", chars, ch)
	}
	moving := z.Moving()
	if len(moving) != 2 {
		t.Fatalf("Moving() length = %d, want 2", len(moving))
	}
	hasMon := moving[0] == mon || moving[1] == mon
	if !hasMon {
		t.Errorf("Moving() = %v missing monster %v", moving, mon)
	}
	if all := z.All(); len(all) != 3 || all[2] != item {
		t.Errorf("All() = %v, want static item last", all)
	}
}

func TestAroundCharacterSeesDestinations(t *testing.T) {
	c := testComposite(32, 32) // 4x4 zones
	pool := ecs.NewEntityPool()

	// Observer sits in zone (0,0); its awareness radius does not reach
	// zone (2,0) directly.
	obs := pool.Create(ecs.TypeCharacter)
	obsActor := &component.Actor{Pos: geom.Point{X: 100, Y: 100}}
	if err := c.Insert(obs, ecs.TypeCharacter, obsActor); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Mover crosses from zone (1,0) — inside the observer's region — to
	// zone (2,0) this tick.
	mv := pool.Create(ecs.TypeMonster)
	mvActor := &component.Actor{Pos: geom.Point{X: 300, Y: 100}}
	if err := c.Insert(mv, ecs.TypeMonster, mvActor); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	mvActor.Pos = geom.Point{X: 520, Y: 100}
	c.ReassignZone(mv, ecs.TypeMonster, mvActor)

	zones := c.AroundCharacter(obsActor, 160)
	found := false
	for _, z := range zones {
		for _, id := range z.All() {
			if id == mv {
				found = true
			}
		}
	}
	if !found {
		t.Error("mover that crossed out of the observed region was not returned")
	}
}

func TestInsideRectangle(t *testing.T) {
	c := testComposite(32, 32)
	r := geom.Rectangle{X: 200, Y: 200, W: 200, H: 50}
	zones := c.InsideRectangle(r)
	// Spans zone columns 0 and 1 in row 0.
	if len(zones) != 2 {
		t.Errorf("InsideRectangle returned %d zones, want 2", len(zones))
	}
}
