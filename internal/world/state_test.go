package world

import (
	"testing"

	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/core/event"
	"github.com/emberfall/server/internal/gamemap"
	"github.com/emberfall/server/internal/geom"
	"go.uber.org/zap"
)

func newTestState() *State {
	s := NewState(event.NewBus(), zap.NewNop())
	s.AddMap(NewMapComposite(gamemap.New(1, 32, 32, 32, 32)))
	s.AddMap(NewMapComposite(gamemap.New(2, 32, 32, 32, 32)))
	return s
}

func addActor(s *State, t ecs.EntityType, pos geom.Point) ecs.EntityID {
	e := s.ECS.CreateEntity(t)
	s.Stores.Actors.Set(e, &component.Actor{Pos: pos, BlockType: gamemap.BlockCharacter})
	return e
}

func TestDeferredInsertAppliesBetweenTicks(t *testing.T) {
	s := newTestState()
	e := addActor(s, ecs.TypeCharacter, geom.Point{X: 100, Y: 100})
	s.EnqueueInsert(e, 1)

	// Nothing visible until the queues drain.
	if len(s.Map(1).Entities()) != 0 {
		t.Fatal("entity visible before queue drain")
	}
	s.DrainQueues()

	actor := s.Stores.Actors.MustGet(e)
	if actor.MapID != 1 {
		t.Errorf("MapID = %d, want 1", actor.MapID)
	}
	if actor.PublicID == 0 {
		t.Error("no public id allocated on insert")
	}
	if len(s.Map(1).Entities()) != 1 {
		t.Error("entity missing from map after drain")
	}
}

func TestWarpMovesAcrossLocalMaps(t *testing.T) {
	s := newTestState()
	e := addActor(s, ecs.TypeCharacter, geom.Point{X: 100, Y: 100})
	s.Stores.Beings.Set(e, component.NewBeing("w", nil))
	s.EnqueueInsert(e, 1)
	s.DrainQueues()

	s.EnqueueWarp(e, 2, geom.Point{X: 200, Y: 300})
	s.DrainQueues()

	actor := s.Stores.Actors.MustGet(e)
	if actor.MapID != 2 {
		t.Fatalf("MapID = %d after warp, want 2", actor.MapID)
	}
	if actor.Pos != (geom.Point{X: 200, Y: 300}) {
		t.Errorf("Pos = %v after warp, want (200,300)", actor.Pos)
	}
	if len(s.Map(1).Entities()) != 0 {
		t.Error("entity still on the source map")
	}
	being := s.Stores.Beings.MustGet(e)
	if being.Action != component.ActionStand {
		t.Errorf("Action = %v after warp, want STAND", being.Action)
	}
}

func TestInsertOutOfBoundsFails(t *testing.T) {
	s := newTestState()
	e := addActor(s, ecs.TypeCharacter, geom.Point{X: -10, Y: 100})
	s.EnqueueInsert(e, 1)
	s.DrainQueues()

	// The failed insert marks the entity for destruction.
	s.ECS.FlushDestroyQueue()
	if s.ECS.Alive(e) {
		t.Error("out-of-bounds insert left entity alive")
	}
}

func TestQuarantineRemovesWithoutFlush(t *testing.T) {
	s := newTestState()
	e := addActor(s, ecs.TypeCharacter, geom.Point{X: 100, Y: 100})
	s.EnqueueInsert(e, 1)
	s.DrainQueues()

	s.Quarantine(e, "corrupt inventory")
	if !s.IsQuarantined(e) {
		t.Fatal("IsQuarantined = false after Quarantine")
	}
	s.DrainQueues()
	if len(s.Map(1).Entities()) != 0 {
		t.Error("quarantined entity still on map")
	}
}

func TestRemoveFiresSignalOnce(t *testing.T) {
	s := newTestState()
	removed := 0
	event.Subscribe(s.Bus, func(event.EntityRemoved) { removed++ })

	e := addActor(s, ecs.TypeCharacter, geom.Point{X: 100, Y: 100})
	s.EnqueueInsert(e, 1)
	s.DrainQueues()
	s.EnqueueRemove(e)
	s.DrainQueues()

	s.Bus.SwapBuffers()
	s.Bus.DispatchAll()
	if removed != 1 {
		t.Errorf("removed signal fired %d times, want 1", removed)
	}
}
