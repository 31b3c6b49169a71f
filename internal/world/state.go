package world

import (
	"fmt"
	"sort"

	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/core/event"
	"github.com/emberfall/server/internal/geom"
	"go.uber.org/zap"
)

// State is the single owner of all simulation state on a game service: the
// ECS world, the component stores, and every map composite. Mutation of the
// entity sets during a tick goes through the deferred queues; they drain
// between ticks in the §4.1 order.
type State struct {
	ECS    *ecs.World
	Stores *Stores

	maps map[int]*MapComposite

	insertQueue []pendingInsert
	removeQueue []ecs.EntityID
	warpQueue   []pendingWarp

	// quarantined entities are off the world and excluded from flushes.
	quarantined map[ecs.EntityID]struct{}

	Bus *event.Bus
	log *zap.Logger
}

type pendingInsert struct {
	entity ecs.EntityID
	mapID  int
}

type pendingWarp struct {
	entity ecs.EntityID
	mapID  int
	point  geom.Point
}

func NewState(bus *event.Bus, log *zap.Logger) *State {
	w := ecs.NewWorld()
	return &State{
		ECS:         w,
		Stores:      NewStores(w.Registry()),
		maps:        make(map[int]*MapComposite),
		quarantined: make(map[ecs.EntityID]struct{}),
		Bus:         bus,
		log:         log,
	}
}

func (s *State) AddMap(c *MapComposite) { s.maps[c.ID()] = c }

func (s *State) Map(id int) *MapComposite { return s.maps[id] }

func (s *State) EachMap(fn func(*MapComposite)) {
	for _, c := range s.maps {
		fn(c)
	}
}

// EachEntityOrdered visits every on-map entity in the stable tick order:
// maps by ascending id, entities by insertion order. Mutation during the
// walk goes through the deferred queues, never the entity lists.
func (s *State) EachEntityOrdered(fn func(ecs.EntityID)) {
	ids := make([]int, 0, len(s.maps))
	for id := range s.maps {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		for _, e := range s.maps[id].Entities() {
			fn(e)
		}
	}
}

// MapOf returns the composite an entity currently lives on, by scanning the
// actor's recorded map id.
func (s *State) MapOf(e ecs.EntityID) *MapComposite {
	a, ok := s.Stores.Actors.Get(e)
	if !ok {
		return nil
	}
	return s.maps[a.MapID]
}

// EnqueueInsert schedules an entity to join a map between ticks.
func (s *State) EnqueueInsert(e ecs.EntityID, mapID int) {
	s.insertQueue = append(s.insertQueue, pendingInsert{entity: e, mapID: mapID})
}

// EnqueueRemove schedules an entity's removal from the world between ticks.
func (s *State) EnqueueRemove(e ecs.EntityID) {
	s.removeQueue = append(s.removeQueue, e)
}

// EnqueueWarp schedules a character's move to another point, possibly on
// another map of this shard.
func (s *State) EnqueueWarp(e ecs.EntityID, mapID int, p geom.Point) {
	s.warpQueue = append(s.warpQueue, pendingWarp{entity: e, mapID: mapID, point: p})
}

// Quarantine pulls a corrupt entity out of the world without destroying or
// flushing it. Invariant violations land here rather than aborting the tick.
func (s *State) Quarantine(e ecs.EntityID, reason string) {
	s.log.Error("entity quarantined",
		zap.Uint64("entity", uint64(e)),
		zap.String("reason", reason),
	)
	s.quarantined[e] = struct{}{}
	s.EnqueueRemove(e)
}

func (s *State) IsQuarantined(e ecs.EntityID) bool {
	_, ok := s.quarantined[e]
	return ok
}

// DrainQueues applies the deferred operations in order: warps, removals,
// then insertions. Removals fire the removed signal; insertions fire
// inserted and allocate the public id.
func (s *State) DrainQueues() {
	warps := s.warpQueue
	s.warpQueue = s.warpQueue[:0]
	for _, wp := range warps {
		s.applyWarp(wp)
	}

	removes := s.removeQueue
	s.removeQueue = s.removeQueue[:0]
	for _, e := range removes {
		s.applyRemove(e)
	}

	inserts := s.insertQueue
	s.insertQueue = s.insertQueue[:0]
	for _, ins := range inserts {
		if err := s.applyInsert(ins.entity, ins.mapID); err != nil {
			s.log.Error("deferred insert failed",
				zap.Uint64("entity", uint64(ins.entity)),
				zap.Int("map", ins.mapID),
				zap.Error(err),
			)
			s.ECS.MarkForDestruction(ins.entity)
		}
	}
}

func (s *State) applyInsert(e ecs.EntityID, mapID int) error {
	if !s.ECS.Alive(e) {
		return fmt.Errorf("insert of dead entity")
	}
	c := s.maps[mapID]
	if c == nil {
		return fmt.Errorf("unknown map %d", mapID)
	}
	actor, ok := s.Stores.Actors.Get(e)
	if !ok {
		return fmt.Errorf("entity has no actor component")
	}
	if !s.clampToMap(c, actor) {
		return fmt.Errorf("position outside map bounds")
	}
	if err := c.Insert(e, s.ECS.Type(e), actor); err != nil {
		return err
	}
	actor.MapID = mapID
	event.Emit(s.Bus, event.EntityInserted{Entity: e, MapID: mapID})
	return nil
}

func (s *State) applyRemove(e ecs.EntityID) {
	actor, ok := s.Stores.Actors.Get(e)
	if !ok {
		return
	}
	c := s.maps[actor.MapID]
	if c == nil {
		return
	}
	c.Remove(e, actor)
	event.Emit(s.Bus, event.EntityRemoved{Entity: e, MapID: actor.MapID})
	actor.MapID = 0
}

func (s *State) applyWarp(wp pendingWarp) {
	actor, ok := s.Stores.Actors.Get(wp.entity)
	if !ok || !s.ECS.Alive(wp.entity) {
		return
	}
	target := s.maps[wp.mapID]
	if target == nil {
		s.log.Warn("warp to unknown map", zap.Int("map", wp.mapID))
		return
	}
	oldMap := actor.MapID

	if c := s.maps[oldMap]; c != nil {
		c.Remove(wp.entity, actor)
	}
	actor.Pos = wp.point
	actor.OldPos = wp.point
	if being, ok := s.Stores.Beings.Get(wp.entity); ok {
		being.Path = nil
		being.Destination = wp.point
		being.Action = component.ActionStand
	}
	if err := target.Insert(wp.entity, s.ECS.Type(wp.entity), actor); err != nil {
		s.log.Error("warp insert failed", zap.Error(err))
		s.ECS.MarkForDestruction(wp.entity)
		return
	}
	actor.MapID = wp.mapID
	if oldMap != wp.mapID {
		event.Emit(s.Bus, event.EntityMapChanged{Entity: wp.entity, OldMap: oldMap, NewMap: wp.mapID})
	}
}

func (s *State) clampToMap(c *MapComposite, actor *component.Actor) bool {
	m := c.Map()
	return actor.Pos.X >= 0 && actor.Pos.Y >= 0 &&
		actor.Pos.X < m.PixelWidth() && actor.Pos.Y < m.PixelHeight()
}
