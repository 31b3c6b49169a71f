package system

import (
	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/gamemap"
	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/handler"
	"github.com/emberfall/server/internal/scripting"
	"go.uber.org/zap"
)

// spawnPlacementTries bounds the search for a free spawn tile.
const spawnPlacementTries = 10

// AreaSystem updates spawn areas and trigger areas. Phase 2.
type AreaSystem struct {
	deps *handler.Deps
}

func NewAreaSystem(deps *handler.Deps) *AreaSystem {
	return &AreaSystem{deps: deps}
}

func (s *AreaSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *AreaSystem) Update(uint64) {
	st := s.deps.State
	ecs.Each2(st.Stores.Actors, st.Stores.SpawnAreas, s.updateSpawnArea)
	ecs.Each2(st.Stores.Actors, st.Stores.TriggerAreas, s.updateTriggerArea)
}

func (s *AreaSystem) updateSpawnArea(e ecs.EntityID, actor *component.Actor, area *component.SpawnArea) {
	if area.NextSpawn > 0 {
		area.NextSpawn--
	}
	if area.NextSpawn > 0 || area.NumBeings >= area.MaxBeings || area.SpawnRate <= 0 {
		return
	}

	comp := s.deps.State.Map(actor.MapID)
	if comp == nil {
		return
	}
	m := comp.Map()

	zone := area.Zone
	// A dimensionless zone spans the whole map.
	if zone.W == 0 || zone.H == 0 {
		zone = geom.Rectangle{X: 0, Y: 0, W: m.PixelWidth(), H: m.PixelHeight()}
	}

	if s.spawnMonster(actor.MapID, m, area, zone) {
		area.NumBeings++
	}

	// Predictable respawn interval: spawnRate is per minute of ticks.
	area.NextSpawn = (10 * 60) / area.SpawnRate
}

func (s *AreaSystem) spawnMonster(mapID int, m *gamemap.Map, area *component.SpawnArea, zone geom.Rectangle) bool {
	st := s.deps.State
	class := area.Specy

	attrs := attribute.NewSet(s.deps.Attributes)
	for id, v := range class.Attributes {
		attrs.SetBase(id, v)
	}
	if attrs.Modified(attribute.MaxHP) <= 0 {
		s.deps.Log.Warn("refusing to spawn dead monster", zap.Int("class", class.ID))
		return false
	}
	attrs.SetBase(attribute.HP, attrs.Modified(attribute.MaxHP))
	if class.Speed > 0 {
		attrs.SetBase(attribute.MoveSpeed, float64(class.Speed))
	}

	var pos geom.Point
	placed := false
	for try := 0; try < spawnPlacementTries; try++ {
		pos = geom.Point{
			X: zone.X + s.deps.Rng.Intn(zone.W),
			Y: zone.Y + s.deps.Rng.Intn(zone.H),
		}
		if m.GetWalk(pos.X/m.TileWidth(), pos.Y/m.TileHeight(), gamemap.BlockmaskWall|gamemap.BlockmaskMonster) {
			placed = true
			break
		}
	}
	if !placed {
		s.deps.Log.Warn("no free spawn location",
			zap.Int("class", class.ID), zap.Int("map", mapID))
		return false
	}

	e := st.ECS.CreateEntity(ecs.TypeMonster)
	st.Stores.Actors.Set(e, &component.Actor{
		Pos:       pos,
		Size:      class.Size,
		Walkmask:  gamemap.BlockmaskWall | gamemap.BlockmaskCharacter,
		BlockType: gamemap.BlockMonster,
	})
	st.Stores.Beings.Set(e, component.NewBeing(class.Name, attrs))
	mon := component.NewMonster(class)
	mon.SpawnArea = area
	st.Stores.Monsters.Set(e, mon)

	cbt := &component.Combat{}
	for _, info := range class.Attacks {
		cbt.Attacks.Add(info)
	}
	st.Stores.Combats.Set(e, cbt)

	st.EnqueueInsert(e, mapID)
	return true
}

func (s *AreaSystem) updateTriggerArea(e ecs.EntityID, actor *component.Actor, area *component.TriggerArea) {
	st := s.deps.State
	comp := st.Map(actor.MapID)
	if comp == nil {
		return
	}
	if area.Inside == nil {
		area.Inside = make(map[ecs.EntityID]struct{})
	}

	insideNow := make(map[ecs.EntityID]struct{})
	for _, z := range comp.InsideRectangle(area.Zone) {
		for _, cand := range z.Moving() {
			ca, ok := st.Stores.Actors.Get(cand)
			if !ok || ca.PublicID == 0 {
				continue
			}
			// Zones only bound the rectangle; confirm the actual position.
			if !area.Zone.Contains(ca.Pos) {
				continue
			}
			insideNow[cand] = struct{}{}
			if area.Once {
				if _, was := area.Inside[cand]; was {
					continue
				}
			}
			s.fire(area, cand)
		}
	}
	area.Inside = insideNow
}

func (s *AreaSystem) fire(area *component.TriggerArea, target ecs.EntityID) {
	switch area.Kind {
	case component.TriggerWarp:
		if s.deps.State.ECS.Type(target) != ecs.TypeCharacter {
			return
		}
		if s.deps.State.Map(area.TargetMapID) != nil {
			s.deps.State.EnqueueWarp(target, area.TargetMapID, area.TargetPoint)
		} else {
			// Map hosted elsewhere: migrate through the account service.
			handler.BeginMigration(s.deps, target, area.TargetMapID, area.TargetPoint)
		}
	case component.TriggerScript:
		ref := area.ScriptRef
		if !ref.Valid() {
			ref = s.deps.Engine.Slot(scripting.SlotTriggerAction)
		}
		if !ref.Valid() {
			return
		}
		if _, err := s.deps.Engine.Call(ref,
			scripting.Entity(target), scripting.Int(area.ScriptArg)); err != nil {
			s.deps.Log.Warn("trigger script failed", zap.Error(err))
		}
	}
}
