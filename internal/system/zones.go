package system

import (
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
)

// ZoneSystem moves entities between map zones after all position updates,
// recording destinations for the awareness iterators. Phase 3, registered
// before the awareness system.
type ZoneSystem struct {
	deps *handler.Deps
}

func NewZoneSystem(deps *handler.Deps) *ZoneSystem {
	return &ZoneSystem{deps: deps}
}

func (s *ZoneSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *ZoneSystem) Update(uint64) {
	st := s.deps.State
	st.Stores.Actors.Each(func(e ecs.EntityID, actor *component.Actor) {
		if actor.MapID == 0 || actor.Pos == actor.OldPos {
			return
		}
		if comp := st.Map(actor.MapID); comp != nil {
			comp.ReassignZone(e, st.ECS.Type(e), actor)
		}
	})
}
