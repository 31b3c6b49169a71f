package system

import (
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
	"github.com/emberfall/server/internal/scripting"
	"go.uber.org/zap"
)

// NPCSystem runs each enabled NPC's update callback once per tick. Phase 2.
type NPCSystem struct {
	deps *handler.Deps
}

func NewNPCSystem(deps *handler.Deps) *NPCSystem {
	return &NPCSystem{deps: deps}
}

func (s *NPCSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *NPCSystem) Update(uint64) {
	s.deps.State.Stores.NPCs.Each(func(e ecs.EntityID, npc *component.NPC) {
		if !npc.Enabled {
			return
		}
		ref := npc.UpdateRef
		if !ref.Valid() {
			ref = s.deps.Engine.Slot(scripting.SlotNPCUpdate)
		}
		if !ref.Valid() {
			return
		}
		if _, err := s.deps.Engine.Call(ref, scripting.Entity(e)); err != nil {
			// A broken script is a no-op for this NPC, not a tick failure.
			s.deps.Log.Warn("npc update script failed",
				zap.Int("npc", npc.ScriptID), zap.Error(err))
		}
	})
}
