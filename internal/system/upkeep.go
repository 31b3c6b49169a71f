package system

import (
	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
)

// UpkeepSystem runs the per-tick housekeeping that is not its own
// subsystem: HP regeneration, timed modifier expiry, status effect and
// timer countdowns, monster decay, floor item decay. Phase 3.
type UpkeepSystem struct {
	deps *handler.Deps
}

func NewUpkeepSystem(deps *handler.Deps) *UpkeepSystem {
	return &UpkeepSystem{deps: deps}
}

func (s *UpkeepSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *UpkeepSystem) Update(uint64) {
	st := s.deps.State

	ecs.Each2(st.Stores.Actors, st.Stores.Beings, func(e ecs.EntityID, actor *component.Actor, being *component.Being) {
		// Timed attribute modifiers expire only on entities that have any.
		for _, changed := range being.Attributes.TickDurations() {
			s.notify(e, changed)
		}

		expired := being.TickTimers()
		for _, id := range expired {
			if id == component.TimerDecay {
				s.decay(e)
			}
		}

		if being.Action == component.ActionDead {
			return
		}

		// Regeneration pauses after a hit and only applies below max.
		if being.TimerActive(component.TimerRegenPause) {
			return
		}
		regen := being.Attributes.Modified(attribute.HPRegen)
		if regen <= 0 {
			return
		}
		hp := being.Attributes.Get(attribute.HP)
		maxHP := being.Attributes.Modified(attribute.MaxHP)
		if hp.Modified() >= maxHP {
			return
		}
		newBase := hp.Base() + regen
		if newBase > maxHP {
			newBase = maxHP
		}
		for _, changed := range being.Attributes.SetBase(attribute.HP, newBase) {
			s.notify(e, changed)
		}
		actor.Raise(component.UpdateFlagHealth)
	})

	// Status effects tick down on characters.
	st.Stores.Characters.Each(func(e ecs.EntityID, ch *component.CharacterData) {
		for id, left := range ch.StatusEffects {
			if left <= 1 {
				delete(ch.StatusEffects, id)
			} else {
				ch.StatusEffects[id] = left - 1
			}
		}
	})

	// Floor items rot where configured.
	st.Stores.FloorItems.Each(func(e ecs.EntityID, fi *component.FloorItem) {
		if fi.Decay <= 0 {
			return
		}
		if fi.Decay--; fi.Decay == 0 {
			st.EnqueueRemove(e)
			st.ECS.MarkForDestruction(e)
		}
	})
}

func (s *UpkeepSystem) notify(e ecs.EntityID, attrID int) {
	// Route through the shared fan-out used by handlers.
	handler.NotifyAttributeChanged(s.deps, e, attrID)
}

// decay removes a rotted monster corpse and reopens its spawn slot.
func (s *UpkeepSystem) decay(e ecs.EntityID) {
	st := s.deps.State
	if mon, ok := st.Stores.Monsters.Get(e); ok && mon.SpawnArea != nil {
		if mon.SpawnArea.NumBeings > 0 {
			mon.SpawnArea.NumBeings--
		}
	}
	st.EnqueueRemove(e)
	st.ECS.MarkForDestruction(e)
}
