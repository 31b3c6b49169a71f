package system

import (
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
)

// AbilitySystem recharges ability points and counts down the global
// cooldown each tick. Phase 2.
type AbilitySystem struct {
	deps *handler.Deps
}

func NewAbilitySystem(deps *handler.Deps) *AbilitySystem {
	return &AbilitySystem{deps: deps}
}

func (s *AbilitySystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *AbilitySystem) Update(uint64) {
	s.deps.State.Stores.Abilities.Each(func(e ecs.EntityID, ab *component.Abilities) {
		handler.RechargeAbilities(s.deps, e, ab)
	})
}
