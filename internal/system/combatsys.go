package system

import (
	"github.com/emberfall/server/internal/combat"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
	"github.com/emberfall/server/internal/scripting"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
)

// CombatSystem advances every engaged entity's attack timers, resolves
// triggered attacks and applies the resulting damage. Phase 2.
type CombatSystem struct {
	deps *handler.Deps
}

func NewCombatSystem(deps *handler.Deps) *CombatSystem {
	return &CombatSystem{deps: deps}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CombatSystem) Update(uint64) {
	st := s.deps.State
	st.EachEntityOrdered(func(e ecs.EntityID) {
		actor, ok := st.Stores.Actors.Get(e)
		if !ok {
			return
		}
		being, ok := st.Stores.Beings.Get(e)
		if !ok {
			return
		}
		cbt, ok := st.Stores.Combats.Get(e)
		if !ok {
			return
		}
		if being.Action != component.ActionAttack || cbt.Target.IsZero() {
			return
		}

		// A stale or dead target ends the engagement silently.
		if !s.targetEngageable(actor, cbt.Target) {
			s.disengage(actor, being, cbt)
			return
		}

		triggered := cbt.Attacks.Tick()
		if triggered == nil {
			return
		}
		cbt.CurrentAttack = triggered
		s.resolveAttack(e, actor, cbt, triggered)
	})
}

// targetEngageable covers the cheap gates checked every tick.
func (s *CombatSystem) targetEngageable(actor *component.Actor, target ecs.EntityID) bool {
	st := s.deps.State
	if !st.ECS.Alive(target) {
		return false
	}
	tb, ok := st.Stores.Beings.Get(target)
	if !ok || !tb.CanFight() {
		return false
	}
	ta, ok := st.Stores.Actors.Get(target)
	if !ok || ta.MapID != actor.MapID {
		return false
	}
	return true
}

func (s *CombatSystem) disengage(actor *component.Actor, being *component.Being, cbt *component.Combat) {
	cbt.Target = 0
	cbt.Attacks.Stop()
	if being.Action == component.ActionAttack {
		being.Action = component.ActionStand
		actor.Raise(component.UpdateFlagAction)
	}
}

// resolveAttack applies the remaining legality rules at the trigger
// instant and then the damage formula. Illegal targets abort silently.
func (s *CombatSystem) resolveAttack(attacker ecs.EntityID, actor *component.Actor, cbt *component.Combat, atk *combat.Attack) {
	st := s.deps.State
	target := cbt.Target
	ta := st.Stores.Actors.MustGet(target)
	tb := st.Stores.Beings.MustGet(target)

	dmg := atk.Info.Damage
	reach := dmg.Range + actor.Size
	if actor.Pos.DistSq(ta.Pos) > reach*reach {
		return
	}
	// No character-versus-character damage on a PvP-free map.
	if st.ECS.Type(attacker) == ecs.TypeCharacter && st.ECS.Type(target) == ecs.TypeCharacter {
		if comp := st.Map(actor.MapID); comp != nil && comp.PvP == world.PvPNone {
			return
		}
	}

	hpLoss := s.deps.Resolver.Resolve(dmg, tb.Attributes)
	actor.Raise(component.UpdateFlagAttack)

	if atk.Info.Callback.Valid() {
		if _, err := s.deps.Engine.Call(atk.Info.Callback,
			scripting.Entity(attacker), scripting.Entity(target), scripting.Int(dmg.ID)); err != nil {
			s.deps.Log.Warn("attack script failed", zap.Error(err))
		}
	}

	handler.ApplyDamage(s.deps, target, attacker, dmg, hpLoss)
}
