package system

import (
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/handler"
)

// strollInterval is how often an idle monster picks a wander target.
const strollInterval = 30

// MonsterAISystem drives monster behavior: acquire the most hated target,
// chase into attack range, otherwise stroll. Phase 2, registered before
// the combat system so target choices take effect the same tick.
type MonsterAISystem struct {
	deps *handler.Deps
}

func NewMonsterAISystem(deps *handler.Deps) *MonsterAISystem {
	return &MonsterAISystem{deps: deps}
}

func (s *MonsterAISystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MonsterAISystem) Update(tick uint64) {
	st := s.deps.State
	st.EachEntityOrdered(func(e ecs.EntityID) {
		mon, ok := st.Stores.Monsters.Get(e)
		if !ok {
			return
		}
		actor := st.Stores.Actors.MustGet(e)
		being := st.Stores.Beings.MustGet(e)
		if being.Action == component.ActionDead {
			return
		}

		s.pruneHate(mon)

		target := mon.MostHated()
		if target.IsZero() && mon.Class.Aggressive {
			target = s.scanForTarget(actor, mon)
			if !target.IsZero() {
				mon.Hate[target] = 1
			}
		}

		cbt, hasCombat := st.Stores.Combats.Get(e)
		if target.IsZero() || !hasCombat {
			s.stroll(tick, e, actor, being, mon)
			return
		}

		ta, ok := st.Stores.Actors.Get(target)
		if !ok {
			mon.Forget(target)
			return
		}

		cbt.Target = target
		reach := mon.Class.Size + attackReach(cbt)
		if actor.Pos.DistSq(ta.Pos) <= reach*reach {
			if being.Action != component.ActionAttack {
				being.Action = component.ActionAttack
				actor.Raise(component.UpdateFlagAction)
				cbt.Attacks.Start()
			}
			return
		}

		// Out of reach: give up beyond the track range, else pursue.
		if mon.Class.TrackRange > 0 && !actor.Pos.InRangeOf(ta.Pos, mon.Class.TrackRange) {
			mon.Forget(target)
			cbt.Target = 0
			cbt.Attacks.Stop()
			if being.Action == component.ActionAttack {
				being.Action = component.ActionStand
				actor.Raise(component.UpdateFlagAction)
			}
			return
		}
		being.Destination = ta.Pos
		being.Path = nil
		if being.Action != component.ActionWalk {
			being.Action = component.ActionWalk
			actor.Raise(component.UpdateFlagAction)
		}
	})
}

// pruneHate drops stale handles so dead attackers stop steering the AI.
func (s *MonsterAISystem) pruneHate(mon *component.Monster) {
	for id := range mon.Hate {
		if !s.deps.State.ECS.Alive(id) {
			mon.Forget(id)
		}
	}
}

// scanForTarget looks for the nearest living character inside the track
// range using the zone index.
func (s *MonsterAISystem) scanForTarget(actor *component.Actor, mon *component.Monster) ecs.EntityID {
	st := s.deps.State
	comp := st.Map(actor.MapID)
	if comp == nil || mon.Class.TrackRange <= 0 {
		return 0
	}
	var best ecs.EntityID
	bestDist := mon.Class.TrackRange*mon.Class.TrackRange + 1
	for _, z := range comp.AroundEntity(actor, mon.Class.TrackRange) {
		for _, cand := range z.Characters() {
			cb, ok := st.Stores.Beings.Get(cand)
			if !ok || cb.Action == component.ActionDead {
				continue
			}
			ca := st.Stores.Actors.MustGet(cand)
			if d := actor.Pos.DistSq(ca.Pos); d < bestDist {
				best, bestDist = cand, d
			}
		}
	}
	return best
}

func (s *MonsterAISystem) stroll(tick uint64, e ecs.EntityID, actor *component.Actor, being *component.Being, mon *component.Monster) {
	if mon.Class.StrollRange <= 0 || being.Action != component.ActionStand {
		return
	}
	// Spread monsters over the interval by entity index.
	if (tick+uint64(e.Index()))%strollInterval != 0 {
		return
	}
	dx := s.deps.Rng.Intn(mon.Class.StrollRange*2+1) - mon.Class.StrollRange
	dy := s.deps.Rng.Intn(mon.Class.StrollRange*2+1) - mon.Class.StrollRange
	dest := geom.Point{X: actor.Pos.X + dx, Y: actor.Pos.Y + dy}

	comp := s.deps.State.Map(actor.MapID)
	if comp == nil {
		return
	}
	m := comp.Map()
	if dest.X < 0 || dest.Y < 0 || dest.X >= m.PixelWidth() || dest.Y >= m.PixelHeight() {
		return
	}
	being.Destination = dest
	being.Path = nil
	being.Action = component.ActionWalk
	actor.Raise(component.UpdateFlagAction)
}

// attackReach returns the longest range among the entity's attacks, with a
// melee floor of one tile.
func attackReach(cbt *component.Combat) int {
	if r := cbt.Attacks.MaxRange(); r > 0 {
		return r
	}
	return 32
}
