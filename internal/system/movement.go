package system

import (
	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/handler"
)

// maxPathCost caps path searches, in multiples of the basic step cost.
const maxPathCost = 32

// defaultMoveSpeed in pixels per tick, used when the speed attribute is
// absent.
const defaultMoveSpeed = 16

// MovementSystem advances every walking being one step per tick along its
// tile path, maintaining tile occupancy and direction. Phase 2.
type MovementSystem struct {
	deps *handler.Deps
}

func NewMovementSystem(deps *handler.Deps) *MovementSystem {
	return &MovementSystem{deps: deps}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Update(uint64) {
	st := s.deps.State
	st.EachEntityOrdered(func(e ecs.EntityID) {
		actor, ok := st.Stores.Actors.Get(e)
		if !ok {
			return
		}
		being, ok := st.Stores.Beings.Get(e)
		if !ok || being.Action != component.ActionWalk {
			return
		}
		comp := st.Map(actor.MapID)
		if comp == nil {
			return
		}
		m := comp.Map()
		tw, th := m.TileWidth(), m.TileHeight()

		if being.Path.Empty() {
			if actor.Pos == being.Destination {
				s.arrive(actor, being)
				return
			}
			path := m.FindPath(
				actor.Pos.X/tw, actor.Pos.Y/th,
				being.Destination.X/tw, being.Destination.Y/th,
				actor.Walkmask, maxPathCost,
			)
			if path.Empty() {
				// No route: stay put.
				s.arrive(actor, being)
				return
			}
			being.Path = path
		}

		speed := int(being.Attributes.Modified(attribute.MoveSpeed))
		if speed <= 0 {
			speed = defaultMoveSpeed
		}

		oldTileX, oldTileY := actor.Pos.X/tw, actor.Pos.Y/th
		start := actor.Pos

		// Consume path nodes until the tick's movement budget runs out.
		budget := speed
		for budget > 0 && !being.Path.Empty() {
			node := being.Path.Front()
			target := geom.Point{X: node.X*tw + tw/2, Y: node.Y*th + th/2}
			moved, reached := stepToward(actor.Pos, target, budget)
			budget -= dist(actor.Pos, moved)
			actor.Pos = moved
			if !reached {
				break
			}
			being.Path = being.Path.Advance()
		}
		if being.Path.Empty() {
			// Snap onto the exact destination when it shares the final tile.
			if actor.Pos.X/tw == being.Destination.X/tw && actor.Pos.Y/th == being.Destination.Y/th {
				actor.Pos = being.Destination
			}
			s.arrive(actor, being)
		}

		if actor.Pos != start {
			actor.Raise(component.UpdateFlagPosition)
			if dir := directionOf(start, actor.Pos); dir != being.Direction {
				being.Direction = dir
				actor.Raise(component.UpdateFlagDirection)
			}
		}

		// Tile occupancy follows the actor.
		newTileX, newTileY := actor.Pos.X/tw, actor.Pos.Y/th
		if newTileX != oldTileX || newTileY != oldTileY {
			m.FreeTile(oldTileX, oldTileY, actor.BlockType)
			m.BlockTile(newTileX, newTileY, actor.BlockType)
		}
	})
}

func (s *MovementSystem) arrive(actor *component.Actor, being *component.Being) {
	being.Path = nil
	if being.Action == component.ActionWalk {
		being.Action = component.ActionStand
		actor.Raise(component.UpdateFlagAction)
	}
}

// stepToward moves up to budget pixels from p toward target, axis-major,
// and reports whether the target was reached.
func stepToward(p, target geom.Point, budget int) (geom.Point, bool) {
	dx := target.X - p.X
	dy := target.Y - p.Y
	adx, ady := iabs(dx), iabs(dy)
	if adx+ady <= budget {
		return target, true
	}
	// Spend the budget proportionally, longest axis first.
	if adx >= ady {
		step := minInt(adx, budget)
		p.X += sign(dx) * step
		budget -= step
		p.Y += sign(dy) * minInt(ady, budget)
	} else {
		step := minInt(ady, budget)
		p.Y += sign(dy) * step
		budget -= step
		p.X += sign(dx) * minInt(adx, budget)
	}
	return p, false
}

func directionOf(from, to geom.Point) component.Direction {
	dx, dy := to.X-from.X, to.Y-from.Y
	if iabs(dx) >= iabs(dy) {
		if dx >= 0 {
			return component.DirRight
		}
		return component.DirLeft
	}
	if dy >= 0 {
		return component.DirDown
	}
	return component.DirUp
}

func dist(a, b geom.Point) int { return iabs(a.X-b.X) + iabs(a.Y-b.Y) }

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
