package system

import (
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
	"github.com/emberfall/server/internal/world"
)

// QueueSystem opens each tick: swap and deliver last tick's events, apply
// the deferred warp/remove/insert queues, and reset every zone's
// destination set. Phase 1.
type QueueSystem struct {
	deps *handler.Deps
}

func NewQueueSystem(deps *handler.Deps) *QueueSystem {
	return &QueueSystem{deps: deps}
}

func (s *QueueSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *QueueSystem) Update(uint64) {
	s.deps.Bus.SwapBuffers()
	s.deps.Bus.DispatchAll()

	s.deps.State.DrainQueues()

	s.deps.State.EachMap(func(c *world.MapComposite) {
		c.ClearDestinations()
	})
}
