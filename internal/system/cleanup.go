package system

import (
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
)

// CleanupSystem destroys entities queued for destruction during the tick.
// Phase 6, always last.
type CleanupSystem struct {
	deps *handler.Deps
}

func NewCleanupSystem(deps *handler.Deps) *CleanupSystem {
	return &CleanupSystem{deps: deps}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(uint64) {
	s.deps.State.ECS.FlushDestroyQueue()
}
