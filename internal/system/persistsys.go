package system

import (
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
)

// flushIntervalTicks is how often live characters are written back through
// the account link (600 ticks = one minute).
const flushIntervalTicks = 600

// PersistSystem periodically flushes every live character's record to the
// account service. Phase 5.
type PersistSystem struct {
	deps *handler.Deps
}

func NewPersistSystem(deps *handler.Deps) *PersistSystem {
	return &PersistSystem{deps: deps}
}

func (s *PersistSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistSystem) Update(tick uint64) {
	if tick%flushIntervalTicks != 0 {
		return
	}
	s.FlushAll()
}

// FlushAll writes every live, non-quarantined character back. Also called
// on shutdown.
func (s *PersistSystem) FlushAll() {
	for _, e := range s.deps.Players {
		ch, ok := s.deps.State.Stores.Characters.Get(e)
		if !ok || s.deps.State.IsQuarantined(e) {
			continue
		}
		s.deps.Account.FlushPlayer(ch.DBID, handler.ExtractCharacter(s.deps, e))
	}
}
