package system

import (
	"time"

	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
	gonet "github.com/emberfall/server/internal/net"
	"go.uber.org/zap"
)

// InputSystem drains the network into the simulation: new sessions, dead
// sessions, client frames (bounded per session per tick) and the account
// link. Phase 0.
type InputSystem struct {
	deps       *handler.Deps
	server     *gonet.Server
	registry   *handler.Registry
	maxPerTick int
}

func NewInputSystem(deps *handler.Deps, server *gonet.Server, registry *handler.Registry) *InputSystem {
	maxPerTick := deps.Cfg.Network.MaxPacketsPerTick
	if maxPerTick <= 0 {
		maxPerTick = 32
	}
	return &InputSystem{deps: deps, server: server, registry: registry, maxPerTick: maxPerTick}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(tick uint64) {
	s.deps.Tick = tick

	// New connections.
	for {
		select {
		case sess := <-s.server.NewSessions():
			s.deps.Sessions[sess.ID] = sess
			s.registry.SetState(sess.ID, handler.StateConnecting)
		default:
			goto dead
		}
	}

dead:
	for {
		select {
		case id := <-s.server.DeadSessions():
			s.dropSession(id)
		default:
			goto frames
		}
	}

frames:
	for _, sess := range s.deps.Sessions {
		for i := 0; i < s.maxPerTick; i++ {
			select {
			case data := <-sess.InQueue:
				s.registry.Dispatch(s.deps, sess, data)
			default:
				i = s.maxPerTick
			}
		}
		if sess.IsClosed() {
			s.dropSession(sess.ID)
		}
	}

	// Account link frames.
	for {
		select {
		case data, ok := <-s.deps.Account.In:
			if !ok {
				s.deps.Log.Error("account link lost")
				return
			}
			handler.HandleAccountMessage(s.deps, data)
		default:
			s.deps.Account.ExpirePending(time.Now())
			return
		}
	}
}

func (s *InputSystem) dropSession(id uint64) {
	sess, ok := s.deps.Sessions[id]
	if !ok {
		return
	}
	if e, ok := s.deps.Entity(id); ok {
		s.deps.Log.Info("player disconnected", zap.Uint64("session", id))
		handler.FlushAndRemove(s.deps, e, true)
	}
	sess.Close()
	s.registry.Forget(id)
	delete(s.deps.Sessions, id)
}
