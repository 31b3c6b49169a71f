package handler

import (
	"fmt"

	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/net/proto"
	"go.uber.org/zap"
)

// SessionState is the game-side protocol phase of one client.
type SessionState int

const (
	// StateConnecting: TCP open, token not yet redeemed.
	StateConnecting SessionState = iota
	// StatePlaying: character in world.
	StatePlaying
)

// Func is the callback signature for message handlers.
type Func func(deps *Deps, sess *gonet.Session, msg *proto.MessageIn)

type entry struct {
	fn      Func
	allowed map[SessionState]bool
}

// Registry maps message ids to handlers with state-based access control.
// Unknown ids are dropped; repeated protocol violations disconnect.
type Registry struct {
	handlers map[uint16]*entry
	states   map[uint64]SessionState
	strikes  map[uint64]int
	log      *zap.Logger
}

// maxProtocolStrikes is how many bad frames a session gets before being
// dropped.
const maxProtocolStrikes = 8

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[uint16]*entry),
		states:   make(map[uint64]SessionState),
		strikes:  make(map[uint64]int),
		log:      log,
	}
}

// Register maps a message id to a handler, restricted to the given states.
func (r *Registry) Register(id uint16, states []SessionState, fn Func) {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	r.handlers[id] = &entry{fn: fn, allowed: allowed}
}

func (r *Registry) State(sessionID uint64) SessionState { return r.states[sessionID] }

func (r *Registry) SetState(sessionID uint64, s SessionState) { r.states[sessionID] = s }

// Forget drops per-session registry state on disconnect.
func (r *Registry) Forget(sessionID uint64) {
	delete(r.states, sessionID)
	delete(r.strikes, sessionID)
}

// Dispatch validates and executes the handler for one frame. It recovers
// handler panics so one bad message cannot take down the tick.
func (r *Registry) Dispatch(deps *Deps, sess *gonet.Session, data []byte) {
	msg := proto.NewMessageIn(data)
	id := msg.ID()
	if id == proto.MsgInvalid {
		r.strike(sess, "truncated frame")
		return
	}

	e, ok := r.handlers[id]
	if !ok {
		r.log.Debug("unknown message id",
			zap.Uint16("id", id), zap.Uint64("session", sess.ID))
		r.strike(sess, "unknown id")
		return
	}
	if !e.allowed[r.states[sess.ID]] {
		r.strike(sess, fmt.Sprintf("id 0x%04X in state %d", id, r.states[sess.ID]))
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("handler panic recovered",
				zap.Uint16("id", id),
				zap.Uint64("session", sess.ID),
				zap.Any("panic", rec),
			)
		}
	}()
	e.fn(deps, sess, msg)

	if msg.Bad() {
		r.strike(sess, "short frame")
	}
}

func (r *Registry) strike(sess *gonet.Session, why string) {
	r.strikes[sess.ID]++
	if r.strikes[sess.ID] >= maxProtocolStrikes {
		r.log.Warn("dropping session after repeated protocol errors",
			zap.Uint64("session", sess.ID), zap.String("last", why))
		sess.Close()
	}
}
