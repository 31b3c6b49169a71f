package handler

import (
	"math/rand"

	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/combat"
	"github.com/emberfall/server/internal/config"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/core/event"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/gamesrv"
	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/scripting"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
)

// Deps carries everything the game-service handlers and systems need.
// Built once in cmd/gameserver and shared; only the simulation goroutine
// touches the mutable parts.
type Deps struct {
	Cfg *config.Config
	Log *zap.Logger

	State *world.State
	Bus   *event.Bus

	Attributes *attribute.Manager
	Monsters   *data.MonsterTable
	Items      *data.ItemTable
	AbilityTab *data.AbilityTable

	Engine   *scripting.Engine
	Account  *gamesrv.AccountLink
	Resolver *combat.Resolver
	Rng      *rand.Rand

	// Registry tracks per-session protocol state; handlers advance it on
	// successful transitions.
	Registry *Registry

	// Sessions by session id; Players maps sessions to their character
	// entity once in world.
	Sessions map[uint64]*gonet.Session
	Players  map[uint64]ecs.EntityID

	// Tick is the current tick number, refreshed by the input system.
	Tick uint64

	// PendingChat buffers say events until the awareness pass delivers
	// them, keeping the per-observer ordering fixed.
	PendingChat []ChatEvent
}

// ChatEvent is one in-range chat line awaiting delivery.
type ChatEvent struct {
	Speaker ecs.EntityID
	Text    string
}

// CallScriptSlot invokes a named script slot with an entity plus string
// arguments, logging instead of propagating script errors.
func (d *Deps) CallScriptSlot(slot string, e ecs.EntityID, args ...string) {
	sargs := make([]scripting.Arg, 0, len(args)+1)
	sargs = append(sargs, scripting.Entity(e))
	for _, a := range args {
		sargs = append(sargs, scripting.String(a))
	}
	if _, err := d.Engine.CallSlot(slot, sargs...); err != nil {
		d.Log.Warn("script slot failed", zap.String("slot", slot), zap.Error(err))
	}
}

// SessionOf returns the session attached to a character entity.
func (d *Deps) SessionOf(e ecs.EntityID) *gonet.Session {
	ch, ok := d.State.Stores.Characters.Get(e)
	if !ok {
		return nil
	}
	return d.Sessions[ch.SessionID]
}

// Entity returns the character entity a session controls.
func (d *Deps) Entity(sessionID uint64) (ecs.EntityID, bool) {
	e, ok := d.Players[sessionID]
	return e, ok
}
