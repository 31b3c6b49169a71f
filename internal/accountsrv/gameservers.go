package accountsrv

import (
	"sync"

	gonet "github.com/emberfall/server/internal/net"
)

// GameServer is one registered zone shard.
type GameServer struct {
	Session *gonet.Session
	Host    string
	Port    int
	Maps    map[int]bool
}

// GameServerRegistry tracks the registered shards and which maps they
// host. Safe for concurrent use.
type GameServerRegistry struct {
	mu   sync.RWMutex
	byID map[uint64]*GameServer
}

func NewGameServerRegistry() *GameServerRegistry {
	return &GameServerRegistry{byID: make(map[uint64]*GameServer)}
}

func (r *GameServerRegistry) Register(gs *GameServer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[gs.Session.ID] = gs
}

func (r *GameServerRegistry) Unregister(sessionID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, sessionID)
}

func (r *GameServerRegistry) Get(sessionID uint64) (*GameServer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gs, ok := r.byID[sessionID]
	return gs, ok
}

// ByMap returns the shard hosting the map, or any shard when none claims
// it (the shard will fall back to its default map).
func (r *GameServerRegistry) ByMap(mapID int) *GameServer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var any *GameServer
	for _, gs := range r.byID {
		if gs.Maps[mapID] {
			return gs
		}
		any = gs
	}
	return any
}
