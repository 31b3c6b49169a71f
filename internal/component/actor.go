package component

import (
	"github.com/emberfall/server/internal/gamemap"
	"github.com/emberfall/server/internal/geom"
)

// Update flag bits. The awareness pass reads and clears them each tick to
// decide which delta messages an observer needs.
const (
	UpdateFlagNewOnMap = 1 << iota
	UpdateFlagPosition
	UpdateFlagDirection
	UpdateFlagAction
	UpdateFlagHealth
	UpdateFlagAttack
	UpdateFlagLooks
)

// Actor gives an entity a place in the world: pixel position, collision
// size, the per-map public id used on the wire, and how it occupies tiles.
// Pure data; systems mutate.
type Actor struct {
	Pos  geom.Point
	Size int

	// MapID of the composite currently containing this entity, zero when
	// off-world.
	MapID int

	// PublicID is allocated by the map composite on insert. Zero means not
	// yet on a map.
	PublicID uint16

	// Walkmask is the set of block classes that impede this actor.
	Walkmask uint8
	// BlockType is the class this actor occupies tiles with.
	BlockType gamemap.BlockType

	UpdateFlags uint32

	// Zone coordinates within the current map composite, maintained by the
	// zone reassignment pass.
	ZoneX, ZoneY int
	// OldPos is the position at the previous tick, used by the
	// around-player awareness iterator.
	OldPos geom.Point
}

func (a *Actor) Raise(flag uint32)     { a.UpdateFlags |= flag }
func (a *Actor) Has(flag uint32) bool  { return a.UpdateFlags&flag != 0 }
func (a *Actor) ClearUpdateFlags()     { a.UpdateFlags = 0 }
