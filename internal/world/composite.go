package world

import (
	"errors"

	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/gamemap"
	"github.com/emberfall/server/internal/geom"
)

// PvPMode controls character-versus-character legality on a map.
type PvPMode int

const (
	PvPNone PvPMode = iota
	PvPFree
)

var errPublicIDsExhausted = errors.New("world: public ids exhausted")

// MapComposite owns one map, the entities on it, the zone partition, and
// the per-map public-id space. Only the simulation goroutine touches it.
type MapComposite struct {
	m *gamemap.Map

	zones  []MapZone
	zWidth int
	zHeight int

	// 256 buckets of 256 public-id slots. Ids 0 and 0xFFFF are reserved;
	// bucket 255 never hands out its last slot.
	buckets    [256]*objectBucket
	lastBucket int

	// entities in insertion order, the stable update order of the tick.
	entities []ecs.EntityID

	byPublicID map[uint16]ecs.EntityID

	PvP PvPMode
}

func NewMapComposite(m *gamemap.Map) *MapComposite {
	zw := (m.PixelWidth() + ZoneDiam - 1) / ZoneDiam
	zh := (m.PixelHeight() + ZoneDiam - 1) / ZoneDiam
	c := &MapComposite{
		m:          m,
		zones:      make([]MapZone, zw*zh),
		zWidth:     zw,
		zHeight:    zh,
		byPublicID: make(map[uint16]ecs.EntityID),
	}
	c.buckets[0] = newObjectBucket()
	return c
}

func (c *MapComposite) Map() *gamemap.Map { return c.m }
func (c *MapComposite) ID() int           { return c.m.ID() }

// Entities returns the insertion-ordered entity list.
func (c *MapComposite) Entities() []ecs.EntityID { return c.entities }

func (c *MapComposite) ByPublicID(id uint16) (ecs.EntityID, bool) {
	e, ok := c.byPublicID[id]
	return e, ok
}

func (c *MapComposite) zoneIndexAt(p geom.Point) int {
	x := p.X / ZoneDiam
	y := p.Y / ZoneDiam
	if x < 0 {
		x = 0
	} else if x >= c.zWidth {
		x = c.zWidth - 1
	}
	if y < 0 {
		y = 0
	} else if y >= c.zHeight {
		y = c.zHeight - 1
	}
	return x + y*c.zWidth
}

// ZoneAt returns the zone containing the pixel point.
func (c *MapComposite) ZoneAt(p geom.Point) *MapZone {
	return &c.zones[c.zoneIndexAt(p)]
}

// allocatePublicID hands out a per-map 16-bit id. Slot 0 of bucket 0 and
// slot 255 of bucket 255 are never issued.
func (c *MapComposite) allocatePublicID(e ecs.EntityID) (uint16, error) {
	b := c.buckets[c.lastBucket]
	if i := b.allocate(); i >= 0 {
		if id := uint16(c.lastBucket*256 + i); id != 0 && id != 0xFFFF {
			b.entities[i] = e
			return id, nil
		} else {
			b.deallocate(i)
		}
	}
	for bi := 0; bi < 256; bi++ {
		b = c.buckets[bi]
		if b == nil {
			b = newObjectBucket()
			c.buckets[bi] = b
		}
		for {
			i := b.allocate()
			if i < 0 {
				break
			}
			id := uint16(bi*256 + i)
			if id == 0 || id == 0xFFFF {
				// Reserved id: the slot stays allocated so it is never
				// issued; try the next slot.
				continue
			}
			c.lastBucket = bi
			b.entities[i] = e
			return id, nil
		}
	}
	return 0, errPublicIDsExhausted
}

func (c *MapComposite) deallocatePublicID(id uint16) {
	if b := c.buckets[id/256]; b != nil {
		b.deallocate(int(id % 256))
	}
}

// Insert places an entity on the map: zone membership, public id for
// moving types, tile occupancy. The caller fires the inserted signal.
func (c *MapComposite) Insert(e ecs.EntityID, t ecs.EntityType, actor *component.Actor) error {
	if t.IsMoving() {
		id, err := c.allocatePublicID(e)
		if err != nil {
			return err
		}
		actor.PublicID = id
		c.byPublicID[id] = e
	}

	idx := c.zoneIndexAt(actor.Pos)
	c.zones[idx].insert(e, t)
	actor.ZoneX, actor.ZoneY = idx%c.zWidth, idx/c.zWidth
	actor.OldPos = actor.Pos

	tx, ty := actor.Pos.X/c.m.TileWidth(), actor.Pos.Y/c.m.TileHeight()
	c.m.BlockTile(tx, ty, actor.BlockType)

	c.entities = append(c.entities, e)
	actor.Raise(component.UpdateFlagNewOnMap)
	return nil
}

// Remove takes the entity off the map and releases its public id and tile.
func (c *MapComposite) Remove(e ecs.EntityID, actor *component.Actor) {
	idx := actor.ZoneX + actor.ZoneY*c.zWidth
	if idx >= 0 && idx < len(c.zones) {
		c.zones[idx].remove(e)
	}

	tx, ty := actor.Pos.X/c.m.TileWidth(), actor.Pos.Y/c.m.TileHeight()
	c.m.FreeTile(tx, ty, actor.BlockType)

	if actor.PublicID != 0 {
		delete(c.byPublicID, actor.PublicID)
		c.deallocatePublicID(actor.PublicID)
		actor.PublicID = 0
	}

	for i, id := range c.entities {
		if id == e {
			c.entities = append(c.entities[:i], c.entities[i+1:]...)
			break
		}
	}
}

// ReassignZone moves the entity between zones if its position crossed a
// zone border, recording the destination on the old zone for the
// around-player iterator. Called once per moved entity per tick.
func (c *MapComposite) ReassignZone(e ecs.EntityID, t ecs.EntityType, actor *component.Actor) {
	oldIdx := actor.ZoneX + actor.ZoneY*c.zWidth
	newIdx := c.zoneIndexAt(actor.Pos)
	if oldIdx == newIdx {
		return
	}
	c.zones[oldIdx].remove(e)
	c.zones[newIdx].insert(e, t)
	c.zones[oldIdx].addDestination(newIdx)
	actor.ZoneX, actor.ZoneY = newIdx%c.zWidth, newIdx/c.zWidth
}

// ClearDestinations resets every zone's destination set at tick start.
func (c *MapComposite) ClearDestinations() {
	for i := range c.zones {
		c.zones[i].clearDestinations()
	}
}

// fillRegion appends the indexes of all zones whose square intersects the
// disk around p.
func (c *MapComposite) fillRegion(region []int, p geom.Point, radius int) []int {
	ax, ay := 0, 0
	if p.X > radius {
		ax = (p.X - radius) / ZoneDiam
	}
	if p.Y > radius {
		ay = (p.Y - radius) / ZoneDiam
	}
	bx := (p.X + radius) / ZoneDiam
	if bx > c.zWidth-1 {
		bx = c.zWidth - 1
	}
	by := (p.Y + radius) / ZoneDiam
	if by > c.zHeight-1 {
		by = c.zHeight - 1
	}
	for y := ay; y <= by; y++ {
		for x := ax; x <= bx; x++ {
			region = appendZone(region, x+y*c.zWidth)
		}
	}
	return region
}

func appendZone(region []int, idx int) []int {
	for _, z := range region {
		if z == idx {
			return region
		}
	}
	return append(region, idx)
}

// AroundEntity returns the zones within radius of the actor's position.
func (c *MapComposite) AroundEntity(actor *component.Actor, radius int) []*MapZone {
	return c.toZones(c.fillRegion(nil, actor.Pos, radius))
}

// AroundCharacter returns the zones within radius of the character's old
// position, the destinations reachable from them, and the zones within
// radius of the new position. The destination union guarantees an observer
// sees entities that crossed a zone border the same tick it did.
func (c *MapComposite) AroundCharacter(actor *component.Actor, radius int) []*MapZone {
	r1 := c.fillRegion(nil, actor.OldPos, radius)
	region := append([]int(nil), r1...)
	for _, zi := range r1 {
		for _, dest := range c.zones[zi].destinations {
			region = appendZone(region, dest)
		}
	}
	region = c.fillRegion(region, actor.Pos, radius)
	return c.toZones(region)
}

// InsideRectangle returns the zones intersecting the pixel rectangle.
func (c *MapComposite) InsideRectangle(r geom.Rectangle) []*MapZone {
	ax := r.X / ZoneDiam
	ay := r.Y / ZoneDiam
	bx := (r.X + r.W - 1) / ZoneDiam
	by := (r.Y + r.H - 1) / ZoneDiam
	if ax < 0 {
		ax = 0
	}
	if ay < 0 {
		ay = 0
	}
	if bx > c.zWidth-1 {
		bx = c.zWidth - 1
	}
	if by > c.zHeight-1 {
		by = c.zHeight - 1
	}
	var region []int
	for y := ay; y <= by; y++ {
		for x := ax; x <= bx; x++ {
			region = append(region, x+y*c.zWidth)
		}
	}
	return c.toZones(region)
}

func (c *MapComposite) toZones(region []int) []*MapZone {
	zs := make([]*MapZone, 0, len(region))
	for _, idx := range region {
		zs = append(zs, &c.zones[idx])
	}
	return zs
}
