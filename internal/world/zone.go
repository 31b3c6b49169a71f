package world

import "github.com/emberfall/server/internal/core/ecs"

// ZoneDiam is the pixel width and height of one map zone. It is sized so no
// entity can cross more than one zone per tick.
const ZoneDiam = 256

// MapZone holds the entities inside one zone square, partitioned so
// awareness scans can stop early: characters first, then other moving
// entities, then static ones.
type MapZone struct {
	entities        []ecs.EntityID
	nbCharacters    int
	nbMovingObjects int

	// destinations are the zone indexes entities moved to when leaving
	// this zone during the current tick.
	destinations []int
}

func (z *MapZone) insert(id ecs.EntityID, t ecs.EntityType) {
	switch {
	case t == ecs.TypeCharacter:
		// Displace the first static to the end and the first non-character
		// mover to the moving boundary; the freed slot takes the character.
		z.entities = append(z.entities, 0)
		last := len(z.entities) - 1
		z.entities[last] = z.entities[z.nbMovingObjects]
		z.entities[z.nbMovingObjects] = z.entities[z.nbCharacters]
		z.entities[z.nbCharacters] = id
		z.nbCharacters++
		z.nbMovingObjects++
	case t.IsMoving():
		z.entities = append(z.entities, 0)
		last := len(z.entities) - 1
		z.entities[last] = z.entities[z.nbMovingObjects]
		z.entities[z.nbMovingObjects] = id
		z.nbMovingObjects++
	default:
		z.entities = append(z.entities, id)
	}
}

func (z *MapZone) remove(id ecs.EntityID) bool {
	for i, e := range z.entities {
		if e != id {
			continue
		}
		// Close the partition gaps from the back of each segment.
		pos := i
		if pos < z.nbCharacters {
			z.entities[pos] = z.entities[z.nbCharacters-1]
			pos = z.nbCharacters - 1
			z.nbCharacters--
		}
		if pos < z.nbMovingObjects {
			z.entities[pos] = z.entities[z.nbMovingObjects-1]
			pos = z.nbMovingObjects - 1
			z.nbMovingObjects--
		}
		z.entities[pos] = z.entities[len(z.entities)-1]
		z.entities = z.entities[:len(z.entities)-1]
		return true
	}
	return false
}

// Characters returns the character segment.
func (z *MapZone) Characters() []ecs.EntityID { return z.entities[:z.nbCharacters] }

// Moving returns characters plus other moving entities.
func (z *MapZone) Moving() []ecs.EntityID { return z.entities[:z.nbMovingObjects] }

// All returns every entity in the zone.
func (z *MapZone) All() []ecs.EntityID { return z.entities }

func (z *MapZone) addDestination(zoneIdx int) {
	for _, d := range z.destinations {
		if d == zoneIdx {
			return
		}
	}
	z.destinations = append(z.destinations, zoneIdx)
}

func (z *MapZone) clearDestinations() { z.destinations = z.destinations[:0] }
