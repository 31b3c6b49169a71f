package component

import (
	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/geom"
)

// Direction a being faces.
type Direction int8

const (
	DirDown Direction = iota
	DirUp
	DirLeft
	DirRight
)

// Action is the being's visible activity.
type Action int8

const (
	ActionStand Action = iota
	ActionWalk
	ActionAttack
	ActionSit
	ActionDead
	ActionHurt
)

// HitTaken records one resolved hit for the awareness damage delta.
type HitTaken struct {
	SourcePublicID uint16
	HPLoss         int
}

// Being layers life on an actor: name, facing, current action, walking
// destination and the attribute table.
type Being struct {
	Name      string
	Direction Direction
	Action    Action

	// Destination is the walk target in pixels; Path is the remaining tile
	// path toward it. An empty path with Action==Walk asks the movement
	// system for a new search.
	Destination geom.Point
	Path        geom.Path

	HitsTaken []HitTaken

	Attributes *attribute.Set

	// Timers keyed by purpose (regen pause, decay, killsteal...), ticked
	// down by the owning systems.
	Timers map[int]int
}

// Timer ids used by the core systems.
const (
	TimerDecay = iota + 1
	TimerRegenPause
	TimerKillstealProtection
)

func NewBeing(name string, attrs *attribute.Set) *Being {
	return &Being{
		Name:       name,
		Attributes: attrs,
		Timers:     make(map[int]int, 4),
	}
}

// CanFight reports whether the being may be party to combat.
func (b *Being) CanFight() bool {
	return b.Action != ActionDead
}

// SetTimer arms a countdown; TickTimers decrements all and reports the ids
// that expired this tick.
func (b *Being) SetTimer(id, ticks int) { b.Timers[id] = ticks }

func (b *Being) TimerActive(id int) bool { return b.Timers[id] > 0 }

func (b *Being) TickTimers() []int {
	var expired []int
	for id, left := range b.Timers {
		if left <= 1 {
			delete(b.Timers, id)
			if left == 1 {
				expired = append(expired, id)
			}
			continue
		}
		b.Timers[id] = left - 1
	}
	return expired
}
