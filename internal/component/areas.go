package component

import (
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/scripting"
)

// SpawnArea keeps a monster population alive inside a zone rectangle.
type SpawnArea struct {
	Specy *data.MonsterClass
	Zone  geom.Rectangle
	// MaxBeings caps the live population from this area.
	MaxBeings int
	// SpawnRate is spawns per minute.
	SpawnRate int

	NumBeings int
	// NextSpawn counts down ticks to the next attempt.
	NextSpawn int
}

// TriggerKind selects what a trigger area does.
type TriggerKind int

const (
	TriggerWarp TriggerKind = iota
	TriggerScript
)

// TriggerArea fires an action for actors inside its rectangle.
type TriggerArea struct {
	Zone geom.Rectangle
	Kind TriggerKind

	// Warp target, when Kind == TriggerWarp.
	TargetMapID int
	TargetPoint geom.Point

	// Script callback and argument, when Kind == TriggerScript.
	ScriptRef scripting.Ref
	ScriptArg int

	// Once suppresses refiring while an actor stays inside.
	Once bool
	// Inside is the actor set currently within the zone.
	Inside map[ecs.EntityID]struct{}
}
