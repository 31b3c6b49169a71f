package event

import "github.com/emberfall/server/internal/core/ecs"

// Entity lifecycle signals. Each fires exactly once per transition.

type EntityInserted struct {
	Entity ecs.EntityID
	MapID  int
}

type EntityRemoved struct {
	Entity ecs.EntityID
	MapID  int
}

type EntityMapChanged struct {
	Entity ecs.EntityID
	OldMap int
	NewMap int
}

// Damaged fires after damage resolution, with the HP actually removed.
type Damaged struct {
	Target   ecs.EntityID
	Source   ecs.EntityID // zero when environmental
	AttackID int
	HPLoss   int
}

// Died fires when an entity's HP reaches zero and its action becomes DEAD.
type Died struct {
	Entity ecs.EntityID
}

// AttributeChanged fires once per distinct attribute whose modified value
// actually changed during a recompute cascade.
type AttributeChanged struct {
	Entity    ecs.EntityID
	Attribute int
}

type CharacterDisconnected struct {
	Entity    ecs.EntityID
	SessionID uint64
}
