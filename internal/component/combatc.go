package component

import (
	"github.com/emberfall/server/internal/combat"
	"github.com/emberfall/server/internal/core/ecs"
)

// Combat holds an entity's target and live attack list. Attack instances
// come from equipped items, the monster class, or abilities.
type Combat struct {
	// Target is a generational handle; a stale handle reads as target gone
	// and ends the engagement.
	Target ecs.EntityID

	Attacks combat.Attacks

	// CurrentAttack is the attack whose trigger most recently resolved,
	// kept for the awareness attack delta.
	CurrentAttack *combat.Attack
}
