package component

import (
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/geom"
)

// KillstealProtectionTicks is how long a monster stays reserved for the
// attacker that first engaged it.
const KillstealProtectionTicks = 100

// Monster tracks per-instance combat state on top of its class definition.
type Monster struct {
	Class *data.MonsterClass

	// Hate maps attacker handles to accumulated anger; the AI targets the
	// highest entry. Stale handles are pruned when dereference fails.
	Hate map[ecs.EntityID]int

	// Owner is the entity with killsteal priority, zero when unclaimed.
	Owner ecs.EntityID

	// ExpReceivers tracks, per attacker, the skills used and damage dealt
	// so the experience split on death is proportional.
	ExpReceivers map[ecs.EntityID]map[int]int

	// TotalDamage is the damage sum across all receivers.
	TotalDamage int

	// AttackPositions holds offsets around a target for each facing.
	// Nothing in the server fills or reads it; the monster AI walks
	// straight to the target's position.
	AttackPositions []geom.Point

	// SpawnArea points back at the area that spawned this monster so the
	// population count reopens after decay.
	SpawnArea *SpawnArea
}

func NewMonster(class *data.MonsterClass) *Monster {
	return &Monster{
		Class:        class,
		Hate:         make(map[ecs.EntityID]int),
		ExpReceivers: make(map[ecs.EntityID]map[int]int),
	}
}

// RecordDamage accumulates hate and the experience contribution of one hit.
func (m *Monster) RecordDamage(source ecs.EntityID, skill, hpLoss int) {
	m.Hate[source] += hpLoss
	skills := m.ExpReceivers[source]
	if skills == nil {
		skills = make(map[int]int, 2)
		m.ExpReceivers[source] = skills
	}
	skills[skill] += hpLoss
	m.TotalDamage += hpLoss
}

// MostHated returns the handle with the highest hate, or zero when calm.
func (m *Monster) MostHated() ecs.EntityID {
	var best ecs.EntityID
	bestHate := 0
	for id, hate := range m.Hate {
		if hate > bestHate {
			best, bestHate = id, hate
		}
	}
	return best
}

func (m *Monster) Forget(id ecs.EntityID) {
	delete(m.Hate, id)
	if m.Owner == id {
		m.Owner = 0
	}
}
