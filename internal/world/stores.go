package world

import (
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
)

// Stores bundles every component store. One instance per game service,
// registered with the ECS registry so entity destruction clears all of them.
type Stores struct {
	Actors       *ecs.PtrComponentStore[component.Actor]
	Beings       *ecs.PtrComponentStore[component.Being]
	Characters   *ecs.PtrComponentStore[component.CharacterData]
	Monsters     *ecs.PtrComponentStore[component.Monster]
	NPCs         *ecs.PtrComponentStore[component.NPC]
	Abilities    *ecs.PtrComponentStore[component.Abilities]
	Combats      *ecs.PtrComponentStore[component.Combat]
	SpawnAreas   *ecs.PtrComponentStore[component.SpawnArea]
	TriggerAreas *ecs.PtrComponentStore[component.TriggerArea]
	FloorItems   *ecs.PtrComponentStore[component.FloorItem]
}

func NewStores(reg *ecs.Registry) *Stores {
	s := &Stores{
		Actors:       ecs.NewPtrComponentStore[component.Actor](),
		Beings:       ecs.NewPtrComponentStore[component.Being](),
		Characters:   ecs.NewPtrComponentStore[component.CharacterData](),
		Monsters:     ecs.NewPtrComponentStore[component.Monster](),
		NPCs:         ecs.NewPtrComponentStore[component.NPC](),
		Abilities:    ecs.NewPtrComponentStore[component.Abilities](),
		Combats:      ecs.NewPtrComponentStore[component.Combat](),
		SpawnAreas:   ecs.NewPtrComponentStore[component.SpawnArea](),
		TriggerAreas: ecs.NewPtrComponentStore[component.TriggerArea](),
		FloorItems:   ecs.NewPtrComponentStore[component.FloorItem](),
	}
	reg.Register(s.Actors)
	reg.Register(s.Beings)
	reg.Register(s.Characters)
	reg.Register(s.Monsters)
	reg.Register(s.NPCs)
	reg.Register(s.Abilities)
	reg.Register(s.Combats)
	reg.Register(s.SpawnAreas)
	reg.Register(s.TriggerAreas)
	reg.Register(s.FloorItems)
	return s
}
