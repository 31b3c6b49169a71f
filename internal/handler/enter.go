package handler

import (
	"sort"

	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/gamemap"
	"github.com/emberfall/server/internal/gamesrv"
	"github.com/emberfall/server/internal/geom"
	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/serialize"
)

// defaultCharacterSize is the collision radius used until equipment says
// otherwise.
const defaultCharacterSize = 16

// InstallCharacter turns a handed-off record into a live entity attached
// to the session and queues its map insert.
func InstallCharacter(deps *Deps, sess *gonet.Session, p *gamesrv.PendingPlayer) ecs.EntityID {
	st := deps.State
	e := st.ECS.CreateEntity(ecs.TypeCharacter)

	mapID := int(p.Data.MapID)
	if st.Map(mapID) == nil {
		mapID = deps.Cfg.Game.DefaultMap
	}

	actor := &component.Actor{
		Pos:       geom.Point{X: int(p.Data.X), Y: int(p.Data.Y)},
		Size:      defaultCharacterSize,
		Walkmask:  gamemap.BlockmaskWall,
		BlockType: gamemap.BlockCharacter,
	}
	if actor.Pos.X <= 0 && actor.Pos.Y <= 0 {
		actor.Pos = geom.Point{X: deps.Cfg.Game.DefaultSpawnX, Y: deps.Cfg.Game.DefaultSpawnY}
	}
	st.Stores.Actors.Set(e, actor)

	attrs := attribute.NewSet(deps.Attributes)
	for id, av := range p.Data.Attributes {
		attrs.ForceModified(int(id), av.Base, av.Modified)
	}
	being := component.NewBeing(p.Name, attrs)
	st.Stores.Beings.Set(e, being)

	ch := component.NewCharacterData(p.CharacterID, 0)
	ch.SessionID = sess.ID
	ch.AccountLevel = int(p.Data.AccountLevel)
	ch.Gender = component.Gender(p.Data.Gender)
	ch.HairStyle = int(p.Data.HairStyle)
	ch.HairColor = int(p.Data.HairColor)
	ch.Level = int(p.Data.Level)
	ch.CharacterPoints = int(p.Data.CharacterPoints)
	ch.CorrectionPoints = int(p.Data.CorrectionPoints)
	for id, xp := range p.Data.Skills {
		ch.Skills[int(id)] = int(xp)
	}
	for id, ticks := range p.Data.StatusEffects {
		ch.StatusEffects[int(id)] = int(ticks)
	}
	for id, kills := range p.Data.KillCount {
		ch.KillCount[int(id)] = int(kills)
	}
	for _, eq := range p.Data.Equipment {
		ch.Possessions.Equipment[int(eq.EquipSlot)] =
			append(ch.Possessions.Equipment[int(eq.EquipSlot)], int(eq.InvSlot))
	}
	for _, it := range p.Data.Inventory {
		ch.Possessions.Inventory[int(it.Slot)] = component.InventoryItem{
			ItemID: int(it.ItemID), Amount: int(it.Amount),
		}
	}
	st.Stores.Characters.Set(e, ch)

	abilities := component.NewAbilities()
	for _, id := range p.Data.Abilities {
		if info := deps.AbilityTab.Get(int(id)); info != nil {
			abilities.Give(info)
			ch.AbilityIDs = append(ch.AbilityIDs, int(id))
		}
	}
	st.Stores.Abilities.Set(e, abilities)

	cbt := &component.Combat{}
	for _, slots := range ch.Possessions.Equipment {
		for _, invSlot := range slots {
			it := ch.Possessions.Inventory[invSlot]
			if class := deps.Items.Get(it.ItemID); class != nil && class.Attack != nil {
				cbt.Attacks.Add(class.Attack)
			}
		}
	}
	st.Stores.Combats.Set(e, cbt)

	deps.Players[sess.ID] = e
	sess.CharacterID = p.CharacterID

	st.EnqueueInsert(e, mapID)
	return e
}

// ExtractCharacter captures a live character entity back into its wire
// record for flushing.
func ExtractCharacter(deps *Deps, e ecs.EntityID) *serialize.CharacterData {
	st := deps.State
	actor := st.Stores.Actors.MustGet(e)
	being := st.Stores.Beings.MustGet(e)
	ch := st.Stores.Characters.MustGet(e)

	d := serialize.NewCharacterData()
	d.AccountLevel = int8(ch.AccountLevel)
	d.Gender = int8(ch.Gender)
	d.HairStyle = int8(ch.HairStyle)
	d.HairColor = int8(ch.HairColor)
	d.Level = int16(ch.Level)
	d.CharacterPoints = int16(ch.CharacterPoints)
	d.CorrectionPoints = int16(ch.CorrectionPoints)

	being.Attributes.Each(func(id int, a *attribute.Attribute) {
		d.Attributes[int16(id)] = serialize.AttributeValue{Base: a.Base(), Modified: a.Modified()}
	})
	for id, xp := range ch.Skills {
		d.Skills[int16(id)] = int32(xp)
	}
	for id, ticks := range ch.StatusEffects {
		d.StatusEffects[int16(id)] = int16(ticks)
	}
	d.MapID = int16(actor.MapID)
	d.X = int16(actor.Pos.X)
	d.Y = int16(actor.Pos.Y)
	for id, kills := range ch.KillCount {
		d.KillCount[int16(id)] = int32(kills)
	}
	for _, id := range ch.AbilityIDs {
		d.Abilities = append(d.Abilities, int32(id))
	}
	eqSlots := make([]int, 0, len(ch.Possessions.Equipment))
	for eq := range ch.Possessions.Equipment {
		eqSlots = append(eqSlots, eq)
	}
	sort.Ints(eqSlots)
	for _, eq := range eqSlots {
		for _, inv := range ch.Possessions.Equipment[eq] {
			d.Equipment = append(d.Equipment, serialize.EquipEntry{
				EquipSlot: int8(eq), InvSlot: int16(inv),
			})
		}
	}
	invSlots := make([]int, 0, len(ch.Possessions.Inventory))
	for slot := range ch.Possessions.Inventory {
		invSlots = append(invSlots, slot)
	}
	sort.Ints(invSlots)
	for _, slot := range invSlots {
		it := ch.Possessions.Inventory[slot]
		d.Inventory = append(d.Inventory, serialize.InventoryEntry{
			Slot: int16(slot), ItemID: int16(it.ItemID), Amount: int16(it.Amount),
		})
	}
	return d
}
