package handler

import (
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/gamemap"
	"github.com/emberfall/server/internal/geom"
	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/net/proto"
)

// pickupRange is how far away a character may grab a floor item, in pixels.
const pickupRange = 48

func handlePickup(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	x := int(msg.ReadInt16())
	y := int(msg.ReadInt16())
	e, ok := deps.Entity(sess.ID)
	if !ok || msg.Bad() {
		return
	}
	actor := deps.State.Stores.Actors.MustGet(e)
	at := geom.Point{X: x, Y: y}
	if !actor.Pos.InRangeOf(at, pickupRange) {
		return
	}
	comp := deps.State.Map(actor.MapID)
	if comp == nil {
		return
	}

	// Find the closest floor item at that spot.
	var found ecs.EntityID
	var foundItem *component.FloorItem
	bestDist := 0
	for _, z := range comp.AroundEntity(actor, pickupRange) {
		for _, cand := range z.All() {
			fi, ok := deps.State.Stores.FloorItems.Get(cand)
			if !ok {
				continue
			}
			ca, ok := deps.State.Stores.Actors.Get(cand)
			if !ok || !ca.Pos.InRangeOf(at, gamemap.DefaultTileSize/2) {
				continue
			}
			if d := ca.Pos.DistSq(at); found == 0 || d < bestDist {
				found, foundItem, bestDist = cand, fi, d
			}
		}
	}
	if found == 0 {
		return
	}

	ch := deps.State.Stores.Characters.MustGet(e)
	ch.Possessions.Insert(foundItem.ItemID, foundItem.Amount)
	SendInventoryFull(sess, ch.Possessions)

	deps.State.EnqueueRemove(found)
	deps.State.ECS.MarkForDestruction(found)
}

func handleDrop(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	slot := int(msg.ReadUint8())
	amount := int(msg.ReadUint8())
	e, ok := deps.Entity(sess.ID)
	if !ok || msg.Bad() || amount < 1 {
		return
	}
	ch := deps.State.Stores.Characters.MustGet(e)
	it, exists := ch.Possessions.Inventory[slot]
	if !exists || it.Amount < amount {
		return
	}
	if err := ch.Possessions.Remove(slot, amount); err != nil {
		return
	}
	actor := deps.State.Stores.Actors.MustGet(e)

	SpawnFloorItem(deps, actor.MapID, actor.Pos, it.ItemID, amount)
	SendInventoryFull(sess, ch.Possessions)
}

// SpawnFloorItem creates a dropped-item entity. Decay comes from config;
// zero keeps the item until picked up. Floor items are never written to the
// database, whatever the decay setting.
func SpawnFloorItem(deps *Deps, mapID int, pos geom.Point, itemID, amount int) ecs.EntityID {
	e := deps.State.ECS.CreateEntity(ecs.TypeItem)
	deps.State.Stores.Actors.Set(e, &component.Actor{
		Pos:       pos,
		BlockType: gamemap.BlockNone,
	})
	decay := 0
	if secs := deps.Cfg.Game.FloorItemDecayTime; secs > 0 {
		decay = secs * 10 // ticks are 100 ms
	}
	deps.State.Stores.FloorItems.Set(e, &component.FloorItem{
		ItemID: itemID,
		Amount: amount,
		Decay:  decay,
	})
	deps.State.EnqueueInsert(e, mapID)
	return e
}

func handleEquip(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	invSlot := int(msg.ReadUint8())
	e, ok := deps.Entity(sess.ID)
	if !ok || msg.Bad() {
		return
	}
	ch := deps.State.Stores.Characters.MustGet(e)
	it, exists := ch.Possessions.Inventory[invSlot]
	if !exists {
		return
	}
	class := deps.Items.Get(it.ItemID)
	if class == nil || class.EquipSlot < 0 {
		return
	}
	if err := ch.Possessions.Equip(class.EquipSlot, invSlot); err != nil {
		return
	}

	being := deps.State.Stores.Beings.MustGet(e)
	for attrID, value := range class.Modifiers {
		for _, changed := range being.Attributes.AddModifier(attrID, attributeModifier(value, it.ItemID)) {
			NotifyAttributeChanged(deps, e, changed)
		}
	}
	if class.Attack != nil {
		if cbt, ok := deps.State.Stores.Combats.Get(e); ok {
			cbt.Attacks.Add(class.Attack)
		}
	}
	deps.State.Stores.Actors.MustGet(e).Raise(component.UpdateFlagLooks)
	SendInventoryFull(sess, ch.Possessions)
}

func handleUnequip(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	invSlot := int(msg.ReadUint8())
	e, ok := deps.Entity(sess.ID)
	if !ok || msg.Bad() {
		return
	}
	ch := deps.State.Stores.Characters.MustGet(e)
	it, exists := ch.Possessions.Inventory[invSlot]
	if !exists {
		return
	}
	class := deps.Items.Get(it.ItemID)
	if class == nil || class.EquipSlot < 0 {
		return
	}
	ch.Possessions.Unequip(class.EquipSlot, invSlot)

	being := deps.State.Stores.Beings.MustGet(e)
	for attrID := range class.Modifiers {
		for _, changed := range being.Attributes.RemoveBySource(attrID, it.ItemID) {
			NotifyAttributeChanged(deps, e, changed)
		}
	}
	if class.Attack != nil {
		if cbt, ok := deps.State.Stores.Combats.Get(e); ok {
			cbt.Attacks.Remove(class.Attack)
		}
	}
	deps.State.Stores.Actors.MustGet(e).Raise(component.UpdateFlagLooks)
	SendInventoryFull(sess, ch.Possessions)
}
