package handler

import (
	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/net/proto"
)

// Send helpers build one frame each. They are the only place the game
// service encodes client-bound payloads, so format changes stay local.

func SendConnectResponse(sess *gonet.Session, errCode uint8) {
	msg := proto.NewMessageOut(proto.GPMsgConnectResponse)
	msg.WriteUint8(errCode)
	sess.Send(msg.Bytes())
}

func SendMapChange(sess *gonet.Session, mapName string, x, y int) {
	msg := proto.NewMessageOut(proto.GPMsgPlayerMapChange)
	msg.WriteString(mapName)
	msg.WriteInt16(int16(x))
	msg.WriteInt16(int16(y))
	sess.Send(msg.Bytes())
}

func SendServerChange(sess *gonet.Session, token []byte, host string, port int) {
	msg := proto.NewMessageOut(proto.GPMsgPlayerServerChange)
	msg.WriteBytes(token)
	msg.WriteString(host)
	msg.WriteInt16(int16(port))
	sess.Send(msg.Bytes())
}

// SendBeingEnter announces an entity to an observer, with the type-specific
// tail the client needs to display it.
func SendBeingEnter(deps *Deps, sess *gonet.Session, e ecs.EntityID, actor *component.Actor, being *component.Being) {
	msg := proto.NewMessageOut(proto.GPMsgBeingEnter)
	msg.WriteUint8(uint8(deps.State.ECS.Type(e)))
	msg.WriteInt16(int16(actor.PublicID))
	msg.WriteUint8(uint8(being.Action))
	msg.WriteInt16(int16(actor.Pos.X))
	msg.WriteInt16(int16(actor.Pos.Y))
	msg.WriteUint8(uint8(being.Direction))

	switch deps.State.ECS.Type(e) {
	case ecs.TypeCharacter:
		ch := deps.State.Stores.Characters.MustGet(e)
		msg.WriteString(being.Name)
		msg.WriteUint8(uint8(ch.HairStyle))
		msg.WriteUint8(uint8(ch.HairColor))
		msg.WriteUint8(uint8(ch.Gender))
	case ecs.TypeMonster:
		mon := deps.State.Stores.Monsters.MustGet(e)
		msg.WriteInt16(int16(mon.Class.ID))
	case ecs.TypeNPC:
		npc := deps.State.Stores.NPCs.MustGet(e)
		msg.WriteInt16(int16(npc.ScriptID))
	}
	sess.Send(msg.Bytes())
}

func SendBeingLeave(sess *gonet.Session, publicID uint16) {
	msg := proto.NewMessageOut(proto.GPMsgBeingLeave)
	msg.WriteInt16(int16(publicID))
	sess.Send(msg.Bytes())
}

// SendBeingMove carries the position and movement speed of one mover.
func SendBeingMove(sess *gonet.Session, publicID uint16, x, y, speed int) {
	msg := proto.NewMessageOut(proto.GPMsgBeingsMove)
	msg.WriteInt16(int16(publicID))
	msg.WriteInt16(int16(x))
	msg.WriteInt16(int16(y))
	msg.WriteUint8(uint8(speed))
	sess.Send(msg.Bytes())
}

func SendActionChange(sess *gonet.Session, publicID uint16, action component.Action) {
	msg := proto.NewMessageOut(proto.GPMsgBeingActionChange)
	msg.WriteInt16(int16(publicID))
	msg.WriteUint8(uint8(action))
	sess.Send(msg.Bytes())
}

func SendDirChange(sess *gonet.Session, publicID uint16, dir component.Direction) {
	msg := proto.NewMessageOut(proto.GPMsgBeingDirChange)
	msg.WriteInt16(int16(publicID))
	msg.WriteUint8(uint8(dir))
	sess.Send(msg.Bytes())
}

func SendHealthChange(sess *gonet.Session, publicID uint16, hp, maxHP int) {
	msg := proto.NewMessageOut(proto.GPMsgBeingHealthChange)
	msg.WriteInt16(int16(publicID))
	msg.WriteInt16(int16(hp))
	msg.WriteInt16(int16(maxHP))
	sess.Send(msg.Bytes())
}

// SendBeingsDamage batches the hits an observer saw this tick.
func SendBeingsDamage(sess *gonet.Session, hits []struct {
	PublicID uint16
	Amount   int
}) {
	if len(hits) == 0 {
		return
	}
	msg := proto.NewMessageOut(proto.GPMsgBeingsDamage)
	for _, h := range hits {
		msg.WriteInt16(int16(h.PublicID))
		msg.WriteInt16(int16(h.Amount))
	}
	sess.Send(msg.Bytes())
}

func SendBeingAttack(sess *gonet.Session, publicID uint16, dir component.Direction, attackID int) {
	msg := proto.NewMessageOut(proto.GPMsgBeingAttack)
	msg.WriteInt16(int16(publicID))
	msg.WriteUint8(uint8(dir))
	msg.WriteUint8(uint8(attackID))
	sess.Send(msg.Bytes())
}

func SendSay(sess *gonet.Session, publicID uint16, text string) {
	msg := proto.NewMessageOut(proto.GPMsgSay)
	msg.WriteInt16(int16(publicID))
	msg.WriteString(text)
	sess.Send(msg.Bytes())
}

// SendAttributeChange reports one attribute's new values to its owner.
func SendAttributeChange(sess *gonet.Session, attrID int, a *attribute.Attribute) {
	msg := proto.NewMessageOut(proto.GPMsgPlayerAttributeChange)
	msg.WriteInt16(int16(attrID))
	msg.WriteFloat64(a.Base())
	msg.WriteFloat64(a.Modified())
	sess.Send(msg.Bytes())
}

func SendAbilityStatus(sess *gonet.Session, abilityID, current, needed, globalCooldown int) {
	msg := proto.NewMessageOut(proto.GPMsgAbilityStatus)
	msg.WriteUint8(uint8(abilityID))
	msg.WriteInt32(int32(current))
	msg.WriteInt32(int32(needed))
	msg.WriteInt32(int32(globalCooldown))
	sess.Send(msg.Bytes())
}

// SendExpChange reports skill experience gained.
func SendExpChange(sess *gonet.Session, skill, exp int) {
	msg := proto.NewMessageOut(proto.GPMsgPlayerExpChange)
	msg.WriteInt16(int16(skill))
	msg.WriteInt32(int32(exp))
	sess.Send(msg.Bytes())
}

func SendItemAppear(sess *gonet.Session, itemID, x, y int) {
	msg := proto.NewMessageOut(proto.GPMsgItemAppear)
	msg.WriteInt16(int16(itemID))
	msg.WriteInt16(int16(x))
	msg.WriteInt16(int16(y))
	sess.Send(msg.Bytes())
}

// SendInventoryFull pushes every inventory slot (slot, item, amount). It is
// sent on login and after each inventory change; equipment is not included.
func SendInventoryFull(sess *gonet.Session, poss *component.Possessions) {
	msg := proto.NewMessageOut(proto.GPMsgInventory)
	for slot, it := range poss.Inventory {
		msg.WriteInt16(int16(slot))
		msg.WriteInt16(int16(it.ItemID))
		msg.WriteInt16(int16(it.Amount))
	}
	sess.Send(msg.Bytes())
}

func SendNPCMessage(sess *gonet.Session, npcPublicID uint16, text string) {
	msg := proto.NewMessageOut(proto.GPMsgNPCMessage)
	msg.WriteInt16(int16(npcPublicID))
	msg.WriteString(text)
	sess.Send(msg.Bytes())
}

func SendNPCClose(sess *gonet.Session, npcPublicID uint16) {
	msg := proto.NewMessageOut(proto.GPMsgNPCClose)
	msg.WriteInt16(int16(npcPublicID))
	sess.Send(msg.Bytes())
}
