package handler

import (
	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/geom"
	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/net/proto"
	"github.com/emberfall/server/internal/scripting"
	"go.uber.org/zap"
)

// RegisterAll wires every game-client message to its handler.
func RegisterAll(r *Registry) {
	r.Register(proto.PGMsgConnect, []SessionState{StateConnecting}, handleConnect)

	playing := []SessionState{StatePlaying}
	r.Register(proto.PGMsgWalk, playing, handleWalk)
	r.Register(proto.PGMsgSay, playing, handleSay)
	r.Register(proto.PGMsgAttack, playing, handleAttack)
	r.Register(proto.PGMsgActionChange, playing, handleActionChange)
	r.Register(proto.PGMsgDirectionChange, playing, handleDirectionChange)
	r.Register(proto.PGMsgPickup, playing, handlePickup)
	r.Register(proto.PGMsgDrop, playing, handleDrop)
	r.Register(proto.PGMsgEquip, playing, handleEquip)
	r.Register(proto.PGMsgUnequip, playing, handleUnequip)
	r.Register(proto.PGMsgUseAbilityOnBeing, playing, handleUseAbilityOnBeing)
	r.Register(proto.PGMsgUseAbilityOnPoint, playing, handleUseAbilityOnPoint)
	r.Register(proto.PGMsgRespawn, playing, handleRespawn)
	r.Register(proto.PGMsgNPCTalk, playing, handleNPCTalk)
	r.Register(proto.PGMsgNPCTalkNext, playing, handleNPCTalkNext)
	r.Register(proto.PGMsgNPCSelect, playing, handleNPCSelect)
	r.Register(proto.PGMsgNPCNumber, playing, handleNPCNumber)
	r.Register(proto.PGMsgNPCString, playing, handleNPCString)
	r.Register(proto.PGMsgDisconnect, playing, handleDisconnect)
}

func handleConnect(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	token := msg.ReadBytes(proto.TokenLength)
	if msg.Bad() {
		SendConnectResponse(sess, proto.ErrInvalidArgument)
		return
	}
	pending, ok := deps.Account.TakePending(string(token))
	if !ok {
		SendConnectResponse(sess, proto.ErrFailure)
		return
	}

	e := InstallCharacter(deps, sess, pending)
	SendConnectResponse(sess, proto.ErrOK)
	if deps.Registry != nil {
		deps.Registry.SetState(sess.ID, StatePlaying)
	}

	// Confirm the handoff so the account service releases the in-flight lock.
	deps.Account.PlayerReconnect(pending.CharacterID, token)
	deps.Account.SyncOnlineStatus(pending.CharacterID, true)

	deps.Log.Info("player entered",
		zap.String("name", pending.Name),
		zap.Int("character", pending.CharacterID),
		zap.Uint64("session", sess.ID),
	)

	// Map name and spawn reach the client before the first awareness tick.
	actor := deps.State.Stores.Actors.MustGet(e)
	mapID := int(pending.Data.MapID)
	comp := deps.State.Map(mapID)
	if comp == nil {
		comp = deps.State.Map(deps.Cfg.Game.DefaultMap)
	}
	if comp != nil {
		SendMapChange(sess, comp.Map().Property("name"), actor.Pos.X, actor.Pos.Y)
	}
	ch := deps.State.Stores.Characters.MustGet(e)
	SendInventoryFull(sess, ch.Possessions)

	if ref := deps.Engine.Slot(scripting.SlotCharacterLogin); ref.Valid() {
		if _, err := deps.Engine.Call(ref, scripting.Entity(e)); err != nil {
			deps.Log.Warn("login script failed", zap.Error(err))
		}
	}
}

func handleWalk(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	x := int(msg.ReadInt16())
	y := int(msg.ReadInt16())
	e, ok := deps.Entity(sess.ID)
	if !ok || msg.Bad() {
		return
	}
	being := deps.State.Stores.Beings.MustGet(e)
	if being.Action == component.ActionDead {
		return
	}
	actor := deps.State.Stores.Actors.MustGet(e)
	comp := deps.State.Map(actor.MapID)
	if comp == nil {
		return
	}
	m := comp.Map()
	if x < 0 || y < 0 || x >= m.PixelWidth() || y >= m.PixelHeight() {
		return
	}

	being.Destination = geom.Point{X: x, Y: y}
	being.Path = nil // movement system searches next tick
	if being.Action != component.ActionWalk {
		being.Action = component.ActionWalk
		actor.Raise(component.UpdateFlagAction)
	}
}

func handleSay(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	text := msg.ReadString()
	e, ok := deps.Entity(sess.ID)
	if !ok || msg.Bad() || text == "" {
		return
	}
	ch := deps.State.Stores.Characters.MustGet(e)
	if ch.MuteUntilTick > deps.Tick {
		return
	}
	// Chat is delivered by the awareness pass, ordered after combat events.
	deps.PendingChat = append(deps.PendingChat, ChatEvent{Speaker: e, Text: text})
}

func handleAttack(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	targetPub := uint16(msg.ReadInt16())
	e, ok := deps.Entity(sess.ID)
	if !ok || msg.Bad() {
		return
	}
	actor := deps.State.Stores.Actors.MustGet(e)
	being := deps.State.Stores.Beings.MustGet(e)
	if !being.CanFight() {
		return
	}
	comp := deps.State.Map(actor.MapID)
	if comp == nil {
		return
	}
	target, ok := comp.ByPublicID(targetPub)
	if !ok || target == e {
		return
	}

	cbt, ok := deps.State.Stores.Combats.Get(e)
	if !ok {
		return
	}
	cbt.Target = target
	cbt.Attacks.Start()
	being.Action = component.ActionAttack
	actor.Raise(component.UpdateFlagAction)
}

func handleActionChange(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	action := component.Action(msg.ReadUint8())
	e, ok := deps.Entity(sess.ID)
	if !ok || msg.Bad() {
		return
	}
	being := deps.State.Stores.Beings.MustGet(e)
	// Clients may only toggle between the idle poses.
	if being.Action == component.ActionDead {
		return
	}
	if action != component.ActionStand && action != component.ActionSit {
		return
	}
	if being.Action == action {
		return
	}
	being.Action = action
	if action == component.ActionStand {
		being.Path = nil
	}
	deps.State.Stores.Actors.MustGet(e).Raise(component.UpdateFlagAction)
}

func handleDirectionChange(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	dir := component.Direction(msg.ReadUint8())
	e, ok := deps.Entity(sess.ID)
	if !ok || msg.Bad() || dir < component.DirDown || dir > component.DirRight {
		return
	}
	being := deps.State.Stores.Beings.MustGet(e)
	if being.Direction == dir {
		return
	}
	being.Direction = dir
	deps.State.Stores.Actors.MustGet(e).Raise(component.UpdateFlagDirection)
}

func handleRespawn(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	e, ok := deps.Entity(sess.ID)
	if !ok {
		return
	}
	being := deps.State.Stores.Beings.MustGet(e)
	ch := deps.State.Stores.Characters.MustGet(e)
	if being.Action != component.ActionDead {
		return
	}
	ch.AwaitingRespawn = false

	if ref := deps.Engine.Slot(scripting.SlotCharacterDeathAccepted); ref.Valid() {
		if _, err := deps.Engine.Call(ref, scripting.Entity(e)); err != nil {
			deps.Log.Warn("death_accepted script failed", zap.Error(err))
		}
	}

	// Restore HP and warp home.
	maxHP := being.Attributes.Modified(attribute.MaxHP)
	being.Attributes.SetBase(attribute.HP, maxHP)
	being.Action = component.ActionStand
	deps.State.Stores.Actors.MustGet(e).Raise(component.UpdateFlagAction | component.UpdateFlagHealth)
	deps.State.EnqueueWarp(e, deps.Cfg.Game.DefaultMap, geom.Point{
		X: deps.Cfg.Game.DefaultSpawnX,
		Y: deps.Cfg.Game.DefaultSpawnY,
	})
}

func handleDisconnect(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	msg.ReadUint8() // reconnect flag, unused: tokens are reissued on login
	e, ok := deps.Entity(sess.ID)
	if ok {
		FlushAndRemove(deps, e, true)
	}
	out := proto.NewMessageOut(proto.GPMsgDisconnectResponse)
	out.WriteUint8(proto.ErrOK)
	sess.Send(out.Bytes())
	sess.Close()
}

// FlushAndRemove writes the character's record back through the account
// link and schedules its entity removal. offline reports logout.
func FlushAndRemove(deps *Deps, e ecs.EntityID, offline bool) {
	ch, ok := deps.State.Stores.Characters.Get(e)
	if !ok {
		return
	}
	if !deps.State.IsQuarantined(e) {
		deps.Account.FlushPlayer(ch.DBID, ExtractCharacter(deps, e))
	}
	if offline {
		deps.Account.SyncOnlineStatus(ch.DBID, false)
	}
	// Drop any suspended dialogue.
	if ch.NPCThreadID != 0 {
		deps.Engine.DropThread(ch.NPCThreadID)
		ch.NPCThreadID = 0
	}
	delete(deps.Players, ch.SessionID)
	deps.State.EnqueueRemove(e)
	deps.State.ECS.MarkForDestruction(e)
}
