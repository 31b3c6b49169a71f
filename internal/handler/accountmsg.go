package handler

import (
	"time"

	"github.com/emberfall/server/internal/gamesrv"
	"github.com/emberfall/server/internal/net/proto"
	"github.com/emberfall/server/internal/scripting"
	"github.com/emberfall/server/internal/serialize"
	"go.uber.org/zap"
)

// HandleAccountMessage dispatches one frame from the account-service link.
// Runs on the simulation thread.
func HandleAccountMessage(deps *Deps, data []byte) {
	msg := proto.NewMessageIn(data)
	switch msg.ID() {
	case proto.AGMsgRegisterResponse:
		ok := msg.ReadUint8()
		if ok != proto.ErrOK {
			deps.Log.Error("account service rejected registration",
				zap.Uint8("code", ok))
			return
		}
		deps.Log.Info("registered with account service")

	case proto.AGMsgActiveMap:
		mapID := int(msg.ReadInt16())
		deps.Log.Info("map activated", zap.Int("map", mapID))

	case proto.AGMsgPlayerEnter:
		token := msg.ReadBytes(proto.TokenLength)
		charID := int(msg.ReadInt32())
		name := msg.ReadString()
		record, err := serialize.Read(msg)
		if err != nil || msg.Bad() {
			deps.Log.Error("malformed PLAYER_ENTER", zap.Error(err))
			return
		}
		deps.Account.AddPending(&gamesrv.PendingPlayer{
			Token:       string(token),
			CharacterID: charID,
			Name:        name,
			Data:        record,
			Deadline:    time.Now().Add(deps.Cfg.Account.TokenTTL.Duration),
		})
		deps.Log.Debug("player handoff pending",
			zap.String("name", name), zap.Int("character", charID))

	case proto.AGMsgRedirectResponse:
		charID := int(msg.ReadInt32())
		token := msg.ReadBytes(proto.TokenLength)
		host := msg.ReadString()
		port := int(msg.ReadInt16())
		if msg.Bad() {
			deps.Log.Error("malformed REDIRECT_RESPONSE")
			return
		}
		sessionID, ok := deps.Account.RedirectWaiters[charID]
		if !ok {
			return
		}
		delete(deps.Account.RedirectWaiters, charID)

		sess := deps.Sessions[sessionID]
		if sess == nil {
			return
		}
		// Hand the client its ticket to the next shard, then detach the
		// character here. The blob was flushed before the redirect.
		SendServerChange(sess, token, host, port)
		if e, ok := deps.Entity(sessionID); ok {
			ch := deps.State.Stores.Characters.MustGet(e)
			DropDialogue(deps, ch)
			delete(deps.Players, sessionID)
			deps.State.EnqueueRemove(e)
			deps.State.ECS.MarkForDestruction(e)
		}

	case proto.AGMsgGetQuestResponse:
		charID := int(msg.ReadInt32())
		name := msg.ReadString()
		value := msg.ReadString()
		if msg.Bad() {
			return
		}
		// Refresh the cache and wake the quest_reply script slot.
		for _, e := range deps.Players {
			ch, ok := deps.State.Stores.Characters.Get(e)
			if !ok || ch.DBID != charID {
				continue
			}
			ch.QuestCache[name] = value
			deps.CallScriptSlot(scripting.SlotQuestReply, e, name, value)
			break
		}

	default:
		deps.Log.Warn("unknown account message", zap.Uint16("id", msg.ID()))
	}
}
