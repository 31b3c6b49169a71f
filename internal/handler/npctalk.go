package handler

import (
	"github.com/emberfall/server/internal/component"
	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/net/proto"
	"github.com/emberfall/server/internal/scripting"
	"go.uber.org/zap"
)

// talkRange is how close a character must be to address an NPC, in pixels.
const talkRange = 96

func handleNPCTalk(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	npcPub := uint16(msg.ReadInt16())
	e, ok := deps.Entity(sess.ID)
	if !ok || msg.Bad() {
		return
	}
	actor := deps.State.Stores.Actors.MustGet(e)
	comp := deps.State.Map(actor.MapID)
	if comp == nil {
		return
	}
	npcEntity, ok := comp.ByPublicID(npcPub)
	if !ok {
		return
	}
	npc, ok := deps.State.Stores.NPCs.Get(npcEntity)
	if !ok || !npc.Enabled {
		return
	}
	npcActor := deps.State.Stores.Actors.MustGet(npcEntity)
	if !actor.Pos.InRangeOf(npcActor.Pos, talkRange) {
		return
	}

	ch := deps.State.Stores.Characters.MustGet(e)
	if ch.NPCThreadID != 0 {
		// One conversation at a time; drop the stale one.
		deps.Engine.DropThread(ch.NPCThreadID)
		ch.NPCThreadID = 0
	}

	ref := npc.TalkRef
	if !ref.Valid() {
		ref = deps.Engine.Slot(scripting.SlotNPCTalk)
	}
	if !ref.Valid() {
		return
	}
	thread, err := deps.Engine.StartThread(ref, uint64(e),
		scripting.Entity(npcEntity), scripting.Entity(e))
	if err != nil {
		deps.Log.Warn("npc talk script failed",
			zap.Int("npc", npc.ScriptID), zap.Error(err))
		SendNPCClose(sess, npcPub)
		return
	}
	if thread.Status() == scripting.ThreadSuspended {
		ch.NPCThreadID = thread.ID
	} else {
		SendNPCClose(sess, npcPub)
	}
}

// resumeThread continues a suspended dialogue with the client's answer.
func resumeThread(deps *Deps, sess *gonet.Session, answer scripting.Arg) {
	e, ok := deps.Entity(sess.ID)
	if !ok {
		return
	}
	ch := deps.State.Stores.Characters.MustGet(e)
	if ch.NPCThreadID == 0 {
		return
	}
	thread, ok := deps.Engine.Thread(ch.NPCThreadID)
	if !ok {
		ch.NPCThreadID = 0
		return
	}
	if err := thread.Resume(answer); err != nil {
		deps.Log.Warn("npc dialogue script failed", zap.Error(err))
		ch.NPCThreadID = 0
		return
	}
	if thread.Status() != scripting.ThreadSuspended {
		ch.NPCThreadID = 0
	}
}

func handleNPCTalkNext(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	msg.ReadInt16() // npc public id; the thread already knows its NPC
	resumeThread(deps, sess, nil)
}

func handleNPCSelect(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	msg.ReadInt16()
	choice := int(msg.ReadUint8())
	if msg.Bad() {
		return
	}
	resumeThread(deps, sess, scripting.Int(choice))
}

func handleNPCNumber(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	msg.ReadInt16()
	number := int(msg.ReadInt32())
	if msg.Bad() {
		return
	}
	resumeThread(deps, sess, scripting.Int(number))
}

func handleNPCString(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	msg.ReadInt16()
	text := msg.ReadString()
	if msg.Bad() {
		return
	}
	resumeThread(deps, sess, scripting.String(text))
}

// DropDialogue cancels a character's suspended thread on disconnect.
func DropDialogue(deps *Deps, ch *component.CharacterData) {
	if ch.NPCThreadID != 0 {
		deps.Engine.DropThread(ch.NPCThreadID)
		ch.NPCThreadID = 0
	}
}
