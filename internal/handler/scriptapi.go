package handler

import (
	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
)

// InstallScriptAPI exposes the world accessors scripts may call, all under
// the server table. Handles are the opaque entity ids the engine pushed.
func InstallScriptAPI(deps *Deps) {
	entityArg := func(vm *lua.LState, n int) (ecs.EntityID, bool) {
		e := ecs.EntityID(vm.CheckNumber(n))
		return e, deps.State.ECS.Alive(e)
	}

	// server.notify(entity, text) — private server line to a character.
	deps.Engine.InstallFunc("notify", func(vm *lua.LState) int {
		e, ok := entityArg(vm, 1)
		text := vm.CheckString(2)
		if !ok {
			return 0
		}
		if sess := deps.SessionOf(e); sess != nil {
			SendSay(sess, 0, text)
		}
		return 0
	})

	// server.heal(entity, amount) — restore HP up to the maximum.
	deps.Engine.InstallFunc("heal", func(vm *lua.LState) int {
		e, ok := entityArg(vm, 1)
		amount := float64(vm.CheckNumber(2))
		if !ok {
			return 0
		}
		being, exists := deps.State.Stores.Beings.Get(e)
		if !exists || being.Action == component.ActionDead {
			return 0
		}
		hp := being.Attributes.Get(attribute.HP)
		maxHP := being.Attributes.Modified(attribute.MaxHP)
		newBase := hp.Base() + amount
		if newBase > maxHP {
			newBase = maxHP
		}
		for _, changed := range being.Attributes.SetBase(attribute.HP, newBase) {
			NotifyAttributeChanged(deps, e, changed)
		}
		return 0
	})

	// server.damage(entity, amount) — direct unmitigated damage.
	deps.Engine.InstallFunc("damage", func(vm *lua.LState) int {
		e, ok := entityArg(vm, 1)
		amount := int(vm.CheckNumber(2))
		if !ok || amount <= 0 {
			return 0
		}
		deps.ScriptDamage(e, amount)
		return 0
	})

	// server.burn_area(caster, x, y, amount) is what the flare ability calls;
	// point abilities receive coordinates, not handles. It changes nothing in
	// the world: no damage is applied and no message is sent.
	deps.Engine.InstallFunc("burn_area", func(vm *lua.LState) int {
		// The default scripts treat this as a visual-only effect.
		return 0
	})

	// server.npc_message(npc, player, text)
	deps.Engine.InstallFunc("npc_message", func(vm *lua.LState) int {
		npc, npcOK := entityArg(vm, 1)
		player, playerOK := entityArg(vm, 2)
		text := vm.CheckString(3)
		if !npcOK || !playerOK {
			return 0
		}
		actor, exists := deps.State.Stores.Actors.Get(npc)
		if !exists {
			return 0
		}
		if sess := deps.SessionOf(player); sess != nil {
			SendNPCMessage(sess, actor.PublicID, text)
		}
		return 0
	})

	// server.npc_close(npc, player)
	deps.Engine.InstallFunc("npc_close", func(vm *lua.LState) int {
		npc, npcOK := entityArg(vm, 1)
		player, playerOK := entityArg(vm, 2)
		if !npcOK || !playerOK {
			return 0
		}
		actor, exists := deps.State.Stores.Actors.Get(npc)
		if !exists {
			return 0
		}
		if sess := deps.SessionOf(player); sess != nil {
			SendNPCClose(sess, actor.PublicID)
		}
		return 0
	})

	// server.quest_var(entity, name) — cached value; when the name is not
	// cached, a fetch is requested from the account service for a later read.
	deps.Engine.InstallFunc("quest_var", func(vm *lua.LState) int {
		e, ok := entityArg(vm, 1)
		name := vm.CheckString(2)
		if !ok {
			vm.Push(lua.LString(""))
			return 1
		}
		ch, exists := deps.State.Stores.Characters.Get(e)
		if !exists {
			vm.Push(lua.LString(""))
			return 1
		}
		value, cached := ch.QuestCache[name]
		if !cached {
			deps.Account.GetQuestVar(ch.DBID, name)
		}
		vm.Push(lua.LString(value))
		return 1
	})

	// server.set_quest_var(entity, name, value)
	deps.Engine.InstallFunc("set_quest_var", func(vm *lua.LState) int {
		e, ok := entityArg(vm, 1)
		name := vm.CheckString(2)
		value := vm.CheckString(3)
		if !ok {
			return 0
		}
		if ch, exists := deps.State.Stores.Characters.Get(e); exists {
			ch.QuestCache[name] = value
			deps.Account.SetQuestVar(ch.DBID, name, value)
		}
		return 0
	})
}
