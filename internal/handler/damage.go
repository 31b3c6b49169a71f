package handler

import (
	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/combat"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/core/event"
	"github.com/emberfall/server/internal/scripting"
	"go.uber.org/zap"
)

// monsterDecayTicks is how long a corpse lingers before removal.
const monsterDecayTicks = 50

// ApplyDamage deducts resolved damage from the target and runs the hit
// bookkeeping: hits-taken, hate, regen pause, the damaged signal, death.
func ApplyDamage(deps *Deps, target, source ecs.EntityID, dmg combat.Damage, hpLoss int) {
	st := deps.State
	tb, ok := st.Stores.Beings.Get(target)
	if !ok {
		return
	}
	ta := st.Stores.Actors.MustGet(target)

	if hpLoss > 0 {
		hp := tb.Attributes.Get(attribute.HP)
		tb.Attributes.SetBase(attribute.HP, hp.Base()-float64(hpLoss))
		ta.Raise(component.UpdateFlagHealth)

		var sourcePub uint16
		if sa, ok := st.Stores.Actors.Get(source); ok {
			sourcePub = sa.PublicID
		}
		tb.HitsTaken = append(tb.HitsTaken, component.HitTaken{
			SourcePublicID: sourcePub,
			HPLoss:         hpLoss,
		})

		if pause := deps.Cfg.Game.HPRegenBreakAfterHit; pause > 0 {
			tb.SetTimer(component.TimerRegenPause, pause)
		}

		// Environmental damage (zero source) earns no hate or credit.
		if mon, ok := st.Stores.Monsters.Get(target); ok && !source.IsZero() {
			mon.RecordDamage(source, dmg.Skill, hpLoss)
			if mon.Owner.IsZero() {
				mon.Owner = source
				tb.SetTimer(component.TimerKillstealProtection, component.KillstealProtectionTicks)
			}
			if _, err := deps.Engine.CallSlot(scripting.SlotMonsterDamaged,
				scripting.Entity(target), scripting.Entity(source), scripting.Int(hpLoss)); err != nil {
				deps.Log.Warn("monster.damaged script failed", zap.Error(err))
			}
		}
	}

	event.Emit(deps.Bus, event.Damaged{
		Target: target, Source: source, AttackID: dmg.ID, HPLoss: hpLoss,
	})

	if tb.Attributes.Modified(attribute.HP) <= 0 && tb.Action != component.ActionDead {
		Die(deps, target)
	}
}

// ScriptDamage applies direct, unmitigated damage on behalf of a script.
func (d *Deps) ScriptDamage(target ecs.EntityID, amount int) {
	ApplyDamage(d, target, 0, combat.Damage{Type: combat.DamageDirect, Base: amount}, amount)
}

// Die transitions an entity to DEAD and starts the type-specific epilogue.
func Die(deps *Deps, e ecs.EntityID) {
	st := deps.State
	being := st.Stores.Beings.MustGet(e)
	actor := st.Stores.Actors.MustGet(e)

	being.Action = component.ActionDead
	being.Path = nil
	actor.Raise(component.UpdateFlagAction)
	if cbt, ok := st.Stores.Combats.Get(e); ok {
		cbt.Target = 0
		cbt.Attacks.Stop()
	}

	event.Emit(deps.Bus, event.Died{Entity: e})

	switch st.ECS.Type(e) {
	case ecs.TypeCharacter:
		ch := st.Stores.Characters.MustGet(e)
		ch.AwaitingRespawn = true
		deps.CallScriptSlot(scripting.SlotCharacterDeath, e)
	case ecs.TypeMonster:
		being.SetTimer(component.TimerDecay, monsterDecayTicks)
		awardKill(deps, e)
	}
}

// awardKill splits the monster's experience across its legal receivers in
// proportion to damage dealt, counts the kill, and rolls drops.
func awardKill(deps *Deps, e ecs.EntityID) {
	st := deps.State
	mon := st.Stores.Monsters.MustGet(e)
	actor := st.Stores.Actors.MustGet(e)
	being := st.Stores.Beings.MustGet(e)

	if mon.TotalDamage > 0 {
		for receiver, skills := range mon.ExpReceivers {
			// Killsteal protection: while the owner's claim is active only
			// the owner collects.
			if !mon.Owner.IsZero() && being.TimerActive(component.TimerKillstealProtection) && receiver != mon.Owner {
				continue
			}
			ch, ok := st.Stores.Characters.Get(receiver)
			if !ok || !st.ECS.Alive(receiver) {
				continue
			}
			sess := deps.Sessions[ch.SessionID]
			for skill, dealt := range skills {
				share := mon.Class.Exp * dealt / mon.TotalDamage
				if share <= 0 {
					continue
				}
				ch.Skills[skill] += share
				if sess != nil {
					SendExpChange(sess, skill, ch.Skills[skill])
				}
			}
			ch.KillCount[mon.Class.ID]++
		}
	}

	for _, itemID := range mon.Class.RandomDrops(deps.Rng) {
		SpawnFloorItem(deps, actor.MapID, actor.Pos, itemID, 1)
	}

	if !mon.Owner.IsZero() {
		deps.CallScriptSlot(scripting.SlotDeathNotification, mon.Owner)
	}
}
