package handler

import (
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/geom"
	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/net/proto"
	"github.com/emberfall/server/internal/scripting"
	"go.uber.org/zap"
)

func handleUseAbilityOnBeing(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	abilityID := int(msg.ReadUint8())
	targetPub := uint16(msg.ReadInt16())
	e, ok := deps.Entity(sess.ID)
	if !ok || msg.Bad() {
		return
	}
	actor := deps.State.Stores.Actors.MustGet(e)
	comp := deps.State.Map(actor.MapID)
	if comp == nil {
		return
	}
	target, ok := comp.ByPublicID(targetPub)
	if !ok {
		return
	}
	UseAbilityOnBeing(deps, e, abilityID, target)
}

func handleUseAbilityOnPoint(deps *Deps, sess *gonet.Session, msg *proto.MessageIn) {
	abilityID := int(msg.ReadUint8())
	x := int(msg.ReadInt16())
	y := int(msg.ReadInt16())
	e, ok := deps.Entity(sess.ID)
	if !ok || msg.Bad() {
		return
	}
	UseAbilityOnPoint(deps, e, abilityID, geom.Point{X: x, Y: y})
}

// abilityUsable runs the §4.4 checks shared by both target kinds. It
// returns the value when every gate passes.
func abilityUsable(deps *Deps, e ecs.EntityID, abilityID int, wantTarget data.AbilityTarget) (*component.AbilityValue, bool) {
	ab, ok := deps.State.Stores.Abilities.Get(e)
	if !ok || ab.GlobalCooldown > 0 {
		return nil, false
	}
	val, known := ab.Get(abilityID)
	if !known {
		return nil, false
	}
	info := val.Info
	if info.Target != wantTarget {
		return nil, false
	}
	if info.Rechargeable && val.CurrentPoints < info.NeededPoints {
		return nil, false
	}
	return val, true
}

// useRef resolves the ability's callback, falling back to the shared slot.
func (d *Deps) useRef(info *data.AbilityInfo) scripting.Ref {
	if info.UseRef.Valid() {
		return info.UseRef
	}
	return d.Engine.Slot(scripting.SlotAbilityUse)
}

func (d *Deps) rechargedRef(info *data.AbilityInfo) scripting.Ref {
	if info.RechargedRef.Valid() {
		return info.RechargedRef
	}
	return d.Engine.Slot(scripting.SlotAbilityRecharged)
}

// consumeAbility applies autoconsume and arms the global cooldown from the
// cooldown attribute's current modified value, never below one tick.
func consumeAbility(deps *Deps, e ecs.EntityID, val *component.AbilityValue) {
	ab := deps.State.Stores.Abilities.MustGet(e)
	info := val.Info
	if info.Autoconsume {
		val.CurrentPoints = 0
		val.Recharged = false
	}
	cooldown := 1
	if info.CooldownAttribute != 0 {
		if being, ok := deps.State.Stores.Beings.Get(e); ok {
			if v := int(being.Attributes.Modified(info.CooldownAttribute)); v > 1 {
				cooldown = v
			}
		}
	}
	ab.GlobalCooldown = cooldown

	if ch, ok := deps.State.Stores.Characters.Get(e); ok {
		if sess := deps.Sessions[ch.SessionID]; sess != nil {
			SendAbilityStatus(sess, info.ID, val.CurrentPoints, info.NeededPoints, cooldown)
		}
	}
}

// UseAbilityOnBeing runs an ability against a being target. Callable from
// handlers and from monster AI.
func UseAbilityOnBeing(deps *Deps, e ecs.EntityID, abilityID int, target ecs.EntityID) bool {
	if !deps.State.ECS.Alive(target) {
		return false
	}
	val, ok := abilityUsable(deps, e, abilityID, data.TargetBeing)
	if !ok {
		return false
	}
	if being, ok := deps.State.Stores.Beings.Get(target); !ok || being.Action == component.ActionDead {
		return false
	}
	ref := deps.useRef(val.Info)
	if !ref.Valid() {
		return false
	}

	consumeAbility(deps, e, val)
	if _, err := deps.Engine.Call(ref,
		scripting.Entity(e), scripting.Entity(target), scripting.Int(abilityID)); err != nil {
		deps.Log.Warn("ability script failed",
			zap.Int("ability", abilityID), zap.Error(err))
		return false
	}
	return true
}

// UseAbilityOnPoint runs an ability aimed at a map point.
func UseAbilityOnPoint(deps *Deps, e ecs.EntityID, abilityID int, p geom.Point) bool {
	val, ok := abilityUsable(deps, e, abilityID, data.TargetPoint)
	if !ok {
		return false
	}
	ref := deps.useRef(val.Info)
	if !ref.Valid() {
		return false
	}
	consumeAbility(deps, e, val)
	if _, err := deps.Engine.Call(ref,
		scripting.Entity(e), scripting.Int(p.X), scripting.Int(p.Y), scripting.Int(abilityID)); err != nil {
		deps.Log.Warn("ability script failed",
			zap.Int("ability", abilityID), zap.Error(err))
		return false
	}
	return true
}

// RechargeAbilities advances one entity's ability points and cooldown by a
// tick. The recharged callback is edge-triggered.
func RechargeAbilities(deps *Deps, e ecs.EntityID, ab *component.Abilities) {
	if ab.GlobalCooldown > 0 {
		ab.GlobalCooldown--
	}
	being, ok := deps.State.Stores.Beings.Get(e)
	if !ok {
		return
	}
	for _, val := range ab.Values {
		info := val.Info
		if !info.Rechargeable || val.CurrentPoints >= info.NeededPoints {
			continue
		}
		speed := int(being.Attributes.Modified(info.RechargeAttribute))
		if speed <= 0 {
			speed = attributeRechargeFloor
		}
		val.CurrentPoints += speed
		if val.CurrentPoints >= info.NeededPoints {
			val.CurrentPoints = info.NeededPoints
			if !val.Recharged {
				val.Recharged = true
				if ref := deps.rechargedRef(info); ref.Valid() {
					if _, err := deps.Engine.Call(ref,
						scripting.Entity(e), scripting.Int(info.ID)); err != nil {
						deps.Log.Warn("recharged script failed",
							zap.Int("ability", info.ID), zap.Error(err))
					}
				}
			}
		}
	}
}

// attributeRechargeFloor keeps abilities recharging even when the entity
// lacks the recharge attribute.
const attributeRechargeFloor = 1
