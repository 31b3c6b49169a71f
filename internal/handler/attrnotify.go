package handler

import (
	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/core/event"
)

// attributeModifier builds the standard item-sourced stackable modifier.
func attributeModifier(value float64, sourceID int) attribute.Modifier {
	return attribute.Modifier{Layer: 0, Value: value, SourceID: sourceID}
}

// NotifyAttributeChanged fans one changed attribute out to the signal bus,
// the owning client, and the account sync channel. Health changes also
// raise the awareness update flag.
func NotifyAttributeChanged(deps *Deps, e ecs.EntityID, attrID int) {
	event.Emit(deps.Bus, event.AttributeChanged{Entity: e, Attribute: attrID})

	being, ok := deps.State.Stores.Beings.Get(e)
	if !ok {
		return
	}
	if attrID == attribute.HP || attrID == attribute.MaxHP {
		if actor, ok := deps.State.Stores.Actors.Get(e); ok {
			actor.Raise(component.UpdateFlagHealth)
		}
	}

	if ch, ok := deps.State.Stores.Characters.Get(e); ok {
		if sess := deps.Sessions[ch.SessionID]; sess != nil {
			SendAttributeChange(sess, attrID, being.Attributes.Get(attrID))
		}
		a := being.Attributes.Get(attrID)
		deps.Account.SyncAttribute(ch.DBID, attrID, a.Base(), a.Modified())
	}
}
