package system

import (
	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/handler"
)

// AwarenessSystem computes each observer's delta for the tick and emits
// messages in the fixed order: leaves, enters, moves, combat events, chat.
// Phase 3, registered after the zone system. It also clears the per-tick
// actor state (update flags, old position, hits taken) once every observer
// has been served.
type AwarenessSystem struct {
	deps *handler.Deps
	// known maps observer session -> the public ids it currently sees.
	known map[uint64]map[uint16]struct{}
	// knownItems tracks floor items already announced to an observer;
	// items carry no public id, so they key on the entity handle.
	knownItems map[uint64]map[ecs.EntityID]struct{}
}

func NewAwarenessSystem(deps *handler.Deps) *AwarenessSystem {
	return &AwarenessSystem{
		deps:       deps,
		known:      make(map[uint64]map[uint16]struct{}),
		knownItems: make(map[uint64]map[ecs.EntityID]struct{}),
	}
}

func (s *AwarenessSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *AwarenessSystem) Update(uint64) {
	st := s.deps.State
	radius := s.deps.Cfg.Game.VisualRange

	for sessionID, observer := range s.deps.Players {
		sess := s.deps.Sessions[sessionID]
		if sess == nil {
			continue
		}
		actor, ok := st.Stores.Actors.Get(observer)
		if !ok || actor.MapID == 0 {
			continue
		}
		comp := st.Map(actor.MapID)
		if comp == nil {
			continue
		}

		knownSet := s.known[sessionID]
		if knownSet == nil {
			knownSet = make(map[uint16]struct{})
			s.known[sessionID] = knownSet
		}

		// Gather what the observer can see now. The around-character
		// region includes zones crossed out of this tick, so same-tick
		// border crossings still produce correct leaves.
		visible := make(map[uint16]ecs.EntityID)
		var hits []struct {
			PublicID uint16
			Amount   int
		}
		itemsSeen := s.knownItems[sessionID]
		if itemsSeen == nil {
			itemsSeen = make(map[ecs.EntityID]struct{})
			s.knownItems[sessionID] = itemsSeen
		}
		for _, z := range comp.AroundCharacter(actor, radius) {
			for _, e := range z.All() {
				ea, ok := st.Stores.Actors.Get(e)
				if !ok {
					continue
				}
				if !actor.Pos.InRangeOf(ea.Pos, radius) {
					continue
				}
				if ea.PublicID == 0 {
					// Floor items announce themselves once per observer.
					if fi, isItem := st.Stores.FloorItems.Get(e); isItem {
						if _, seen := itemsSeen[e]; !seen {
							itemsSeen[e] = struct{}{}
							handler.SendItemAppear(sess, fi.ItemID, ea.Pos.X, ea.Pos.Y)
						}
					}
					continue
				}
				visible[ea.PublicID] = e
			}
		}
		for e := range itemsSeen {
			if !st.ECS.Alive(e) {
				delete(itemsSeen, e)
			}
		}

		// 1. Leaves.
		for pub := range knownSet {
			if _, still := visible[pub]; !still {
				handler.SendBeingLeave(sess, pub)
				delete(knownSet, pub)
			}
		}

		// 2. Enters.
		for pub, e := range visible {
			if _, had := knownSet[pub]; had {
				continue
			}
			eb, ok := st.Stores.Beings.Get(e)
			if !ok {
				continue
			}
			ea := st.Stores.Actors.MustGet(e)
			handler.SendBeingEnter(s.deps, sess, e, ea, eb)
			knownSet[pub] = struct{}{}
		}

		// 3. Moves and flagged deltas, for entities that stayed in view.
		for pub, e := range visible {
			ea := st.Stores.Actors.MustGet(e)
			if ea.UpdateFlags == 0 || ea.Has(component.UpdateFlagNewOnMap) {
				continue
			}
			eb, hasBeing := st.Stores.Beings.Get(e)
			if ea.Has(component.UpdateFlagPosition) && hasBeing {
				speed := int(eb.Attributes.Modified(attribute.MoveSpeed))
				handler.SendBeingMove(sess, pub, ea.Pos.X, ea.Pos.Y, speed)
			}
			if ea.Has(component.UpdateFlagAction) && hasBeing {
				handler.SendActionChange(sess, pub, eb.Action)
			}
			if ea.Has(component.UpdateFlagDirection) && hasBeing {
				handler.SendDirChange(sess, pub, eb.Direction)
			}
			if ea.Has(component.UpdateFlagHealth) && hasBeing {
				hp := int(eb.Attributes.Modified(attribute.HP))
				maxHP := int(eb.Attributes.Modified(attribute.MaxHP))
				handler.SendHealthChange(sess, pub, hp, maxHP)
			}
		}

		// 4. Combat events: the hits taken by anyone in view this tick.
		for pub, e := range visible {
			eb, ok := st.Stores.Beings.Get(e)
			if !ok {
				continue
			}
			for _, hit := range eb.HitsTaken {
				hits = append(hits, struct {
					PublicID uint16
					Amount   int
				}{PublicID: pub, Amount: hit.HPLoss})
			}
			ea := st.Stores.Actors.MustGet(e)
			if ea.Has(component.UpdateFlagAttack) {
				if cbt, ok := st.Stores.Combats.Get(e); ok && cbt.CurrentAttack != nil {
					handler.SendBeingAttack(sess, pub, eb.Direction, cbt.CurrentAttack.Info.Damage.ID)
				}
			}
		}
		handler.SendBeingsDamage(sess, hits)

		// 5. Chat from speakers in view.
		for _, chat := range s.deps.PendingChat {
			sa, ok := st.Stores.Actors.Get(chat.Speaker)
			if !ok {
				continue
			}
			if _, inView := visible[sa.PublicID]; inView || chat.Speaker == observer {
				handler.SendSay(sess, sa.PublicID, chat.Text)
			}
		}
	}

	// Per-tick state resets after every observer was served.
	s.deps.PendingChat = s.deps.PendingChat[:0]
	st.Stores.Actors.Each(func(e ecs.EntityID, actor *component.Actor) {
		actor.ClearUpdateFlags()
		actor.OldPos = actor.Pos
	})
	st.Stores.Beings.Each(func(e ecs.EntityID, being *component.Being) {
		being.HitsTaken = being.HitsTaken[:0]
	})
}

// Forget drops an observer's known sets on disconnect.
func (s *AwarenessSystem) Forget(sessionID uint64) {
	delete(s.known, sessionID)
	delete(s.knownItems, sessionID)
}
