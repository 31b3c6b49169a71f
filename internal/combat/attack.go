package combat

import (
	"sort"

	"github.com/emberfall/server/internal/scripting"
)

// AttackInfo is the immutable definition of one attack an item, monster
// class or ability grants.
type AttackInfo struct {
	Damage Damage
	// WarmupTime is the wind-up in ticks before the hit lands; the attack
	// can still be canceled during it.
	WarmupTime int
	// CooldownTime is the tail after the trigger during which the attack
	// cannot be canceled.
	CooldownTime int
	// ReuseTime is the extra gap after cooldown before the attack may be
	// performed again.
	ReuseTime int
	Priority  int
	Callback  scripting.Ref
}

// Attack is one live instance of an AttackInfo on an entity.
//
// A single timer tracks the lifecycle:
//
//	timer > cooldown  — warming up (soft-resettable)
//	timer == cooldown — triggers this tick
//	timer < cooldown  — cooling down
//
// reuse counts down separately from cooldown+reuseTime after each trigger.
type Attack struct {
	Info  *AttackInfo
	timer int
	reuse int
}

// Usable reports whether the attack may start a new lifecycle.
func (a *Attack) Usable() bool { return a.timer == 0 && a.reuse == 0 }

// WarmingUp reports whether the attack has started but not yet committed.
func (a *Attack) WarmingUp() bool { return a.timer > a.Info.CooldownTime }

// Timer exposes the lifecycle timer for scheduling order.
func (a *Attack) Timer() int { return a.timer }

// start arms the lifecycle timer. Warmup is at least one tick so the
// trigger edge (timer reaching cooldown) is always observable.
func (a *Attack) start() {
	w := a.Info.WarmupTime
	if w < 1 {
		w = 1
	}
	a.timer = w + a.Info.CooldownTime
}

// Attacks aggregates an entity's live attacks and advances their timers
// together. The list stays sorted by timer so the scheduler resolves
// same-tick triggers deterministically.
type Attacks struct {
	list   []*Attack
	active bool
}

func (s *Attacks) Add(info *AttackInfo) *Attack {
	a := &Attack{Info: info}
	s.list = append(s.list, a)
	s.sort()
	return a
}

func (s *Attacks) Remove(info *AttackInfo) {
	kept := s.list[:0]
	for _, a := range s.list {
		if a.Info != info {
			kept = append(kept, a)
		}
	}
	s.list = kept
}

func (s *Attacks) Len() int { return len(s.list) }

// MaxRange returns the longest damage range among the live attacks.
func (s *Attacks) MaxRange() int {
	reach := 0
	for _, a := range s.list {
		if r := a.Info.Damage.Range; r > reach {
			reach = r
		}
	}
	return reach
}

func (s *Attacks) sort() {
	sort.SliceStable(s.list, func(i, j int) bool {
		return s.list[i].timer < s.list[j].timer
	})
}

// Start begins combat: usable attacks arm their lifecycle.
func (s *Attacks) Start() {
	s.active = true
	for _, a := range s.list {
		if a.Usable() {
			a.start()
		}
	}
	s.sort()
}

// Stop ends combat. Attacks still warming up are soft-reset; attacks past
// the trigger keep cooling down (they are committed).
func (s *Attacks) Stop() {
	s.active = false
	for _, a := range s.list {
		if a.WarmingUp() {
			a.timer = 0
		}
	}
}

// Tick advances every timer one tick and returns the attack that triggers
// this tick, if any. When several reach their trigger point together the
// highest priority wins; the losers abort into their reuse wait.
func (s *Attacks) Tick() *Attack {
	var ready []*Attack
	for _, a := range s.list {
		if a.reuse > 0 {
			a.reuse--
		}
		if a.timer > 0 {
			a.timer--
			if a.timer == a.Info.CooldownTime {
				ready = append(ready, a)
			}
		}
		// A finished attack restarts automatically while combat is active.
		if a.timer == 0 && a.reuse == 0 && s.active {
			a.start()
		}
	}
	if len(ready) == 0 {
		return nil
	}

	best := ready[0]
	for _, a := range ready[1:] {
		if a.Info.Priority > best.Info.Priority {
			best = a
		}
	}
	for _, a := range ready {
		if a == best {
			a.reuse = a.Info.CooldownTime + a.Info.ReuseTime
			continue
		}
		// Lost the priority race: abort without damage, wait out reuse.
		a.timer = 0
		a.reuse = a.Info.CooldownTime + a.Info.ReuseTime
	}
	return best
}
