package system

import (
	"testing"

	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/geom"
)

func TestAttackTriggersAfterWarmupAndRespectsReuse(t *testing.T) {
	f := newFixture(t, 16, 16)
	class := testMonsterClass() // attack: warmup 2, cooldown 5, reuse 3, base 10 direct
	mon := f.addMonster(t, class, geom.Point{X: 64, Y: 64})
	ch := f.addCharacter(t, "alice", geom.Point{X: 80, Y: 64}, 100)
	f.tick(1) // insert both

	st := f.deps.State
	chBeing := st.Stores.Beings.MustGet(ch)
	monBeing := st.Stores.Beings.MustGet(mon)
	monCbt := st.Stores.Combats.MustGet(mon)

	monCbt.Target = ch
	monCbt.Attacks.Start()
	monBeing.Action = component.ActionAttack

	hpBefore := chBeing.Attributes.Modified(attribute.HP)

	// Warmup: no damage on the first tick.
	f.tick(1)
	if hp := chBeing.Attributes.Modified(attribute.HP); hp != hpBefore {
		t.Fatalf("damage during warmup: HP %v -> %v", hpBefore, hp)
	}
	// Trigger tick.
	f.tick(1)
	afterTrigger := chBeing.Attributes.Modified(attribute.HP)
	if afterTrigger != hpBefore-10 {
		t.Fatalf("HP = %v after trigger, want %v", afterTrigger, hpBefore-10)
	}

	// Cooldown plus reuse: no second hit for cooldown+reuse ticks.
	f.tick(class.Attacks[0].CooldownTime + class.Attacks[0].ReuseTime)
	if hp := chBeing.Attributes.Modified(attribute.HP); hp != afterTrigger {
		t.Errorf("HP = %v during cooldown/reuse, want %v", hp, afterTrigger)
	}

	// The cycle repeats: within a few more ticks the next hit lands.
	f.tick(class.Attacks[0].WarmupTime + 2)
	if hp := chBeing.Attributes.Modified(attribute.HP); hp >= afterTrigger {
		t.Errorf("HP = %v, expected a second hit by now", hp)
	}
}

func TestAttackOutOfRangeAbortsSilently(t *testing.T) {
	f := newFixture(t, 32, 32)
	class := testMonsterClass()
	mon := f.addMonster(t, class, geom.Point{X: 64, Y: 64})
	ch := f.addCharacter(t, "alice", geom.Point{X: 600, Y: 64}, 100)
	f.tick(1)

	st := f.deps.State
	monCbt := st.Stores.Combats.MustGet(mon)
	monBeing := st.Stores.Beings.MustGet(mon)
	monCbt.Target = ch
	monCbt.Attacks.Start()
	monBeing.Action = component.ActionAttack

	chBeing := st.Stores.Beings.MustGet(ch)
	hpBefore := chBeing.Attributes.Modified(attribute.HP)
	f.tick(6)
	if hp := chBeing.Attributes.Modified(attribute.HP); hp != hpBefore {
		t.Errorf("out-of-range attack dealt damage: %v -> %v", hpBefore, hp)
	}
}

func TestMonsterDeathAwardsExpAndDecays(t *testing.T) {
	f := newFixture(t, 16, 16)
	class := testMonsterClass()
	mon := f.addMonster(t, class, geom.Point{X: 64, Y: 64})
	ch := f.addCharacter(t, "alice", geom.Point{X: 80, Y: 64}, 100)
	f.tick(1)

	st := f.deps.State
	chData := st.Stores.Characters.MustGet(ch)

	// Character kills the monster via direct scripted damage, crediting
	// skill 1 through the monster hate bookkeeping.
	monData := st.Stores.Monsters.MustGet(mon)
	monData.RecordDamage(ch, 1, 40)
	f.deps.ScriptDamage(mon, 40)

	monBeing := st.Stores.Beings.MustGet(mon)
	if monBeing.Action != component.ActionDead {
		t.Fatal("monster not dead after lethal damage")
	}
	if got := chData.Skills[1]; got != class.Exp {
		t.Errorf("skill exp = %d, want %d", got, class.Exp)
	}
	if got := chData.KillCount[class.ID]; got != 1 {
		t.Errorf("kill count = %d, want 1", got)
	}

	// The corpse decays and the entity leaves the world.
	f.tick(60)
	if st.ECS.Alive(mon) {
		t.Error("monster entity still alive after decay window")
	}
}

func TestTargetGoneEndsEngagement(t *testing.T) {
	f := newFixture(t, 16, 16)
	class := testMonsterClass()
	mon := f.addMonster(t, class, geom.Point{X: 64, Y: 64})
	ch := f.addCharacter(t, "alice", geom.Point{X: 80, Y: 64}, 100)
	f.tick(1)

	st := f.deps.State
	monCbt := st.Stores.Combats.MustGet(mon)
	monBeing := st.Stores.Beings.MustGet(mon)
	monCbt.Target = ch
	monCbt.Attacks.Start()
	monBeing.Action = component.ActionAttack

	// The character vanishes (disconnect path).
	st.EnqueueRemove(ch)
	st.ECS.MarkForDestruction(ch)
	f.tick(2)

	if monBeing.Action == component.ActionAttack {
		t.Error("monster still attacking a gone target")
	}
	if !monCbt.Target.IsZero() {
		t.Error("stale target handle retained")
	}
}
