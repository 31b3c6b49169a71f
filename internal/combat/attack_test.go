package combat

import "testing"

func TestAttackLifecycle(t *testing.T) {
	info := &AttackInfo{WarmupTime: 2, CooldownTime: 5, ReuseTime: 3, Priority: 1}
	var attacks Attacks
	a := attacks.Add(info)
	attacks.Start()

	if !a.WarmingUp() {
		t.Fatal("attack not warming up after Start")
	}

	// Warmup ticks: no trigger yet.
	if got := attacks.Tick(); got != nil {
		t.Fatalf("tick 1: unexpected trigger")
	}
	// Trigger fires exactly once, when the timer hits the cooldown mark.
	got := attacks.Tick()
	if got != a {
		t.Fatalf("tick 2: want trigger, got %v", got)
	}
	if a.Usable() {
		t.Error("attack usable immediately after trigger")
	}

	// Cooldown plus reuse: no second trigger until both have elapsed.
	for i := 0; i < info.CooldownTime+info.ReuseTime; i++ {
		if tr := attacks.Tick(); tr != nil {
			t.Fatalf("tick %d: retrigger during cooldown/reuse", i+3)
		}
	}
}

func TestTriggerPriority(t *testing.T) {
	low := &AttackInfo{WarmupTime: 3, CooldownTime: 2, Priority: 1}
	high := &AttackInfo{WarmupTime: 3, CooldownTime: 2, Priority: 9}
	var attacks Attacks
	attacks.Add(low)
	hi := attacks.Add(high)
	attacks.Start()

	var triggered *Attack
	for i := 0; i < 3; i++ {
		if tr := attacks.Tick(); tr != nil {
			triggered = tr
			break
		}
	}
	if triggered != hi {
		t.Fatalf("trigger = %+v, want the high-priority attack", triggered)
	}
}

func TestStopSoftResetsWarmupOnly(t *testing.T) {
	info := &AttackInfo{WarmupTime: 4, CooldownTime: 3}
	var attacks Attacks
	a := attacks.Add(info)
	attacks.Start()
	attacks.Tick() // one warmup tick

	attacks.Stop()
	if a.Timer() != 0 {
		t.Errorf("Timer() = %d after Stop during warmup, want 0", a.Timer())
	}

	// Past the trigger the attack is committed; Stop must not clear it.
	attacks.Start()
	for attacks.Tick() == nil {
	}
	attacks.Stop()
	if a.Timer() == 0 {
		t.Error("Stop cleared a committed (cooling down) attack")
	}
}
