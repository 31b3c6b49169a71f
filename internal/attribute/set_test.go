package attribute

import "testing"

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager([]*Info{
		{ID: Strength, Layers: []LayerSpec{{Stack: Stackable, Apply: Additive}}, Dependents: []int{Defense}},
		{ID: Defense, Layers: []LayerSpec{
			{Stack: Stackable, Apply: Additive},
			{Stack: Stackable, Apply: Multiplicative},
		}},
		{ID: MoveSpeed, Layers: []LayerSpec{
			{Stack: NonStackable},
			{Stack: NonStackableBonus},
		}},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestSetBase(t *testing.T) {
	s := NewSet(testManager(t))
	changed := s.SetBase(Strength, 10)
	if s.Modified(Strength) != 10 {
		t.Errorf("Modified(Strength) = %v, want 10", s.Modified(Strength))
	}
	if len(changed) != 1 || changed[0] != Strength {
		t.Errorf("changed = %v, want [Strength]", changed)
	}
}

func TestStackableAdditiveAndMultiplicative(t *testing.T) {
	s := NewSet(testManager(t))
	s.SetBase(Defense, 100)
	s.AddModifier(Defense, Modifier{Layer: 0, Value: 20, SourceID: 1})
	s.AddModifier(Defense, Modifier{Layer: 0, Value: 30, SourceID: 2})
	s.AddModifier(Defense, Modifier{Layer: 1, Value: 2, SourceID: 3})

	// (100 + 20 + 30) * 2
	if got := s.Modified(Defense); got != 300 {
		t.Errorf("Modified(Defense) = %v, want 300", got)
	}
}

func TestNonStackableLayers(t *testing.T) {
	s := NewSet(testManager(t))
	s.SetBase(MoveSpeed, 6)

	// NON_STACKABLE replaces with the max of the layer's values.
	s.AddModifier(MoveSpeed, Modifier{Layer: 0, Value: 8, SourceID: 1})
	s.AddModifier(MoveSpeed, Modifier{Layer: 0, Value: 7, SourceID: 2})
	if got := s.Modified(MoveSpeed); got != 8 {
		t.Errorf("after NON_STACKABLE: Modified = %v, want 8", got)
	}

	// NON_STACKABLE_BONUS adds the max of the layer's values.
	s.AddModifier(MoveSpeed, Modifier{Layer: 1, Value: 2, SourceID: 3})
	s.AddModifier(MoveSpeed, Modifier{Layer: 1, Value: 1, SourceID: 4})
	if got := s.Modified(MoveSpeed); got != 10 {
		t.Errorf("after NON_STACKABLE_BONUS: Modified = %v, want 10", got)
	}
}

func TestNonStackableBonusAllNegative(t *testing.T) {
	s := NewSet(testManager(t))
	s.SetBase(MoveSpeed, 6)

	// A bonus layer holding only debuffs still adds its true max, not 0.
	s.AddModifier(MoveSpeed, Modifier{Layer: 1, Value: -3, SourceID: 1})
	s.AddModifier(MoveSpeed, Modifier{Layer: 1, Value: -2, SourceID: 2})
	if got := s.Modified(MoveSpeed); got != 4 {
		t.Errorf("Modified = %v with negative bonuses, want 4", got)
	}

	// The stronger debuff remains once the weaker one, which the max picked,
	// is removed.
	s.RemoveBySource(MoveSpeed, 2)
	if got := s.Modified(MoveSpeed); got != 3 {
		t.Errorf("Modified = %v after removal, want 3", got)
	}

	// Empty layer contributes nothing.
	s.RemoveBySource(MoveSpeed, 1)
	if got := s.Modified(MoveSpeed); got != 6 {
		t.Errorf("Modified = %v with empty layer, want 6", got)
	}
}

func TestRemoveBySourceRestoresBase(t *testing.T) {
	s := NewSet(testManager(t))
	s.SetBase(Defense, 50)
	s.AddModifier(Defense, Modifier{Layer: 0, Value: 25, SourceID: 7})
	s.AddModifier(Defense, Modifier{Layer: 1, Value: 3, SourceID: 7})
	s.AddModifier(Defense, Modifier{Layer: 0, Value: 5, SourceID: 8})
	s.RemoveBySource(Defense, 7)
	s.RemoveBySource(Defense, 8)

	// Empty modifier set: modified must equal recompute(base, nothing).
	if got := s.Modified(Defense); got != 50 {
		t.Errorf("Modified(Defense) = %v, want 50", got)
	}
}

func TestDurationExpiry(t *testing.T) {
	s := NewSet(testManager(t))
	s.SetBase(Defense, 10)
	s.AddModifier(Defense, Modifier{Layer: 0, Value: 5, SourceID: 1, Duration: 3})
	if !s.HasExpiring() {
		t.Fatal("HasExpiring() = false after adding timed modifier")
	}

	for i := 0; i < 2; i++ {
		if changed := s.TickDurations(); len(changed) != 0 {
			t.Errorf("tick %d: changed = %v, want none", i, changed)
		}
	}
	changed := s.TickDurations()
	if len(changed) != 1 || changed[0] != Defense {
		t.Errorf("expiry tick: changed = %v, want [Defense]", changed)
	}
	if got := s.Modified(Defense); got != 10 {
		t.Errorf("Modified(Defense) = %v, want 10 after expiry", got)
	}
	if s.HasExpiring() {
		t.Error("HasExpiring() = true after last timed modifier expired")
	}
}

func TestDependentCascadeEmitsOnlyRealChanges(t *testing.T) {
	s := NewSet(testManager(t))
	s.SetBase(Strength, 10)
	s.SetBase(Defense, 20)

	// Defense depends on Strength but its own stack does not read it, so a
	// strength change recomputes defense without changing it.
	changed := s.SetBase(Strength, 12)
	for _, id := range changed {
		if id == Defense {
			t.Error("Defense reported changed without a value change")
		}
	}
}

func TestCycleRejected(t *testing.T) {
	_, err := NewManager([]*Info{
		{ID: 1, Dependents: []int{2}},
		{ID: 2, Dependents: []int{1}},
	})
	if err == nil {
		t.Fatal("NewManager accepted a dependency cycle")
	}
}
