package ecs

import "testing"

func TestStaleHandleDoesNotResolve(t *testing.T) {
	p := NewEntityPool()
	e := p.Create(TypeMonster)
	if !p.Alive(e) {
		t.Fatal("fresh entity not alive")
	}
	p.Destroy(e)
	if p.Alive(e) {
		t.Fatal("destroyed entity still alive")
	}

	// The freed index is reused with a bumped generation; the old handle
	// must stay dead.
	e2 := p.Create(TypeCharacter)
	if e2.Index() != e.Index() {
		t.Fatalf("index %d not reused, got %d", e.Index(), e2.Index())
	}
	if p.Alive(e) {
		t.Error("stale handle resolves after index reuse")
	}
	if p.Type(e) != TypeOther {
		t.Errorf("Type(stale) = %v, want TypeOther", p.Type(e))
	}
	if p.Type(e2) != TypeCharacter {
		t.Errorf("Type(reused) = %v, want TypeCharacter", p.Type(e2))
	}
}

func TestDoubleDestroyIgnored(t *testing.T) {
	p := NewEntityPool()
	e := p.Create(TypeItem)
	p.Destroy(e)
	p.Destroy(e) // stale: must not corrupt the free list

	a := p.Create(TypeItem)
	b := p.Create(TypeItem)
	if a == b {
		t.Error("free list handed the same index out twice")
	}
}

func TestWorldDeferredDestroy(t *testing.T) {
	w := NewWorld()
	store := NewPtrComponentStore[int]()
	w.Registry().Register(store)

	e := w.CreateEntity(TypeNPC)
	v := 7
	store.Set(e, &v)

	w.MarkForDestruction(e)
	if !w.Alive(e) {
		t.Fatal("entity dead before the destroy queue flushed")
	}
	w.FlushDestroyQueue()
	if w.Alive(e) {
		t.Error("entity alive after flush")
	}
	if store.Has(e) {
		t.Error("component survived entity destruction")
	}
}
