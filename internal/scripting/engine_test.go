package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, script string) *Engine {
	t.Helper()
	dir := t.TempDir()
	if script != "" {
		if err := os.WriteFile(filepath.Join(dir, "test.lua"), []byte(script), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestSlotRegistrationAndCall(t *testing.T) {
	e := newTestEngine(t, `
server.register("character.login", function(ch)
    return ch + 1
end)
`)
	ref := e.Slot(SlotCharacterLogin)
	if !ref.Valid() {
		t.Fatal("slot not registered")
	}
	got, err := e.Call(ref, Entity(41))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != 42 {
		t.Errorf("Call returned %d, want 42", got)
	}
}

func TestCallSlotUnboundIsNoop(t *testing.T) {
	e := newTestEngine(t, "")
	if _, err := e.CallSlot("npc.update", Entity(1)); err != nil {
		t.Errorf("unbound slot call errored: %v", err)
	}
}

func TestScriptErrorSurfaces(t *testing.T) {
	e := newTestEngine(t, `
server.register("npc.talk", function()
    error("boom")
end)
`)
	if _, err := e.Call(e.Slot(SlotNPCTalk)); err == nil {
		t.Error("script error did not surface")
	}
}

func TestThreadYieldAndResume(t *testing.T) {
	e := newTestEngine(t, `
server.register("npc.talk", function(npc, player)
    local answer = coroutine.yield()
    if answer == 3 then
        return 10
    end
    return 0
end)
`)
	thread, err := e.StartThread(e.Slot(SlotNPCTalk), 99, Entity(1), Entity(2))
	if err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	if thread.Status() != ThreadSuspended {
		t.Fatalf("Status = %v after yield, want suspended", thread.Status())
	}
	if _, ok := e.Thread(thread.ID); !ok {
		t.Fatal("suspended thread not tracked")
	}

	if err := thread.Resume(Int(3)); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if thread.Status() != ThreadDone {
		t.Errorf("Status = %v after resume, want done", thread.Status())
	}
	if _, ok := e.Thread(thread.ID); ok {
		t.Error("finished thread still tracked")
	}
}

func TestDroppedThreadNotResumable(t *testing.T) {
	e := newTestEngine(t, `
server.register("npc.talk", function()
    coroutine.yield()
    return 0
end)
`)
	thread, err := e.StartThread(e.Slot(SlotNPCTalk), 1)
	if err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	e.DropThread(thread.ID)
	if _, ok := e.Thread(thread.ID); ok {
		t.Error("dropped thread still tracked")
	}
}

func TestItemsArgPushedAsTable(t *testing.T) {
	e := newTestEngine(t, `
server.register("post_reply", function(items)
    local total = 0
    for _, it in ipairs(items) do
        total = total + it.amount
    end
    return total
end)
`)
	got, err := e.Call(e.Slot(SlotPostReply), Items{{ItemID: 1, Amount: 3}, {ItemID: 2, Amount: 4}})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != 7 {
		t.Errorf("Call returned %d, want 7", got)
	}
}
