package system

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/handler"
	"github.com/emberfall/server/internal/scripting"
	"go.uber.org/zap"
)

const abilityScript = `
uses = 0
recharges = 0
server.register("ability.use", function(user, target, id)
    uses = uses + 1
    return 0
end)
server.register("ability.recharged", function(user, id)
    recharges = recharges + 1
    return 0
end)
`

func abilityFixture(t *testing.T) (*fixture, *data.AbilityInfo) {
	f := newFixture(t, 16, 16)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "abilities.lua"), []byte(abilityScript), 0o644); err != nil {
		t.Fatal(err)
	}
	engine, err := scripting.NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	t.Cleanup(engine.Close)
	f.deps.Engine = engine

	info := &data.AbilityInfo{
		ID:                1,
		Name:              "heal",
		Rechargeable:      true,
		RechargeAttribute: attribute.AbilityRecharge,
		CooldownAttribute: attribute.AbilityCooldown,
		NeededPoints:      30,
		Autoconsume:       true,
		Target:            data.TargetBeing,
	}
	return f, info
}

func TestAbilityRechargeAndEdgeTriggeredCallback(t *testing.T) {
	f, info := abilityFixture(t)
	ch := f.addCharacter(t, "alice", geom.Point{X: 64, Y: 64}, 100)
	f.tick(1)

	being := f.deps.State.Stores.Beings.MustGet(ch)
	being.Attributes.SetBase(attribute.AbilityRecharge, 10)

	ab := f.deps.State.Stores.Abilities.MustGet(ch)
	ab.Give(info)

	f.tick(3) // 10/tick fills 30 needed points
	val, _ := ab.Get(1)
	if val.CurrentPoints != info.NeededPoints {
		t.Fatalf("points = %d after recharge, want %d", val.CurrentPoints, info.NeededPoints)
	}

	// Extra ticks must not refire the recharged callback.
	f.tick(5)
	if got := luaGlobalInt(t, f, "recharges"); got != 1 {
		t.Errorf("recharged fired %d times, want 1", got)
	}
}

func TestAbilityUseChecksAndGlobalCooldown(t *testing.T) {
	f, info := abilityFixture(t)
	ch := f.addCharacter(t, "alice", geom.Point{X: 64, Y: 64}, 100)
	other := f.addCharacter(t, "bob", geom.Point{X: 96, Y: 64}, 100)
	f.tick(1)

	being := f.deps.State.Stores.Beings.MustGet(ch)
	being.Attributes.SetBase(attribute.AbilityRecharge, 10)
	being.Attributes.SetBase(attribute.AbilityCooldown, 4)

	ab := f.deps.State.Stores.Abilities.MustGet(ch)
	ab.Give(info)

	// Not enough points yet: the use is rejected.
	if handler.UseAbilityOnBeing(f.deps, ch, 1, other) {
		t.Fatal("ability usable without points")
	}

	f.tick(3)
	if !handler.UseAbilityOnBeing(f.deps, ch, 1, other) {
		t.Fatal("ability not usable with full points")
	}
	val, _ := ab.Get(1)
	if val.CurrentPoints != 0 {
		t.Errorf("points = %d after autoconsume, want 0", val.CurrentPoints)
	}
	if ab.GlobalCooldown != 4 {
		t.Errorf("global cooldown = %d, want 4", ab.GlobalCooldown)
	}

	// Everything is blocked while the global cooldown runs.
	if handler.UseAbilityOnBeing(f.deps, ch, 1, other) {
		t.Error("ability usable during global cooldown")
	}

	// Wrong target kind is rejected even when otherwise ready.
	info2 := *info
	info2.ID = 2
	info2.Target = data.TargetPoint
	ab.Give(&info2)
	if handler.UseAbilityOnBeing(f.deps, ch, 2, other) {
		t.Error("being-targeted use of a point ability succeeded")
	}

	if got := luaGlobalInt(t, f, "uses"); got != 1 {
		t.Errorf("use callback fired %d times, want 1", got)
	}
}

func TestDeadTargetRejected(t *testing.T) {
	f, info := abilityFixture(t)
	ch := f.addCharacter(t, "alice", geom.Point{X: 64, Y: 64}, 100)
	other := f.addCharacter(t, "bob", geom.Point{X: 96, Y: 64}, 100)
	f.tick(1)

	being := f.deps.State.Stores.Beings.MustGet(ch)
	being.Attributes.SetBase(attribute.AbilityRecharge, 100)
	ab := f.deps.State.Stores.Abilities.MustGet(ch)
	ab.Give(info)
	f.tick(1)

	f.deps.State.Stores.Beings.MustGet(other).Action = component.ActionDead
	if handler.UseAbilityOnBeing(f.deps, ch, 1, other) {
		t.Error("ability used on a dead target")
	}
}

// luaGlobalInt reads an integer global out of the test script's VM.
func luaGlobalInt(t *testing.T, f *fixture, name string) int {
	t.Helper()
	v, err := f.deps.Engine.GlobalInt(name)
	if err != nil {
		t.Fatalf("GlobalInt(%s): %v", name, err)
	}
	return v
}
