package system

import (
	"math/rand"
	"testing"
	"time"

	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/combat"
	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/config"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/core/event"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/gamemap"
	"github.com/emberfall/server/internal/gamesrv"
	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/handler"
	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/scripting"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
)

// fixture owns a minimal single-map game service without networking.
type fixture struct {
	deps   *handler.Deps
	runner *coresys.Runner
}

func newFixture(t *testing.T, widthTiles, heightTiles int) *fixture {
	t.Helper()
	log := zap.NewNop()

	mgr, err := attribute.NewManager([]*attribute.Info{
		{ID: attribute.HP, Layers: []attribute.LayerSpec{{Stack: attribute.Stackable}}},
		{ID: attribute.MaxHP, Layers: []attribute.LayerSpec{{Stack: attribute.Stackable}}, Dependents: []int{attribute.HP}},
		{ID: attribute.HPRegen, Layers: []attribute.LayerSpec{{Stack: attribute.Stackable}}},
		{ID: attribute.Defense, Layers: []attribute.LayerSpec{{Stack: attribute.Stackable}}},
		{ID: attribute.Dodge, Layers: []attribute.LayerSpec{{Stack: attribute.Stackable}}},
		{ID: attribute.MoveSpeed, Layers: []attribute.LayerSpec{{Stack: attribute.NonStackable}}},
	})
	if err != nil {
		t.Fatalf("attribute manager: %v", err)
	}

	engine, err := scripting.NewEngine(t.TempDir(), log)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	t.Cleanup(engine.Close)

	bus := event.NewBus()
	state := world.NewState(bus, log)
	m := gamemap.New(1, widthTiles, heightTiles, 32, 32)
	m.SetProperty("name", "test.map")
	state.AddMap(world.NewMapComposite(m))

	cfg := &config.Config{}
	cfg.Game.DefaultMap = 1
	cfg.Game.DefaultSpawnX = 64
	cfg.Game.DefaultSpawnY = 64
	cfg.Game.VisualRange = 320
	cfg.Account.TokenTTL = config.Duration{Duration: 60 * time.Second}

	deps := &handler.Deps{
		Cfg:        cfg,
		Log:        log,
		State:      state,
		Bus:        bus,
		Attributes: mgr,
		Engine:     engine,
		Account:    gamesrv.NewLoopback(log),
		Resolver:   combat.NewResolver(rand.New(rand.NewSource(42))),
		Rng:        rand.New(rand.NewSource(42)),
		Sessions:   make(map[uint64]*gonet.Session),
		Players:    make(map[uint64]ecs.EntityID),
	}

	runner := coresys.NewRunner()
	runner.Register(NewQueueSystem(deps))
	runner.Register(NewMonsterAISystem(deps))
	runner.Register(NewMovementSystem(deps))
	runner.Register(NewCombatSystem(deps))
	runner.Register(NewAbilitySystem(deps))
	runner.Register(NewAreaSystem(deps))
	runner.Register(NewZoneSystem(deps))
	runner.Register(NewUpkeepSystem(deps))
	runner.Register(NewAwarenessSystem(deps))
	runner.Register(NewCleanupSystem(deps))

	return &fixture{deps: deps, runner: runner}
}

func (f *fixture) tick(n int) {
	for i := 0; i < n; i++ {
		f.runner.Tick()
	}
}

// addCharacter places a live character without the network handshake.
func (f *fixture) addCharacter(t *testing.T, name string, pos geom.Point, hp float64) ecs.EntityID {
	t.Helper()
	st := f.deps.State
	e := st.ECS.CreateEntity(ecs.TypeCharacter)

	st.Stores.Actors.Set(e, &component.Actor{
		Pos:       pos,
		Size:      16,
		Walkmask:  gamemap.BlockmaskWall,
		BlockType: gamemap.BlockCharacter,
	})
	attrs := attribute.NewSet(f.deps.Attributes)
	attrs.SetBase(attribute.MaxHP, hp)
	attrs.SetBase(attribute.HP, hp)
	attrs.SetBase(attribute.MoveSpeed, 32)
	st.Stores.Beings.Set(e, component.NewBeing(name, attrs))
	st.Stores.Characters.Set(e, component.NewCharacterData(int(e.Index())+1, 1))
	st.Stores.Combats.Set(e, &component.Combat{})
	st.Stores.Abilities.Set(e, component.NewAbilities())
	st.EnqueueInsert(e, 1)
	return e
}

func (f *fixture) addMonster(t *testing.T, class *data.MonsterClass, pos geom.Point) ecs.EntityID {
	t.Helper()
	st := f.deps.State
	e := st.ECS.CreateEntity(ecs.TypeMonster)
	st.Stores.Actors.Set(e, &component.Actor{
		Pos:       pos,
		Size:      class.Size,
		Walkmask:  gamemap.BlockmaskWall,
		BlockType: gamemap.BlockMonster,
	})
	attrs := attribute.NewSet(f.deps.Attributes)
	for id, v := range class.Attributes {
		attrs.SetBase(id, v)
	}
	attrs.SetBase(attribute.HP, attrs.Modified(attribute.MaxHP))
	st.Stores.Beings.Set(e, component.NewBeing(class.Name, attrs))
	st.Stores.Monsters.Set(e, component.NewMonster(class))
	cbt := &component.Combat{}
	for _, info := range class.Attacks {
		cbt.Attacks.Add(info)
	}
	st.Stores.Combats.Set(e, cbt)
	st.EnqueueInsert(e, 1)
	return e
}

func testMonsterClass() *data.MonsterClass {
	return &data.MonsterClass{
		ID:   1002,
		Name: "Maggot",
		Exp:  10,
		Size: 16,
		Attributes: map[int]float64{
			attribute.MaxHP: 40,
		},
		Attacks: []*combat.AttackInfo{{
			Damage: combat.Damage{
				ID: 1, Skill: 1, Base: 10, CTH: 100,
				Type: combat.DamageDirect, Range: 32,
			},
			WarmupTime:   2,
			CooldownTime: 5,
			ReuseTime:    3,
			Priority:     1,
		}},
	}
}
