package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"
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
	"github.com/emberfall/server/internal/system"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "config/server.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Data tables.
	attrs, err := attribute.LoadManager(cfg.Game.AttributeFile)
	if err != nil {
		return fmt.Errorf("load attributes: %w", err)
	}
	monsters, err := data.LoadMonsterTable(cfg.Game.MonsterFile)
	if err != nil {
		return fmt.Errorf("load monsters: %w", err)
	}
	items, err := data.LoadItemTable(cfg.Game.ItemFile)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	abilities, err := data.LoadAbilityTable(cfg.Game.AbilityFile)
	if err != nil {
		return fmt.Errorf("load abilities: %w", err)
	}
	objects, err := data.LoadWorldObjects(cfg.Game.ObjectsFile)
	if err != nil {
		return fmt.Errorf("load world objects: %w", err)
	}
	log.Info("data loaded",
		zap.Int("monsters", monsters.Count()),
		zap.Int("items", items.Count()),
		zap.Int("abilities", abilities.Count()),
	)

	// World state and maps.
	bus := event.NewBus()
	state := world.NewState(bus, log)
	var mapIDs []int
	for _, path := range cfg.Game.MapFiles {
		m, err := gamemap.Load(path)
		if err != nil {
			return fmt.Errorf("load map: %w", err)
		}
		comp := world.NewMapComposite(m)
		if m.Property("pvp") == "free" {
			comp.PvP = world.PvPFree
		}
		state.AddMap(comp)
		mapIDs = append(mapIDs, m.ID())
		log.Info("map hosted", zap.Int("id", m.ID()), zap.String("name", m.Property("name")))
	}
	if len(mapIDs) == 0 {
		return fmt.Errorf("no maps configured")
	}

	engine, err := scripting.NewEngine(cfg.Game.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("script engine: %w", err)
	}
	defer engine.Close()

	// Inter-server link.
	accountAddr := net.JoinHostPort(cfg.Account.Host, fmt.Sprint(cfg.Account.Port))
	link, err := gamesrv.Dial(accountAddr, cfg.Game.Host, cfg.Game.Port,
		cfg.Account.InterPassword, mapIDs, log)
	if err != nil {
		return fmt.Errorf("account link: %w", err)
	}
	defer link.Close()

	deps := &handler.Deps{
		Cfg:        cfg,
		Log:        log,
		State:      state,
		Bus:        bus,
		Attributes: attrs,
		Monsters:   monsters,
		Items:      items,
		AbilityTab: abilities,
		Engine:     engine,
		Account:    link,
		Resolver:   combat.NewResolver(rand.New(rand.NewSource(time.Now().UnixNano()))),
		Rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		Sessions:   make(map[uint64]*gonet.Session),
		Players:    make(map[uint64]ecs.EntityID),
	}

	handler.InstallScriptAPI(deps)
	seedWorldObjects(deps, monsters, objects, log)

	// Scripts watching entity lifecycles get their notification slot.
	event.Subscribe(bus, func(ev event.EntityRemoved) {
		deps.CallScriptSlot(scripting.SlotRemoveNotification, ev.Entity)
	})

	// Client listener.
	bind := net.JoinHostPort(cfg.Game.Host, fmt.Sprint(cfg.Game.Port))
	server, err := gonet.NewServer(bind,
		cfg.Network.InQueueSize, cfg.Network.OutQueueSize, cfg.Network.MaxClients, log)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	registry := handler.NewRegistry(log)
	handler.RegisterAll(registry)
	deps.Registry = registry

	// The tick pipeline, in phase order.
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(deps, server, registry))
	runner.Register(system.NewQueueSystem(deps))
	runner.Register(system.NewMonsterAISystem(deps))
	runner.Register(system.NewMovementSystem(deps))
	runner.Register(system.NewCombatSystem(deps))
	runner.Register(system.NewAbilitySystem(deps))
	runner.Register(system.NewNPCSystem(deps))
	runner.Register(system.NewAreaSystem(deps))
	runner.Register(system.NewZoneSystem(deps))
	runner.Register(system.NewUpkeepSystem(deps))
	runner.Register(system.NewAwarenessSystem(deps))
	persistSys := system.NewPersistSystem(deps)
	runner.Register(persistSys)
	runner.Register(system.NewCleanupSystem(deps))

	log.Info("game service ready",
		zap.String("addr", server.Addr().String()),
		zap.Duration("tick", cfg.Game.TickInterval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		server.AcceptLoop()
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.Game.TickInterval.Duration)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runner.Tick()
			case <-ctx.Done():
				persistSys.FlushAll()
				server.Shutdown()
				log.Info("game service stopped")
				return ctx.Err()
			}
		}
	})
	return g.Wait()
}

// seedWorldObjects places the configured spawn areas, trigger areas and
// NPCs into the deferred insert queue; they join the world on tick one.
func seedWorldObjects(deps *handler.Deps, monsters *data.MonsterTable, objects *data.WorldObjects, log *zap.Logger) {
	st := deps.State

	for _, sp := range objects.Spawns {
		class := monsters.Get(sp.MonsterID)
		if class == nil {
			log.Warn("spawn area references unknown monster", zap.Int("monster", sp.MonsterID))
			continue
		}
		e := st.ECS.CreateEntity(ecs.TypeOther)
		st.Stores.Actors.Set(e, &component.Actor{
			Pos:       geom.Point{X: sp.X, Y: sp.Y},
			BlockType: gamemap.BlockNone,
		})
		st.Stores.SpawnAreas.Set(e, &component.SpawnArea{
			Specy:     class,
			Zone:      geom.Rectangle{X: sp.X, Y: sp.Y, W: sp.W, H: sp.H},
			MaxBeings: sp.MaxBeings,
			SpawnRate: sp.SpawnRate,
		})
		st.EnqueueInsert(e, sp.MapID)
	}

	for _, tr := range objects.Triggers {
		e := st.ECS.CreateEntity(ecs.TypeOther)
		st.Stores.Actors.Set(e, &component.Actor{
			Pos:       geom.Point{X: tr.X, Y: tr.Y},
			BlockType: gamemap.BlockNone,
		})
		area := &component.TriggerArea{
			Zone: geom.Rectangle{X: tr.X, Y: tr.Y, W: tr.W, H: tr.H},
			Once: tr.Once,
		}
		if tr.Kind == "warp" {
			area.Kind = component.TriggerWarp
			area.TargetMapID = tr.TargetMap
			area.TargetPoint = geom.Point{X: tr.TargetX, Y: tr.TargetY}
		} else {
			area.Kind = component.TriggerScript
			area.ScriptArg = tr.ScriptArg
		}
		st.Stores.TriggerAreas.Set(e, area)
		st.EnqueueInsert(e, tr.MapID)
	}

	for _, n := range objects.NPCs {
		e := st.ECS.CreateEntity(ecs.TypeNPC)
		st.Stores.Actors.Set(e, &component.Actor{
			Pos:       geom.Point{X: n.X, Y: n.Y},
			Size:      16,
			Walkmask:  gamemap.BlockmaskWall,
			BlockType: gamemap.BlockCharacter,
		})
		attrSet := attribute.NewSet(deps.Attributes)
		st.Stores.Beings.Set(e, component.NewBeing(n.Name, attrSet))
		st.Stores.NPCs.Set(e, &component.NPC{ScriptID: n.ScriptID, Enabled: true})
		st.EnqueueInsert(e, n.MapID)
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
