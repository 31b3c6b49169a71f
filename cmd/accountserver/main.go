package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emberfall/server/internal/accountsrv"
	"github.com/emberfall/server/internal/config"
	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/persist"
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

	// A database failure at startup is fatal; later failures are not.
	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	db, err := persist.NewDB(dbCtx, cfg.Database, log)
	cancel()
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	migCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = persist.RunMigrations(migCtx, db.Pool)
	cancel()
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	svc := accountsrv.NewService(cfg, db, log)

	// Crash recovery: stale online flags and expired bans.
	recCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := svc.Characters.ClearOnlineFlags(recCtx); err != nil {
		cancel()
		return fmt.Errorf("clear online flags: %w", err)
	}
	if n, err := svc.Accounts.ClearExpiredBans(recCtx); err != nil {
		cancel()
		return fmt.Errorf("clear expired bans: %w", err)
	} else if n > 0 {
		log.Info("expired bans lifted", zap.Int("count", n))
	}
	cancel()

	bind := net.JoinHostPort(cfg.Account.Host, fmt.Sprint(cfg.Account.Port))
	server, err := gonet.NewServer(bind,
		cfg.Network.InQueueSize, cfg.Network.OutQueueSize, cfg.Network.MaxClients, log)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.Info("account service ready", zap.String("addr", server.Addr().String()))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx, server) })
	return g.Wait()
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
