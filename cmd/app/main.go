package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wichananm65/marketplace-backend/internal/config"
	"github.com/wichananm65/marketplace-backend/internal/logger"
	"github.com/wichananm65/marketplace-backend/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zl, err := logger.New(logger.Config{Level: cfg.Logger.Level, Env: cfg.Env})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: "marketplace-backend",
		Env:         cfg.Env,
	})
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	var deps *wiring
	if cfg.Storage == config.StorageMemory {
		deps = buildMemory(zl)
	} else {
		deps, err = buildPostgres(ctx, cfg, zl)
		if err != nil {
			zl.Fatal("failed to set up storage", zap.Error(err))
		}
	}
	defer deps.close(zl)

	app := newServer(cfg, zl, deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(gctx, zl, "http server listening", zap.String("addr", cfg.HTTP.Addr), zap.String("storage", cfg.Storage))
		return app.Listen(cfg.HTTP.Addr)
	})
	if deps.worker != nil {
		g.Go(func() error { return deps.worker.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(ctx, zl, "server stopped with error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, zl, "failed to shut down telemetry", zap.Error(err))
	}
	logger.Info(shutdownCtx, zl, "shutdown complete")
}
