package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/pinpoint/internal/adapters/http"
	"github.com/samirrijal/pinpoint/internal/adapters/memcache"
	natsadapter "github.com/samirrijal/pinpoint/internal/adapters/nats"
	"github.com/samirrijal/pinpoint/internal/adapters/overpass"
	"github.com/samirrijal/pinpoint/internal/adapters/postgres"
	"github.com/samirrijal/pinpoint/internal/adapters/valkey"
	"github.com/samirrijal/pinpoint/internal/core/ports"
	"github.com/samirrijal/pinpoint/internal/core/usecases"
	"github.com/samirrijal/pinpoint/internal/pkg/config"
	"github.com/samirrijal/pinpoint/internal/pkg/logging"
	"github.com/samirrijal/pinpoint/internal/pkg/telemetry"
)

// localCacheTTL bounds how stale the in-process copy of a reference can get
// relative to valkey.
const localCacheTTL = 10 * 60

func main() {
	cfg, err := config.Load("pinpoint-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(logging.LevelFromEnv(), "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), postgres.WithMaxConns(cfg.Database.MaxConns))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	// Reference cache: in-process LRU, backed by valkey when reachable.
	local, err := memcache.New(cfg.Cache.MemorySize)
	if err != nil {
		log.Fatalf("memory cache: %v", err)
	}
	var cache ports.CacheService = local
	var cachePinger http.Pinger
	vc, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, using in-process cache only", "error", err)
	} else {
		defer vc.Close()
		cache = memcache.NewTiered(local, vc, localCacheTTL)
		cachePinger = vc
	}

	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, events and async requests disabled", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	source := overpass.New(overpass.Config{
		URL:          cfg.Overpass.URL,
		UserAgent:    cfg.Overpass.UserAgent,
		RateInterval: cfg.Overpass.RateInterval,
		Burst:        cfg.Overpass.Burst,
		Timeout:      cfg.Overpass.Timeout,
	})

	locator := usecases.NewLocateService(postgres.NewLocationRepo(db), source, cache, events).
		WithCatalog(overpass.NewCatalog()).
		WithReferenceTTL(cfg.Cache.ReferenceTTL)

	deps := &http.Dependencies{
		Locator: locator,
		NATS:    natsConn,
		DB:      db,
		Cache:   cachePinger,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    64 * 1024,
		AppName:      "Pinpoint API",
	})
	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
