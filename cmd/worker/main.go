package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

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
	"github.com/samirrijal/pinpoint/internal/workflows"
)

func main() {
	cfg, err := config.Load("pinpoint-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(logging.LevelFromEnv(), "json")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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

	local, err := memcache.New(cfg.Cache.MemorySize)
	if err != nil {
		log.Fatalf("memory cache: %v", err)
	}
	var cache ports.CacheService = local
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, using in-process cache only", "error", err)
	} else {
		defer vc.Close()
		cache = memcache.NewTiered(local, vc, 10*60)
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	source := overpass.New(overpass.Config{
		URL:          cfg.Overpass.URL,
		UserAgent:    cfg.Overpass.UserAgent,
		RateInterval: cfg.Overpass.RateInterval,
		Burst:        cfg.Overpass.Burst,
		Timeout:      cfg.Overpass.Timeout,
	})
	locator := usecases.NewLocateService(postgres.NewLocationRepo(db), source, cache, pub).
		WithCatalog(overpass.NewCatalog()).
		WithReferenceTTL(cfg.Cache.ReferenceTTL)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	// Queued amenity requests become workflow executions.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	starter := workflows.NewStarter(c, cfg.Temporal.TaskQueue)
	if err := sub.SubscribeAmenityRequests(ctx, starter.Start); err != nil {
		log.Fatalf("subscribe amenity requests: %v", err)
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.AmenityLocateWorkflow)
	w.RegisterActivity(&workflows.LocateActivities{Locator: locator})

	slog.Info("locate worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(workerStop(ctx)); err != nil {
		log.Fatalf("worker: %v", err)
	}
	slog.Info("locate worker stopped")
}

// workerStop adapts ctx to the channel worker.Run waits on.
func workerStop(ctx context.Context) <-chan interface{} {
	ch := make(chan interface{})
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}
