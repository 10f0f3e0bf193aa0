// Command prefetch resolves the amenity references listed in a manifest and
// stores them in the shared reference cache, so that later locate requests
// for those areas do not wait on Overpass.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/samirrijal/pinpoint/internal/adapters/overpass"
	"github.com/samirrijal/pinpoint/internal/adapters/valkey"
	"github.com/samirrijal/pinpoint/internal/core/usecases"
	"github.com/samirrijal/pinpoint/internal/pkg/config"
	"github.com/samirrijal/pinpoint/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load("pinpoint-prefetch")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(logging.LevelFromEnv(), "text")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	manifestPath := "references.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}
	m, err := loadManifest(manifestPath)
	if err != nil {
		log.Fatalf("manifest: %v", err)
	}

	// Optional second argument: comma separated area names to prefetch.
	var only []string
	if len(os.Args) > 2 {
		only = strings.Split(os.Args[2], ",")
	}

	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	source := overpass.New(overpass.Config{
		URL:          cfg.Overpass.URL,
		UserAgent:    cfg.Overpass.UserAgent,
		RateInterval: cfg.Overpass.RateInterval,
		Burst:        cfg.Overpass.Burst,
		Timeout:      cfg.Overpass.Timeout,
	})
	locator := usecases.NewLocateService(nil, source, cache, nil).
		WithCatalog(overpass.NewCatalog()).
		WithReferenceTTL(cfg.Cache.ReferenceTTL)

	jobs := m.Jobs(only)
	slog.Info("prefetching references", "jobs", len(jobs), "manifest", manifestPath)

	sum := prefetch(ctx, locator, jobs, defaultWorkers)
	slog.Info("prefetch complete", "resolved", sum.Resolved, "failed", sum.Failed)
	if sum.Failed > 0 {
		os.Exit(1)
	}
}
