package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samirrijal/pinpoint/internal/core/domain"
)

// defaultWorkers bounds concurrent lookups. Overpass pacing is enforced by
// the client's limiter regardless.
const defaultWorkers = 4

// Manifest lists the areas and amenity categories to keep warm.
type Manifest struct {
	Areas []AreaEntry `json:"areas"`
}

// AreaEntry is one area and the amenities resolved in it.
type AreaEntry struct {
	Name      string         `json:"name,omitempty"`
	Bounds    *domain.Bounds `json:"bounds,omitempty"`
	Amenities []string       `json:"amenities"`
}

type job struct {
	Area    domain.Area
	Amenity string
}

type summary struct {
	Resolved int64
	Failed   int64
}

type resolver interface {
	ResolveReference(ctx context.Context, area domain.Area, amenity string) (*domain.Reference, error)
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for k, a := range m.Areas {
		area := domain.Area{Name: a.Name, Bounds: a.Bounds}
		if area.IsZero() {
			return nil, fmt.Errorf("area %d: %w: name or bounds required", k+1, domain.ErrInvalidArea)
		}
	}
	return &m, nil
}

// Jobs flattens the manifest into one job per area and amenity, keeping only
// areas whose name is in only when only is non-empty.
func (m *Manifest) Jobs(only []string) []job {
	filter := map[string]bool{}
	for _, name := range only {
		if name = strings.TrimSpace(name); name != "" {
			filter[strings.ToLower(name)] = true
		}
	}

	var jobs []job
	for _, a := range m.Areas {
		if len(filter) > 0 && !filter[strings.ToLower(a.Name)] {
			continue
		}
		area := domain.Area{Name: a.Name, Bounds: a.Bounds}
		for _, amenity := range a.Amenities {
			jobs = append(jobs, job{Area: area, Amenity: strings.ToLower(strings.TrimSpace(amenity))})
		}
	}
	return jobs
}

func prefetch(ctx context.Context, r resolver, jobs []job, workers int) summary {
	var (
		wg  sync.WaitGroup
		sum summary
	)
	sem := make(chan struct{}, workers)

	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			ref, err := r.ResolveReference(ctx, j.Area, j.Amenity)
			if err != nil {
				atomic.AddInt64(&sum.Failed, 1)
				slog.Error("prefetch failed", "area", j.Area.Key(), "amenity", j.Amenity, "error", err)
				return
			}
			atomic.AddInt64(&sum.Resolved, 1)
			slog.Info("reference cached", "area", ref.Area, "amenity", ref.Amenity, "candidates", ref.Candidates)
		}(j)
	}

	wg.Wait()
	return sum
}
