// Package memcache is an in-process LRU implementation of ports.CacheService.
// It backs the CLI and sits in front of valkey in the services.
package memcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/samirrijal/pinpoint/internal/core/ports"
)

// ErrMiss is returned by Get for absent or expired keys.
var ErrMiss = errors.New("memcache: miss")

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is a size-bounded LRU with per-entry expiry. It is safe for
// concurrent use.
type Cache struct {
	lru *lru.Cache
	now func() time.Time
}

// New creates a cache holding at most size entries.
func New(size int) (*Cache, error) {
	l, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("memcache: %w", err)
	}
	return &Cache{lru: l, now: time.Now}, nil
}

// Get returns the value stored under key.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	e := v.(entry)
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		return nil, ErrMiss
	}
	return e.value, nil
}

// Set stores value under key. ttlSeconds <= 0 means no expiry.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttlSeconds int) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttlSeconds > 0 {
		e.expiresAt = c.now().Add(time.Duration(ttlSeconds) * time.Second)
	}
	c.lru.Add(key, e)
	return nil
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Len reports the number of entries, expired ones included.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Tiered reads through a local Cache before a shared backend and fills the
// local tier on backend hits.
type Tiered struct {
	local   *Cache
	backend ports.CacheService
	// localTTL caps how long backend values live locally.
	localTTL int
}

// NewTiered layers local in front of backend.
func NewTiered(local *Cache, backend ports.CacheService, localTTLSeconds int) *Tiered {
	return &Tiered{local: local, backend: backend, localTTL: localTTLSeconds}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, error) {
	if v, err := t.local.Get(ctx, key); err == nil {
		return v, nil
	}
	v, err := t.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = t.local.Set(ctx, key, v, t.localTTL)
	return v, nil
}

func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	ttl := ttlSeconds
	if t.localTTL > 0 && (ttl <= 0 || ttl > t.localTTL) {
		ttl = t.localTTL
	}
	_ = t.local.Set(ctx, key, value, ttl)
	return t.backend.Set(ctx, key, value, ttlSeconds)
}

func (t *Tiered) Delete(ctx context.Context, key string) error {
	_ = t.local.Delete(ctx, key)
	return t.backend.Delete(ctx, key)
}
