// Package valkey backs ports.CacheService with a Valkey (Redis protocol) server
// so resolved references survive restarts and are shared between processes.
package valkey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// DefaultKeyspace prefixes every key written by pinpoint.
const DefaultKeyspace = "pinpoint:"

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("valkey: miss")

// Cache stores opaque byte values under a shared keyspace.
type Cache struct {
	client   valkey.Client
	keyspace string
}

// New dials addr. The client connects eagerly, so an unreachable server is
// reported here rather than on first use.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:      []string{addr},
		ConnWriteTimeout: 5 * time.Second,
		DisableCache:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey dial %s: %w", addr, err)
	}
	return &Cache{client: client, keyspace: DefaultKeyspace}, nil
}

func (c *Cache) key(k string) string { return c.keyspace + k }

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	resp := c.client.Do(ctx, c.client.B().Get().Key(c.key(key)).Build())
	val, err := resp.AsBytes()
	switch {
	case valkey.IsValkeyNil(err):
		return nil, ErrMiss
	case err != nil:
		return nil, fmt.Errorf("valkey get %s: %w", key, err)
	}
	return val, nil
}

// Set writes value. A non-positive ttlSeconds keeps the key until deleted.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	base := c.client.B().Set().Key(c.key(key)).Value(valkey.BinaryString(value))
	var cmd valkey.Completed
	if ttlSeconds > 0 {
		cmd = base.ExSeconds(int64(ttlSeconds)).Build()
	} else {
		cmd = base.Build()
	}
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(c.key(key)).Build()).Error()
}

// Ping is used by the readiness check.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

func (c *Cache) Close() { c.client.Close() }
