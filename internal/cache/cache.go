// Package cache provides the result cache used for recommendation lists. Values are
// stored JSON-encoded so both backends return independent copies.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cacher stores encoded values with a per-entry TTL.
type Cacher interface {
	// Get decodes the value under key into dst and reports whether it was found.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// Stats returns hit and miss counts since creation.
	Stats() Stats
}

// Type selects a Cacher implementation.
type Type string

const (
	TypeRedis  Type = "redis"
	TypeMemory Type = "memory"
)

// Config configures New.
type Config struct {
	Type     Type
	TTL      time.Duration
	Capacity int
}

// Stats are cumulative lookup counts.
type Stats struct {
	Hits   int64
	Misses int64
}

// HitRate is hits over lookups as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *counters) record(found bool) {
	if found {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

func (c *counters) snapshot() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// New returns the configured Cacher. rdb is only used for TypeRedis.
func New(cfg Config, rdb *redis.Client) (Cacher, error) {
	switch cfg.Type {
	case TypeRedis, "":
		if rdb == nil {
			return nil, fmt.Errorf("redis cache needs a redis client")
		}
		return NewRedisCache(rdb), nil
	case TypeMemory:
		return NewMemoryCache(cfg.Capacity, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}
