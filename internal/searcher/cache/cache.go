// Package cache memoizes ranking output in Redis. Keys include the corpus
// checksum, so a changed corpus never serves a stale ranking; document
// events additionally flush the key space to reclaim memory early.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/resilience"
)

const (
	keyPrefix = "search:"
	opTimeout = 250 * time.Millisecond
)

// KV is the subset of pkg/redis.Client the cache uses. Get returns
// pkgredis.ErrMiss for absent keys.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushPrefix(ctx context.Context, prefix string) (int64, error)
}

type QueryCache struct {
	kv      KV
	ttl     time.Duration
	group   singleflight.Group
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns a QueryCache storing entries for ttl. m may be nil.
func New(kv KV, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	c := &QueryCache{
		kv:      kv,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
	c.breaker = resilience.NewCircuitBreaker("result-cache", resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     10 * time.Second,
		OnStateChange: func(name string, to resilience.State) {
			if m != nil {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return c
}

// Key derives the cache key for one ranking call.
func Key(checksum uint64, query string, debug bool) string {
	raw := fmt.Sprintf("%016x|%s|%t", checksum, query, debug)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// Get looks key up. Any failure, including an open circuit, is a miss.
func (c *QueryCache) Get(ctx context.Context, key string) (*ranker.Result, bool) {
	var data []byte
	err := c.breaker.ExecuteIgnoring(func() error {
		return resilience.WithTimeout(ctx, opTimeout, "cache-get", func(ctx context.Context) error {
			var err error
			data, err = c.kv.Get(ctx, key)
			return err
		})
	}, isMiss)
	if err != nil {
		if !isMiss(err) && !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		c.recordMiss()
		return nil, false
	}
	var result ranker.Result
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "key", key)
	return &result, true
}

// Set stores result under key. Failures are logged and otherwise ignored.
func (c *QueryCache) Set(ctx context.Context, key string, result *ranker.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, opTimeout, "cache-set", func(ctx context.Context) error {
			return c.kv.Set(ctx, key, data, c.ttl)
		})
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for the call or computes, stores
// and returns it. Concurrent misses for one key run compute once. Compute
// errors are returned as-is and never cached.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	checksum uint64,
	query string,
	debug bool,
	compute func() (*ranker.Result, error),
) (*ranker.Result, bool, error) {
	key := Key(checksum, query, debug)
	if result, ok := c.Get(ctx, key); ok {
		return result, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*ranker.Result), false, nil
}

// Invalidate removes every cached ranking.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.kv.FlushPrefix(ctx, keyPrefix)
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func isMiss(err error) bool {
	return errors.Is(err, pkgredis.ErrMiss)
}
