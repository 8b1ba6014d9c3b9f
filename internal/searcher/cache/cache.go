package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	pkgredis "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "docsearch:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// ResultCache memoises ranked results per (corpus, policy, query). A corpus
// edit changes its checksum and therefore every key.
type ResultCache struct {
	store     Store
	ttl       time.Duration
	namespace string
	group     singleflight.Group
	breaker   *resilience.CircuitBreaker
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

func New(store Store, ttl time.Duration, corpusChecksum string, policy tokenizer.Policy, breaker *resilience.CircuitBreaker) *ResultCache {
	if len(corpusChecksum) > 16 {
		corpusChecksum = corpusChecksum[:16]
	}
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker("result-cache", resilience.CircuitBreakerConfig{})
	}
	return &ResultCache{
		store:     store,
		ttl:       ttl,
		namespace: fmt.Sprintf("%s%s:%s:", keyPrefix, corpusChecksum, policy),
		breaker:   breaker,
		logger:    slog.Default().With("component", "result-cache"),
	}
}

func (c *ResultCache) Get(ctx context.Context, query string) (*executor.SearchResult, bool) {
	key := c.buildKey(query)
	var data []byte
	err := c.breaker.Execute(func() error {
		var getErr error
		data, getErr = c.store.Get(ctx, key)
		if pkgredis.IsNilError(getErr) {
			return nil
		}
		return getErr
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	if data == nil {
		c.misses.Add(1)
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", query, "key", key)
	return &result, true
}

func (c *ResultCache) Set(ctx context.Context, query string, result *executor.SearchResult) {
	key := c.buildKey(query)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for query or computes, stores and
// returns it. Failed computations are never cached.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	query string,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, query); ok {
		return result, true, nil
	}
	key := c.buildKey(query)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate drops every entry of this corpus and policy.
func (c *ResultCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, c.namespace+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes the trimmed query. Case and punctuation are kept because
// the strict policy treats "Cat" and "cat" differently.
func (c *ResultCache) buildKey(query string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(query)))
	return fmt.Sprintf("%s%x", c.namespace, hash[:16])
}
