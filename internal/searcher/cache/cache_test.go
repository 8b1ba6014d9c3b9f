package cache

import (
	"context"
	"errors"
	"path"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet error
	gets    int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.failGet != nil {
		return nil, m.failGet
	}
	v, ok := m.data[key]
	if !ok {
		return nil, goredis.Nil
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func sample() *executor.SearchResult {
	return &executor.SearchResult{
		Query:      "cat",
		Terms:      []string{"cat"},
		Candidates: []int{1},
		Results:    []ranker.ScoredDoc{{DocID: 1, Angle: 54.7356}},
	}
}

func TestGetOrComputeCachesResult(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, "abcdef0123456789abcdef", tokenizer.PolicyStrict, nil)
	ctx := context.Background()

	calls := 0
	compute := func() (*executor.SearchResult, error) {
		calls++
		return sample(), nil
	}

	res, hit, err := c.GetOrCompute(ctx, "cat", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, sample(), res)

	res, hit, err = c.GetOrCompute(ctx, "  cat ", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, sample(), res)
	assert.Equal(t, 1, calls)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestKeysSeparateCaseAndPolicy(t *testing.T) {
	strict := New(newMemStore(), time.Minute, "sum", tokenizer.PolicyStrict, nil)
	lenient := New(newMemStore(), time.Minute, "sum", tokenizer.PolicyLenient, nil)
	other := New(newMemStore(), time.Minute, "other", tokenizer.PolicyStrict, nil)

	assert.NotEqual(t, strict.buildKey("Cat"), strict.buildKey("cat"))
	assert.NotEqual(t, strict.buildKey("cat"), lenient.buildKey("cat"))
	assert.NotEqual(t, strict.buildKey("cat"), other.buildKey("cat"))
	assert.Contains(t, strict.buildKey("cat"), "docsearch:sum:strict:")
}

func TestComputeErrorNotCached(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, "sum", tokenizer.PolicyStrict, nil)
	boom := errors.New("boom")

	_, _, err := c.GetOrCompute(context.Background(), "cat", func() (*executor.SearchResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.data)
}

func TestStoreFailuresOpenBreaker(t *testing.T) {
	store := newMemStore()
	store.failGet = errors.New("connection refused")
	breaker := resilience.NewCircuitBreaker("test-cache", resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	})
	c := New(store, time.Minute, "sum", tokenizer.PolicyStrict, breaker)

	for i := 0; i < 5; i++ {
		_, ok := c.Get(context.Background(), "cat")
		assert.False(t, ok)
	}
	assert.Equal(t, 2, store.gets)
	assert.Equal(t, resilience.StateOpen, breaker.State())
}

func TestInvalidate(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, "sum", tokenizer.PolicyStrict, nil)
	ctx := context.Background()
	c.Set(ctx, "cat", sample())
	c.Set(ctx, "dog", sample())
	store.data["unrelated"] = []byte("x")

	require.NoError(t, c.Invalidate(ctx))
	assert.Len(t, store.data, 1)
	_, ok := c.Get(ctx, "cat")
	assert.False(t, ok)
}
