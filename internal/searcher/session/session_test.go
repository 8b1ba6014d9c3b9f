package session

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/results"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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

func (m *memStore) FlushByPattern(context.Context, string) (int64, error) {
	return 0, nil
}

type savedQuery struct {
	queryNo int
	query   string
	result  *executor.SearchResult
	err     error
}

type fakeSink struct {
	started  []results.Run
	saved    []savedQuery
	finished []analytics.RunStats
}

func (f *fakeSink) StartRun(_ context.Context, run results.Run) error {
	f.started = append(f.started, run)
	return nil
}

func (f *fakeSink) SaveQuery(_ context.Context, _ string, queryNo int, query string, res *executor.SearchResult, err error) error {
	f.saved = append(f.saved, savedQuery{queryNo: queryNo, query: query, result: res, err: err})
	return nil
}

func (f *fakeSink) FinishRun(_ context.Context, _ string, stats analytics.RunStats) error {
	f.finished = append(f.finished, stats)
	return nil
}

type fakeTracker struct {
	events []analytics.SearchEvent
}

func (f *fakeTracker) Track(e analytics.SearchEvent) {
	f.events = append(f.events, e)
}

func run(t *testing.T, s *Session, queries ...string) (string, analytics.RunStats, error) {
	t.Helper()
	var buf bytes.Buffer
	w := report.NewWriter(&buf, report.DefaultPrecision)
	stats, err := s.Run(context.Background(), queries, w)
	require.NoError(t, w.Flush())
	return buf.String(), stats, err
}

func TestRunRoundTripExample(t *testing.T) {
	s := New(corpus.FromLines([]string{"the cat sat", "the dog ran"}), Options{})
	out, stats, err := run(t, s, "cat", "elephant")
	require.NoError(t, err)

	assert.Equal(t, "Words in dictionary: 5\n"+
		"Query: cat\n"+
		"Relevant documents: 1\n"+
		"1 54.74\n"+
		"Query: elephant\n"+
		"Relevant documents: \n", out)
	assert.Equal(t, int64(2), stats.TotalQueries)
	assert.Equal(t, int64(1), stats.ZeroResultCount)
}

func TestRunSkipsFailingQuery(t *testing.T) {
	s := New(corpus.FromLines([]string{"The Cat", "the dog"}), Options{Policy: tokenizer.PolicyStrict})
	out, stats, err := run(t, s, "the", "dog")

	assert.Equal(t, "Words in dictionary: 3\n"+
		"Query: the\n"+
		"Relevant documents: 1 2\n"+
		"Query: dog\n"+
		"Relevant documents: 2\n"+
		"2 45.00\n", out)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrZeroNorm)
	assert.ErrorIs(t, err, apperrors.ErrQueryFailed)
	assert.Equal(t, apperrors.ExitQueryFailed, apperrors.ExitCode(err))
	assert.Equal(t, int64(2), stats.TotalQueries)
	assert.Equal(t, int64(1), stats.FailedQueries)
}

func TestRunFailFastStops(t *testing.T) {
	s := New(corpus.FromLines([]string{"The Cat", "the dog"}), Options{FailFast: true})
	out, stats, err := run(t, s, "the", "dog")

	assert.Equal(t, "Words in dictionary: 3\nQuery: the\nRelevant documents: 1 2\n", out)
	require.Error(t, err)
	assert.Equal(t, int64(1), stats.TotalQueries)
}

func TestRunLenientPolicy(t *testing.T) {
	s := New(corpus.FromLines([]string{"The Cat", "the dog"}), Options{Policy: tokenizer.PolicyLenient})
	out, _, err := run(t, s, "THE")
	require.NoError(t, err)
	assert.Contains(t, out, "Relevant documents: 1 2\n")
	assert.Contains(t, out, "1 45.00\n")
	assert.Contains(t, out, "2 45.00\n")
}

func TestRunUsesCacheAcrossSessions(t *testing.T) {
	store := &memStore{data: make(map[string][]byte)}
	lines := []string{"the cat sat", "the dog ran"}

	first := New(corpus.FromLines(lines), Options{CacheStore: store, CacheTTL: time.Minute})
	out1, stats1, err := run(t, first, "cat")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats1.CacheHits)

	m := metrics.New()
	second := New(corpus.FromLines(lines), Options{CacheStore: store, CacheTTL: time.Minute, Metrics: m})
	out2, stats2, err := run(t, second, "cat", "elephant")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats2.CacheHits)
	assert.Equal(t, out1, out2[:len(out1)])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequestsTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("ranked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("zero_result")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.DictionaryTerms))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CorpusDocuments))
}

func TestRunFeedsSinks(t *testing.T) {
	sink := &fakeSink{}
	tracker := &fakeTracker{}
	s := New(corpus.FromLines([]string{"The Cat", "the dog"}), Options{
		RunID:   "run-1",
		Results: sink,
		Events:  tracker,
		Tracing: true,
	})
	_, _, err := run(t, s, "dog", "the")
	require.Error(t, err)

	require.Len(t, sink.started, 1)
	assert.Equal(t, "run-1", sink.started[0].ID)
	assert.Equal(t, 3, sink.started[0].DictionaryTerms)
	assert.Equal(t, s.Corpus().Checksum(), sink.started[0].CorpusChecksum)

	require.Len(t, sink.saved, 2)
	assert.Equal(t, 1, sink.saved[0].queryNo)
	require.NotNil(t, sink.saved[0].result)
	assert.Equal(t, 2, sink.saved[0].result.Results[0].DocID)
	assert.Nil(t, sink.saved[1].result)
	assert.ErrorIs(t, sink.saved[1].err, apperrors.ErrZeroNorm)

	require.Len(t, sink.finished, 1)
	assert.Equal(t, int64(1), sink.finished[0].FailedQueries)

	require.Len(t, tracker.events, 2)
	assert.Equal(t, analytics.EventSearch, tracker.events[0].Type)
	assert.Equal(t, 2, tracker.events[0].TopDocID)
	assert.Equal(t, "run-1", tracker.events[0].RunID)
	assert.Equal(t, analytics.EventQueryFailed, tracker.events[1].Type)
	assert.Equal(t, 2, tracker.events[1].Candidates)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	s := New(corpus.FromLines([]string{"the cat sat"}), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	w := report.NewWriter(&buf, 2)
	_, err := s.Run(ctx, []string{"cat"}, w)
	require.NoError(t, w.Flush())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Words in dictionary: 3\n", buf.String())
}

func TestOpenMissingCorpus(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.txt"), Options{})
	assert.ErrorIs(t, err, apperrors.ErrMissingFile)
	assert.Equal(t, apperrors.ExitMissingFile, apperrors.ExitCode(err))
}

func TestSearchSingleQuery(t *testing.T) {
	s := New(corpus.FromLines([]string{"a b c", "a b", "a"}), Options{})
	res, hit, err := s.Search(context.Background(), "  a b ")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "a b", res.Query)
	assert.Equal(t, []int{1, 2}, res.Candidates)
	assert.Equal(t, 2, res.Results[0].DocID)
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
