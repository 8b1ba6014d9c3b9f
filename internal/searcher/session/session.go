// Package session runs a batch of queries against one corpus. A Session
// builds the dictionary, inverted index and vectorizer once and shares them,
// read-only, across every query of the batch.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/dictionary"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/results"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/vectorizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/tracing"
)

// Output receives the result stream. *report.Writer implements it.
type Output interface {
	Dictionary(terms int)
	Result(res *executor.SearchResult)
	Failed(query string, candidates []int)
}

// ResultSink persists query outcomes. *results.Store implements it.
type ResultSink interface {
	StartRun(ctx context.Context, run results.Run) error
	SaveQuery(ctx context.Context, runID string, queryNo int, query string, result *executor.SearchResult, queryErr error) error
	FinishRun(ctx context.Context, runID string, stats analytics.RunStats) error
}

// EventTracker receives one event per query. *analytics.Collector
// implements it.
type EventTracker interface {
	Track(event analytics.SearchEvent)
}

type Options struct {
	Policy tokenizer.Policy
	// FailFast aborts Run at the first failing query.
	FailFast bool
	// Tracing logs a span tree per query at debug level.
	Tracing bool
	// RunID identifies the batch in logs, sinks and metrics. Generated when
	// empty.
	RunID string

	CacheStore   cache.Store
	CacheTTL     time.Duration
	CacheBreaker *resilience.CircuitBreaker

	Metrics *metrics.Metrics
	Results ResultSink
	Events  EventTracker
}

type Session struct {
	runID      string
	opts       Options
	corpus     *corpus.Corpus
	dict       *dictionary.Dictionary
	index      *index.Index
	vectorizer *vectorizer.Vectorizer
	executor   *executor.Executor
	cache      *cache.ResultCache
	aggregator *analytics.Aggregator
	startedAt  time.Time
	logger     *slog.Logger
}

// Open loads the corpus at path and builds the session around it.
func Open(path string, opts Options) (*Session, error) {
	c, err := corpus.Load(path)
	if err != nil {
		return nil, err
	}
	return New(c, opts), nil
}

func New(c *corpus.Corpus, opts Options) *Session {
	if opts.RunID == "" {
		opts.RunID = NewRunID()
	}
	start := time.Now()
	dict := dictionary.Build(c)
	idx := index.Build(c, dict)
	buildTime := time.Since(start)

	vec := vectorizer.New(c, dict, idx, opts.Policy)
	s := &Session{
		runID:      opts.RunID,
		opts:       opts,
		corpus:     c,
		dict:       dict,
		index:      idx,
		vectorizer: vec,
		executor:   executor.New(idx, vec),
		aggregator: analytics.NewAggregator(),
		startedAt:  start,
		logger:     slog.Default().With("component", "session", "run_id", opts.RunID),
	}
	if opts.CacheStore != nil {
		s.cache = cache.New(opts.CacheStore, opts.CacheTTL, c.Checksum(), opts.Policy, opts.CacheBreaker)
	}
	if m := opts.Metrics; m != nil {
		m.DictionaryTerms.Set(float64(dict.Len()))
		m.CorpusDocuments.Set(float64(c.Len()))
		m.IndexBuildSeconds.Set(buildTime.Seconds())
	}

	stats := idx.Stats()
	s.logger.Info("index built",
		"documents", stats.Documents,
		"terms", stats.Terms,
		"postings", stats.TotalPostings,
		"policy", opts.Policy.String(),
		"build_ms", buildTime.Milliseconds(),
	)
	return s
}

func (s *Session) RunID() string {
	return s.runID
}

func (s *Session) Dictionary() *dictionary.Dictionary {
	return s.dict
}

func (s *Session) Index() *index.Index {
	return s.index
}

func (s *Session) Corpus() *corpus.Corpus {
	return s.corpus
}

// Cache returns the result cache, or nil when caching is off.
func (s *Session) Cache() *cache.ResultCache {
	return s.cache
}

// Search runs a single query. cacheHit is false when caching is off.
func (s *Session) Search(ctx context.Context, query string) (res *executor.SearchResult, cacheHit bool, err error) {
	plan := parser.Parse(query, s.vectorizer)
	compute := func() (*executor.SearchResult, error) {
		return s.executor.Execute(ctx, plan)
	}
	if s.cache == nil || plan.Empty() {
		res, err = compute()
		return res, false, err
	}
	return s.cache.GetOrCompute(ctx, plan.Text, compute)
}

// Run prints the dictionary size and then every query in order. A failing
// query prints its header and candidates, is logged and, unless FailFast is
// set, the batch continues. The returned error joins every query failure.
func (s *Session) Run(ctx context.Context, queries []string, out Output) (analytics.RunStats, error) {
	ctx = logger.WithRunID(ctx, s.runID)
	log := logger.FromContext(ctx).With("component", "session")

	if s.opts.Results != nil {
		err := s.opts.Results.StartRun(ctx, results.Run{
			ID:              s.runID,
			CorpusChecksum:  s.corpus.Checksum(),
			Policy:          s.opts.Policy.String(),
			DictionaryTerms: s.dict.Len(),
			Documents:       s.corpus.Len(),
			StartedAt:       s.startedAt,
		})
		if err != nil {
			s.sinkFailed(log, "postgres", err)
		}
	}

	out.Dictionary(s.dict.Len())

	var failures []error
	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			failures = append(failures, fmt.Errorf("run interrupted before query %d: %w", i+1, err))
			break
		}
		if err := s.runQuery(ctx, log, i+1, query, out); err != nil {
			failures = append(failures, err)
			if s.opts.FailFast {
				log.Error("aborting run", "query_no", i+1, "error", err)
				break
			}
		}
	}

	stats := s.aggregator.Stats()
	if s.opts.Results != nil {
		if err := s.opts.Results.FinishRun(ctx, s.runID, stats); err != nil {
			s.sinkFailed(log, "postgres", err)
		}
	}
	log.Info("run finished",
		"queries", stats.TotalQueries,
		"failed", stats.FailedQueries,
		"zero_results", stats.ZeroResultCount,
		"cache_hits", stats.CacheHits,
		"elapsed_ms", stats.ElapsedMs,
	)
	if len(failures) > 0 {
		return stats, apperrors.New(errors.Join(failures...), apperrors.ExitQueryFailed,
			fmt.Sprintf("%d of %d queries failed", len(failures), len(queries)))
	}
	return stats, nil
}

func (s *Session) runQuery(ctx context.Context, log *slog.Logger, queryNo int, query string, out Output) error {
	start := time.Now()
	var span *tracing.Span
	if s.opts.Tracing {
		ctx, span = tracing.StartSpan(ctx, "query", fmt.Sprintf("%s-%d", s.runID, queryNo))
		span.SetAttr("query_no", queryNo)
	}

	res, hit, err := s.Search(ctx, query)
	latency := time.Since(start)

	var terms []string
	candidates := 0
	returned := 0
	if err != nil {
		var qe *executor.QueryError
		ids := []int{}
		if errors.As(err, &qe) {
			ids = qe.Candidates
		}
		candidates = len(ids)
		out.Failed(strings.TrimSpace(query), ids)
		log.Error("query failed", "query_no", queryNo, "query", query, "error", err)
	} else {
		terms = res.Terms
		candidates = len(res.Candidates)
		returned = len(res.Results)
		out.Result(res)
	}

	event := analytics.NewSearchEvent(s.runID, queryNo, query, terms, candidates, returned, latency, hit, err)
	if event.Type != analytics.EventQueryFailed && res != nil && len(res.Results) > 0 {
		event.TopDocID = res.Results[0].DocID
	}
	s.aggregator.Record(event)
	s.observe(event, res, latency)
	if s.opts.Events != nil {
		s.opts.Events.Track(event)
	}
	if s.opts.Results != nil {
		if sinkErr := s.opts.Results.SaveQuery(ctx, s.runID, queryNo, query, res, err); sinkErr != nil {
			s.sinkFailed(log, "postgres", sinkErr)
		}
	}

	if span != nil {
		span.SetAttr("candidates", candidates)
		span.SetAttr("cache_hit", hit)
		span.End()
		span.Log(log)
	}
	if err != nil {
		return fmt.Errorf("query %d: %w", queryNo, err)
	}
	return nil
}

func (s *Session) observe(event analytics.SearchEvent, res *executor.SearchResult, latency time.Duration) {
	m := s.opts.Metrics
	if m == nil {
		return
	}
	resultType := "ranked"
	switch event.Type {
	case analytics.EventQueryFailed:
		resultType = "error"
	case analytics.EventZeroResult:
		resultType = "zero_result"
	}
	m.QueriesTotal.WithLabelValues(resultType).Inc()
	m.QueryLatency.Observe(latency.Seconds())
	m.CandidatesPerQuery.Observe(float64(event.Candidates))
	if res != nil {
		for _, d := range res.Results {
			m.ResultAngles.Observe(d.Angle)
		}
	}
	if s.cache != nil {
		outcome := "miss"
		if event.CacheHit {
			outcome = "hit"
		}
		m.CacheRequestsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Session) sinkFailed(log *slog.Logger, sink string, err error) {
	log.Error("result sink write failed", "sink", sink, "error", err)
	if s.opts.Metrics != nil {
		s.opts.Metrics.SinkFailuresTotal.WithLabelValues(sink).Inc()
	}
}

// NewRunID returns a random 16-character hex identifier.
func NewRunID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
