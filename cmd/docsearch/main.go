package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/results"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/report"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/session"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

const usage = "usage: docsearch [-config file] [-env file] [-policy strict|lenient] <corpus> <queries>"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("docsearch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to YAML config file")
	envPath := fs.String("env", ".env", "optional .env file with DOCSEARCH_* variables")
	policyFlag := fs.String("policy", "", "token matching policy, overrides config (strict|lenient)")
	if err := fs.Parse(args); err != nil {
		return apperrors.ExitBadInput
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, usage)
		return apperrors.ExitBadInput
	}
	corpusPath, queryPath := fs.Arg(0), fs.Arg(1)

	if err := config.LoadEnvFile(*envPath); err != nil {
		fmt.Fprintf(stderr, "failed to load env file: %v\n", err)
		return apperrors.ExitBadInput
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return apperrors.ExitBadInput
	}
	if *policyFlag != "" {
		cfg.Search.Policy = *policyFlag
	}
	logger.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)

	policy, err := tokenizer.ParsePolicy(cfg.Search.Policy)
	if err != nil {
		slog.Error("invalid policy", "error", err)
		return apperrors.ExitBadInput
	}

	// Both files are read before anything is printed.
	queries, err := corpus.ReadQueries(queryPath)
	if err != nil {
		slog.Error("cannot read queries", "path", queryPath, "error", err)
		return apperrors.ExitCode(err)
	}
	c, err := corpus.Load(corpusPath)
	if err != nil {
		slog.Error("cannot read corpus", "path", corpusPath, "error", err)
		return apperrors.ExitCode(err)
	}

	opts := session.Options{
		Policy:   policy,
		FailFast: cfg.Search.FailFast,
		Tracing:  cfg.Tracing.Enabled,
		RunID:    session.NewRunID(),
	}
	backends := connect(ctx, cfg, &opts)
	defer backends.close()

	s := session.New(c, opts)
	w := report.NewWriter(stdout, cfg.Search.Precision)
	_, runErr := s.Run(ctx, queries, w)
	flushErr := w.Flush()

	backends.finish(cfg, opts.RunID)

	if flushErr != nil {
		slog.Error("writing results failed", "error", flushErr)
		return apperrors.ExitInternal
	}
	if runErr != nil {
		slog.Error("run completed with failures", "error", runErr)
		return apperrors.ExitCode(runErr)
	}
	return apperrors.ExitOK
}

// backends holds the optional integrations that were reachable at startup.
type backends struct {
	metrics   *metrics.Metrics
	redis     *pkgredis.Client
	postgres  *postgres.Client
	producer  *kafka.Producer
	collector *analytics.Collector
}

// connect wires every enabled integration into opts. An integration that is
// unreachable is logged and left out; the run itself never depends on one.
func connect(ctx context.Context, cfg *config.Config, opts *session.Options) *backends {
	b := &backends{}
	checker := health.NewChecker(3 * time.Second)

	if cfg.Metrics.Enabled {
		b.metrics = metrics.New()
		url := cfg.Metrics.PushGatewayURL
		checker.Register("pushgateway", health.FromPing(func(ctx context.Context) error {
			return metrics.PingGateway(ctx, url)
		}))
	}
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
		} else {
			b.redis = client
			checker.Register("redis", health.FromPing(client.Ping))
		}
	}
	if cfg.Postgres.Enabled {
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, result sink disabled", "error", err)
		} else {
			b.postgres = client
			checker.Register("postgres", health.FromPing(client.Ping))
		}
	}
	if cfg.Kafka.Enabled {
		brokers := cfg.Kafka.Brokers
		checker.Register("kafka", health.FromPing(func(ctx context.Context) error {
			return kafka.Ping(ctx, brokers)
		}))
	}

	preflight := checker.Run(ctx)
	slog.Debug("preflight finished", "status", preflight.Status, "down", preflight.Down())

	if b.metrics != nil {
		opts.Metrics = b.metrics
		if !preflight.IsUp("pushgateway") {
			slog.Warn("pushgateway unreachable, metrics will not be pushed")
		}
	}
	if b.redis != nil && preflight.IsUp("redis") {
		opts.CacheStore = b.redis
		opts.CacheTTL = cfg.Redis.CacheTTL
		opts.CacheBreaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
			OnStateChange: func(name string, _, to resilience.State) {
				slog.Warn("cache circuit breaker state changed", "name", name, "state", to.String())
				if b.metrics != nil {
					b.metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				}
			},
		})
		slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}
	if b.postgres != nil && preflight.IsUp("postgres") {
		store := results.NewStore(b.postgres)
		if err := store.EnsureSchema(ctx); err != nil {
			slog.Warn("result sink disabled", "error", err)
		} else {
			opts.Results = store
			slog.Info("result sink enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		}
	}
	if cfg.Kafka.Enabled && preflight.IsUp("kafka") {
		b.producer = kafka.NewProducer(cfg.Kafka)
		var onFailure func()
		if b.metrics != nil {
			onFailure = func() { b.metrics.SinkFailuresTotal.WithLabelValues("kafka").Inc() }
		}
		b.collector = analytics.NewCollector(b.producer, 1000, onFailure)
		b.collector.Start(context.WithoutCancel(ctx))
		opts.Events = b.collector
		slog.Info("analytics events enabled", "topic", cfg.Kafka.Topic)
	} else if cfg.Kafka.Enabled {
		slog.Warn("kafka unreachable, analytics events disabled")
	}
	return b
}

// finish flushes queued events and pushes metrics once the run is over.
func (b *backends) finish(cfg *config.Config, runID string) {
	if b.collector != nil {
		b.collector.Close()
		b.collector = nil
	}
	if b.metrics != nil {
		if err := b.metrics.Push(cfg.Metrics.PushGatewayURL, cfg.Metrics.Job, runID); err != nil {
			slog.Warn("metrics push failed", "error", err)
		}
	}
}

func (b *backends) close() {
	if b.collector != nil {
		b.collector.Close()
	}
	if b.producer != nil {
		if err := b.producer.Close(); err != nil {
			slog.Warn("closing kafka producer", "error", err)
		}
	}
	if b.redis != nil {
		b.redis.Close()
	}
	if b.postgres != nil {
		b.postgres.Close()
	}
}
