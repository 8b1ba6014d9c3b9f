// Package results persists search runs to PostgreSQL: one row per run, one
// per query (with its candidate list) and one per ranked document.
//
// Tables are created by EnsureSchema:
//
//	docsearch_runs     (id, corpus_checksum, policy, dictionary_terms, documents, started_at, finished_at, summary)
//	docsearch_queries  (run_id, query_no, query, terms, candidates, error)
//	docsearch_results  (run_id, query_no, rank, doc_id, angle)
package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

const schema = `
CREATE TABLE IF NOT EXISTS docsearch_runs (
    id               TEXT PRIMARY KEY,
    corpus_checksum  TEXT NOT NULL,
    policy           TEXT NOT NULL,
    dictionary_terms INTEGER NOT NULL,
    documents        INTEGER NOT NULL,
    started_at       TIMESTAMPTZ NOT NULL,
    finished_at      TIMESTAMPTZ,
    summary          JSONB
);
CREATE TABLE IF NOT EXISTS docsearch_queries (
    run_id     TEXT NOT NULL REFERENCES docsearch_runs(id) ON DELETE CASCADE,
    query_no   INTEGER NOT NULL,
    query      TEXT NOT NULL,
    terms      TEXT[] NOT NULL,
    candidates INTEGER[] NOT NULL,
    error      TEXT,
    PRIMARY KEY (run_id, query_no)
);
CREATE TABLE IF NOT EXISTS docsearch_results (
    run_id   TEXT NOT NULL,
    query_no INTEGER NOT NULL,
    rank     INTEGER NOT NULL,
    doc_id   INTEGER NOT NULL,
    angle    DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (run_id, query_no, rank),
    FOREIGN KEY (run_id, query_no) REFERENCES docsearch_queries(run_id, query_no) ON DELETE CASCADE
);`

// Run describes a search session as stored in docsearch_runs.
type Run struct {
	ID              string
	CorpusChecksum  string
	Policy          string
	DictionaryTerms int
	Documents       int
	StartedAt       time.Time
}

type Store struct {
	db     *postgres.Client
	retry  resilience.RetryConfig
	logger *slog.Logger
}

func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		retry:  resilience.RetryConfig{MaxAttempts: 3},
		logger: slog.Default().With("component", "results-store"),
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating result tables: %w", err)
	}
	return nil
}

func (s *Store) StartRun(ctx context.Context, run Run) error {
	return resilience.Retry(ctx, "results-start-run", s.retry, func(ctx context.Context) error {
		_, err := s.db.DB.ExecContext(ctx,
			`INSERT INTO docsearch_runs (id, corpus_checksum, policy, dictionary_terms, documents, started_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO NOTHING`,
			run.ID, run.CorpusChecksum, run.Policy, run.DictionaryTerms, run.Documents, run.StartedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting run %s: %w", run.ID, err)
		}
		return nil
	})
}

// SaveQuery stores one query outcome. result may be nil when the query
// failed; candidates are then taken from the failure.
func (s *Store) SaveQuery(ctx context.Context, runID string, queryNo int, query string, result *executor.SearchResult, queryErr error) error {
	terms := []string{}
	candidates := []int64{}
	var errText sql.NullString
	if result != nil {
		if result.Terms != nil {
			terms = result.Terms
		}
		candidates = toInt64(result.Candidates)
	}
	if queryErr != nil {
		errText = sql.NullString{String: queryErr.Error(), Valid: true}
		var qe *executor.QueryError
		if result == nil && errors.As(queryErr, &qe) {
			candidates = toInt64(qe.Candidates)
		}
	}

	return resilience.Retry(ctx, "results-save-query", s.retry, func(ctx context.Context) error {
		return s.db.InTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO docsearch_queries (run_id, query_no, query, terms, candidates, error)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 ON CONFLICT (run_id, query_no) DO NOTHING`,
				runID, queryNo, query, pq.Array(terms), pq.Array(candidates), errText,
			)
			if err != nil {
				return fmt.Errorf("inserting query %d: %w", queryNo, err)
			}
			if result == nil {
				return nil
			}
			stmt, err := tx.PrepareContext(ctx,
				`INSERT INTO docsearch_results (run_id, query_no, rank, doc_id, angle)
				 VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT DO NOTHING`)
			if err != nil {
				return fmt.Errorf("preparing result insert: %w", err)
			}
			defer stmt.Close()
			for rank, doc := range result.Results {
				if _, err := stmt.ExecContext(ctx, runID, queryNo, rank+1, doc.DocID, doc.Angle); err != nil {
					return fmt.Errorf("inserting result %d/%d: %w", queryNo, rank+1, err)
				}
			}
			return nil
		})
	})
}

func (s *Store) FinishRun(ctx context.Context, runID string, stats analytics.RunStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	return resilience.Retry(ctx, "results-finish-run", s.retry, func(ctx context.Context) error {
		_, err := s.db.DB.ExecContext(ctx,
			`UPDATE docsearch_runs SET finished_at = $2, summary = $3 WHERE id = $1`,
			runID, time.Now().UTC(), data,
		)
		if err != nil {
			return fmt.Errorf("finishing run %s: %w", runID, err)
		}
		s.logger.Info("run stored", "run_id", runID, "queries", stats.TotalQueries)
		return nil
	})
}

// RankedDocs reads back the ranked documents of one query in rank order.
func (s *Store) RankedDocs(ctx context.Context, runID string, queryNo int) ([]int, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT doc_id FROM docsearch_results WHERE run_id = $1 AND query_no = $2 ORDER BY rank`,
		runID, queryNo,
	)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()
	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func toInt64(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
