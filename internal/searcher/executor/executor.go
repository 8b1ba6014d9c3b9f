package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/vectorizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/tracing"
)

type SearchResult struct {
	Query      string             `json:"query"`
	Terms      []string           `json:"terms"`
	Candidates []int              `json:"candidates"`
	Results    []ranker.ScoredDoc `json:"results"`
}

// QueryError reports a query whose candidates could not be ranked. The
// candidate list is kept so callers can still print it.
type QueryError struct {
	Query      string
	Candidates []int
	Err        error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() []error {
	return []error{apperrors.ErrQueryFailed, e.Err}
}

type Executor struct {
	index      *index.Index
	vectorizer *vectorizer.Vectorizer
	logger     *slog.Logger
}

func New(idx *index.Index, v *vectorizer.Vectorizer) *Executor {
	return &Executor{
		index:      idx,
		vectorizer: v,
		logger:     slog.Default().With("component", "query-executor"),
	}
}

// Execute resolves candidates for plan (AND over every matched term), builds
// their vectors and ranks them by angle to the query vector.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan) (*SearchResult, error) {
	result := &SearchResult{
		Query:      plan.Text,
		Terms:      plan.Terms,
		Candidates: []int{},
		Results:    []ranker.ScoredDoc{},
	}
	if plan.Empty() {
		e.logger.Debug("query matched no dictionary terms", "query", plan.Text, "unmatched", plan.Unmatched)
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, span := tracing.StartChildSpan(ctx, "candidates")
	candidates := e.candidates(plan.Terms)
	span.SetAttr("count", len(candidates))
	span.End()
	result.Candidates = candidates
	if len(candidates) == 0 {
		return result, nil
	}

	_, span = tracing.StartChildSpan(ctx, "vectorize")
	query := e.vectorizer.Query(plan.Text)
	docs := make([]ranker.Candidate, 0, len(candidates))
	for _, id := range candidates {
		vec, err := e.vectorizer.Document(id)
		if err != nil {
			span.End()
			return nil, &QueryError{Query: plan.Text, Candidates: candidates, Err: err}
		}
		docs = append(docs, ranker.Candidate{DocID: id, Vector: vec})
	}
	span.SetAttr("dimension", len(query))
	span.End()

	_, span = tracing.StartChildSpan(ctx, "rank")
	ranked, err := ranker.Rank(query, docs)
	span.End()
	if err != nil {
		return nil, &QueryError{Query: plan.Text, Candidates: candidates, Err: err}
	}
	result.Results = ranked

	e.logger.Debug("query executed",
		"query", plan.Text,
		"terms", plan.Terms,
		"candidates", len(candidates),
	)
	return result, nil
}

func (e *Executor) candidates(terms []string) []int {
	lists := make([]index.PostingList, 0, len(terms))
	for _, term := range terms {
		postings, ok := e.index.Postings(term)
		if !ok {
			continue
		}
		lists = append(lists, postings)
	}
	if len(lists) == 0 {
		return []int{}
	}
	return index.Intersect(lists...).DocIDs()
}
