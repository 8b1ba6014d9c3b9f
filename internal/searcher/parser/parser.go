package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/vectorizer"
)

// QueryPlan is a query line resolved against the dictionary. All matched
// terms are ANDed together.
type QueryPlan struct {
	RawQuery string
	Text     string
	// Terms are the dictionary keys matched, in query order, duplicates kept.
	Terms []string
	// Unmatched are raw tokens that resolved to no key.
	Unmatched []string
}

// Parse trims query and resolves each raw token through v's matching policy.
func Parse(query string, v *vectorizer.Vectorizer) *QueryPlan {
	plan := &QueryPlan{
		RawQuery:  query,
		Text:      strings.TrimSpace(query),
		Terms:     make([]string, 0),
		Unmatched: make([]string, 0),
	}
	for _, tok := range tokenizer.Fields(plan.Text) {
		if key, ok := v.Match(tok); ok {
			plan.Terms = append(plan.Terms, key)
			continue
		}
		plan.Unmatched = append(plan.Unmatched, tok)
	}
	return plan
}

// UniqueTerms returns Terms without repeats, first occurrence wins.
func (p *QueryPlan) UniqueTerms() []string {
	seen := make(map[string]struct{}, len(p.Terms))
	out := make([]string, 0, len(p.Terms))
	for _, t := range p.Terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Empty reports whether no query token matched the dictionary.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}
