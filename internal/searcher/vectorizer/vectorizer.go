// Package vectorizer turns documents and queries into dense vectors over the
// dictionary's term space. Documents use term frequency; queries use binary
// presence. Vectors are built per request and never cached.
package vectorizer

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/dictionary"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

// Vector has one slot per dictionary position.
type Vector []float64

// NonZero returns the number of non-zero slots.
func (v Vector) NonZero() int {
	n := 0
	for _, x := range v {
		if x != 0 {
			n++
		}
	}
	return n
}

// Vectorizer binds the read-only session state used to build vectors.
type Vectorizer struct {
	corpus *corpus.Corpus
	dict   *dictionary.Dictionary
	index  *index.Index
	policy tokenizer.Policy
}

func New(c *corpus.Corpus, d *dictionary.Dictionary, idx *index.Index, policy tokenizer.Policy) *Vectorizer {
	return &Vectorizer{
		corpus: c,
		dict:   d,
		index:  idx,
		policy: policy,
	}
}

// Document returns the term-frequency vector of document id. For every term
// indexed under id, the slot is the number of raw tokens matching the term
// (per policy) divided by the document's raw token count. Under the strict
// policy "The" and "cat," do not count toward "the" and "cat" even though
// they put the document in those posting lists.
func (v *Vectorizer) Document(id int) (Vector, error) {
	line, ok := v.corpus.Line(id)
	if !ok {
		return nil, fmt.Errorf("document %d of %d: %w", id, v.corpus.Len(), apperrors.ErrEmptyDocument)
	}
	tokens := tokenizer.Fields(line)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("document %d: %w", id, apperrors.ErrEmptyDocument)
	}

	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		if key, ok := v.policy.CountKey(tok); ok {
			counts[key]++
		}
	}

	vec := make(Vector, v.dict.Len())
	total := float64(len(tokens))
	for _, term := range v.index.TermsOf(id) {
		pos, _ := v.dict.Position(term)
		vec[pos] = float64(counts[term]) / total
	}
	return vec, nil
}

// Query returns the binary presence vector of text.
func (v *Vectorizer) Query(text string) Vector {
	vec := make(Vector, v.dict.Len())
	for _, term := range v.QueryTerms(text) {
		pos, _ := v.dict.Position(term)
		vec[pos] = 1
	}
	return vec
}

// QueryTerms returns, in query order, the dictionary keys matched by the raw
// tokens of text. Repeated tokens are repeated.
func (v *Vectorizer) QueryTerms(text string) []string {
	terms := make([]string, 0)
	for _, tok := range tokenizer.Fields(text) {
		if key, ok := v.Match(tok); ok {
			terms = append(terms, key)
		}
	}
	return terms
}

// Match returns the dictionary key a raw query token resolves to under the
// configured policy.
func (v *Vectorizer) Match(token string) (string, bool) {
	key, ok := v.policy.QueryKey(token)
	if !ok || !v.dict.Contains(key) {
		return "", false
	}
	return key, true
}

// Dimension is the length of every vector produced.
func (v *Vectorizer) Dimension() int {
	return v.dict.Len()
}

func (v *Vectorizer) Policy() tokenizer.Policy {
	return v.policy
}
