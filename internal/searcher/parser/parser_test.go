package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/dictionary"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/vectorizer"
)

func newVectorizer(policy tokenizer.Policy) *vectorizer.Vectorizer {
	c := corpus.FromLines([]string{"the cat sat", "the dog ran"})
	d := dictionary.Build(c)
	return vectorizer.New(c, d, index.Build(c, d), policy)
}

func TestParseStrict(t *testing.T) {
	plan := Parse("  cat Dog elephant cat \n", newVectorizer(tokenizer.PolicyStrict))
	assert.Equal(t, "cat Dog elephant cat", plan.Text)
	assert.Equal(t, []string{"cat", "cat"}, plan.Terms)
	assert.Equal(t, []string{"Dog", "elephant"}, plan.Unmatched)
	assert.Equal(t, []string{"cat"}, plan.UniqueTerms())
	assert.False(t, plan.Empty())
}

func TestParseLenient(t *testing.T) {
	plan := Parse("cat Dog elephant", newVectorizer(tokenizer.PolicyLenient))
	assert.Equal(t, []string{"cat", "dog"}, plan.Terms)
	assert.Equal(t, []string{"elephant"}, plan.Unmatched)
}

func TestParseNoMatches(t *testing.T) {
	plan := Parse("elephant", newVectorizer(tokenizer.PolicyStrict))
	assert.True(t, plan.Empty())
	assert.Equal(t, "elephant", plan.RawQuery)

	plan = Parse("", newVectorizer(tokenizer.PolicyStrict))
	assert.True(t, plan.Empty())
	assert.Empty(t, plan.Unmatched)
}
