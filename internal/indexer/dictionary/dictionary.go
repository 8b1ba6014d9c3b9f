// Package dictionary assigns every index term of a corpus a dense, stable
// position in first-occurrence order.
package dictionary

import (
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
)

// Dictionary maps lower-case alphabetic terms to positions in [0, Len()).
// It is immutable once built.
type Dictionary struct {
	positions map[string]int
	terms     []string
}

// Build scans c once in line order.
func Build(c *corpus.Corpus) *Dictionary {
	d := &Dictionary{
		positions: make(map[string]int),
		terms:     make([]string, 0),
	}
	c.Each(func(_ int, line string) {
		for _, term := range tokenizer.Terms(line) {
			if _, exists := d.positions[term]; exists {
				continue
			}
			d.positions[term] = len(d.terms)
			d.terms = append(d.terms, term)
		}
	})
	return d
}

func (d *Dictionary) Len() int {
	return len(d.terms)
}

// Position returns the slot of term, or false if term is not a key.
func (d *Dictionary) Position(term string) (int, bool) {
	pos, ok := d.positions[term]
	return pos, ok
}

func (d *Dictionary) Contains(term string) bool {
	_, ok := d.positions[term]
	return ok
}

// Terms returns the keys ordered by position.
func (d *Dictionary) Terms() []string {
	out := make([]string, len(d.terms))
	copy(out, d.terms)
	return out
}

// Term returns the key at pos.
func (d *Dictionary) Term(pos int) (string, bool) {
	if pos < 0 || pos >= len(d.terms) {
		return "", false
	}
	return d.terms[pos], true
}
