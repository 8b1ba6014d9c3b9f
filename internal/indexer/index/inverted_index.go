// Package index builds the closed-world inverted index of a corpus: one
// posting list per dictionary term, listing the documents that contain it.
package index

import (
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/dictionary"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
)

// Index is read-only once Build returns.
type Index struct {
	postings map[string]PostingList
	dict     *dictionary.Dictionary
	docCount int
}

// Build scans c in line order. Every dictionary term starts with an empty
// list; line IDs are appended as terms are seen, so each list ends up
// ascending and non-empty.
func Build(c *corpus.Corpus, d *dictionary.Dictionary) *Index {
	idx := &Index{
		postings: make(map[string]PostingList, d.Len()),
		dict:     d,
		docCount: c.Len(),
	}
	for _, term := range d.Terms() {
		idx.postings[term] = NewPostingList()
	}
	c.Each(func(id int, line string) {
		seen := make(map[string]struct{})
		for _, term := range tokenizer.Terms(line) {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			list, ok := idx.postings[term]
			if !ok {
				continue
			}
			list.Add(id)
		}
	})
	return idx
}

// Postings returns the list for term; ok is false if term is not indexed.
func (i *Index) Postings(term string) (PostingList, bool) {
	p, ok := i.postings[term]
	return p, ok
}

// Contains reports whether document id contains term.
func (i *Index) Contains(term string, id int) bool {
	p, ok := i.postings[term]
	return ok && p.Contains(id)
}

// TermsOf returns, in dictionary order, the terms whose posting list holds id.
func (i *Index) TermsOf(id int) []string {
	terms := make([]string, 0)
	for _, term := range i.dict.Terms() {
		if i.postings[term].Contains(id) {
			terms = append(terms, term)
		}
	}
	return terms
}

// Entries returns every term with its postings, in dictionary order.
func (i *Index) Entries() []TermEntry {
	terms := i.dict.Terms()
	entries := make([]TermEntry, 0, len(terms))
	for _, term := range terms {
		entries = append(entries, TermEntry{Term: term, Postings: i.postings[term]})
	}
	return entries
}

func (i *Index) Stats() Stats {
	total := 0
	for _, p := range i.postings {
		total += p.Len()
	}
	return Stats{
		Terms:         len(i.postings),
		Documents:     i.docCount,
		TotalPostings: total,
	}
}
