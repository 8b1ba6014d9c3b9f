// Package report prints the console result stream:
//
//	Words in dictionary: <n>
//	Query: <query>
//	Relevant documents: <id id ...>
//	<docId> <angle>
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/ranker"
)

const DefaultPrecision = 2

// Writer buffers output; the first write error is kept and returned by Flush.
type Writer struct {
	w         *bufio.Writer
	precision int
	err       error
}

func NewWriter(w io.Writer, precision int) *Writer {
	if precision < 0 {
		precision = DefaultPrecision
	}
	return &Writer{w: bufio.NewWriter(w), precision: precision}
}

func (w *Writer) Dictionary(terms int) {
	w.printf("Words in dictionary: %d\n", terms)
}

// Result prints the query header, its candidates and one line per ranked
// document.
func (w *Writer) Result(res *executor.SearchResult) {
	w.header(res.Query, res.Candidates)
	w.Ranked(res.Results)
}

// Failed prints the header of a query that could not be ranked. No ranked
// lines follow.
func (w *Writer) Failed(query string, candidates []int) {
	w.header(query, candidates)
}

func (w *Writer) Ranked(docs []ranker.ScoredDoc) {
	for _, d := range docs {
		w.printf("%d %s\n", d.DocID, strconv.FormatFloat(d.Angle, 'f', w.precision, 64))
	}
}

func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}

func (w *Writer) header(query string, candidates []int) {
	w.printf("Query: %s\n", query)
	w.printf("Relevant documents: %s\n", JoinIDs(candidates))
}

func (w *Writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	if _, err := fmt.Fprintf(w.w, format, args...); err != nil {
		w.err = fmt.Errorf("writing results: %w", err)
	}
}

// JoinIDs space-joins ids; no ids yields "".
func JoinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}
