// Package corpus holds the immutable, in-memory copy of the document file.
// It is read once per session; every later stage takes the same *Corpus and
// never touches the file again.
package corpus

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

const maxLineBytes = 16 * 1024 * 1024

// Corpus is an ordered set of documents. Document IDs are 1-based line
// numbers.
type Corpus struct {
	lines    []string
	checksum string
}

// Load reads the file at path, one document per line.
func Load(path string) (*Corpus, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	return FromLines(lines), nil
}

// FromLines builds a Corpus from lines already in memory. The slice is copied.
func FromLines(lines []string) *Corpus {
	owned := make([]string, len(lines))
	copy(owned, lines)
	h := sha256.New()
	for _, l := range owned {
		io.WriteString(h, l)
		h.Write([]byte{'\n'})
	}
	return &Corpus{
		lines:    owned,
		checksum: hex.EncodeToString(h.Sum(nil)),
	}
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.lines)
}

// Line returns the text of document id.
func (c *Corpus) Line(id int) (string, bool) {
	if id < 1 || id > len(c.lines) {
		return "", false
	}
	return c.lines[id-1], true
}

// Lines returns a copy of all documents in order.
func (c *Corpus) Lines() []string {
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// Each calls fn for every document in ascending id order.
func (c *Corpus) Each(fn func(id int, line string)) {
	for i, l := range c.lines {
		fn(i+1, l)
	}
}

// Checksum is the hex SHA-256 of the corpus content.
func (c *Corpus) Checksum() string {
	return c.checksum
}

// ReadQueries reads the query file, one query per line.
func ReadQueries(path string) ([]string, error) {
	return readLines(path)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrMissingFile, apperrors.ExitMissingFile, "opening %s: %v", path, err)
	}
	defer f.Close()

	lines := make([]string, 0, 64)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Newf(apperrors.ErrMissingFile, apperrors.ExitMissingFile, "reading %s: %v", path, err)
	}
	return lines, nil
}

func (c *Corpus) String() string {
	return fmt.Sprintf("corpus(%d docs, %s)", len(c.lines), c.checksum[:12])
}
