package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docs.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadNumbersLinesFromOne(t *testing.T) {
	path := writeFile(t, "the cat sat\n\nthe dog ran\n")
	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())

	line, ok := c.Line(1)
	assert.True(t, ok)
	assert.Equal(t, "the cat sat", line)

	line, ok = c.Line(2)
	assert.True(t, ok)
	assert.Equal(t, "", line)

	_, ok = c.Line(0)
	assert.False(t, ok)
	_, ok = c.Line(4)
	assert.False(t, ok)
}

func TestLoadWithoutTrailingNewline(t *testing.T) {
	c, err := Load(writeFile(t, "a b\nc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a b", "c"}, c.Lines())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMissingFile)
	assert.Equal(t, apperrors.ExitMissingFile, apperrors.ExitCode(err))
}

func TestFromLinesCopiesInput(t *testing.T) {
	in := []string{"x", "y"}
	c := FromLines(in)
	in[0] = "changed"
	line, _ := c.Line(1)
	assert.Equal(t, "x", line)

	out := c.Lines()
	out[1] = "changed"
	line, _ = c.Line(2)
	assert.Equal(t, "y", line)
}

func TestChecksumStable(t *testing.T) {
	a := FromLines([]string{"the cat", "the dog"})
	b := FromLines([]string{"the cat", "the dog"})
	c := FromLines([]string{"the cat the", "dog"})
	assert.Equal(t, a.Checksum(), b.Checksum())
	assert.NotEqual(t, a.Checksum(), c.Checksum())
	assert.Len(t, a.Checksum(), 64)
}

func TestEachVisitsInOrder(t *testing.T) {
	c := FromLines([]string{"a", "b", "c"})
	var ids []int
	c.Each(func(id int, _ string) { ids = append(ids, id) })
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestReadQueries(t *testing.T) {
	qs, err := ReadQueries(writeFile(t, "cat\nelephant\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "elephant"}, qs)
}
