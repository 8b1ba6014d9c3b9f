package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsKeepsRawTokens(t *testing.T) {
	got := Fields("  The cat,  sat\ton 3 mats\r\n")
	assert.Equal(t, []string{"The", "cat,", "sat", "on", "3", "mats"}, got)
}

func TestFieldsEmptyLine(t *testing.T) {
	assert.Empty(t, Fields(""))
	assert.Empty(t, Fields("   \t "))
}

func TestQualify(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
		ok    bool
	}{
		{"lower", "cat", "cat", true},
		{"mixed case", "CaT", "cat", true},
		{"unicode letters", "Ångström", "ångström", true},
		{"trailing punctuation", "cat,", "", false},
		{"digits", "42", "", false},
		{"alnum", "abc1", "", false},
		{"hyphen", "well-known", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Qualify(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerms(t *testing.T) {
	got := Terms("The cat sat on the Mat. 42 times the")
	assert.Equal(t, []string{"the", "cat", "sat", "on", "the", "times", "the"}, got)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	p, err = ParsePolicy(" Lenient ")
	require.NoError(t, err)
	assert.Equal(t, PolicyLenient, p)

	_, err = ParsePolicy("fuzzy")
	assert.Error(t, err)
}

func TestPolicyKeys(t *testing.T) {
	key, ok := PolicyStrict.CountKey("The")
	assert.True(t, ok)
	assert.Equal(t, "The", key)

	key, ok = PolicyLenient.CountKey("The")
	assert.True(t, ok)
	assert.Equal(t, "the", key)

	_, ok = PolicyLenient.QueryKey("cat,")
	assert.False(t, ok)

	key, ok = PolicyStrict.QueryKey("cat,")
	assert.True(t, ok)
	assert.Equal(t, "cat,", key)

	assert.Equal(t, "strict", PolicyStrict.String())
	assert.Equal(t, "lenient", PolicyLenient.String())
}
