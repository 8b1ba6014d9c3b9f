// Package tokenizer provides the two token views used by the search engine.
// Raw tokens are whitespace-delimited fields kept exactly as written; they
// drive document length and, under the strict policy, term counting and
// query lookup. Index terms are raw tokens made only of letters, folded to
// lower case; they are the only strings that enter the dictionary.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode"
)

// Fields splits line on whitespace and returns the raw tokens in order.
func Fields(line string) []string {
	return strings.Fields(line)
}

// Qualify reports whether token is purely alphabetic and, if so, returns its
// lower-cased form.
func Qualify(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	for _, r := range token {
		if !unicode.IsLetter(r) {
			return "", false
		}
	}
	return strings.ToLower(token), true
}

// Terms returns the qualifying, lower-cased terms of line in order.
// Duplicates are kept.
func Terms(line string) []string {
	words := Fields(line)
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if term, ok := Qualify(w); ok {
			terms = append(terms, term)
		}
	}
	return terms
}

// Policy selects how raw tokens are matched against dictionary keys when
// counting term frequency and when reading queries.
type Policy int

const (
	// PolicyStrict compares raw tokens byte-for-byte with dictionary keys.
	// "The" or "cat," never match the key "the"/"cat".
	PolicyStrict Policy = iota
	// PolicyLenient applies Qualify to every raw token before matching.
	PolicyLenient
)

func (p Policy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyLenient:
		return "lenient"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps a config string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return PolicyStrict, nil
	case "lenient":
		return PolicyLenient, nil
	default:
		return PolicyStrict, fmt.Errorf("unknown matching policy %q", s)
	}
}

// CountKey returns the dictionary key a raw document token counts toward.
// ok is false when the token can never match a key.
func (p Policy) CountKey(token string) (string, bool) {
	if p == PolicyLenient {
		return Qualify(token)
	}
	return token, token != ""
}

// QueryKey returns the dictionary key looked up for a raw query token.
func (p Policy) QueryKey(token string) (string, bool) {
	return p.CountKey(token)
}
