// Package natsort orders file names the way a human reads them: embedded
// digit runs compare by numeric value, text runs compare case-insensitively.
package natsort

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Token is one run of a split name: either a digit run or a text run.
type Token struct {
	Text    string // Folded text, or the digit run with leading zeros stripped.
	Numeric bool
}

// Key splits name on digit-run boundaries into alternating text and numeric
// tokens. Text tokens are case-folded; numeric tokens keep their digits
// without leading zeros so they compare by value at any length.
func Key(name string) []Token {
	folder := cases.Fold() // a Caser is stateful, one per call
	var tokens []Token
	runes := []rune(name)
	for i := 0; i < len(runes); {
		j := i
		digits := isDigit(runes[i])
		for j < len(runes) && isDigit(runes[j]) == digits {
			j++
		}
		run := string(runes[i:j])
		if digits {
			trimmed := strings.TrimLeft(run, "0")
			if trimmed == "" {
				trimmed = "0"
			}
			tokens = append(tokens, Token{Text: trimmed, Numeric: true})
		} else {
			tokens = append(tokens, Token{Text: folder.String(run)})
		}
		i = j
	}
	return tokens
}

// isDigit reports ASCII decimal digits only; other Unicode digits are text.
func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Compare returns -1, 0 or +1 ordering a before, equal to, or after b.
// Names whose keys tie ("ch01" and "ch1", "A" and "a") fall back to byte
// order, so distinct names never compare equal.
func Compare(a, b string) int {
	if c := compareKeys(Key(a), Key(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Sort orders names in place.
func Sort(names []string) {
	slices.SortFunc(names, Compare)
}

// Sorted returns a naturally ordered copy of names.
func Sorted(names []string) []string {
	out := slices.Clone(names)
	Sort(out)
	return out
}

func compareKeys(a, b []Token) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareTokens(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func compareTokens(a, b Token) int {
	switch {
	case a.Numeric && b.Numeric:
		if len(a.Text) != len(b.Text) {
			if len(a.Text) < len(b.Text) {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Text, b.Text)
	case a.Numeric:
		// Digits sort before letters, matching byte order of '0'-'9'.
		return -1
	case b.Numeric:
		return 1
	}
	return strings.Compare(a.Text, b.Text)
}
