// Package normalize canonicalizes annotation tokens for deduplication and
// comparison, and merges list fields from competing sources into a single
// candidate set.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Key canonicalizes a token: Unicode NFKC, case fold, punctuation stripped
// (internal hyphens survive), whitespace runs collapsed to single spaces.
// Idempotent: Key(Key(x)) == Key(x). Empty input yields the empty key,
// which callers must exclude.
func Key(s string) string {
	if s == "" {
		return ""
	}
	s = folder.String(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case r == '-':
			b.WriteByte('-')
		}
	}

	// Collapse space runs and trim hyphens that ended up at word edges so
	// only internal hyphens remain.
	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		w = strings.Trim(w, "-")
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// SplitTokens splits a raw value on "/" into trimmed sub-tokens, dropping
// empties. Sources sometimes encode compound categories ("food/dining")
// that must surface as independent candidates.
func SplitTokens(raw string) []string {
	if !strings.Contains(raw, "/") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}
	parts := strings.Split(raw, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
