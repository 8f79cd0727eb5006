// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fuzzy provides trigram candidate generation for approximate
// alias matching. The alias index stores normalized alias text in an FTS5
// table with the trigram tokenizer; a query is expanded into an OR of its
// trigrams to fetch candidate strings sharing at least one trigram, and
// candidates are then verified by exact edit distance.
package fuzzy

import "strings"

// Q is the gram width used by the index and the query expansion. It must
// match the FTS5 trigram tokenizer.
const Q = 3

// Normalize canonicalizes alias text for indexing and querying: lowercase
// with runs of whitespace collapsed to single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Grams returns the distinct q-grams of the normalized text, in first
// occurrence order. Text shorter than Q characters yields nil. Grams are
// windows of runes, not bytes; the FTS5 trigram tokenizer indexes by
// character, and a byte window would split multi-byte runes into tokens
// the index never contains.
func Grams(text string) []string {
	runes := []rune(Normalize(text))
	if len(runes) < Q {
		return nil
	}
	seen := make(map[string]struct{}, len(runes)-Q+1)
	grams := make([]string, 0, len(runes)-Q+1)
	for i := 0; i <= len(runes)-Q; i++ {
		g := string(runes[i : i+Q])
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		grams = append(grams, g)
	}
	return grams
}

// MatchExpr builds an FTS5 MATCH expression ORing the query's trigrams.
// Each gram is quoted so tokenizer metacharacters are treated literally.
// Returns "" when the text is too short to produce any trigram; callers
// fall back to a full scan of the alias index in that case.
func MatchExpr(text string) string {
	grams := Grams(text)
	if len(grams) == 0 {
		return ""
	}
	var b strings.Builder
	for i, g := range grams {
		if i > 0 {
			b.WriteString(" OR ")
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(g, `"`, `""`))
		b.WriteByte('"')
	}
	return b.String()
}
