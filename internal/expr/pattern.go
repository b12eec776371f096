// SPDX-License-Identifier: MPL-2.0

package expr

import "strings"

// MatchPattern matches word against a pattern holding at most one '%'
// wildcard. It returns the text matched by '%' (the stem). A pattern without
// '%' matches only the identical word, with an empty stem.
func MatchPattern(pattern, word string) (string, bool) {
	prefix, suffix, wild := strings.Cut(pattern, "%")
	if !wild {
		return "", word == pattern
	}
	if len(word) < len(prefix)+len(suffix) {
		return "", false
	}
	if !strings.HasPrefix(word, prefix) || !strings.HasSuffix(word, suffix) {
		return "", false
	}
	return word[len(prefix) : len(word)-len(suffix)], true
}

// PatternReplace rewrites word when it matches pattern, substituting the stem
// for the first '%' in replacement. Non-matching words are returned unchanged.
func PatternReplace(pattern, replacement, word string) string {
	stem, ok := MatchPattern(pattern, word)
	if !ok {
		return word
	}
	if !strings.Contains(pattern, "%") {
		return replacement
	}
	return strings.Replace(replacement, "%", stem, 1)
}
