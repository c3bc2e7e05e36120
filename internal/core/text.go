// ABOUTME: Text normalization shared by retrieval, gating and templates
// ABOUTME: Folds case and diacritics, tokenizes words, splits sentences
package core

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Lower lowercases with Spanish rules and trims, keeping diacritics
func Lower(s string) string {
	return strings.TrimSpace(cases.Lower(language.Spanish).String(s))
}

// Fold lowercases, strips diacritics and collapses whitespace so that
// "¿Qué   Bombas?" and "¿que bombas?" compare equal.
func Fold(s string) string {
	lower := cases.Lower(language.Spanish).String(s)
	// Transformers carry state, so each call builds its own chain.
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripper, lower)
	if err != nil {
		stripped = lower
	}
	return strings.Join(strings.Fields(stripped), " ")
}

// Words returns the folded word tokens of s in order
func Words(s string) []string {
	return wordPattern.FindAllString(Fold(s), -1)
}

func tokenCounts(words []string) map[string]int {
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}
	return counts
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// prefixRunes returns at most n leading runes of s
func prefixRunes(s string, n int) string {
	if runeLen(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// splitSentences splits on words ending in '.', '!' or '?'. Whitespace is
// collapsed; the terminator stays with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current []string
	for _, word := range strings.Fields(text) {
		current = append(current, word)
		if endsSentence(word) {
			sentences = append(sentences, strings.Join(current, " "))
			current = current[:0]
		}
	}
	if len(current) > 0 {
		sentences = append(sentences, strings.Join(current, " "))
	}
	return sentences
}

func endsSentence(word string) bool {
	last, _ := utf8.DecodeLastRuneInString(word)
	return last == '.' || last == '!' || last == '?'
}

// termSet matches folded terms: single words against a token set,
// multi-word phrases as substrings of the folded text.
type termSet struct {
	words   map[string]struct{}
	phrases []string
}

func newTermSet(terms []string) termSet {
	ts := termSet{words: make(map[string]struct{}, len(terms))}
	for _, term := range terms {
		folded := Fold(term)
		if folded == "" {
			continue
		}
		if strings.Contains(folded, " ") {
			ts.phrases = append(ts.phrases, folded)
		} else {
			ts.words[folded] = struct{}{}
		}
	}
	return ts
}

func (ts termSet) size() int {
	return len(ts.words) + len(ts.phrases)
}

// matchAny reports whether any term occurs in the tokens or folded text
func (ts termSet) matchAny(tokens map[string]int, folded string) bool {
	for w := range ts.words {
		if tokens[w] > 0 {
			return true
		}
	}
	for _, p := range ts.phrases {
		if strings.Contains(folded, p) {
			return true
		}
	}
	return false
}

// countMatches sums occurrences of the set's terms
func (ts termSet) countMatches(tokens map[string]int, folded string) int {
	n := 0
	for w := range ts.words {
		n += tokens[w]
	}
	for _, p := range ts.phrases {
		n += strings.Count(folded, p)
	}
	return n
}
