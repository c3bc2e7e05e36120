// ABOUTME: ChunkEngine splits document text into retrievable chunks
// ABOUTME: Packs whole sentences greedily up to a character budget
package core

import (
	"strings"
	"unicode"
)

// DefaultMaxChunkChars is the chunk budget used by ingestion
const DefaultMaxChunkChars = 500

// ChunkEngine handles sentence-greedy chunking
type ChunkEngine struct {
	maxChars int
}

// NewChunkEngine creates a ChunkEngine; maxChars <= 0 selects the default budget
func NewChunkEngine(maxChars int) *ChunkEngine {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}
	return &ChunkEngine{maxChars: maxChars}
}

// MaxChars returns the chunk budget in runes
func (ce *ChunkEngine) MaxChars() int {
	return ce.maxChars
}

// Split packs consecutive sentences into chunks of at most maxChars runes.
// A sentence longer than the budget is cut at whitespace into its own chunks,
// so no text is dropped.
func (ce *ChunkEngine) Split(text string) []string {
	var chunks []string
	current := ""

	flush := func() {
		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}
	}

	for _, sentence := range splitSentences(text) {
		if runeLen(sentence) > ce.maxChars {
			flush()
			chunks = append(chunks, splitLong(sentence, ce.maxChars)...)
			continue
		}

		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}
		if runeLen(candidate) <= ce.maxChars {
			current = candidate
			continue
		}
		flush()
		current = sentence
	}
	flush()

	return chunks
}

// splitLong cuts s into pieces of at most max runes, preferring whitespace
func splitLong(s string, max int) []string {
	var pieces []string
	rest := []rune(s)
	for len(rest) > max {
		cut := max
		for i := max; i > 0; i-- {
			if unicode.IsSpace(rest[i]) {
				cut = i
				break
			}
		}
		piece := strings.TrimSpace(string(rest[:cut]))
		if piece != "" {
			pieces = append(pieces, piece)
		}
		rest = []rune(strings.TrimLeftFunc(string(rest[cut:]), unicode.IsSpace))
	}
	if tail := strings.TrimSpace(string(rest)); tail != "" {
		pieces = append(pieces, tail)
	}
	return pieces
}
