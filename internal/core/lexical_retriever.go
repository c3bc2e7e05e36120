// ABOUTME: Lexical retriever: keyword and synonym scoring over the chunk list
// ABOUTME: Used when the vector path is unavailable or incompatible
package core

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/mawell/doc-assistant/internal/logger"
	"github.com/mawell/doc-assistant/internal/models"
)

// Scoring weights and admission thresholds
const (
	phraseBonus        = 50
	directTokenWeight  = 10
	synonymTokenWeight = 3
	headerTokenBonus   = 15
	headerWindow       = 150

	minQueryTokenLen     = 3 // tokens must be longer than 2
	importantTokenLen    = 4 // tokens longer than 3 count as important
	minImportantMatches  = 2
	admitScore           = 20
	keepScore            = 30
	maxQuestionRatio     = 0.7
	prefixFallbackChunks = 2
)

// LexicalRetriever scores chunks by query tokens and lexicon synonyms
type LexicalRetriever struct {
	lex    *Lexicon
	chunks ChunkSource
	log    logger.Logger
}

// NewLexicalRetriever creates a LexicalRetriever
func NewLexicalRetriever(lex *Lexicon, chunks ChunkSource, log logger.Logger) *LexicalRetriever {
	if log == nil {
		log = logger.Nop()
	}
	return &LexicalRetriever{lex: lex, chunks: chunks, log: log}
}

// Name implements Retriever
func (r *LexicalRetriever) Name() models.Strategy {
	return models.StrategyLexical
}

type queryTerms struct {
	phrase   string
	direct   []string
	synonyms []string
}

func (r *LexicalRetriever) analyze(query string) queryTerms {
	terms := queryTerms{phrase: strings.Trim(Fold(query), " ¿?¡!.,;:")}

	seen := make(map[string]bool)
	for _, w := range Words(query) {
		if runeLen(w) < minQueryTokenLen || seen[w] {
			continue
		}
		seen[w] = true
		terms.direct = append(terms.direct, w)
	}
	for _, w := range terms.direct {
		for _, syn := range r.lex.SynonymsOf(w) {
			if !seen[syn] {
				seen[syn] = true
				terms.synonyms = append(terms.synonyms, syn)
			}
		}
	}
	return terms
}

type scoredChunk struct {
	id    int
	chunk models.Chunk
	score int
}

// score returns the chunk's total and whether it passes admission.
// Filtered chunks score zero.
func (r *LexicalRetriever) score(terms queryTerms, text string) (int, bool) {
	folded := Fold(text)
	words := wordPattern.FindAllString(folded, -1)
	counts := tokenCounts(words)

	if !r.lex.indicators.matchAny(counts, folded) {
		return 0, false
	}
	if questionRatio(text) > maxQuestionRatio {
		return 0, false
	}

	total := 0
	phraseHit := terms.phrase != "" && strings.Contains(folded, terms.phrase)
	if phraseHit {
		total += phraseBonus
	}

	important := 0
	for _, tok := range terms.direct {
		if runeLen(tok) >= importantTokenLen {
			n := counts[tok]
			total += directTokenWeight * n
			important += n
		}
	}
	for _, syn := range terms.synonyms {
		total += synonymTokenWeight * counts[syn]
	}

	header := tokenCounts(wordPattern.FindAllString(prefixRunes(folded, headerWindow), -1))
	for _, tok := range terms.direct {
		if header[tok] > 0 {
			total += headerTokenBonus
		}
	}

	admitted := total >= admitScore && (important >= minImportantMatches || phraseHit)
	return total, admitted
}

// questionRatio is the share of sentence terminators that are question marks
func questionRatio(text string) float64 {
	questions := strings.Count(text, "?")
	terminators := questions + strings.Count(text, ".") + strings.Count(text, "!")
	if terminators == 0 {
		return 0
	}
	return float64(questions) / float64(terminators)
}

// Search implements Retriever
func (r *LexicalRetriever) Search(ctx context.Context, query string, topK int) (models.RetrievalResult, error) {
	const stage = "lexical"

	if r.chunks == nil {
		return models.RetrievalResult{}, stageErr(stage, KindResourceUnavailable, errNotLoaded)
	}

	all, err := r.chunks.All()
	if err != nil {
		// Last resort: hand back the leading chunks rather than nothing.
		if r.chunks.Len() >= prefixFallbackChunks {
			if head, herr := r.chunks.Head(prefixFallbackChunks); herr == nil {
				r.log.Warn("chunk list unreadable, degrading to prefix chunks", "err", err, "chunks", len(head))
				result := models.RetrievalResult{Strategy: models.StrategyPrefix}
				for i, c := range head {
					result.Hits = append(result.Hits, models.Hit{ID: i, Chunk: c})
				}
				return result, nil
			}
		}
		return models.RetrievalResult{}, stageErr(stage, KindResourceUnavailable, err)
	}

	terms := r.analyze(query)
	if len(terms.direct) == 0 || topK <= 0 {
		return models.NoRelevant(models.StrategyLexical), nil
	}

	var kept []scoredChunk
	for id, chunk := range all {
		if err := ctx.Err(); err != nil {
			return models.RetrievalResult{}, stageErr(stage, KindResourceUnavailable, err)
		}
		total, admitted := r.score(terms, chunk.Text())
		if admitted && total >= keepScore {
			kept = append(kept, scoredChunk{id: id, chunk: chunk, score: total})
		}
	}

	slices.SortStableFunc(kept, func(a, b scoredChunk) int {
		return cmp.Compare(b.score, a.score)
	})
	if len(kept) > topK {
		kept = kept[:topK]
	}

	result := models.NoRelevant(models.StrategyLexical)
	for _, sc := range kept {
		result.Hits = append(result.Hits, models.Hit{ID: sc.id, Chunk: sc.chunk, Score: float64(sc.score)})
	}
	return result, nil
}
