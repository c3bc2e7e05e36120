// ABOUTME: RelevanceGate answers queries that retrieved nothing relevant
// ABOUTME: Off-domain queries are deflected, the rest are asked for detail
package core

import (
	"github.com/mawell/doc-assistant/internal/models"
)

// RelevanceGate decides between deflection and a request for specificity
type RelevanceGate struct {
	lex *Lexicon
}

// NewRelevanceGate creates a RelevanceGate
func NewRelevanceGate(lex *Lexicon) *RelevanceGate {
	return &RelevanceGate{lex: lex}
}

// Classify returns OutcomeDeflected when the query hits the deny list,
// OutcomeNeedsSpecificity otherwise
func (g *RelevanceGate) Classify(query string) models.Outcome {
	folded := Fold(query)
	if g.lex.deny.matchAny(tokenCounts(wordPattern.FindAllString(folded, -1)), folded) {
		return models.OutcomeDeflected
	}
	return models.OutcomeNeedsSpecificity
}

// Answer builds the no-context answer for query
func (g *RelevanceGate) Answer(query string) models.Answer {
	outcome := g.Classify(query)
	text := g.lex.SpecificityMessage()
	if outcome == models.OutcomeDeflected {
		text = g.lex.DeflectionMessage()
	}
	return models.Answer{
		Question: query,
		Answer:   text,
		Outcome:  outcome,
	}
}
