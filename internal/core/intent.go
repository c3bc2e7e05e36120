// ABOUTME: Keyword intent classifier used by the template fallback
// ABOUTME: Ordered rules, first match wins, general when nothing matches
package core

import (
	"github.com/mawell/doc-assistant/internal/models"
)

// IntentClassifier maps queries to answer-shape intents
type IntentClassifier struct {
	lex *Lexicon
}

// NewIntentClassifier creates an IntentClassifier
func NewIntentClassifier(lex *Lexicon) *IntentClassifier {
	return &IntentClassifier{lex: lex}
}

// Classify returns the first intent whose keywords occur in the query
func (c *IntentClassifier) Classify(query string) models.Intent {
	folded := Fold(query)
	counts := tokenCounts(wordPattern.FindAllString(folded, -1))
	for _, rule := range c.lex.rules {
		if rule.keywords.matchAny(counts, folded) {
			return rule.intent
		}
	}
	return models.IntentGeneral
}
