// ABOUTME: Template synthesizer: offline answers built from context lines
// ABOUTME: Slots decides what to say, Render decides how it reads
package core

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mawell/doc-assistant/internal/models"
)

const minLineChars = 20

// Slots is the wording-free content of a template answer
type Slots struct {
	Intent       models.Intent
	Lines        []string
	Insufficient bool
}

// TemplateSynthesizer builds answers without the completion endpoint
type TemplateSynthesizer struct {
	lex        *Lexicon
	classifier *IntentClassifier
}

// NewTemplateSynthesizer creates a TemplateSynthesizer
func NewTemplateSynthesizer(lex *Lexicon, classifier *IntentClassifier) *TemplateSynthesizer {
	if classifier == nil {
		classifier = NewIntentClassifier(lex)
	}
	return &TemplateSynthesizer{lex: lex, classifier: classifier}
}

// ContextLines splits the context into sentence lines and drops the ones
// that are too short or read as questions
func (s *TemplateSynthesizer) ContextLines(context string) []string {
	var lines []string
	seen := make(map[string]bool)
	for _, raw := range strings.Split(context, "\n") {
		for _, line := range splitSentences(raw) {
			if runeLen(line) < minLineChars || s.lex.isQuestionLine(line) || seen[line] {
				continue
			}
			seen[line] = true
			lines = append(lines, line)
		}
	}
	return lines
}

// Slots selects the intent and 1-3 lines for query
func (s *TemplateSynthesizer) Slots(query, context string) Slots {
	lines := s.ContextLines(context)
	if len(lines) == 0 {
		return Slots{Intent: s.classifier.Classify(query), Insufficient: true}
	}

	intent := s.classifier.Classify(query)
	maxLines := s.lex.Templates.GeneralMaxLines
	var picked []string
	if rule, ok := s.lex.ruleFor(intent); ok {
		maxLines = rule.maxLines
		if rule.lineKeywords.size() > 0 {
			for _, line := range lines {
				folded := Fold(line)
				if rule.lineKeywords.matchAny(tokenCounts(wordPattern.FindAllString(folded, -1)), folded) {
					picked = append(picked, line)
					if len(picked) == maxLines {
						break
					}
				}
			}
		}
	}
	if len(picked) == 0 {
		picked = lines[:min(maxLines, len(lines))]
	}

	return Slots{Intent: intent, Lines: picked}
}

// Render turns slots into answer text
func (s *TemplateSynthesizer) Render(slots Slots) string {
	if slots.Insufficient || len(slots.Lines) == 0 {
		return s.lex.InsufficientMessage()
	}

	opening := s.lex.Templates.GeneralOpening
	if rule, ok := s.lex.ruleFor(slots.Intent); ok {
		opening = rule.opening
	}

	var b strings.Builder
	b.WriteString(s.lex.expand(opening))
	b.WriteString(" ")
	b.WriteString(slots.Lines[0])
	for _, line := range slots.Lines[1:] {
		b.WriteString(" ")
		b.WriteString(s.lex.Templates.Connective)
		b.WriteString(" ")
		b.WriteString(s.continuation(line))
	}
	b.WriteString("\n\n")
	b.WriteString(s.lex.expand(s.lex.Templates.Closing))
	return b.String()
}

// Synthesize is Slots followed by Render
func (s *TemplateSynthesizer) Synthesize(query, context string) (string, Slots) {
	slots := s.Slots(query, context)
	return s.Render(slots), slots
}

// continuation lowercases the first letter of a line joined mid-sentence,
// leaving the domain name and acronyms alone
func (s *TemplateSynthesizer) continuation(line string) string {
	first := strings.Fields(line)[0]
	if Fold(strings.Trim(first, ",.;:")) == Fold(s.lex.Domain.Name) {
		return line
	}
	upper := 0
	for _, r := range first {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if upper > 1 {
		return line
	}
	r, size := utf8.DecodeRuneInString(line)
	return string(unicode.ToLower(r)) + line[size:]
}

func (l *Lexicon) ruleFor(intent models.Intent) (intentMatcher, bool) {
	for _, rule := range l.rules {
		if rule.intent == intent {
			return rule, true
		}
	}
	return intentMatcher{}, false
}
