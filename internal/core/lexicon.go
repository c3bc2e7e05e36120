// ABOUTME: Lexicon holds the product vocabulary and answer copy as YAML data
// ABOUTME: Synonyms, domain indicators, deny list, intent keywords and templates
package core

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mawell/doc-assistant/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

// ErrInvalidLexicon marks a malformed lexicon. It is a deployment defect and
// is the one error class the core lets propagate.
var ErrInvalidLexicon = errors.New("invalid lexicon")

// DomainInfo names the domain the assistant serves
type DomainInfo struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// IntentRule maps keywords to an intent and its template copy
type IntentRule struct {
	Intent       string   `yaml:"intent"`
	Keywords     []string `yaml:"keywords"`
	Opening      string   `yaml:"opening"`
	LineKeywords []string `yaml:"line_keywords"`
	MaxLines     int      `yaml:"max_lines"`
}

// TemplateCopy is the fixed wording used by the fallback answers
type TemplateCopy struct {
	GeneralOpening  string `yaml:"general_opening"`
	GeneralMaxLines int    `yaml:"general_max_lines"`
	Connective      string `yaml:"connective"`
	Closing         string `yaml:"closing"`
	Insufficient    string `yaml:"insufficient"`
	Deflection      string `yaml:"deflection"`
	Specificity     string `yaml:"specificity"`
}

// PromptCopy is the system instruction sent with every completion
type PromptCopy struct {
	Instruction string `yaml:"instruction"`
}

// Lexicon is the parsed, validated vocabulary
type Lexicon struct {
	Domain               DomainInfo   `yaml:"domain"`
	Synonyms             [][]string   `yaml:"synonyms"`
	DomainIndicators     []string     `yaml:"domain_indicators"`
	DenyList             []string     `yaml:"deny_list"`
	InterrogativeOpeners []string     `yaml:"interrogative_openers"`
	QuestionMarkers      []string     `yaml:"question_markers"`
	Intents              []IntentRule `yaml:"intents"`
	Templates            TemplateCopy `yaml:"templates"`
	Prompt               PromptCopy   `yaml:"prompt"`

	synonyms   map[string][]string
	indicators termSet
	deny       termSet
	openers    []string
	markers    []string
	rules      []intentMatcher
}

type intentMatcher struct {
	intent       models.Intent
	keywords     termSet
	lineKeywords termSet
	opening      string
	maxLines     int
}

const defaultMaxLines = 3

// DefaultLexicon returns the built-in Mawell lexicon
func DefaultLexicon() (*Lexicon, error) {
	return ParseLexicon(defaultLexiconYAML)
}

// LoadLexicon reads a lexicon file, or the built-in one when path is empty
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon %s: %w", path, err)
	}
	lex, err := ParseLexicon(data)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return lex, nil
}

// ParseLexicon decodes and validates lexicon YAML. Unknown keys are errors.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&lex); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLexicon, err)
	}
	if err := lex.compile(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLexicon, err)
	}
	return &lex, nil
}

func (l *Lexicon) compile() error {
	if strings.TrimSpace(l.Domain.Name) == "" {
		return errors.New("domain.name is required")
	}
	if strings.TrimSpace(l.Domain.Description) == "" {
		l.Domain.Description = l.Domain.Name
	}

	l.synonyms = make(map[string][]string)
	for i, group := range l.Synonyms {
		folded := make([]string, 0, len(group))
		for _, term := range group {
			f := Fold(term)
			if f == "" || strings.Contains(f, " ") {
				return fmt.Errorf("synonyms[%d]: terms must be single words, got %q", i, term)
			}
			folded = append(folded, f)
		}
		if len(folded) < 2 {
			return fmt.Errorf("synonyms[%d]: a group needs at least two terms", i)
		}
		for _, term := range folded {
			for _, other := range folded {
				if other != term && !containsString(l.synonyms[term], other) {
					l.synonyms[term] = append(l.synonyms[term], other)
				}
			}
		}
	}

	l.indicators = newTermSet(l.DomainIndicators)
	if l.indicators.size() == 0 {
		return errors.New("domain_indicators must not be empty")
	}
	l.deny = newTermSet(l.DenyList)
	if l.deny.size() == 0 {
		return errors.New("deny_list must not be empty")
	}

	l.openers = l.openers[:0]
	for _, o := range l.InterrogativeOpeners {
		if lowered := strings.ToLower(o); strings.TrimSpace(lowered) != "" {
			l.openers = append(l.openers, lowered)
		}
	}
	l.markers = l.markers[:0]
	for _, m := range l.QuestionMarkers {
		if folded := Fold(m); folded != "" {
			l.markers = append(l.markers, folded)
		}
	}

	seen := make(map[models.Intent]bool)
	l.rules = l.rules[:0]
	for i, rule := range l.Intents {
		intent, err := models.ParseIntent(rule.Intent)
		if err != nil {
			return fmt.Errorf("intents[%d]: %v", i, err)
		}
		if intent == models.IntentGeneral {
			return fmt.Errorf("intents[%d]: general is the default and takes no keywords", i)
		}
		if seen[intent] {
			return fmt.Errorf("intents[%d]: duplicate intent %s", i, intent)
		}
		seen[intent] = true

		keywords := newTermSet(rule.Keywords)
		if keywords.size() == 0 {
			return fmt.Errorf("intents[%d]: %s has no keywords", i, intent)
		}
		if strings.TrimSpace(rule.Opening) == "" {
			return fmt.Errorf("intents[%d]: %s has no opening", i, intent)
		}
		maxLines := rule.MaxLines
		if maxLines == 0 {
			maxLines = defaultMaxLines
		}
		if maxLines < 1 || maxLines > 3 {
			return fmt.Errorf("intents[%d]: max_lines must be 1-3, got %d", i, rule.MaxLines)
		}
		l.rules = append(l.rules, intentMatcher{
			intent:       intent,
			keywords:     keywords,
			lineKeywords: newTermSet(rule.LineKeywords),
			opening:      rule.Opening,
			maxLines:     maxLines,
		})
	}

	t := &l.Templates
	if t.GeneralMaxLines == 0 {
		t.GeneralMaxLines = defaultMaxLines
	}
	if t.GeneralMaxLines < 1 || t.GeneralMaxLines > 3 {
		return fmt.Errorf("templates.general_max_lines must be 1-3, got %d", t.GeneralMaxLines)
	}
	required := map[string]string{
		"templates.general_opening": t.GeneralOpening,
		"templates.connective":      t.Connective,
		"templates.closing":         t.Closing,
		"templates.insufficient":    t.Insufficient,
		"templates.deflection":      t.Deflection,
		"templates.specificity":     t.Specificity,
		"prompt.instruction":        l.Prompt.Instruction,
	}
	for key, val := range required {
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("%s is required", key)
		}
	}
	if t.Deflection == t.Specificity {
		return errors.New("templates.deflection and templates.specificity must differ")
	}
	return nil
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// expand fills in {name}, {domain} and {closing}
func (l *Lexicon) expand(s string) string {
	return strings.NewReplacer(
		"{name}", l.Domain.Name,
		"{domain}", l.Domain.Description,
		"{closing}", l.Templates.Closing,
	).Replace(s)
}

// SynonymsOf returns the folded synonyms of a folded token
func (l *Lexicon) SynonymsOf(token string) []string {
	return l.synonyms[token]
}

// Instruction returns the system prompt with placeholders filled in
func (l *Lexicon) Instruction() string {
	return l.expand(l.Prompt.Instruction)
}

// DeflectionMessage is returned for clearly off-domain queries
func (l *Lexicon) DeflectionMessage() string {
	return l.expand(l.Templates.Deflection)
}

// SpecificityMessage asks the user to narrow an on-domain query
func (l *Lexicon) SpecificityMessage() string {
	return l.expand(l.Templates.Specificity)
}

// InsufficientMessage is the fixed answer when no context line is usable
func (l *Lexicon) InsufficientMessage() string {
	return l.expand(l.Templates.Insufficient)
}

// isQuestionLine reports lines that read as questions rather than answers
func (l *Lexicon) isQuestionLine(line string) bool {
	lowered := Lower(line)
	for _, o := range l.openers {
		if strings.HasPrefix(lowered, o) {
			return true
		}
	}
	folded := Fold(line)
	for _, m := range l.markers {
		if strings.Contains(folded, m) {
			return true
		}
	}
	return false
}
