// ABOUTME: AnswerComposer turns relevant chunks into an answer
// ABOUTME: Completion first, quality gate, then the template synthesizer
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mawell/doc-assistant/internal/logger"
	"github.com/mawell/doc-assistant/internal/models"
)

const (
	minAnswerChars  = 50
	maxCopiedRatio  = 0.8
	stageCompletion = "completion"
	stageTemplate   = "template"
)

var (
	errTooShort = errors.New("response too short")
	errCopied   = errors.New("response mostly copied from context")
)

// Completer sends a prompt to the completion endpoint
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AnswerStage is one step of the answer fallback chain
type AnswerStage interface {
	Name() string
	Compose(ctx context.Context, query, context string) (string, models.Outcome, error)
}

// BuildPrompt assembles the system instruction, context block and question
func BuildPrompt(lex *Lexicon, query, context string) string {
	var b strings.Builder
	b.WriteString(lex.Instruction())
	b.WriteString("\n\nContexto:\n")
	b.WriteString(context)
	b.WriteString("\n\nPregunta: ")
	b.WriteString(strings.TrimSpace(query))
	b.WriteString("\nRespuesta:")
	return b.String()
}

// CopiedRatio is |words(response) ∩ words(context)| / |words(response)|.
// An empty response counts as fully copied.
func CopiedRatio(response, context string) float64 {
	respWords := make(map[string]struct{})
	for _, w := range Words(response) {
		respWords[w] = struct{}{}
	}
	if len(respWords) == 0 {
		return 1
	}
	ctxWords := make(map[string]struct{})
	for _, w := range Words(context) {
		ctxWords[w] = struct{}{}
	}
	shared := 0
	for w := range respWords {
		if _, ok := ctxWords[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(respWords))
}

type completionStage struct {
	completer Completer
	lex       *Lexicon
	observe   func(time.Duration)
}

func (s *completionStage) Name() string { return stageCompletion }

func (s *completionStage) Compose(ctx context.Context, query, context string) (string, models.Outcome, error) {
	start := time.Now()
	text, err := s.completer.Complete(ctx, BuildPrompt(s.lex, query, context))
	if s.observe != nil {
		s.observe(time.Since(start))
	}
	if err != nil {
		return "", "", stageErr(stageCompletion, KindUpstreamTransient, err)
	}

	text = strings.TrimSpace(text)
	if n := runeLen(text); n < minAnswerChars {
		return "", "", stageErr(stageCompletion, KindQualityRejection, fmt.Errorf("%w: %d chars", errTooShort, n))
	}
	if ratio := CopiedRatio(text, context); ratio > maxCopiedRatio {
		return "", "", stageErr(stageCompletion, KindQualityRejection, fmt.Errorf("%w: ratio %.2f", errCopied, ratio))
	}
	return text, models.OutcomeGenerated, nil
}

type templateStage struct {
	synth *TemplateSynthesizer
}

func (s *templateStage) Name() string { return stageTemplate }

func (s *templateStage) Compose(_ context.Context, query, context string) (string, models.Outcome, error) {
	text, slots := s.synth.Synthesize(query, context)
	if slots.Insufficient {
		return text, models.OutcomeInsufficient, nil
	}
	return text, models.OutcomeSynthesized, nil
}

// AnswerComposer runs answer stages in order; the template stage is always last
type AnswerComposer struct {
	stages   []AnswerStage
	fallback *TemplateSynthesizer
	log      logger.Logger
	onFail   func(stage string, kind ErrorKind)
}

// NewAnswerComposer builds the stage list. A nil completer leaves only the
// template stage.
func NewAnswerComposer(lex *Lexicon, completer Completer, synth *TemplateSynthesizer, log logger.Logger) *AnswerComposer {
	if log == nil {
		log = logger.Nop()
	}
	if synth == nil {
		synth = NewTemplateSynthesizer(lex, nil)
	}
	c := &AnswerComposer{fallback: synth, log: log}
	if completer != nil {
		c.stages = append(c.stages, &completionStage{completer: completer, lex: lex})
	}
	c.stages = append(c.stages, &templateStage{synth: synth})
	return c
}

// Stages returns stage names in fallback order
func (c *AnswerComposer) Stages() []string {
	names := make([]string, 0, len(c.stages))
	for _, s := range c.stages {
		names = append(names, s.Name())
	}
	return names
}

func (c *AnswerComposer) observeCompletion(fn func(time.Duration)) {
	for _, s := range c.stages {
		if cs, ok := s.(*completionStage); ok {
			cs.observe = fn
		}
	}
}

// Compose never fails: each stage error is logged and the next stage runs
func (c *AnswerComposer) Compose(ctx context.Context, query string, chunks []models.Chunk) models.Answer {
	texts := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		texts = append(texts, ch.Text())
	}
	contextBlock := strings.Join(texts, "\n")

	for _, stage := range c.stages {
		text, outcome, err := stage.Compose(ctx, query, contextBlock)
		if err == nil {
			return models.Answer{Question: query, Answer: text, Outcome: outcome}
		}

		kind, ok := KindOf(err)
		if !ok {
			kind = KindUpstreamTransient
		}
		c.log.Warn("answer stage failed, falling back", "stage", stage.Name(), "kind", kind, "err", err)
		if c.onFail != nil {
			c.onFail(stage.Name(), kind)
		}
	}

	text, slots := c.fallback.Synthesize(query, contextBlock)
	outcome := models.OutcomeSynthesized
	if slots.Insufficient {
		outcome = models.OutcomeInsufficient
	}
	return models.Answer{Question: query, Answer: text, Outcome: outcome}
}
