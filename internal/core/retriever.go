// ABOUTME: Stage errors and the retrieval fallback chain
// ABOUTME: Unavailable stages hand over to the next; "no relevant result" is final
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/mawell/doc-assistant/internal/logger"
	"github.com/mawell/doc-assistant/internal/models"
)

// ErrorKind classifies recoverable stage failures
type ErrorKind string

const (
	// KindResourceUnavailable - model, index or chunk file missing or failing
	KindResourceUnavailable ErrorKind = "resource_unavailable"

	// KindIncompatibleIndex - index dimension or row count does not fit
	KindIncompatibleIndex ErrorKind = "incompatible_index"

	// KindUpstreamTransient - completion endpoint failed, timed out or returned garbage
	KindUpstreamTransient ErrorKind = "upstream_transient"

	// KindQualityRejection - completion too short or mostly copied from context
	KindQualityRejection ErrorKind = "quality_rejection"
)

// StageError is the failure value of one retrieval or composition stage
type StageError struct {
	Stage string
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage string, kind ErrorKind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err, if it carries one
func KindOf(err error) (ErrorKind, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// DefaultTopK is the number of chunks retrieved when no limit is given
const DefaultTopK = 4

// Retriever is one retrieval strategy. Both strategies return no hits
// for topK <= 0.
type Retriever interface {
	Name() models.Strategy
	Search(ctx context.Context, query string, topK int) (models.RetrievalResult, error)
}

// RetrievalChain tries retrievers in order until one produces a verdict
type RetrievalChain struct {
	stages []Retriever
	log    logger.Logger
	onFail func(stage string, kind ErrorKind)
}

// NewRetrievalChain builds a chain; nil stages are skipped
func NewRetrievalChain(log logger.Logger, stages ...Retriever) *RetrievalChain {
	if log == nil {
		log = logger.Nop()
	}
	chain := &RetrievalChain{log: log}
	for _, s := range stages {
		if s != nil {
			chain.stages = append(chain.stages, s)
		}
	}
	return chain
}

// Stages returns the strategy names in fallback order
func (c *RetrievalChain) Stages() []models.Strategy {
	names := make([]models.Strategy, 0, len(c.stages))
	for _, s := range c.stages {
		names = append(names, s.Name())
	}
	return names
}

// Search runs the chain. A stage returning a StageError hands over to the
// next stage; a stage returning a result (relevant or not) ends the chain.
// When every stage fails the result is "no relevant result". The failures
// are returned for logging and metrics, never as the outcome.
// topK <= 0 means DefaultTopK.
func (c *RetrievalChain) Search(ctx context.Context, query string, topK int) (models.RetrievalResult, []error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	var failures []error
	for _, stage := range c.stages {
		result, err := stage.Search(ctx, query, topK)
		if err == nil {
			return result, failures
		}

		var se *StageError
		if !errors.As(err, &se) {
			se = stageErr(string(stage.Name()), KindResourceUnavailable, err)
		}
		c.log.Warn("retrieval stage failed, falling back", "stage", se.Stage, "kind", se.Kind, "err", se.Err)
		if c.onFail != nil {
			c.onFail(se.Stage, se.Kind)
		}
		failures = append(failures, se)
	}
	return models.NoRelevant(models.StrategyNone), failures
}
