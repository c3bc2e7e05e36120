// ABOUTME: Answer is the result handed back to the calling application
// ABOUTME: Outcome records which branch of the pipeline produced the text
package models

// Outcome identifies how an answer was produced
type Outcome string

const (
	// OutcomeGenerated - the completion endpoint produced an accepted answer
	OutcomeGenerated Outcome = "generated"

	// OutcomeSynthesized - the template synthesizer built the answer from context lines
	OutcomeSynthesized Outcome = "synthesized"

	// OutcomeInsufficient - context existed but no usable line survived filtering
	OutcomeInsufficient Outcome = "insufficient"

	// OutcomeDeflected - no relevant chunks and the query hit the deny list
	OutcomeDeflected Outcome = "deflected"

	// OutcomeNeedsSpecificity - no relevant chunks, query not obviously off-domain
	OutcomeNeedsSpecificity Outcome = "needs_specificity"
)

// IsValid reports whether the outcome is one of the known values
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeGenerated, OutcomeSynthesized, OutcomeInsufficient,
		OutcomeDeflected, OutcomeNeedsSpecificity:
		return true
	}
	return false
}

// Answer is the question/answer pair returned by the core
type Answer struct {
	Question  string  `json:"question"`
	Answer    string  `json:"answer"`
	Outcome   Outcome `json:"outcome"`
	SourceIDs []int   `json:"source_ids,omitempty"`
}
