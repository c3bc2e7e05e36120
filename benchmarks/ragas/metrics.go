// ABOUTME: Deterministic answer metrics: outcome match, faithfulness and context recall
// ABOUTME: Scores compare the answer and retrieved chunks against scenario ground truth

package ragas

import (
	"fmt"
	"strings"

	"github.com/mawell/doc-assistant/internal/models"
)

// passThreshold is the minimum faithfulness and recall for a PASS
const passThreshold = 0.9

// MetricsCalculator computes scores for benchmark tests
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateOutcomeMatch checks the pipeline took the expected branch
func (m *MetricsCalculator) CalculateOutcomeMatch(got, want models.Outcome) (bool, string) {
	if got == want {
		return true, fmt.Sprintf("Outcome %s as expected", got)
	}
	return false, fmt.Sprintf("Outcome %s, expected %s", got, want)
}

// CalculateFaithfulness computes faithfulness score (0.0-1.0).
// All expected strings present and no forbidden string scores 1.0.
func (m *MetricsCalculator) CalculateFaithfulness(
	response string,
	expectedInResponse []string,
	forbiddenInResponse []string,
) (float64, string) {
	responseUpper := strings.ToUpper(response)

	missingItems := []string{}
	for _, expected := range expectedInResponse {
		if !strings.Contains(responseUpper, strings.ToUpper(expected)) {
			missingItems = append(missingItems, expected)
		}
	}

	forbiddenFound := []string{}
	for _, forbidden := range forbiddenInResponse {
		if strings.Contains(responseUpper, strings.ToUpper(forbidden)) {
			forbiddenFound = append(forbiddenFound, forbidden)
		}
	}

	switch {
	case len(missingItems) == 0 && len(forbiddenFound) == 0:
		return 1.0, "Response matches expected ground truth"
	case len(missingItems) > 0 && len(forbiddenFound) > 0:
		return 0.0, fmt.Sprintf(
			"Faithfulness failure - missing expected items: %v, forbidden items found: %v",
			missingItems, forbiddenFound,
		)
	case len(missingItems) > 0:
		return 0.5, fmt.Sprintf("Partial faithfulness - missing expected items: %v", missingItems)
	default:
		return 0.5, fmt.Sprintf("Partial faithfulness - forbidden items found: %v", forbiddenFound)
	}
}

// CalculateContextRecall is the share of expected items found in the
// retrieved chunks (0.0-1.0)
func (m *MetricsCalculator) CalculateContextRecall(
	retrievedContext []string,
	expectedContextItems []string,
) (float64, string) {
	if len(expectedContextItems) == 0 {
		return 1.0, "No context retrieval required"
	}

	allContext := strings.ToUpper(strings.Join(retrievedContext, " "))

	foundCount := 0
	missingItems := []string{}
	for _, expectedItem := range expectedContextItems {
		if strings.Contains(allContext, strings.ToUpper(expectedItem)) {
			foundCount++
		} else {
			missingItems = append(missingItems, expectedItem)
		}
	}

	recall := float64(foundCount) / float64(len(expectedContextItems))
	if recall == 1.0 {
		return 1.0, "All expected items retrieved"
	}

	return recall, fmt.Sprintf(
		"Partial context recall (%.2f) - missing items: %v",
		recall, missingItems,
	)
}

// EvaluateTest scores one answer against its scenario
func (m *MetricsCalculator) EvaluateTest(
	scenario TestScenario,
	answer models.Answer,
	retrievedContext []string,
) TestResult {
	gt := scenario.GroundTruth

	outcomeMatch, outcomeDetail := m.CalculateOutcomeMatch(answer.Outcome, gt.ExpectedOutcome)
	faithfulness, faithfulnessDetail := m.CalculateFaithfulness(
		answer.Answer,
		gt.ExpectedInResponse,
		gt.ForbiddenInResponse,
	)
	recall, recallDetail := m.CalculateContextRecall(retrievedContext, gt.ExpectedContextItems)

	status := "FAIL"
	if outcomeMatch && faithfulness >= passThreshold && recall >= passThreshold {
		status = "PASS"
	}

	return TestResult{
		TestID:             scenario.ID,
		TestName:           scenario.Name,
		Outcome:            answer.Outcome,
		OutcomeMatch:       outcomeMatch,
		FaithfulnessScore:  faithfulness,
		ContextRecallScore: recall,
		OverallScore:       (faithfulness + recall) / 2.0,
		Status:             status,
		Details: map[string]any{
			"outcome_detail":      outcomeDetail,
			"faithfulness_detail": faithfulnessDetail,
			"recall_detail":       recallDetail,
			"final_response":      string([]rune(answer.Answer)[:min(200, len([]rune(answer.Answer)))]),
			"source_ids":          answer.SourceIDs,
			"context_items":       len(retrievedContext),
		},
	}
}
