// ABOUTME: Intent categories used to shape template answers
// ABOUTME: Parsed from lexicon configuration, defaults to general
package models

import "fmt"

// Intent is the answer-shape category of a query
type Intent string

const (
	IntentCompanyInfo    Intent = "company-info"
	IntentEquipment      Intent = "equipment"
	IntentServices       Intent = "services"
	IntentProcess        Intent = "process"
	IntentSpecifications Intent = "specifications"
	IntentPricing        Intent = "pricing"
	IntentGeneral        Intent = "general"
)

// AllIntents lists every intent in classification order
var AllIntents = []Intent{
	IntentCompanyInfo,
	IntentEquipment,
	IntentServices,
	IntentProcess,
	IntentSpecifications,
	IntentPricing,
	IntentGeneral,
}

// ParseIntent converts a configuration string into an Intent
func ParseIntent(s string) (Intent, error) {
	for _, intent := range AllIntents {
		if string(intent) == s {
			return intent, nil
		}
	}
	return "", fmt.Errorf("unknown intent %q", s)
}
