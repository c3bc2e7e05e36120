// ABOUTME: Benchmark corpus, scenarios and result types
// ABOUTME: Each scenario fixes the query, the model reply and the expected ground truth

package ragas

import "github.com/mawell/doc-assistant/internal/models"

// Corpus is the built-in document set every scenario runs against.
// Positions are chunk ids.
var Corpus = []string{
	"Mawell es una empresa dedicada al tratamiento de agua para clientes industriales y residenciales.",
	"Bombas centrífugas Mawell: la bomba BC-200 entrega un caudal de 120 litros por minuto. El equipo incluye un motor de 2 HP.",
	"El servicio de mantenimiento preventivo incluye la revisión de filtros y la medición de presión cada seis meses.",
	"La planta de ósmosis inversa reduce las sales disueltas del agua de pozo. El proceso comienza con un prefiltro de sedimentos.",
	"El filtro de arena retiene sedimentos. El filtro de carbón activado elimina cloro y olores del agua.",
	"El análisis de laboratorio mide dureza, cloro residual y pH de cada muestra de agua.",
}

// TestScenario is one benchmark question with its ground truth
type TestScenario struct {
	ID          string
	Name        string
	Description string
	Query       string

	// ModelReply is what the fake completion endpoint answers.
	// Empty makes the endpoint fail with HTTP 500.
	ModelReply string

	// Vector enables the embedding stage for this scenario
	Vector bool

	GroundTruth GroundTruth
}

// GroundTruth defines expected outcomes for evaluation
type GroundTruth struct {
	ExpectedOutcome     models.Outcome
	ExpectedInResponse  []string // Strings that MUST appear in response
	ForbiddenInResponse []string // Strings that MUST NOT appear in response

	// Text that should be present in the retrieved chunks
	ExpectedContextItems []string
}

// TestResult represents the outcome of a benchmark test
type TestResult struct {
	TestID             string         `json:"test_id"`
	TestName           string         `json:"test_name"`
	Outcome            models.Outcome `json:"outcome"`
	OutcomeMatch       bool           `json:"outcome_match"`
	FaithfulnessScore  float64        `json:"faithfulness"`
	ContextRecallScore float64        `json:"context_recall"`
	OverallScore       float64        `json:"overall"`
	Status             string         `json:"status"` // "PASS" or "FAIL"
	Details            map[string]any `json:"details,omitempty"`
}

// GetExactMatch: a direct question answered by the model
func GetExactMatch() TestScenario {
	return TestScenario{
		ID:          "exact",
		Name:        "Exact match",
		Description: "Query terms appear verbatim in one chunk; the model answer is accepted",
		Query:       "¿Qué incluye el servicio de mantenimiento preventivo?",
		ModelReply:  "El mantenimiento preventivo de Mawell contempla revisar los filtros y medir la presión de forma semestral.",
		GroundTruth: GroundTruth{
			ExpectedOutcome:      models.OutcomeGenerated,
			ExpectedInResponse:   []string{"mantenimiento", "filtros"},
			ExpectedContextItems: []string{"mantenimiento preventivo"},
		},
	}
}

// GetDeflection: an off-domain question never reaches the model
func GetDeflection() TestScenario {
	return TestScenario{
		ID:          "deflect",
		Name:        "Off-topic deflection",
		Description: "Nothing is retrieved and the query hits the deny list",
		Query:       "¿Me recomiendas una receta de cocina?",
		ModelReply:  "Claro, una buena receta es la paella valenciana con arroz y mariscos frescos del día.",
		GroundTruth: GroundTruth{
			ExpectedOutcome:     models.OutcomeDeflected,
			ExpectedInResponse:  []string{"fuera de mi alcance"},
			ForbiddenInResponse: []string{"paella"},
		},
	}
}

// GetSpecificity: a vague question asks the user for details
func GetSpecificity() TestScenario {
	return TestScenario{
		ID:          "specific",
		Name:        "Needs specificity",
		Description: "Nothing is retrieved and the query is not off-domain",
		Query:       "¿Tienen algo para mi casa?",
		ModelReply:  "Sí, tenemos muchas soluciones para hogares, desde filtros hasta bombas de todo tipo.",
		GroundTruth: GroundTruth{
			ExpectedOutcome:     models.OutcomeNeedsSpecificity,
			ExpectedInResponse:  []string{"más detalles"},
			ForbiddenInResponse: []string{"soluciones para hogares"},
		},
	}
}

// GetOutageFallback: the completion endpoint fails and a template answers
func GetOutageFallback() TestScenario {
	return TestScenario{
		ID:          "outage",
		Name:        "Completion outage fallback",
		Description: "Completion returns HTTP 500; the answer is built from the retrieved lines",
		Query:       "¿Cómo funciona la planta de ósmosis inversa?",
		GroundTruth: GroundTruth{
			ExpectedOutcome:      models.OutcomeSynthesized,
			ExpectedInResponse:   []string{"ósmosis"},
			ExpectedContextItems: []string{"ósmosis inversa"},
		},
	}
}

// GetRanking: repeated query terms rank the right chunk first
func GetRanking() TestScenario {
	return TestScenario{
		ID:          "ranking",
		Name:        "Lexical ranking",
		Description: "Two mentions of the query term admit a single chunk",
		Query:       "¿Qué filtro usan?",
		ModelReply:  "Mawell usa un filtro de arena para sedimentos y otro de carbón activado contra cloro y olores.",
		GroundTruth: GroundTruth{
			ExpectedOutcome:      models.OutcomeGenerated,
			ExpectedInResponse:   []string{"carbón activado"},
			ExpectedContextItems: []string{"carbón activado"},
		},
	}
}

// GetVectorSynonym: an embedding match where lexical scoring would find nothing
func GetVectorSynonym() TestScenario {
	return TestScenario{
		ID:          "vector",
		Name:        "Vector synonym match",
		Description: "The query only shares a word stem with the pump chunk; vector retrieval finds it",
		Query:       "¿Venden motobombas?",
		ModelReply:  "Sí, Mawell comercializa motobombas centrífugas como la BC-200, pensadas para caudales altos.",
		Vector:      true,
		GroundTruth: GroundTruth{
			ExpectedOutcome:      models.OutcomeGenerated,
			ExpectedInResponse:   []string{"BC-200"},
			ExpectedContextItems: []string{"BC-200"},
		},
	}
}

// GetAllTests returns every scenario in run order
func GetAllTests() []TestScenario {
	return []TestScenario{
		GetExactMatch(),
		GetDeflection(),
		GetSpecificity(),
		GetOutageFallback(),
		GetRanking(),
		GetVectorSynonym(),
	}
}

// GetTest looks a scenario up by ID
func GetTest(id string) (TestScenario, bool) {
	for _, s := range GetAllTests() {
		if s.ID == id {
			return s, true
		}
	}
	return TestScenario{}, false
}
