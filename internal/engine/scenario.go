package engine

import (
	"fmt"
	"strings"
)

// decisionPatterns is the fixed pattern list the predictor reasons from.
// The reasoning text is parameterized only by its length, never by actual
// event content.
var decisionPatterns = []string{
	"Systems-thinking approach",
	"High-complexity tolerance",
	"Innovation bias",
	"Experimentation-first",
	"Risk-informed decision making",
}

// predictionConfidence is fixed; the predictor is a deterministic
// template, not a model.
const predictionConfidence = 0.79

// Simulate predicts the operator's decision for a hypothetical scenario.
// The scenario text is echoed verbatim; every other field is a fixed
// template value. Blank scenario text is the one input the engine rejects
// directly.
func (e *Engine) Simulate(scenario string) (Prediction, error) {
	if strings.TrimSpace(scenario) == "" {
		return Prediction{}, ErrEmptyScenario
	}

	p := Prediction{
		Scenario:          scenario,
		PredictedDecision: "Systematic analysis -> High-complexity embrace -> Innovation-driven choice",
		Reasoning: fmt.Sprintf(
			"Based on %d documented decisions: %s prioritizes systems-thinking, complexity tolerance, and innovation potential over risk minimization.",
			len(decisionPatterns), OperatorName),
		Confidence: predictionConfidence,
		AlternativePaths: []string{
			"Conservative risk-mitigation approach (lower probability)",
			"Radical experimentation path (higher risk, higher reward)",
			"Hybrid iterative approach",
		},
		CognitiveLoadAssessment: "Medium-High. Recommend checkpoint reflection.",
		BiasCheck:               "Confirmation bias risk detected in scenario interpretation",
	}

	e.log.Info("Scenario simulated (confidence %.2f)", p.Confidence)
	return p, nil
}
