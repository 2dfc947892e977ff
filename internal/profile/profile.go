// Package profile defines the fixed-schema operator profile: five categories
// of named scalar attributes, each on a 0-1 scale. The profile is read-only
// input context to the analysis engine; detection never modifies it.
package profile

// Profile is the complete attribute snapshot for the subject under
// observation. Categories are fixed-field structs rather than open maps so
// attribute access is checked at compile time.
type Profile struct {
	Cognitive     CognitiveTraits     `json:"cognitive"`
	Behavioral    BehavioralTraits    `json:"behavioral"`
	Communication CommunicationTraits `json:"communication"`
	Shadow        ShadowTraits        `json:"shadow"`
	Domains       DomainSkills        `json:"domains"`
}

// CognitiveTraits captures raw reasoning capability attributes.
type CognitiveTraits struct {
	IQPercentile          float64 `json:"iq_percentile"`
	PatternRecognition    float64 `json:"pattern_recognition"`
	SystemsThinking       float64 `json:"systems_thinking"`
	StrategicDepth        float64 `json:"strategic_depth"`
	AbstractionCapability float64 `json:"abstraction_capability"`
	MetaCognition         float64 `json:"meta_cognition"`
}

// BehavioralTraits captures observed action tendencies.
type BehavioralTraits struct {
	RiskTolerance        float64 `json:"risk_tolerance"`
	ExperimentationDrive float64 `json:"experimentation_drive"`
	ComplexityComfort    float64 `json:"complexity_comfort"`
	ControlOptimization  float64 `json:"control_optimization"`
	RadicalHonesty       float64 `json:"radical_honesty"`
	InnovationFocus      float64 `json:"innovation_focus"`
}

// CommunicationTraits captures interaction style attributes.
type CommunicationTraits struct {
	Directness              float64 `json:"directness"`
	ProvocationTolerance    float64 `json:"provocation_tolerance"`
	SubstancePreference     float64 `json:"substance_preference"`
	ManipulationSensitivity float64 `json:"manipulation_sensitivity"`
	DepthSeeking            float64 `json:"depth_seeking"`
}

// ShadowTraits captures risk and failure-mode attributes.
type ShadowTraits struct {
	CognitiveOverloadRisk float64 `json:"cognitive_overload_risk"`
	Perfectionism         float64 `json:"perfectionism"`
	ControlTendency       float64 `json:"control_tendency"`
	RuminationRisk        float64 `json:"rumination_risk"`
	TrustDeficit          float64 `json:"trust_deficit"`
	EmotionalVolatility   float64 `json:"emotional_volatility"`
}

// DomainSkills captures per-domain competence attributes.
type DomainSkills struct {
	AIIntegration           float64 `json:"ai_integration"`
	FullStackDevelopment    float64 `json:"full_stack_development"`
	ElectromagneticResearch float64 `json:"electromagnetic_research"`
	TradingAnalytics        float64 `json:"trading_analytics"`
	Modeling3D              float64 `json:"3d_modeling"`
	BusinessStrategy        float64 `json:"business_strategy"`
	PsychologicalAnalysis   float64 `json:"psychological_analysis"`
}

// Seed returns the fixed Operator-996 seed profile. This is the fallback
// state the engine starts from when no persisted snapshot exists.
func Seed() Profile {
	return Profile{
		Cognitive: CognitiveTraits{
			IQPercentile:          0.98,
			PatternRecognition:    0.95,
			SystemsThinking:       0.93,
			StrategicDepth:        0.92,
			AbstractionCapability: 0.94,
			MetaCognition:         0.91,
		},
		Behavioral: BehavioralTraits{
			RiskTolerance:        0.85,
			ExperimentationDrive: 0.88,
			ComplexityComfort:    0.92,
			ControlOptimization:  0.87,
			RadicalHonesty:       0.90,
			InnovationFocus:      0.91,
		},
		Communication: CommunicationTraits{
			Directness:              0.89,
			ProvocationTolerance:    0.85,
			SubstancePreference:     0.93,
			ManipulationSensitivity: 0.88,
			DepthSeeking:            0.91,
		},
		Shadow: ShadowTraits{
			CognitiveOverloadRisk: 0.72,
			Perfectionism:         0.85,
			ControlTendency:       0.79,
			RuminationRisk:        0.68,
			TrustDeficit:          0.74,
			EmotionalVolatility:   0.65,
		},
		Domains: DomainSkills{
			AIIntegration:           0.94,
			FullStackDevelopment:    0.91,
			ElectromagneticResearch: 0.82,
			TradingAnalytics:        0.87,
			Modeling3D:              0.80,
			BusinessStrategy:        0.84,
			PsychologicalAnalysis:   0.86,
		},
	}
}
