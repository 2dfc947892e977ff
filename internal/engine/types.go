// Package engine implements the behavioral analysis core: an append-only
// event log plus the pattern detector, anomaly detector, scenario predictor,
// and similarity search that operate over it. Detection is deliberately
// recompute-from-scratch; every call replaces the previous derived state.
package engine

import (
	"errors"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════════
// EVENT TYPES
// ═══════════════════════════════════════════════════════════════════════════════

// Event types significant to detection. The event_type field is an open
// string enumeration; unknown types are stored but ignored by the rules.
const (
	EventDecision      = "decision"
	EventProject       = "project"
	EventInteraction   = "interaction"
	EventCommunication = "communication"
)

// OutcomeCompleted is the outcome value the completion-rate rule counts.
const OutcomeCompleted = "completed"

// EventRecord is the wire shape for an incoming behavioral event. The
// timestamp arrives as text and is normalized during ingestion.
type EventRecord struct {
	EventType     string   `json:"event_type"`
	Description   string   `json:"description"`
	Timestamp     string   `json:"timestamp"`
	Outcome       string   `json:"outcome,omitempty"`
	DecisionLogic string   `json:"decision_logic,omitempty"`
	Tags          []string `json:"tags"`
}

// BehavioralEvent is a stored, timestamped behavioral observation.
// Events are append-only: the engine never mutates or removes them.
type BehavioralEvent struct {
	ID            string    `json:"id"`
	EventType     string    `json:"event_type"`
	Description   string    `json:"description"`
	Timestamp     time.Time `json:"timestamp"`
	Outcome       string    `json:"outcome,omitempty"`
	DecisionLogic string    `json:"decision_logic,omitempty"`
	Tags          []string  `json:"tags"`
}

// ═══════════════════════════════════════════════════════════════════════════════
// DERIVED TYPES
// ═══════════════════════════════════════════════════════════════════════════════

// Fixed pattern names produced by the detector.
const (
	PatternDecisionLogic = "Decision Logic Pattern"
	PatternDomainFocus   = "Project Domain Focus"
	PatternCommSignature = "Communication Signature"
)

// Pattern is a derived, ephemeral summary of recurring structure in the
// event log. The full pattern set is replaced on every detection call.
type Pattern struct {
	Name            string         `json:"name"`
	Confidence      float64        `json:"confidence"`
	Count           int            `json:"count"`
	Themes          []string       `json:"themes,omitempty"`
	Domains         map[string]int `json:"domains,omitempty"`
	Characteristics []string       `json:"characteristics,omitempty"`
}

// Anomaly types produced by the detector.
const (
	AnomalyContradiction = "contradiction"
	AnomalyPerfectionism = "perfectionism_overreach"
)

// Severity is a fixed constant per anomaly type, not computed from
// magnitude.
const (
	SeverityContradiction = 0.65
	SeverityPerfectionism = 0.72
)

// Anomaly is a derived, ephemeral deviation flag. The full anomaly set is
// replaced on every detection call.
type Anomaly struct {
	Timestamp      time.Time `json:"timestamp"`
	AnomalyType    string    `json:"anomaly_type"`
	Severity       float64   `json:"severity"`
	Explanation    string    `json:"explanation"`
	Recommendation string    `json:"recommendation,omitempty"`
	Events         []string  `json:"events,omitempty"`
}

// Prediction is the fixed-structure scenario simulation response.
type Prediction struct {
	Scenario                string   `json:"scenario"`
	PredictedDecision       string   `json:"predicted_decision"`
	Reasoning               string   `json:"reasoning"`
	Confidence              float64  `json:"confidence"`
	AlternativePaths        []string `json:"alternative_paths"`
	CognitiveLoadAssessment string   `json:"cognitive_load_assessment"`
	BiasCheck               string   `json:"bias_check"`
}

// Search result sources.
const (
	SourceEvent   = "event"
	SourcePattern = "pattern"
	SourceError   = "error"
)

// SearchResult is one ranked similarity search hit. When the embedding
// capability is unavailable the whole result list degrades to a single
// entry with Source == SourceError.
type SearchResult struct {
	Source     string  `json:"source"`
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name,omitempty"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
	Timestamp  string  `json:"timestamp,omitempty"`
}

// ═══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ═══════════════════════════════════════════════════════════════════════════════

// ErrEmptyScenario is returned by Simulate for blank scenario text. This is
// the one validation the core enforces directly.
var ErrEmptyScenario = errors.New("scenario text is required")

// ErrEmptyDescription is returned when an event arrives without a
// description.
var ErrEmptyDescription = errors.New("event description is required")
