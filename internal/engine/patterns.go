package engine

import (
	"context"
	"strings"
)

// themeVocabulary is the fixed keyword set scanned for in decision logic
// text. Themes are reported in this order.
var themeVocabulary = []string{
	"systematic",
	"complexity",
	"innovation",
	"optimization",
	"analysis",
	"experiment",
}

// commCharacteristics is the fixed characteristics list reported for the
// communication signature. Intentionally a placeholder heuristic, not
// derived from message content.
var commCharacteristics = []string{"direct", "substantive", "provocative"}

// Fixed confidence constants for the count-gated rules.
const (
	decisionConfidencePerEvent = 0.15
	decisionConfidenceCap      = 0.95
	domainFocusConfidence      = 0.88
	commSignatureConfidence    = 0.82
)

// DetectPatterns scans the event log for recurring structure and replaces
// the engine's pattern set with the result. The computation is a pure
// function of the current log snapshot; calling it twice without an
// intervening append yields identical output.
func (e *Engine) DetectPatterns(ctx context.Context) []Pattern {
	e.mu.RLock()
	events := copyEvents(e.events)
	e.mu.RUnlock()

	patterns := detectPatterns(events)

	e.mu.Lock()
	e.patterns = patterns
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.ReplacePatterns(ctx, patterns); err != nil {
			e.log.Warn("Failed to persist patterns: %v", err)
		}
	}

	e.log.Info("Detected %d patterns", len(patterns))
	return patterns
}

// Patterns returns the pattern set from the last detection call.
func (e *Engine) Patterns() []Pattern {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Pattern(nil), e.patterns...)
}

// detectPatterns evaluates the three fixed rules in order. Each rule is
// independently optional: it contributes nothing when its precondition is
// unmet. An empty log yields an empty list, not an error.
func detectPatterns(events []BehavioralEvent) []Pattern {
	if len(events) == 0 {
		return []Pattern{}
	}

	patterns := []Pattern{}

	// Rule 1: decision logic themes, gated on at least 3 decision events.
	decisions := filterByType(events, EventDecision)
	if len(decisions) >= 3 {
		confidence := float64(len(decisions)) * decisionConfidencePerEvent
		if confidence > decisionConfidenceCap {
			confidence = decisionConfidenceCap
		}

		patterns = append(patterns, Pattern{
			Name:       PatternDecisionLogic,
			Confidence: confidence,
			Count:      len(decisions),
			Themes:     extractThemes(decisions),
		})
	}

	// Rule 2: project domain clustering, gated on any project event.
	projects := filterByType(events, EventProject)
	if len(projects) > 0 {
		domains := make(map[string]int)
		for _, p := range projects {
			for _, tag := range p.Tags {
				domains[tag]++
			}
		}

		patterns = append(patterns, Pattern{
			Name:       PatternDomainFocus,
			Confidence: domainFocusConfidence,
			Count:      len(projects),
			Domains:    domains,
		})
	}

	// Rule 3: communication signature, gated on at least 2 communication
	// events.
	comms := filterByType(events, EventCommunication)
	if len(comms) >= 2 {
		patterns = append(patterns, Pattern{
			Name:            PatternCommSignature,
			Confidence:      commSignatureConfidence,
			Count:           len(comms),
			Characteristics: append([]string(nil), commCharacteristics...),
		})
	}

	return patterns
}

// extractThemes returns the subset of the fixed vocabulary present in the
// concatenation of the events' decision logic, matched case-insensitively
// as substrings.
func extractThemes(events []BehavioralEvent) []string {
	var sb strings.Builder
	for i, ev := range events {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(ev.DecisionLogic)
	}
	combined := strings.ToLower(sb.String())

	themes := []string{}
	for _, kw := range themeVocabulary {
		if strings.Contains(combined, kw) {
			themes = append(themes, kw)
		}
	}
	return themes
}

func filterByType(events []BehavioralEvent, eventType string) []BehavioralEvent {
	var out []BehavioralEvent
	for _, ev := range events {
		if ev.EventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}
