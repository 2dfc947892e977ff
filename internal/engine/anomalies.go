package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// antonymPairs lists the opposing decision-logic keyword pairs that flag a
// contradiction. Each pair is checked in both assignment directions, so
// the match is symmetric.
var antonymPairs = [][2]string{
	{"conservative", "aggressive"},
	{"minimize_risk", "maximize_upside"},
	{"incremental", "radical"},
}

// perfectionismMinEvents gates the completion-rate rule; small logs carry
// too little signal to judge delivery behavior.
const perfectionismMinEvents = 5

// perfectionismThreshold is the completion ratio below which the rule
// fires.
const perfectionismThreshold = 0.4

// DetectAnomalies scans the event log for behavioral deviations and
// replaces the engine's anomaly set with the result. Like pattern
// detection this is a pure function of the log snapshot, except for the
// wall-clock stamp on the completion-rate anomaly.
func (e *Engine) DetectAnomalies(ctx context.Context) []Anomaly {
	e.mu.RLock()
	events := copyEvents(e.events)
	e.mu.RUnlock()

	anomalies := detectAnomalies(events, e.now().UTC())

	e.mu.Lock()
	e.anomalies = anomalies
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.ReplaceAnomalies(ctx, anomalies); err != nil {
			e.log.Warn("Failed to persist anomalies: %v", err)
		}
	}

	e.log.Info("Detected %d anomalies", len(anomalies))
	return anomalies
}

// Anomalies returns the anomaly set from the last detection call.
func (e *Engine) Anomalies() []Anomaly {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Anomaly(nil), e.anomalies...)
}

func detectAnomalies(events []BehavioralEvent, now time.Time) []Anomaly {
	anomalies := []Anomaly{}
	anomalies = append(anomalies, detectContradictions(events)...)
	anomalies = append(anomalies, detectPerfectionism(events, now)...)
	return anomalies
}

// detectContradictions examines every pair of same-type events, earlier
// against later, whose decision logic strings carry opposite sides of an
// antonym pair. A later event may contradict several earlier ones; each
// pair is flagged independently. The anomaly carries the later event's
// timestamp. Quadratic over the log, which is fine at journaling scale.
func detectContradictions(events []BehavioralEvent) []Anomaly {
	var anomalies []Anomaly

	for i, earlier := range events {
		for _, later := range events[i+1:] {
			if earlier.EventType != later.EventType {
				continue
			}
			if earlier.DecisionLogic == "" || later.DecisionLogic == "" {
				continue
			}
			if !contradicts(earlier.DecisionLogic, later.DecisionLogic) {
				continue
			}

			anomalies = append(anomalies, Anomaly{
				Timestamp:   later.Timestamp,
				AnomalyType: AnomalyContradiction,
				Severity:    SeverityContradiction,
				Explanation: "Decision logic inconsistency detected between events",
				Events:      []string{earlier.ID, later.ID},
			})
		}
	}
	return anomalies
}

func contradicts(logicA, logicB string) bool {
	a := strings.ToLower(logicA)
	b := strings.ToLower(logicB)
	for _, pair := range antonymPairs {
		if strings.Contains(a, pair[0]) && strings.Contains(b, pair[1]) {
			return true
		}
		if strings.Contains(a, pair[1]) && strings.Contains(b, pair[0]) {
			return true
		}
	}
	return false
}

// detectPerfectionism flags a low project completion rate. The numerator
// counts completed outcomes across ALL event types, not just projects, so
// a completed decision inflates the ratio. Downstream consumers are
// calibrated against this exact behavior; do not narrow the numerator.
func detectPerfectionism(events []BehavioralEvent, now time.Time) []Anomaly {
	if len(events) <= perfectionismMinEvents {
		return nil
	}

	projects := 0
	completed := 0
	for _, ev := range events {
		if ev.EventType == EventProject {
			projects++
		}
		if ev.Outcome == OutcomeCompleted {
			completed++
		}
	}

	if projects == 0 {
		return nil
	}
	if float64(completed)/float64(projects) >= perfectionismThreshold {
		return nil
	}

	return []Anomaly{{
		Timestamp:      now,
		AnomalyType:    AnomalyPerfectionism,
		Severity:       SeverityPerfectionism,
		Explanation:    fmt.Sprintf("Low project completion rate (%d/%d). Perfectionism or scope-creep detected.", completed, projects),
		Recommendation: "Implement checkpoint-based delivery cycles",
	}}
}
