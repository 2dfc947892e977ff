// Package server exposes the behavioral analysis engine over HTTP and
// WebSocket.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Kubana90/operator-996-cognitive-os/internal/engine"
)

// Database is the optional administrative view of the persistence layer,
// used for health reporting and explicit schema initialization.
type Database interface {
	Health() error
	Migrate() error
}

// Config configures the HTTP server.
type Config struct {
	Addr          string
	AllowedOrigin string

	Engine *engine.Engine
	DB     Database // nil when persistence is disabled
}

// ═══════════════════════════════════════════════════════════════════════════════
// RESPONSE ENVELOPES
// ═══════════════════════════════════════════════════════════════════════════════

// HealthResponse reports service and database status.
type HealthResponse struct {
	Status    string `json:"status"`
	Operator  string `json:"operator"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}

// ProfileResponse wraps the current profile snapshot.
type ProfileResponse struct {
	Profile   interface{} `json:"profile"`
	Timestamp string      `json:"timestamp"`
}

// AddEventResponse acknowledges a logged event.
type AddEventResponse struct {
	EventID   string `json:"event_id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// EventsResponse lists the full event log.
type EventsResponse struct {
	Count     int                      `json:"count"`
	Events    []engine.BehavioralEvent `json:"events"`
	Timestamp string                   `json:"timestamp"`
}

// PatternsResponse carries a detection result.
type PatternsResponse struct {
	Patterns  []engine.Pattern `json:"patterns"`
	Count     int              `json:"count"`
	Timestamp string           `json:"timestamp"`
}

// AnomaliesResponse carries a detection result.
type AnomaliesResponse struct {
	Anomalies []engine.Anomaly `json:"anomalies"`
	Count     int              `json:"count"`
	Timestamp string           `json:"timestamp"`
}

// SearchResponse carries ranked search results.
type SearchResponse struct {
	Query   string                `json:"query"`
	Results []engine.SearchResult `json:"results"`
	Count   int                   `json:"count"`
}

// ImportResponse acknowledges a bulk event import.
type ImportResponse struct {
	Status    string `json:"status"`
	Imported  int    `json:"imported"`
	Timestamp string `json:"timestamp"`
}

// StatusResponse is the generic admin acknowledgement.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// APIError is the error body returned for failed requests.
type APIError struct {
	Detail string `json:"detail"`
}

// scenarioRequest is the simulate request body.
type scenarioRequest struct {
	Scenario string `json:"scenario"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, APIError{Detail: detail})
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
