package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Kubana90/operator-996-cognitive-os/internal/engine"
)

// maxImportSize bounds event import uploads to 10MB.
const maxImportSize = 10 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "not_configured"
	if s.db != nil {
		if err := s.db.Health(); err != nil {
			dbStatus = "disconnected"
		} else {
			dbStatus = "connected"
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "online",
		Operator:  engine.OperatorName,
		Timestamp: nowStamp(),
		Database:  dbStatus,
	})
}

func (s *Server) handleInitDB(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, StatusResponse{
			Status:  "skipped",
			Message: "Database not configured",
		})
		return
	}

	if err := s.db.Migrate(); err != nil {
		s.log.Error("Database initialization failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, StatusResponse{
			Status:  "error",
			Message: "Failed to initialize database",
		})
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "Database initialized"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ProfileResponse{
		Profile:   s.engine.Profile(),
		Timestamp: nowStamp(),
	})
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var rec engine.EventRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid event payload: %v", err))
		return
	}

	ev, err := s.engine.AddEvent(r.Context(), rec)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AddEventResponse{
		EventID:   ev.ID,
		Status:    "logged",
		Timestamp: nowStamp(),
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events := s.engine.Events()
	writeJSON(w, http.StatusOK, EventsResponse{
		Count:     len(events),
		Events:    events,
		Timestamp: nowStamp(),
	})
}

func (s *Server) handleDetectPatterns(w http.ResponseWriter, r *http.Request) {
	patterns := s.engine.DetectPatterns(r.Context())
	writeJSON(w, http.StatusOK, PatternsResponse{
		Patterns:  patterns,
		Count:     len(patterns),
		Timestamp: nowStamp(),
	})
}

func (s *Server) handleDetectAnomalies(w http.ResponseWriter, r *http.Request) {
	anomalies := s.engine.DetectAnomalies(r.Context())
	writeJSON(w, http.StatusOK, AnomaliesResponse{
		Anomalies: anomalies,
		Count:     len(anomalies),
		Timestamp: nowStamp(),
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req scenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	prediction, err := s.engine.Simulate(req.Scenario)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyScenario) {
			writeError(w, http.StatusBadRequest, "Scenario required")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, prediction)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	results := s.engine.Search(r.Context(), query)
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   query,
		Results: results,
		Count:   len(results),
	})
}

// handleImportEvents accepts a multipart upload with a "file" field
// holding a JSON array of event records. Events are ingested in order;
// the first malformed record aborts the import.
func (s *Server) handleImportEvents(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read upload: %v", err))
		return
	}

	var records []engine.EventRecord
	if err := json.Unmarshal(content, &records); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	imported := 0
	for _, rec := range records {
		if _, err := s.engine.AddEvent(r.Context(), rec); err != nil {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("event %d: %v", imported, err))
			return
		}
		imported++
	}

	s.log.Info("Imported %d events", imported)
	writeJSON(w, http.StatusOK, ImportResponse{
		Status:    "success",
		Imported:  imported,
		Timestamp: nowStamp(),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Export())
}
