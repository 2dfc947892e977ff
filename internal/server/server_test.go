package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Kubana90/operator-996-cognitive-os/internal/engine"
	"github.com/Kubana90/operator-996-cognitive-os/internal/logging"
)

func init() {
	logging.SetGlobal(logging.New(&logging.Config{Level: logging.LevelError, Colored: false}))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng := engine.New(&engine.Config{
		Log: logging.New(&logging.Config{Level: logging.LevelError, Colored: false}),
	})
	return New(&Config{Addr: ":0", Engine: eng})
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("unmarshal response: %v\nbody: %s", err, rec.Body.String())
		}
	}
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	var resp HealthResponse
	rec := doJSON(t, s, http.MethodGet, "/health", nil, &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp.Status != "online" {
		t.Errorf("expected status online, got %q", resp.Status)
	}
	if resp.Operator != "Operator-996" {
		t.Errorf("unexpected operator %q", resp.Operator)
	}
	if resp.Database != "not_configured" {
		t.Errorf("expected not_configured database, got %q", resp.Database)
	}
}

func TestCORSHeaders(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}

func TestAddAndListEvents(t *testing.T) {
	s := newTestServer(t)

	var addResp AddEventResponse
	rec := doJSON(t, s, http.MethodPost, "/event/add", engine.EventRecord{
		EventType:   engine.EventDecision,
		Description: "adopted structured logging",
		Timestamp:   "2025-06-01T10:00:00Z",
		Tags:        []string{"tooling"},
	}, &addResp)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if addResp.Status != "logged" || len(addResp.EventID) != 12 {
		t.Errorf("unexpected add response: %+v", addResp)
	}

	var listResp EventsResponse
	doJSON(t, s, http.MethodGet, "/events", nil, &listResp)
	if listResp.Count != 1 || len(listResp.Events) != 1 {
		t.Fatalf("expected 1 event, got %+v", listResp)
	}
	if listResp.Events[0].ID != addResp.EventID {
		t.Errorf("event id mismatch: %s vs %s", listResp.Events[0].ID, addResp.EventID)
	}
}

func TestAddEventValidation(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/event/add", engine.EventRecord{
		EventType: engine.EventDecision,
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing description, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/event/add", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", rr.Code)
	}
}

func TestDetectEndpoints(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 3; i++ {
		doJSON(t, s, http.MethodPost, "/event/add", engine.EventRecord{
			EventType:     engine.EventDecision,
			Description:   fmt.Sprintf("decision %d", i),
			DecisionLogic: "systematic analysis",
		}, nil)
	}

	var patterns PatternsResponse
	rec := doJSON(t, s, http.MethodPost, "/patterns/detect", nil, &patterns)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if patterns.Count != 1 || patterns.Patterns[0].Name != engine.PatternDecisionLogic {
		t.Errorf("unexpected patterns response: %+v", patterns)
	}

	var anomalies AnomaliesResponse
	rec = doJSON(t, s, http.MethodPost, "/anomalies/detect", nil, &anomalies)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if anomalies.Count != 0 {
		t.Errorf("expected no anomalies, got %+v", anomalies)
	}
}

func TestSimulateEndpoint(t *testing.T) {
	s := newTestServer(t)

	t.Run("empty scenario returns 400", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPost, "/scenario/simulate",
			map[string]string{"scenario": ""}, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("non-empty scenario returns prediction", func(t *testing.T) {
		var pred engine.Prediction
		rec := doJSON(t, s, http.MethodPost, "/scenario/simulate",
			map[string]string{"scenario": "new market opportunity"}, &pred)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if pred.Scenario != "new market opportunity" {
			t.Errorf("scenario not echoed: %q", pred.Scenario)
		}
		if pred.Confidence != 0.79 || len(pred.AlternativePaths) != 3 {
			t.Errorf("unexpected prediction: %+v", pred)
		}
	})
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing query returns 400", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/search", nil, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("degrades without embedder", func(t *testing.T) {
		var resp SearchResponse
		rec := doJSON(t, s, http.MethodGet, "/search?q=innovation", nil, &resp)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if resp.Query != "innovation" || resp.Count != 1 {
			t.Fatalf("unexpected response: %+v", resp)
		}
		if resp.Results[0].Source != engine.SourceError {
			t.Errorf("expected error-shaped result, got %+v", resp.Results[0])
		}
	})
}

func TestImportEvents(t *testing.T) {
	s := newTestServer(t)

	records := []engine.EventRecord{
		{EventType: engine.EventDecision, Description: "d1"},
		{EventType: engine.EventProject, Description: "p1", Tags: []string{"ai"}},
	}
	payload, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal records: %v", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "events.json")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(payload)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/import/events", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ImportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "success" || resp.Imported != 2 {
		t.Errorf("unexpected import response: %+v", resp)
	}

	var listResp EventsResponse
	doJSON(t, s, http.MethodGet, "/events", nil, &listResp)
	if listResp.Count != 2 {
		t.Errorf("expected 2 events after import, got %d", listResp.Count)
	}
}

func TestExportEndpoint(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/event/add", engine.EventRecord{
		EventType: engine.EventDecision, Description: "d",
	}, nil)

	var export engine.FullExport
	rec := doJSON(t, s, http.MethodGet, "/export/full", nil, &export)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if export.Metadata.Operator != "Operator-996" {
		t.Errorf("unexpected metadata: %+v", export.Metadata)
	}
	if len(export.BehavioralEvents) != 1 {
		t.Errorf("expected 1 event in export, got %d", len(export.BehavioralEvents))
	}
}

func TestWebSocketCommands(t *testing.T) {
	s := newTestServer(t)
	s.wg.Add(1)
	go s.runClientManager()
	defer s.cancel()

	ts := httptest.NewServer(s)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	readReply := func() wsMessage {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read reply: %v", err)
		}
		return msg
	}

	t.Run("ping returns pong", func(t *testing.T) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
			t.Fatalf("write ping: %v", err)
		}
		msg := readReply()
		if msg.Type != "pong" || msg.Timestamp == "" {
			t.Errorf("unexpected reply: %+v", msg)
		}
	})

	t.Run("patterns command runs detection", func(t *testing.T) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("patterns")); err != nil {
			t.Fatalf("write patterns: %v", err)
		}
		msg := readReply()
		if msg.Type != "patterns" {
			t.Errorf("unexpected reply type: %q", msg.Type)
		}
	})

	t.Run("anomalies command runs detection", func(t *testing.T) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("anomalies")); err != nil {
			t.Fatalf("write anomalies: %v", err)
		}
		msg := readReply()
		if msg.Type != "anomalies" {
			t.Errorf("unexpected reply type: %q", msg.Type)
		}
	})
}
