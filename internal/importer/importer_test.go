package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Kubana90/operator-996-cognitive-os/internal/logging"
)

func init() {
	logging.SetGlobal(logging.New(&logging.Config{Level: logging.LevelError, Colored: false}))
}

func writeEventsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write events file: %v", err)
	}
	return path
}

func TestParseEvents(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		records, err := parseEvents([]byte(`[{"event_type":"decision","description":"d"}]`))
		if err != nil {
			t.Fatalf("parseEvents failed: %v", err)
		}
		if len(records) != 1 || records[0].EventType != "decision" {
			t.Errorf("unexpected records: %+v", records)
		}
	})

	t.Run("wrapped object", func(t *testing.T) {
		records, err := parseEvents([]byte(`{"behavioral_events":[{"event_type":"project","description":"p"}]}`))
		if err != nil {
			t.Fatalf("parseEvents failed: %v", err)
		}
		if len(records) != 1 || records[0].EventType != "project" {
			t.Errorf("unexpected records: %+v", records)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		if _, err := parseEvents([]byte(`"nope"`)); err == nil {
			t.Error("expected error for non-event JSON")
		}
	})
}

func TestImportFile(t *testing.T) {
	t.Run("posts every event", func(t *testing.T) {
		posted := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/health":
				w.WriteHeader(http.StatusOK)
			case "/event/add":
				posted++
				w.WriteHeader(http.StatusOK)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		path := writeEventsFile(t, `{"behavioral_events":[
			{"event_type":"decision","description":"d1"},
			{"event_type":"project","description":"p1"}
		]}`)

		result, err := New(srv.URL).ImportFile(context.Background(), path)
		if err != nil {
			t.Fatalf("ImportFile failed: %v", err)
		}
		if result.Imported != 2 || result.Failed != 0 || posted != 2 {
			t.Errorf("unexpected result: %+v (posted %d)", result, posted)
		}
	})

	t.Run("counts per-event failures without aborting", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				w.WriteHeader(http.StatusOK)
				return
			}
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		path := writeEventsFile(t, `[
			{"event_type":"decision","description":""},
			{"event_type":"decision","description":"ok"}
		]`)

		result, err := New(srv.URL).ImportFile(context.Background(), path)
		if err != nil {
			t.Fatalf("ImportFile failed: %v", err)
		}
		if result.Imported != 1 || result.Failed != 1 {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("unreachable server fails fast", func(t *testing.T) {
		path := writeEventsFile(t, `[{"event_type":"decision","description":"d"}]`)
		if _, err := New("http://127.0.0.1:1").ImportFile(context.Background(), path); err == nil {
			t.Error("expected error for unreachable server")
		}
	})
}
