// Package importer loads behavioral events from a JSON file into a
// running server over its HTTP API. It backs the import CLI command used
// for demos and testing.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Kubana90/operator-996-cognitive-os/internal/engine"
	"github.com/Kubana90/operator-996-cognitive-os/internal/logging"
)

// eventsFile is the accepted file shape: either a bare array of event
// records or an object wrapping them under behavioral_events.
type eventsFile struct {
	BehavioralEvents []engine.EventRecord `json:"behavioral_events"`
}

// Result summarizes an import run.
type Result struct {
	Total    int
	Imported int
	Failed   int
}

// Importer posts events one at a time to a server's /event/add endpoint.
type Importer struct {
	baseURL string
	client  *http.Client
	log     *logging.Logger
}

// New creates an importer for the given server base URL, e.g.
// "http://localhost:8000".
func New(baseURL string) *Importer {
	return &Importer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     logging.Global().WithComponent("importer"),
	}
}

// CheckHealth verifies the target server is reachable before importing.
func (im *Importer) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, im.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := im.client.Do(req)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", im.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server at %s returned status %d", im.baseURL, resp.StatusCode)
	}
	return nil
}

// ImportFile reads events from path and posts them in order. Individual
// event failures are logged and counted, not fatal.
func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read events file: %w", err)
	}

	records, err := parseEvents(data)
	if err != nil {
		return Result{}, err
	}

	if err := im.CheckHealth(ctx); err != nil {
		return Result{}, err
	}
	im.log.Info("Connected to %s", im.baseURL)

	result := Result{Total: len(records)}
	im.log.Info("Importing %d behavioral events...", result.Total)

	for i, rec := range records {
		if err := im.postEvent(ctx, rec); err != nil {
			im.log.Warn("[%d/%d] Failed: %s (%v)", i+1, result.Total, truncate(rec.Description, 40), err)
			result.Failed++
			continue
		}
		im.log.Info("[%d/%d] %s: %s", i+1, result.Total, rec.EventType, truncate(rec.Description, 50))
		result.Imported++
	}

	im.log.Info("Imported %d of %d events (%d failed)", result.Imported, result.Total, result.Failed)
	return result, nil
}

func (im *Importer) postEvent(ctx context.Context, rec engine.EventRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		im.baseURL+"/event/add", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := im.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// parseEvents accepts both a bare JSON array and the wrapped
// behavioral_events object shape.
func parseEvents(data []byte) ([]engine.EventRecord, error) {
	var records []engine.EventRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapped eventsFile
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse events file: %w", err)
	}
	if wrapped.BehavioralEvents == nil {
		return nil, fmt.Errorf("events file has no behavioral_events")
	}
	return wrapped.BehavioralEvents, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
