package engine

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Kubana90/operator-996-cognitive-os/internal/embed"
	"github.com/Kubana90/operator-996-cognitive-os/internal/logging"
	"github.com/Kubana90/operator-996-cognitive-os/internal/profile"
)

// Version is reported in metadata and health responses.
const Version = "1.0.0"

// OperatorName identifies the subject under observation.
const OperatorName = "Operator-996"

// ═══════════════════════════════════════════════════════════════════════════════
// PERSISTENCE COLLABORATOR
// ═══════════════════════════════════════════════════════════════════════════════

// Snapshot is the persisted state of one analysis session.
type Snapshot struct {
	Profile   profile.Profile
	Events    []BehavioralEvent
	Patterns  []Pattern
	Anomalies []Anomaly
}

// Persistence is the optional storage collaborator. Every method failure
// is caught at this boundary: the engine logs it and keeps operating on
// its in-memory state. The engine functions fully with a nil Persistence.
type Persistence interface {
	// LoadLatestSnapshot returns the most recent snapshot, or nil when
	// the store is empty.
	LoadLatestSnapshot(ctx context.Context) (*Snapshot, error)

	// SaveProfile overwrites the persisted profile wholesale.
	SaveProfile(ctx context.Context, p profile.Profile) error

	// AppendEvent persists a single behavioral event.
	AppendEvent(ctx context.Context, ev BehavioralEvent) error

	// ReplacePatterns replaces the persisted pattern set.
	ReplacePatterns(ctx context.Context, patterns []Pattern) error

	// ReplaceAnomalies replaces the persisted anomaly set.
	ReplaceAnomalies(ctx context.Context, anomalies []Anomaly) error
}

// ═══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ═══════════════════════════════════════════════════════════════════════════════

// Metadata describes the engine instance.
type Metadata struct {
	Created  time.Time `json:"created"`
	Version  string    `json:"version"`
	Operator string    `json:"operator"`
}

// Engine owns the event log and all derived analysis state for one
// session. It is constructed once at process start with its collaborators
// injected and passed by reference to the request-handling layer.
//
// A single RWMutex guards the log so concurrent appends and detection
// calls always observe a consistent snapshot.
type Engine struct {
	mu        sync.RWMutex
	profile   profile.Profile
	events    []BehavioralEvent
	patterns  []Pattern
	anomalies []Anomaly
	meta      Metadata

	embedder embed.Embedder // optional; nil or unavailable degrades search
	store    Persistence    // optional; nil means pure in-memory mode
	log      *logging.Logger

	// now is the clock, swappable in tests
	now func() time.Time
}

// Config carries the engine's injected collaborators. Both are optional.
type Config struct {
	Embedder embed.Embedder
	Store    Persistence
	Log      *logging.Logger
}

// New creates an engine seeded with the fixed operator profile and an
// empty event log.
func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Log
	if log == nil {
		log = logging.Global().WithComponent("engine")
	}

	e := &Engine{
		profile: profile.Seed(),
		meta: Metadata{
			Created:  time.Now().UTC(),
			Version:  Version,
			Operator: OperatorName,
		},
		embedder: cfg.Embedder,
		store:    cfg.Store,
		log:      log,
		now:      time.Now,
	}

	e.log.Info("Seed profile loaded: %s", OperatorName)
	return e
}

// Restore replaces the engine state from the latest persisted snapshot.
// Returns false when no store is configured, the store is empty, or the
// load fails; the engine keeps its current state in all of those cases.
func (e *Engine) Restore(ctx context.Context) bool {
	if e.store == nil {
		return false
	}

	snap, err := e.store.LoadLatestSnapshot(ctx)
	if err != nil {
		e.log.Error("Failed to load snapshot: %v", err)
		return false
	}
	if snap == nil {
		e.log.Info("No persisted snapshot, using seed profile")
		return false
	}

	e.mu.Lock()
	e.profile = snap.Profile
	e.events = snap.Events
	e.patterns = snap.Patterns
	e.anomalies = snap.Anomalies
	e.mu.Unlock()

	e.log.Info("Restored snapshot: %d events, %d patterns, %d anomalies",
		len(snap.Events), len(snap.Patterns), len(snap.Anomalies))
	return true
}

// Metadata returns the engine instance metadata.
func (e *Engine) Metadata() Metadata {
	return e.meta
}

// Profile returns the current profile snapshot.
func (e *Engine) Profile() profile.Profile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.profile
}

// SetProfile overwrites the profile wholesale and persists it
// best-effort. Partial patches are not supported.
func (e *Engine) SetProfile(ctx context.Context, p profile.Profile) bool {
	e.mu.Lock()
	e.profile = p
	e.mu.Unlock()

	if e.store == nil {
		return true
	}
	if err := e.store.SaveProfile(ctx, p); err != nil {
		e.log.Error("Failed to persist profile: %v", err)
		return false
	}
	return true
}

// ═══════════════════════════════════════════════════════════════════════════════
// EVENT LOG
// ═══════════════════════════════════════════════════════════════════════════════

// AddEvent normalizes, identifies, and appends a behavioral event, then
// persists it best-effort. A malformed timestamp falls back to ingestion
// time rather than failing.
func (e *Engine) AddEvent(ctx context.Context, rec EventRecord) (BehavioralEvent, error) {
	if strings.TrimSpace(rec.Description) == "" {
		return BehavioralEvent{}, ErrEmptyDescription
	}

	ev := BehavioralEvent{
		ID:            eventID(rec.Timestamp, rec.Description),
		EventType:     rec.EventType,
		Description:   rec.Description,
		Timestamp:     e.parseTimestamp(rec.Timestamp),
		Outcome:       rec.Outcome,
		DecisionLogic: rec.DecisionLogic,
		Tags:          rec.Tags,
	}
	if ev.Tags == nil {
		ev.Tags = []string{}
	}

	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.AppendEvent(ctx, ev); err != nil {
			e.log.Warn("Failed to persist event %s: %v", ev.ID, err)
		}
	}

	e.log.Info("Event logged: %s - %s", ev.ID, ev.EventType)
	return ev, nil
}

// Events returns a copy of the event log snapshot.
func (e *Engine) Events() []BehavioralEvent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyEvents(e.events)
}

// EventCount returns the current log length.
func (e *Engine) EventCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.events)
}

// eventID derives a stable short identifier from the raw timestamp text
// and description. Content-addressed and collision-tolerant at demo
// scale; not cryptographically unique.
func eventID(rawTimestamp, description string) string {
	sum := md5.Sum([]byte(rawTimestamp + description))
	return hex.EncodeToString(sum[:])[:12]
}

// parseTimestamp normalizes incoming timestamp text to a timezone-aware
// instant. Invalid input falls back to ingestion time, never an error.
func (e *Engine) parseTimestamp(raw string) time.Time {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts
	}
	// Tolerate ISO-8601 without an explicit offset
	if ts, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
		return ts.UTC()
	}
	return e.now().UTC()
}

func copyEvents(events []BehavioralEvent) []BehavioralEvent {
	out := make([]BehavioralEvent, len(events))
	copy(out, events)
	return out
}

// ═══════════════════════════════════════════════════════════════════════════════
// EXPORT
// ═══════════════════════════════════════════════════════════════════════════════

// FullExport is the complete profile snapshot returned by the export
// endpoint.
type FullExport struct {
	Metadata         Metadata          `json:"metadata"`
	Profile          profile.Profile   `json:"profile"`
	BehavioralEvents []BehavioralEvent `json:"behavioral_events"`
	Patterns         []Pattern         `json:"patterns"`
	Anomalies        []Anomaly         `json:"anomalies"`
	ExportTimestamp  time.Time         `json:"export_timestamp"`
}

// Export returns the full engine state snapshot.
func (e *Engine) Export() FullExport {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return FullExport{
		Metadata:         e.meta,
		Profile:          e.profile,
		BehavioralEvents: copyEvents(e.events),
		Patterns:         append([]Pattern(nil), e.patterns...),
		Anomalies:        append([]Anomaly(nil), e.anomalies...),
		ExportTimestamp:  e.now().UTC(),
	}
}

// String implements fmt.Stringer for diagnostics.
func (e *Engine) String() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fmt.Sprintf("engine(events=%d patterns=%d anomalies=%d)",
		len(e.events), len(e.patterns), len(e.anomalies))
}
