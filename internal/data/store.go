package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kubana90/operator-996-cognitive-os/internal/engine"
	"github.com/Kubana90/operator-996-cognitive-os/internal/profile"
)

// ═══════════════════════════════════════════════════════════════════════════════
// PROFILE OPERATIONS
// ═══════════════════════════════════════════════════════════════════════════════

// SaveProfile inserts a new profile snapshot row. Profiles are versioned
// by insertion; LoadLatestSnapshot reads the newest row.
func (s *Store) SaveProfile(ctx context.Context, p profile.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	query := `INSERT INTO profiles (id, data, created_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, uuid.NewString(), string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// loadLatestProfile returns the newest profile row, or false when the
// table is empty.
func (s *Store) loadLatestProfile(ctx context.Context) (profile.Profile, bool, error) {
	var data string
	query := `SELECT data FROM profiles ORDER BY created_at DESC, rowid DESC LIMIT 1`
	err := s.db.QueryRowContext(ctx, query).Scan(&data)
	if err == sql.ErrNoRows {
		return profile.Profile{}, false, nil
	}
	if err != nil {
		return profile.Profile{}, false, fmt.Errorf("query profile: %w", err)
	}

	var p profile.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return profile.Profile{}, false, fmt.Errorf("unmarshal profile: %w", err)
	}
	return p, true, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// EVENT OPERATIONS
// ═══════════════════════════════════════════════════════════════════════════════

// AppendEvent persists a single behavioral event. The id is
// content-derived, so replaying an import is an idempotent upsert.
func (s *Store) AppendEvent(ctx context.Context, ev engine.BehavioralEvent) error {
	tagsJSON, err := json.Marshal(ev.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	query := `
		INSERT INTO behavioral_events (
			id, event_type, description, timestamp,
			outcome, decision_logic, tags, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			event_type = excluded.event_type,
			description = excluded.description,
			timestamp = excluded.timestamp,
			outcome = excluded.outcome,
			decision_logic = excluded.decision_logic,
			tags = excluded.tags
	`
	_, err = s.db.ExecContext(ctx, query,
		ev.ID, ev.EventType, ev.Description, ev.Timestamp.UTC(),
		nullString(ev.Outcome), nullString(ev.DecisionLogic), string(tagsJSON), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns the full event log in insertion order.
func (s *Store) ListEvents(ctx context.Context) ([]engine.BehavioralEvent, error) {
	query := `
		SELECT id, event_type, description, timestamp, outcome, decision_logic, tags
		FROM behavioral_events
		ORDER BY created_at, rowid
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []engine.BehavioralEvent
	for rows.Next() {
		var ev engine.BehavioralEvent
		var outcome, decisionLogic sql.NullString
		var tagsJSON string

		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.Description, &ev.Timestamp,
			&outcome, &decisionLogic, &tagsJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		ev.Outcome = outcome.String
		ev.DecisionLogic = decisionLogic.String
		if err := json.Unmarshal([]byte(tagsJSON), &ev.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags for %s: %w", ev.ID, err)
		}
		if ev.Tags == nil {
			ev.Tags = []string{}
		}
		ev.Timestamp = ev.Timestamp.UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// PATTERN AND ANOMALY OPERATIONS
// ═══════════════════════════════════════════════════════════════════════════════

// ReplacePatterns replaces the persisted pattern set wholesale. Patterns
// are ephemeral detection output, so the previous set is dropped.
func (s *Store) ReplacePatterns(ctx context.Context, patterns []engine.Pattern) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM patterns`); err != nil {
			return fmt.Errorf("clear patterns: %w", err)
		}

		query := `
			INSERT INTO patterns (id, name, confidence, count, themes, domains, characteristics, detected_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		now := time.Now().UTC()
		for _, p := range patterns {
			themes, err := marshalOrNull(p.Themes)
			if err != nil {
				return fmt.Errorf("marshal themes: %w", err)
			}
			domains, err := marshalOrNull(p.Domains)
			if err != nil {
				return fmt.Errorf("marshal domains: %w", err)
			}
			characteristics, err := marshalOrNull(p.Characteristics)
			if err != nil {
				return fmt.Errorf("marshal characteristics: %w", err)
			}

			if _, err := tx.ExecContext(ctx, query,
				uuid.NewString(), p.Name, p.Confidence, p.Count,
				themes, domains, characteristics, now,
			); err != nil {
				return fmt.Errorf("insert pattern %s: %w", p.Name, err)
			}
		}
		return nil
	})
}

// ListPatterns returns the persisted pattern set.
func (s *Store) ListPatterns(ctx context.Context) ([]engine.Pattern, error) {
	query := `
		SELECT name, confidence, count, themes, domains, characteristics
		FROM patterns
		ORDER BY rowid
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []engine.Pattern
	for rows.Next() {
		var p engine.Pattern
		var themes, domains, characteristics sql.NullString

		if err := rows.Scan(&p.Name, &p.Confidence, &p.Count,
			&themes, &domains, &characteristics); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}

		if err := unmarshalIfValid(themes, &p.Themes); err != nil {
			return nil, fmt.Errorf("unmarshal themes: %w", err)
		}
		if err := unmarshalIfValid(domains, &p.Domains); err != nil {
			return nil, fmt.Errorf("unmarshal domains: %w", err)
		}
		if err := unmarshalIfValid(characteristics, &p.Characteristics); err != nil {
			return nil, fmt.Errorf("unmarshal characteristics: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patterns: %w", err)
	}
	return patterns, nil
}

// ReplaceAnomalies replaces the persisted anomaly set wholesale.
func (s *Store) ReplaceAnomalies(ctx context.Context, anomalies []engine.Anomaly) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM anomalies`); err != nil {
			return fmt.Errorf("clear anomalies: %w", err)
		}

		query := `
			INSERT INTO anomalies (id, timestamp, anomaly_type, severity, explanation, recommendation, events, detected_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		now := time.Now().UTC()
		for _, a := range anomalies {
			events, err := marshalOrNull(a.Events)
			if err != nil {
				return fmt.Errorf("marshal event ids: %w", err)
			}

			if _, err := tx.ExecContext(ctx, query,
				uuid.NewString(), a.Timestamp.UTC(), a.AnomalyType, a.Severity,
				a.Explanation, nullString(a.Recommendation), events, now,
			); err != nil {
				return fmt.Errorf("insert anomaly %s: %w", a.AnomalyType, err)
			}
		}
		return nil
	})
}

// ListAnomalies returns the persisted anomaly set.
func (s *Store) ListAnomalies(ctx context.Context) ([]engine.Anomaly, error) {
	query := `
		SELECT timestamp, anomaly_type, severity, explanation, recommendation, events
		FROM anomalies
		ORDER BY rowid
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query anomalies: %w", err)
	}
	defer rows.Close()

	var anomalies []engine.Anomaly
	for rows.Next() {
		var a engine.Anomaly
		var recommendation, events sql.NullString

		if err := rows.Scan(&a.Timestamp, &a.AnomalyType, &a.Severity,
			&a.Explanation, &recommendation, &events); err != nil {
			return nil, fmt.Errorf("scan anomaly: %w", err)
		}

		a.Recommendation = recommendation.String
		if err := unmarshalIfValid(events, &a.Events); err != nil {
			return nil, fmt.Errorf("unmarshal event ids: %w", err)
		}
		a.Timestamp = a.Timestamp.UTC()
		anomalies = append(anomalies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate anomalies: %w", err)
	}
	return anomalies, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT RESTORE
// ═══════════════════════════════════════════════════════════════════════════════

// LoadLatestSnapshot assembles the latest persisted state. Returns nil
// when the store has neither a profile nor any events, so a fresh
// database starts from the seed profile.
func (s *Store) LoadLatestSnapshot(ctx context.Context) (*engine.Snapshot, error) {
	p, haveProfile, err := s.loadLatestProfile(ctx)
	if err != nil {
		return nil, err
	}

	events, err := s.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	if !haveProfile && len(events) == 0 {
		return nil, nil
	}
	if !haveProfile {
		p = profile.Seed()
	}

	patterns, err := s.ListPatterns(ctx)
	if err != nil {
		return nil, err
	}
	anomalies, err := s.ListAnomalies(ctx)
	if err != nil {
		return nil, err
	}

	return &engine.Snapshot{
		Profile:   p,
		Events:    events,
		Patterns:  patterns,
		Anomalies: anomalies,
	}, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ═══════════════════════════════════════════════════════════════════════════════

// nullString converts an empty string to a SQL NULL.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// marshalOrNull serializes v to JSON, mapping empty collections to NULL.
func marshalOrNull(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case []string:
		if len(val) == 0 {
			return nil, nil
		}
	case map[string]int:
		if len(val) == 0 {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// unmarshalIfValid decodes a nullable JSON column into out, leaving it
// untouched for NULL.
func unmarshalIfValid(col sql.NullString, out interface{}) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), out)
}
