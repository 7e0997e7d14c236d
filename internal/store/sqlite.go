// Package store reads experiments and their event log from the tracking
// database, a SQLite file shared with the beacon collector.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/headline-goat/abverdict/internal/tally"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS tests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    variants TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    test_name TEXT NOT NULL,
    variant INTEGER NOT NULL,
    event_type TEXT NOT NULL,
    visitor_id TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    FOREIGN KEY (test_name) REFERENCES tests(name)
);

CREATE INDEX IF NOT EXISTS idx_events_test ON events(test_name);
CREATE UNIQUE INDEX IF NOT EXISTS idx_events_dedup ON events(test_name, visitor_id, event_type);
`

// Open opens the database at dbPath, creating the tables if needed. Tables
// written by the collector carry extra columns that are left untouched.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateTest(ctx context.Context, name string, variants []string) error {
	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return fmt.Errorf("failed to marshal variants: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tests (name, variants) VALUES (?, ?)`,
		name, string(variantsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to create test: %w", err)
	}
	return nil
}

// Variants returns the variant names of a test, control first.
func (s *SQLiteStore) Variants(ctx context.Context, name string) ([]string, error) {
	var variantsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT variants FROM tests WHERE name = ?`, name,
	).Scan(&variantsJSON)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	var variants []string
	if err := json.Unmarshal([]byte(variantsJSON), &variants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal variants: %w", err)
	}
	return variants, nil
}

// RecordEvent stores e for a test. Repeats of the same (visitor, event type)
// are ignored by the dedup index.
func (s *SQLiteStore) RecordEvent(ctx context.Context, testName string, e tally.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO events (test_name, variant, event_type, visitor_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		testName, e.Variant, string(e.EventType), e.VisitorID, e.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Events returns the event log of a test in arrival order.
func (s *SQLiteStore) Events(ctx context.Context, testName string) ([]tally.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT variant, event_type, visitor_id, created_at
		 FROM events WHERE test_name = ? ORDER BY created_at, id`,
		testName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []tally.Event
	for rows.Next() {
		var (
			e         tally.Event
			eventType string
			createdAt int64
		)
		if err := rows.Scan(&e.Variant, &eventType, &e.VisitorID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.EventType = tally.EventType(eventType)
		e.CreatedAt = time.Unix(createdAt, 0)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	return events, nil
}
