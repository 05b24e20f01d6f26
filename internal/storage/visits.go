// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/flowos-tui/internal/model"
)

// =============================================================================
// SCHEMA
// =============================================================================

const visitSchema = `
-- Single-row counter tracking app starts
CREATE TABLE IF NOT EXISTS visits (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    count INTEGER NOT NULL DEFAULT 0,
    last_visit INTEGER NOT NULL -- Unix timestamp
);

-- One row per completed match run
CREATE TABLE IF NOT EXISTS match_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    matched_at INTEGER NOT NULL, -- Unix timestamp
    name TEXT NOT NULL,
    school TEXT,
    score INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_match_history_matched_at ON match_history(matched_at);
`

// =============================================================================
// VISIT DATABASE
// =============================================================================

// MatchRecord is one row of the match history log.
type MatchRecord struct {
	MatchedAt time.Time
	Name      string
	School    string
	Score     int
}

// VisitDB holds the local visit counter and the match history log.
type VisitDB struct {
	db *sql.DB
}

// OpenVisitDB opens (creating if needed) the SQLite database at path.
func OpenVisitDB(path string) (*VisitDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(visitSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &VisitDB{db: db}, nil
}

// Close closes the underlying database.
func (v *VisitDB) Close() error {
	return v.db.Close()
}

// RecordVisit increments the visit counter and returns the new total.
func (v *VisitDB) RecordVisit() (int, error) {
	_, err := v.db.Exec(`
		INSERT INTO visits (id, count, last_visit) VALUES (1, 1, ?)
		ON CONFLICT(id) DO UPDATE SET count = count + 1, last_visit = excluded.last_visit`,
		time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to record visit: %w", err)
	}
	return v.VisitCount()
}

// VisitCount returns the current visit total.
func (v *VisitDB) VisitCount() (int, error) {
	var count int
	err := v.db.QueryRow("SELECT count FROM visits WHERE id = 1").Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read visit count: %w", err)
	}
	return count, nil
}

// RecordMatches appends one row per result to the match history log.
func (v *VisitDB) RecordMatches(results []model.MatchResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := v.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT INTO match_history (matched_at, name, school, score) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, r := range results {
		if _, err := stmt.Exec(now, r.Person.Name, r.Person.School, r.Score); err != nil {
			return fmt.Errorf("failed to insert match record: %w", err)
		}
	}

	return tx.Commit()
}

// MatchHistory returns the most recent match records, newest first.
func (v *VisitDB) MatchHistory(limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := v.db.Query(`
		SELECT matched_at, name, school, score FROM match_history
		ORDER BY matched_at DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query match history: %w", err)
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		var rec MatchRecord
		var ts int64
		if err := rows.Scan(&ts, &rec.Name, &rec.School, &rec.Score); err != nil {
			return nil, fmt.Errorf("failed to scan match record: %w", err)
		}
		rec.MatchedAt = time.Unix(ts, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}
