// Package journal keeps an optional history of builds in SQLite.
//
// The dev and build commands append one Entry per finished build; the history
// command reads the most recent ones back.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Status is the final state of a journaled build.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Entry describes one finished build.
type Entry struct {
	ID        int64
	BuildID   string
	Kind      string
	Reason    string
	Status    Status
	Error     string
	Rendered  int
	Skipped   int
	Files     []string
	StartedAt time.Time
	Duration  time.Duration
}

// Journal is the write side used by the build engine.
type Journal interface {
	Record(ctx context.Context, e Entry) error
}

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the journal at dbPath. Use ":memory:" for an
// in-memory database.
func Open(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	j := &SQLiteJournal{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return j, nil
}

func (j *SQLiteJournal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		reason TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		rendered INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		files TEXT,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_build_id ON builds(build_id);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record appends e to the journal.
func (j *SQLiteJournal) Record(ctx context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var files []byte
	if len(e.Files) > 0 {
		var err error
		files, err = json.Marshal(e.Files)
		if err != nil {
			return fmt.Errorf("marshal files: %w", err)
		}
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, kind, reason, status, error, rendered, skipped, files, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.BuildID, e.Kind, e.Reason, string(e.Status), e.Error, e.Rendered, e.Skipped, files,
		e.StartedAt.UnixMilli(), e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (j *SQLiteJournal) Recent(ctx context.Context, n int) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, build_id, kind, reason, status, error, rendered, skipped, files, started_at, duration_ms
		 FROM builds ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			status    string
			errText   sql.NullString
			files     []byte
			started   int64
			durationM int64
		)
		if err := rows.Scan(&e.ID, &e.BuildID, &e.Kind, &e.Reason, &status, &errText,
			&e.Rendered, &e.Skipped, &files, &started, &durationM); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		e.Status = Status(status)
		e.Error = errText.String
		e.StartedAt = time.UnixMilli(started)
		e.Duration = time.Duration(durationM) * time.Millisecond
		if len(files) > 0 {
			if err := json.Unmarshal(files, &e.Files); err != nil {
				return nil, fmt.Errorf("unmarshal files: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}
