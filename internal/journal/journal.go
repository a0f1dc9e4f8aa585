// Package journal keeps a small sqlite log of how each user list request
// ended, for diagnosing flaky endpoints after the fact.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jask/usercards/internal/loader"
)

// Entry is one recorded request outcome.
type Entry struct {
	ID        string
	RequestID string
	Endpoint  string
	Status    string
	Count     int
	ErrKind   string
	Message   string
	Elapsed   time.Duration
	At        time.Time
}

// Journal stores entries in sqlite.
type Journal struct {
	db *sql.DB
}

// Open creates the database file if needed, migrates it and opens it.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir journal dir: %w", err)
	}
	if err := runMigrations(path); err != nil {
		return nil, err
	}
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database.
func (j *Journal) Close() error { return j.db.Close() }

// FromOutcome converts a settled request into an entry stamped now.
func FromOutcome(o loader.Outcome, endpoint string) Entry {
	e := Entry{
		RequestID: o.RequestID,
		Endpoint:  endpoint,
		Status:    string(o.Status),
		Count:     o.Count,
		ErrKind:   o.ErrKind,
		Elapsed:   o.Elapsed,
		At:        time.Now().UTC(),
	}
	if o.Err != nil {
		e.Message = o.Err.Error()
	}
	return e
}

// Record inserts e, assigning an id when it has none.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx, `
	INSERT INTO outcomes(id, request_id, endpoint, status, user_count, err_kind, message, elapsed_ms, at_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, e.ID, e.RequestID, e.Endpoint, e.Status, e.Count, e.ErrKind, e.Message, e.Elapsed.Milliseconds(), e.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
	SELECT id, request_id, endpoint, status, user_count, err_kind, message, elapsed_ms, at_ms
	FROM outcomes ORDER BY at_ms DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			e               Entry
			elapsedMS, atMS int64
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Endpoint, &e.Status, &e.Count, &e.ErrKind, &e.Message, &elapsedMS, &atMS); err != nil {
			return nil, err
		}
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		e.At = time.UnixMilli(atMS).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
