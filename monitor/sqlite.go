package monitor

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/unixpickle/essentials"

	_ "modernc.org/sqlite"
)

// A Point is one recorded scalar value.
type Point struct {
	RunID string
	Name  string
	Value float64
	Time  time.Time
}

// SQLite is a Sink which stores scalars in a SQLite
// database, so that evaluation history survives across
// runs.
//
// Every SQLite opened with NewSQLite gets its own run ID.
type SQLite struct {
	path  string
	runID string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLite creates a sink for the database at path.
// Call Init before using it.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path, runID: uuid.NewString()}
}

// RunID returns the ID attached to every scalar this sink
// writes.
func (s *SQLite) RunID() string {
	return s.runID
}

// Init opens the database and creates its tables.
func (s *SQLite) Init(ctx context.Context) (err error) {
	defer essentials.AddCtxTo("init sqlite monitor", &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// PutScalar inserts the scalar with the current time.
func (s *SQLite) PutScalar(ctx context.Context, name string, value float64) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO scalars (run_id, name, value, recorded_at)
		VALUES (?, ?, ?, ?)
	`, s.runID, name, value, time.Now().UnixNano())
	return err
}

// Scalars returns every recorded value of a scalar across
// all runs, oldest first.
//
// If limit is positive, only the newest limit points are
// returned.
func (s *SQLite) Scalars(ctx context.Context, name string, limit int) (points []Point,
	err error) {
	defer essentials.AddCtxTo("query scalars", &err)
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, name, value, recorded_at FROM (
			SELECT id, run_id, name, value, recorded_at FROM scalars
			WHERE name = ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC
	`, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p Point
		var stamp int64
		if err := rows.Scan(&p.RunID, &p.Name, &p.Value, &stamp); err != nil {
			return nil, err
		}
		p.Time = time.Unix(0, stamp)
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *SQLite) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("sqlite monitor is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scalars (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			value REAL NOT NULL,
			recorded_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS scalars_by_name ON scalars (name, id);
	`)
	return err
}
