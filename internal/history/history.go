package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Event types recorded per service.
const (
	EventStart = "start" // launched and registered
	EventExit  = "exit"  // exited outside the shutdown protocol
	EventStop  = "stop"  // stopped by the shutdown protocol
)

// Event is one persisted lifecycle record.
type Event struct {
	ID         int64
	Name       string
	Port       int
	PID        int
	Type       string
	ExitCode   sql.NullInt64
	Forced     bool
	OccurredAt time.Time
}

// Store persists lifecycle events to an embedded SQLite database.
// It implements the supervisor's Recorder interface.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS service_events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT    NOT NULL,
    port        INTEGER NOT NULL,
    pid         INTEGER,
    event       TEXT    NOT NULL,
    exit_code   INTEGER,
    forced      INTEGER NOT NULL DEFAULT 0,
    occurred_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_service_events_name ON service_events(name);
`

// Open opens (or creates) the database at path and ensures the schema.
// An empty path opens an in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) RecordStart(ctx context.Context, name string, port, pid int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO service_events(name, port, pid, event, occurred_at) VALUES(?, ?, ?, ?, ?)`,
		name, port, pid, EventStart, time.Now().UTC())
	return err
}

func (s *Store) RecordExit(ctx context.Context, name string, port, code int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO service_events(name, port, event, exit_code, occurred_at) VALUES(?, ?, ?, ?, ?)`,
		name, port, EventExit, code, time.Now().UTC())
	return err
}

func (s *Store) RecordStop(ctx context.Context, name string, port int, forced bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO service_events(name, port, event, forced, occurred_at) VALUES(?, ?, ?, ?, ?)`,
		name, port, EventStop, forced, time.Now().UTC())
	return err
}

// Events returns recorded events, oldest first. An empty name returns all.
func (s *Store) Events(ctx context.Context, name string) ([]Event, error) {
	q := `SELECT id, name, port, COALESCE(pid, 0), event, exit_code, forced, occurred_at
	      FROM service_events`
	args := []any{}
	if name != "" {
		q += ` WHERE name = ?`
		args = append(args, name)
	}
	q += ` ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Event
	for rows.Next() {
		var e Event
		var forced int64
		if err := rows.Scan(&e.ID, &e.Name, &e.Port, &e.PID, &e.Type, &e.ExitCode, &forced, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.Forced = forced != 0
		out = append(out, e)
	}
	return out, rows.Err()
}
