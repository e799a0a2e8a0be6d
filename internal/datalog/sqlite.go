package datalog

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sweeney/solar-tracker/internal/logic"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore keeps events in a SQLite database, tagged with the boot session.
type SQLiteStore struct {
	mu      sync.Mutex
	db      *sql.DB
	session string
}

// OpenSQLite opens the database at path and migrates it to the latest schema.
// An empty session gets a fresh random id.
func OpenSQLite(path, session string) (*SQLiteStore, error) {
	if session == "" {
		session = uuid.NewString()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; the control loop and HTTP dumps share it.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, session: session}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}

	// m is not closed: that would close db.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("datalog: migrate: "+format, v...)
}

func (migrateLogger) Verbose() bool {
	return false
}

// Session returns the boot session id stamped on every row.
func (s *SQLiteStore) Session() string {
	return s.session
}

// Record inserts e.
func (s *SQLiteStore) Record(e logic.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrClosed
	}
	_, err := s.db.Exec(
		`INSERT INTO events (session_id, recorded_at, tag, state, east, west, diff)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.session, e.Timestamp.Format(time.RFC3339), string(e.Tag), string(e.State),
		e.East, e.West, e.Difference,
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Tag, err)
	}
	return nil
}

// Dump writes every session's events in insertion order.
func (s *SQLiteStore) Dump(w io.Writer) error {
	events, err := s.Events()
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, Row(e))
	}
	if err := writeRows(w, rows); err != nil {
		return fmt.Errorf("dump datalog: %w", err)
	}
	return nil
}

// Events returns the full history in insertion order.
func (s *SQLiteStore) Events() ([]logic.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.Query(
		`SELECT recorded_at, tag, state, east, west, diff FROM events ORDER BY event_id`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []logic.Event
	for rows.Next() {
		var (
			at, tag, state string
			e              logic.Event
		)
		if err := rows.Scan(&at, &tag, &state, &e.East, &e.West, &e.Difference); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, fmt.Errorf("parse event time %q: %w", at, err)
		}
		e.Tag = logic.EventTag(tag)
		e.State = logic.State(state)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close closes the database. Further calls return ErrClosed.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrClosed
	}
	err := s.db.Close()
	s.db = nil
	return err
}
