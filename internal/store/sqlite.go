package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps each slot as one row of a SQLite table.
// Several slots (and processes) can share one database file.
type SQLiteStore struct {
	db   *sql.DB
	slot string
}

// NewSQLiteStore opens or creates the database at dbPath
func NewSQLiteStore(dbPath, slot string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if slot == "" {
		return nil, fmt.Errorf("slot cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection avoids "database is locked" between our own goroutines
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db, slot: slot}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS slots (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Slot returns the row name this store reads and writes
func (s *SQLiteStore) Slot() string {
	return s.slot
}

func (s *SQLiteStore) Load() ([]byte, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM slots WHERE name = ?`, s.slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slot %s: %w", s.slot, err)
	}
	if payload == nil {
		payload = []byte{}
	}
	return payload, nil
}

func (s *SQLiteStore) Save(data []byte) error {
	if data == nil {
		data = []byte{}
	}

	query := `
		INSERT INTO slots (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, s.slot, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save slot %s: %w", s.slot, err)
	}
	return nil
}

// Lock starts an IMMEDIATE transaction, which holds the database write lock
// until unlock. Load and Save from the same store keep working meanwhile because
// they share the single connection.
func (s *SQLiteStore) Lock() (func() error, error) {
	if _, err := s.db.Exec("BEGIN IMMEDIATE"); err != nil {
		return nil, fmt.Errorf("failed to lock database: %w", err)
	}
	return func() error {
		if _, err := s.db.Exec("COMMIT"); err != nil {
			return fmt.Errorf("failed to unlock database: %w", err)
		}
		return nil
	}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
