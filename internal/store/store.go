// Package store persists contributor identities, chat sessions and the
// append-only submission log in a single SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the database handle shared by all repositories.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and runs the
// schema migrations. WAL mode and a busy timeout keep concurrent handlers
// from tripping over each other on writes.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				tg_id INTEGER,
				first_name TEXT,
				last_name TEXT,
				age TEXT,
				language TEXT,
				username TEXT UNIQUE,
				password_hash TEXT,
				audio_left INTEGER DEFAULT 10,
				created_at TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS sessions (
				tg_id INTEGER PRIMARY KEY,
				username TEXT,
				logged_in_at TEXT,
				current_prompt TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS submissions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				tg_id INTEGER,
				username TEXT,
				prompt TEXT,
				file_id TEXT,
				noise_level REAL,
				accepted INTEGER,
				created_at TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_users_tg_id ON users(tg_id)`,
			`CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at)`,
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("migration %q: %w", q[:30], err)
			}
		}
		return nil
	})
}

// withTx begins a transaction, runs fn, and commits on success or rolls back
// on error/panic. Panics are rethrown.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	err = fn(tx)
	return err
}

// timestamp formats t the way every table stores times.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
