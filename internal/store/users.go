package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CreateUser inserts a new contributor record. A username collision maps to
// ErrUsernameTaken and leaves no partial row behind.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (tg_id, first_name, last_name, age, language, username, password_hash, audio_left, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ChatID, u.FirstName, u.LastName, u.Age, u.Language, u.Username, u.PasswordHash, u.AudioLeft, timestamp(u.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted user id: %w", err)
	}
	u.ID = id
	return nil
}

// UserByUsername looks a contributor up by their unique username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, tg_id, first_name, last_name, age, language, username, password_hash, audio_left, created_at
		 FROM users WHERE username = ?`, username))
}

// UserByChatID looks a contributor up by the chat that registered them.
func (s *Store) UserByChatID(ctx context.Context, chatID int64) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, tg_id, first_name, last_name, age, language, username, password_hash, audio_left, created_at
		 FROM users WHERE tg_id = ? ORDER BY id DESC LIMIT 1`, chatID))
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var u User
	var createdAt string
	err := row.Scan(&u.ID, &u.ChatID, &u.FirstName, &u.LastName, &u.Age, &u.Language,
		&u.Username, &u.PasswordHash, &u.AudioLeft, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

// DecrementAudioLeft takes exactly one submission off the contributor's
// quota and returns the new count. The guard in SQL keeps the quota from
// ever going negative; a zero or missing quota yields ErrQuotaExhausted.
func (s *Store) DecrementAudioLeft(ctx context.Context, chatID int64) (int, error) {
	var left int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET audio_left = audio_left - 1
			 WHERE id = (SELECT id FROM users WHERE tg_id = ? AND audio_left > 0 ORDER BY id DESC LIMIT 1)`, chatID)
		if err != nil {
			return fmt.Errorf("failed to decrement quota: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if n == 0 {
			return ErrQuotaExhausted
		}
		row := tx.QueryRowContext(ctx,
			`SELECT audio_left FROM users WHERE tg_id = ? ORDER BY id DESC LIMIT 1`, chatID)
		return row.Scan(&left)
	})
	if err != nil {
		return 0, err
	}
	return left, nil
}
