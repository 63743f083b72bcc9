package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertSession binds chatID to username, stamps the login time and clears
// any prompt left over from a previous session.
func (s *Store) UpsertSession(ctx context.Context, chatID int64, username string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (tg_id, username, logged_in_at, current_prompt)
		 VALUES (?, ?, ?, NULL)`,
		chatID, username, timestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// SessionByChatID returns the session for chatID, or ErrNotFound.
func (s *Store) SessionByChatID(ctx context.Context, chatID int64) (*Session, error) {
	var sess Session
	var loggedInAt string
	var prompt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT tg_id, username, logged_in_at, current_prompt FROM sessions WHERE tg_id = ?`,
		chatID).Scan(&sess.ChatID, &sess.Username, &loggedInAt, &prompt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	sess.LoggedInAt, _ = time.Parse(time.RFC3339, loggedInAt)
	if prompt.Valid {
		sess.CurrentPrompt = &prompt.String
	}
	return &sess, nil
}

// SetCurrentPrompt stores the outstanding prompt on the session. A missing
// session yields ErrNotFound: a prompt can only be issued while logged in.
func (s *Store) SetCurrentPrompt(ctx context.Context, chatID int64, prompt string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET current_prompt = ? WHERE tg_id = ?`, prompt, chatID)
	if err != nil {
		return fmt.Errorf("failed to set current prompt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession logs the chat out. Deleting an absent session is a no-op.
func (s *Store) DeleteSession(ctx context.Context, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE tg_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteSessionsOlderThan drops sessions whose login predates cutoff and
// returns how many were removed. Used by the scheduler's stale-session sweep.
func (s *Store) DeleteSessionsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE logged_in_at < ?`, timestamp(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}
