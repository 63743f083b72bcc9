package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LogSubmission appends the audit entry for one audio event and clears the
// session's outstanding prompt in the same transaction, so a prompt can
// never be resubmitted against twice. The clear happens whether the
// recording was accepted or rejected.
func (s *Store) LogSubmission(ctx context.Context, sub *Submission) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO submissions (tg_id, username, prompt, file_id, noise_level, accepted, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sub.ChatID, sub.Username, sub.Prompt, sub.FileID, sub.NoiseLevel,
			boolToInt(sub.Accepted), timestamp(sub.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert submission: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read inserted submission id: %w", err)
		}
		sub.ID = id

		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET current_prompt = NULL WHERE tg_id = ?`, sub.ChatID); err != nil {
			return fmt.Errorf("failed to clear current prompt: %w", err)
		}
		return nil
	})
}

// SubmissionStats counts accepted and rejected submissions logged at or
// after since. Used by the scheduler's daily report.
func (s *Store) SubmissionStats(ctx context.Context, since time.Time) (accepted, rejected int64, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT accepted, COUNT(*) FROM submissions WHERE created_at >= ? GROUP BY accepted`,
		timestamp(since))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var acc, n int64
		if err := rows.Scan(&acc, &n); err != nil {
			return 0, 0, fmt.Errorf("failed to scan submission stats: %w", err)
		}
		if acc != 0 {
			accepted = n
		} else {
			rejected = n
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("failed to iterate submission stats: %w", err)
	}
	return accepted, rejected, nil
}

// SubmissionsByChat returns the chat's audit entries, newest first.
func (s *Store) SubmissionsByChat(ctx context.Context, chatID int64) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tg_id, username, prompt, file_id, noise_level, accepted, created_at
		 FROM submissions WHERE tg_id = ? ORDER BY id DESC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var sub Submission
		var username, prompt sql.NullString
		var accepted int
		var createdAt string
		if err := rows.Scan(&sub.ID, &sub.ChatID, &username, &prompt, &sub.FileID,
			&sub.NoiseLevel, &accepted, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		if username.Valid {
			sub.Username = &username.String
		}
		if prompt.Valid {
			sub.Prompt = &prompt.String
		}
		sub.Accepted = accepted != 0
		sub.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
