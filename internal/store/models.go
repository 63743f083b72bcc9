package store

import "time"

// User is one registered contributor.
type User struct {
	ID           int64
	ChatID       int64
	FirstName    string
	LastName     string
	Age          string
	Language     string
	Username     string
	PasswordHash string
	AudioLeft    int
	CreatedAt    time.Time
}

// Session binds a chat to an authenticated username and, when a recording
// turn is in flight, the prompt the contributor is expected to read.
type Session struct {
	ChatID        int64
	Username      string
	LoggedInAt    time.Time
	CurrentPrompt *string
}

// Submission is one immutable audit entry for an audio event. Username and
// Prompt are snapshots of the session at submit time and stay null for
// unauthenticated submissions.
type Submission struct {
	ID         int64
	ChatID     int64
	Username   *string
	Prompt     *string
	FileID     string
	NoiseLevel float64
	Accepted   bool
	CreatedAt  time.Time
}
