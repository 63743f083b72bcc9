package telegram

import "regexp"

// formStep marks which field a multi-turn form expects next. A chat with no
// form entry is idle.
type formStep int

const (
	stepSignupDetails formStep = iota + 1
	stepSignupUsername
	stepSignupPassword
	stepLoginUsername
	stepLoginPassword
)

// form carries the partially collected signup/login fields for one chat.
// It lives in memory only: a crash mid-form restarts the form, nothing more.
type form struct {
	step formStep

	firstName string
	lastName  string
	age       string
	language  string
	username  string
}

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

const minPasswordLen = 6

// form returns the chat's in-progress form, or nil when idle.
func (b *Bot) form(chatID int64) *form {
	b.formsMu.Lock()
	defer b.formsMu.Unlock()
	return b.forms[chatID]
}

func (b *Bot) setForm(chatID int64, f *form) {
	b.formsMu.Lock()
	defer b.formsMu.Unlock()
	b.forms[chatID] = f
}

// clearForm abandons any form in progress. Safe to call when idle.
func (b *Bot) clearForm(chatID int64) {
	b.formsMu.Lock()
	defer b.formsMu.Unlock()
	delete(b.forms, chatID)
}
