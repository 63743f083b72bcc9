package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"voicebank/internal/store"
	"voicebank/internal/vault"
)

const taskText = "Tasks to complete:\n" +
	"1) Read the text prompt out loud.\n" +
	"2) Record and send your audio.\n" +
	"3) Repeat to collect more samples."

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "info":
		b.sendWithKeyboard(msg.Chat.ID, "Voicebank collects spoken-audio samples for dataset building.", mainKeyboard)
	case "status":
		b.handleStatus(ctx, msg)
	case "signup":
		b.startSignup(msg.Chat.ID)
	case "login":
		b.startLogin(msg.Chat.ID)
	case "logout":
		b.handleLogout(ctx, msg)
	case "me":
		b.handleMe(ctx, msg)
	default:
		b.sendWithKeyboard(msg.Chat.ID, "Unknown command. Use the buttons below.", mainKeyboard)
	}
}

// handleStart force-logs the chat out and resets any form in progress.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.clearForm(chatID)
	if err := b.store.DeleteSession(ctx, chatID); err != nil {
		b.replyStoreTrouble(chatID, err)
		return
	}
	welcome := "Welcome to the Voicebank data collection bot.\n\n" + taskText +
		"\n\n👉 Please log in to continue."
	b.sendWithKeyboard(chatID, welcome, mainKeyboard)
}

func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	u, err := b.store.UserByChatID(ctx, chatID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		b.sendWithKeyboard(chatID, "None.", mainKeyboard)
	case err != nil:
		b.replyStoreTrouble(chatID, err)
	default:
		b.sendWithKeyboard(chatID, fmt.Sprintf("Number of tasks left is: %d", u.AudioLeft), loggedInKeyboard)
	}
}

func (b *Bot) startSignup(chatID int64) {
	b.setForm(chatID, &form{step: stepSignupDetails})
	b.sendMessage(chatID, "Welcome to the signup process! Please provide the following details in the format:\n"+
		"First Name, Last Name, Age, Language (e.g., John, Doe, 25, English):")
}

func (b *Bot) startLogin(chatID int64) {
	b.setForm(chatID, &form{step: stepLoginUsername})
	b.sendMessage(chatID, "Enter your username:")
}

func (b *Bot) handleLogout(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.clearForm(chatID)
	if err := b.store.DeleteSession(ctx, chatID); err != nil {
		b.replyStoreTrouble(chatID, err)
		return
	}
	b.sendWithKeyboard(chatID, "🚪 Logged out.", mainKeyboard)
}

func (b *Bot) handleMe(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	sess, err := b.store.SessionByChatID(ctx, chatID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		b.sendMessage(chatID, "⚠️ Not logged in. Use /login.")
	case err != nil:
		b.replyStoreTrouble(chatID, err)
	default:
		b.sendMessage(chatID, fmt.Sprintf("👤 You are logged in as %s\n⏱️ Since: %s",
			sess.Username, sess.LoggedInAt.Format("2006-01-02 15:04:05 UTC")))
	}
}

func (b *Bot) handlePhoto(_ context.Context, msg *tgbotapi.Message) {
	b.sendMessage(msg.Chat.ID, "Image submitted successfully!")
}

// handleShortcut services the fixed button labels. They work from any state:
// the form is cleared first, so a half-finished signup can never wedge the
// chat.
func (b *Bot) handleShortcut(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.clearForm(chatID)

	switch msg.Text {
	case labelSignUp:
		b.startSignup(chatID)
	case labelLogIn:
		b.startLogin(chatID)
	case labelLogOut:
		b.handleLogout(ctx, msg)
	case labelMe:
		b.handleMe(ctx, msg)
	case labelYes, labelContinue, labelRecord:
		b.issuePrompt(ctx, msg)
	case labelNo:
		b.handleNo(ctx, msg)
	case labelStop:
		b.sendWithKeyboard(chatID, "✅ Thanks for contributing! You can start again anytime.", loggedInKeyboard)
	}
}

// issuePrompt starts a recording turn: pick a prompt, persist it on the
// session, and ask for the audio.
func (b *Bot) issuePrompt(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if _, err := b.store.SessionByChatID(ctx, chatID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			b.sendWithKeyboard(chatID, "You need to log in first. Tap Log In or Sign Up below.", readyKeyboard)
			return
		}
		b.replyStoreTrouble(chatID, err)
		return
	}

	text, err := b.prompts.Next(ctx)
	if err != nil {
		b.replyStoreTrouble(chatID, err)
		return
	}
	if err := b.store.SetCurrentPrompt(ctx, chatID, text); err != nil {
		b.replyStoreTrouble(chatID, err)
		return
	}

	b.sendWithKeyboard(chatID,
		fmt.Sprintf("🎙️ Please record the following:\n\n👉 %s\n\nSend your audio when ready.", text),
		loggedInKeyboard)
}

func (b *Bot) handleNo(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	kb := mainKeyboard
	if _, err := b.store.SessionByChatID(ctx, chatID); err == nil {
		kb = loggedInKeyboard
	}
	b.sendWithKeyboard(chatID, "No problem — start anytime from the buttons below.", kb)
}

func (b *Bot) handleFallback(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	kb := mainKeyboard
	if _, err := b.store.SessionByChatID(ctx, chatID); err == nil {
		kb = loggedInKeyboard
	}
	b.sendWithKeyboard(chatID, "Use the buttons below to continue.", kb)
}

// handleFormInput advances the active signup/login form by one turn.
// Malformed input re-prompts the same step; it is never fatal.
func (b *Bot) handleFormInput(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	f := b.form(chatID)
	if f == nil {
		b.handleFallback(ctx, msg)
		return
	}
	text := strings.TrimSpace(msg.Text)

	switch f.step {
	case stepSignupDetails:
		b.signupDetails(chatID, f, text)
	case stepSignupUsername:
		b.signupUsername(chatID, f, text)
	case stepSignupPassword:
		b.signupPassword(ctx, chatID, f, text)
	case stepLoginUsername:
		f.username = text
		f.step = stepLoginPassword
		b.sendMessage(chatID, "Enter your password:")
	case stepLoginPassword:
		b.loginPassword(ctx, chatID, f, text)
	}
}

func (b *Bot) signupDetails(chatID int64, f *form, text string) {
	parts := strings.Split(text, ",")
	if len(parts) != 4 {
		b.sendMessage(chatID, "Invalid format. Please provide details in the format:\nFirst Name, Last Name, Age, Language")
		return
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			b.sendMessage(chatID, "Invalid format. Please provide details in the format:\nFirst Name, Last Name, Age, Language")
			return
		}
	}
	f.firstName, f.lastName, f.age, f.language = parts[0], parts[1], parts[2], parts[3]
	f.step = stepSignupUsername
	b.sendMessage(chatID, "Choose a username (3–32 chars, letters/numbers/_):")
}

func (b *Bot) signupUsername(chatID int64, f *form, text string) {
	if !usernameRe.MatchString(text) {
		b.sendMessage(chatID, "Invalid username. Try again (3–32 chars, letters/numbers/_):")
		return
	}
	f.username = text
	f.step = stepSignupPassword
	b.sendMessage(chatID, "Choose a password (min 6 chars):")
}

func (b *Bot) signupPassword(ctx context.Context, chatID int64, f *form, text string) {
	if len(text) < minPasswordLen {
		b.sendMessage(chatID, "Password too short. Enter at least 6 characters:")
		return
	}
	digest, err := vault.Hash(text)
	if err != nil {
		b.replyStoreTrouble(chatID, err)
		return
	}

	u := &store.User{
		ChatID:       chatID,
		FirstName:    f.firstName,
		LastName:     f.lastName,
		Age:          f.age,
		Language:     f.language,
		Username:     f.username,
		PasswordHash: digest,
		AudioLeft:    b.defaultQuota,
	}
	err = b.store.CreateUser(ctx, u)
	switch {
	case errors.Is(err, store.ErrUsernameTaken):
		b.clearForm(chatID)
		b.sendWithKeyboard(chatID, "⚠️ Username already taken. Start over with /signup.", mainKeyboard)
	case err != nil:
		// form stays put so the password turn can be retried
		b.replyStoreTrouble(chatID, err)
	default:
		b.clearForm(chatID)
		b.sendWithKeyboard(chatID, "✅ Account created! You can now log in.", mainKeyboard)
	}
}

func (b *Bot) loginPassword(ctx context.Context, chatID int64, f *form, text string) {
	u, err := b.store.UserByUsername(ctx, f.username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		b.replyStoreTrouble(chatID, err)
		return
	}
	if err != nil || !vault.Verify(text, u.PasswordHash) {
		b.clearForm(chatID)
		b.sendWithKeyboard(chatID, "❌ Invalid username or password.", mainKeyboard)
		return
	}

	if err := b.store.UpsertSession(ctx, chatID, u.Username); err != nil {
		b.replyStoreTrouble(chatID, err)
		return
	}
	b.clearForm(chatID)
	b.sendMessage(chatID, fmt.Sprintf("✅ Logged in as %s", u.Username))
	b.sendWithKeyboard(chatID, taskText+"\n\nReady to record? Choose Yes or No.", readyKeyboard)
}
