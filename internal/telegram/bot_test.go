package telegram

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicebank/internal/noise"
	"voicebank/internal/store"
	"voicebank/internal/vault"
)

type fakeSender struct {
	sent    []string
	file    tgbotapi.File
	fileErr error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	mc := c.(tgbotapi.MessageConfig)
	f.sent = append(f.sent, mc.Text)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) GetFile(_ tgbotapi.FileConfig) (tgbotapi.File, error) {
	return f.file, f.fileErr
}

func (f *fakeSender) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeSender) contains(sub string) bool {
	for _, s := range f.sent {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

type stubPrompts struct{ text string }

func (s stubPrompts) Next(_ context.Context) (string, error) { return s.text, nil }

type stubEval struct {
	res noise.Result
	err error
}

func (s stubEval) Evaluate(_ []byte, _ string) (noise.Result, error) { return s.res, s.err }

func newTestBot(t *testing.T) (*Bot, *fakeSender, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	fs := &fakeSender{file: tgbotapi.File{FilePath: "voice/sample.wav"}}
	b := &Bot{
		s:              fs,
		token:          "test-token",
		store:          st,
		prompts:        stubPrompts{text: "read me aloud"},
		eval:           noise.New(),
		download:       func(string) ([]byte, error) { return nil, errors.New("no downloader wired") },
		noiseThreshold: noise.DefaultThreshold,
		defaultQuota:   10,
		locks:          newChatLocks(),
		forms:          make(map[int64]*form),
	}
	return b, fs, st
}

func textMsg(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID},
		Text: text,
	}
}

func cmdMsg(chatID int64, cmd string) *tgbotapi.Message {
	m := textMsg(chatID, cmd)
	m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	return m
}

func send(t *testing.T, b *Bot, msg *tgbotapi.Message) {
	t.Helper()
	b.handleMessage(context.Background(), msg)
}

func seedUser(t *testing.T, st *store.Store, chatID int64, username, password string, quota int) {
	t.Helper()
	digest, err := vault.Hash(password)
	require.NoError(t, err)
	require.NoError(t, st.CreateUser(context.Background(), &store.User{
		ChatID:       chatID,
		FirstName:    "Ann",
		LastName:     "Lee",
		Age:          "30",
		Language:     "English",
		Username:     username,
		PasswordHash: digest,
		AudioLeft:    quota,
	}))
}

func login(t *testing.T, b *Bot, chatID int64, username, password string) {
	t.Helper()
	send(t, b, cmdMsg(chatID, "/login"))
	send(t, b, textMsg(chatID, username))
	send(t, b, textMsg(chatID, password))
}

func TestSignupCreatesAccount(t *testing.T) {
	b, fs, st := newTestBot(t)
	ctx := context.Background()

	send(t, b, cmdMsg(1, "/signup"))
	send(t, b, textMsg(1, "Ann, Lee, 30, English"))
	send(t, b, textMsg(1, "annlee1"))
	send(t, b, textMsg(1, "secret1"))

	assert.True(t, fs.contains("Account created"), "messages: %v", fs.sent)

	u, err := st.UserByUsername(ctx, "annlee1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ChatID)
	assert.Equal(t, "Ann", u.FirstName)
	assert.Equal(t, "Lee", u.LastName)
	assert.Equal(t, "30", u.Age)
	assert.Equal(t, "English", u.Language)
	assert.Equal(t, 10, u.AudioLeft)
	assert.True(t, vault.Verify("secret1", u.PasswordHash))

	// form is gone
	assert.Nil(t, b.form(1))
}

func TestSignupInvalidDetailsRePrompts(t *testing.T) {
	b, fs, st := newTestBot(t)

	send(t, b, cmdMsg(1, "/signup"))
	send(t, b, textMsg(1, "only, three, fields"))
	assert.Contains(t, fs.last(), "Invalid format")
	require.NotNil(t, b.form(1))
	assert.Equal(t, stepSignupDetails, b.form(1).step)

	send(t, b, textMsg(1, "Ann, Lee, 30, "))
	assert.Contains(t, fs.last(), "Invalid format", "empty trimmed field must re-prompt")

	// recoverable: the valid turn still advances with nothing lost
	send(t, b, textMsg(1, "Ann, Lee, 30, English"))
	assert.Contains(t, fs.last(), "Choose a username")
	send(t, b, textMsg(1, "annlee1"))
	send(t, b, textMsg(1, "secret1"))

	u, err := st.UserByUsername(context.Background(), "annlee1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.FirstName)
	assert.Equal(t, "English", u.Language)
}

func TestSignupRejectsBadUsername(t *testing.T) {
	b, fs, _ := newTestBot(t)

	send(t, b, cmdMsg(1, "/signup"))
	send(t, b, textMsg(1, "Ann, Lee, 30, English"))

	for _, bad := range []string{"ab", "has space", "way!bad", strings.Repeat("x", 33)} {
		send(t, b, textMsg(1, bad))
		assert.Contains(t, fs.last(), "Invalid username", "username %q must be rejected", bad)
		assert.Equal(t, stepSignupUsername, b.form(1).step)
	}

	send(t, b, textMsg(1, "good_name1"))
	assert.Contains(t, fs.last(), "Choose a password")
}

func TestSignupRejectsShortPassword(t *testing.T) {
	b, fs, st := newTestBot(t)

	send(t, b, cmdMsg(1, "/signup"))
	send(t, b, textMsg(1, "Ann, Lee, 30, English"))
	send(t, b, textMsg(1, "annlee1"))

	send(t, b, textMsg(1, "12345"))
	assert.Contains(t, fs.last(), "Password too short")
	assert.Equal(t, stepSignupPassword, b.form(1).step)

	send(t, b, textMsg(1, "123456"))
	assert.True(t, fs.contains("Account created"))
	_, err := st.UserByUsername(context.Background(), "annlee1")
	assert.NoError(t, err)
}

func TestSignupDuplicateUsernameAborts(t *testing.T) {
	b, fs, st := newTestBot(t)
	seedUser(t, st, 99, "annlee1", "elsewhere", 10)

	send(t, b, cmdMsg(1, "/signup"))
	send(t, b, textMsg(1, "Ann, Lee, 30, English"))
	send(t, b, textMsg(1, "annlee1"))
	send(t, b, textMsg(1, "secret1"))

	assert.True(t, fs.contains("Username already taken"))
	assert.Nil(t, b.form(1), "form must reset so /signup can start over")

	// no partial row for this chat
	_, err := st.UserByChatID(context.Background(), 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestShortcutClearsFormMidSignup(t *testing.T) {
	b, fs, _ := newTestBot(t)

	send(t, b, cmdMsg(1, "/signup"))
	send(t, b, textMsg(1, "Ann, Lee, 30, English"))
	send(t, b, textMsg(1, "annlee1"))
	require.Equal(t, stepSignupPassword, b.form(1).step)

	// "Log In" from mid-signup drops the form and starts the login flow
	send(t, b, textMsg(1, "Log In"))
	assert.Contains(t, fs.last(), "Enter your username")
	f := b.form(1)
	require.NotNil(t, f)
	assert.Equal(t, stepLoginUsername, f.step)
	assert.Empty(t, f.firstName, "no partial signup data may leak")
	assert.Empty(t, f.username)
}

func TestLoginCreatesSessionAndYesIssuesPrompt(t *testing.T) {
	b, fs, st := newTestBot(t)
	ctx := context.Background()
	seedUser(t, st, 2, "annlee1", "secret1", 10)

	login(t, b, 2, "annlee1", "secret1")
	assert.True(t, fs.contains("Logged in as annlee1"))

	sess, err := st.SessionByChatID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "annlee1", sess.Username)
	assert.Nil(t, sess.CurrentPrompt)

	send(t, b, textMsg(2, "Yes"))
	assert.Contains(t, fs.last(), "read me aloud")

	sess, err = st.SessionByChatID(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, sess.CurrentPrompt)
	assert.Equal(t, "read me aloud", *sess.CurrentPrompt)
}

func TestLoginWrongPassword(t *testing.T) {
	b, fs, st := newTestBot(t)
	seedUser(t, st, 2, "annlee1", "secret1", 10)

	login(t, b, 2, "annlee1", "wrong-password")
	assert.Contains(t, fs.last(), "Invalid username or password")

	_, err := st.SessionByChatID(context.Background(), 2)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoginUnknownUsername(t *testing.T) {
	b, fs, st := newTestBot(t)

	login(t, b, 2, "nobody", "whatever")
	assert.Contains(t, fs.last(), "Invalid username or password")
	_, err := st.SessionByChatID(context.Background(), 2)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestYesWithoutLoginRequiresAuth(t *testing.T) {
	b, fs, st := newTestBot(t)

	for _, label := range []string{"Yes", "Record Audio", "Continue"} {
		send(t, b, textMsg(3, label))
		assert.Contains(t, fs.last(), "log in first", "label %q", label)
	}
	_, err := st.SessionByChatID(context.Background(), 3)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStartForcesLogout(t *testing.T) {
	b, fs, st := newTestBot(t)
	ctx := context.Background()
	require.NoError(t, st.UpsertSession(ctx, 4, "annlee1"))

	send(t, b, cmdMsg(4, "/start"))
	assert.Contains(t, fs.last(), "Welcome")

	_, err := st.SessionByChatID(ctx, 4)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLogoutShortcut(t *testing.T) {
	b, fs, st := newTestBot(t)
	ctx := context.Background()
	require.NoError(t, st.UpsertSession(ctx, 4, "annlee1"))

	send(t, b, textMsg(4, "Log Out"))
	assert.Contains(t, fs.last(), "Logged out")
	_, err := st.SessionByChatID(ctx, 4)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStatusCommand(t *testing.T) {
	b, fs, st := newTestBot(t)

	send(t, b, cmdMsg(5, "/status"))
	assert.Equal(t, "None.", fs.last())

	seedUser(t, st, 5, "bob_1", "secret1", 7)
	send(t, b, cmdMsg(5, "/status"))
	assert.Contains(t, fs.last(), "Number of tasks left is: 7")
}

func TestMeCommand(t *testing.T) {
	b, fs, st := newTestBot(t)

	send(t, b, cmdMsg(6, "/me"))
	assert.Contains(t, fs.last(), "Not logged in")

	require.NoError(t, st.UpsertSession(context.Background(), 6, "annlee1"))
	send(t, b, textMsg(6, "Me"))
	assert.Contains(t, fs.last(), "logged in as annlee1")
}

func TestNoAndStopAreAcknowledgements(t *testing.T) {
	b, fs, st := newTestBot(t)
	ctx := context.Background()
	require.NoError(t, st.UpsertSession(ctx, 7, "annlee1"))
	require.NoError(t, st.SetCurrentPrompt(ctx, 7, "leftover"))

	send(t, b, textMsg(7, "No"))
	assert.Contains(t, fs.last(), "No problem")

	send(t, b, textMsg(7, "Stop"))
	assert.Contains(t, fs.last(), "Thanks for contributing")

	// neither touches the session or its prompt
	sess, err := st.SessionByChatID(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, sess.CurrentPrompt)
	assert.Equal(t, "leftover", *sess.CurrentPrompt)
}

func TestPhotoAcknowledged(t *testing.T) {
	b, fs, _ := newTestBot(t)
	m := textMsg(8, "")
	m.Photo = []tgbotapi.PhotoSize{{FileID: "photo-1"}}
	send(t, b, m)
	assert.Contains(t, fs.last(), "Image submitted")
}
