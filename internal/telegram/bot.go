// Package telegram hosts the conversational surface of the bot: the update
// loop, the signup/login state machine and the audio submission pipeline.
package telegram

import (
	"context"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"voicebank/internal/noise"
	"voicebank/internal/prompt"
	"voicebank/internal/store"
)

// evaluator classifies attachment bytes. Satisfied by noise.Evaluator; tests
// swap in a stub.
type evaluator interface {
	Evaluate(data []byte, suffix string) (noise.Result, error)
}

type Bot struct {
	s        sender
	api      *tgbotapi.BotAPI
	token    string
	store    *store.Store
	prompts  prompt.Source
	eval     evaluator
	download downloader

	noiseThreshold float64
	defaultQuota   int

	locks   *chatLocks
	formsMu sync.Mutex
	forms   map[int64]*form
}

func New(botToken string, st *store.Store, prompts prompt.Source, eval noise.Evaluator, defaultQuota int) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		s:              botAPISender{api: api},
		api:            api,
		token:          api.Token,
		store:          st,
		prompts:        prompts,
		eval:           eval,
		download:       httpDownload,
		noiseThreshold: eval.Threshold,
		defaultQuota:   defaultQuota,
		locks:          newChatLocks(),
		forms:          make(map[int64]*form),
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	log.Printf("bot started as @%s", b.api.Self.UserName)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		b.handleMessage(ctx, update.Message)
	}
}

// route pairs a predicate over the event shape with its handler.
type route struct {
	match  func(*tgbotapi.Message) bool
	handle func(context.Context, *tgbotapi.Message)
}

// routes is the ordered dispatch table; the first matching entry wins.
// Shortcut labels outrank form input so a stuck form can never block
// navigation.
func (b *Bot) routes() []route {
	return []route{
		{func(m *tgbotapi.Message) bool { return m.IsCommand() }, b.handleCommand},
		{func(m *tgbotapi.Message) bool { return m.Voice != nil || m.Audio != nil || m.Document != nil }, b.handleSubmission},
		{func(m *tgbotapi.Message) bool { return len(m.Photo) > 0 }, b.handlePhoto},
		{func(m *tgbotapi.Message) bool { return shortcutLabels[m.Text] }, b.handleShortcut},
		{func(m *tgbotapi.Message) bool { return b.form(m.Chat.ID) != nil }, b.handleFormInput},
		{func(m *tgbotapi.Message) bool { return true }, b.handleFallback},
	}
}

// handleMessage dispatches one inbound event. The per-chat lock makes the
// same-chat serialization explicit instead of trusting delivery order.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	unlock := b.locks.Lock(msg.Chat.ID)
	defer unlock()

	for _, r := range b.routes() {
		if r.match(msg) {
			r.handle(ctx, msg)
			return
		}
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, kb tgbotapi.ReplyKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

// replyStoreTrouble is the catch-all for persistent-store failures: the
// handler aborts, the user gets a retry hint, other chats are unaffected.
func (b *Bot) replyStoreTrouble(chatID int64, err error) {
	log.Printf("store error for chat %d: %v", chatID, err)
	b.sendMessage(chatID, "⚠️ Something went wrong on our side. Please try again later.")
}
