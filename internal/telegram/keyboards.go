package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Shortcut button labels. These are accepted from every conversation state
// and force-clear any form in progress before dispatching.
const (
	labelSignUp   = "Sign Up"
	labelLogIn    = "Log In"
	labelLogOut   = "Log Out"
	labelMe       = "Me"
	labelYes      = "Yes"
	labelNo       = "No"
	labelContinue = "Continue"
	labelStop     = "Stop"
	labelRecord   = "Record Audio"
)

var shortcutLabels = map[string]bool{
	labelSignUp:   true,
	labelLogIn:    true,
	labelLogOut:   true,
	labelMe:       true,
	labelYes:      true,
	labelNo:       true,
	labelContinue: true,
	labelStop:     true,
	labelRecord:   true,
}

var (
	mainKeyboard = replyKeyboard("Choose an option…",
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelSignUp),
			tgbotapi.NewKeyboardButton(labelLogIn),
		),
	)

	loggedInKeyboard = replyKeyboard("Select an action…",
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelRecord),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelMe),
			tgbotapi.NewKeyboardButton(labelLogOut),
		),
	)

	readyKeyboard = replyKeyboard("Ready to record?",
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelYes),
			tgbotapi.NewKeyboardButton(labelNo),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelSignUp),
			tgbotapi.NewKeyboardButton(labelLogIn),
		),
	)

	recordActionKeyboard = replyKeyboard("Record another?",
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelContinue),
			tgbotapi.NewKeyboardButton(labelStop),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelMe),
			tgbotapi.NewKeyboardButton(labelLogOut),
		),
	)
)

func replyKeyboard(placeholder string, rows ...[]tgbotapi.KeyboardButton) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.InputFieldPlaceholder = placeholder
	return kb
}
