package telegram

import (
	"context"
	"errors"
	"fmt"
	"path"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"voicebank/internal/noise"
	"voicebank/internal/store"
)

// handleSubmission runs the pipeline for one inbound audio event: resolve
// the attachment, snapshot the session, download, evaluate, log, and only
// then touch the quota. The log write and the prompt clear share one
// transaction so the prompt is consumed exactly once.
func (b *Bot) handleSubmission(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	fileID, nameHint, ok := attachmentRef(msg)
	if !ok {
		b.sendMessage(chatID, "❌ Unsupported file type. Please send an audio or voice message.")
		return
	}

	// Snapshot the session before any side effect; both fields stay null for
	// an unauthenticated submission.
	var username, currentPrompt *string
	sess, err := b.store.SessionByChatID(ctx, chatID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		b.replyStoreTrouble(chatID, err)
		return
	}
	if err == nil {
		username = &sess.Username
		currentPrompt = sess.CurrentPrompt
	}

	file, err := b.s.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		b.sendMessage(chatID, "❌ Could not fetch your file from Telegram. Please try again.")
		return
	}
	suffix := path.Ext(nameHint)
	if suffix == "" {
		suffix = path.Ext(file.FilePath)
	}

	data, err := b.download(file.Link(b.token))
	if err != nil {
		b.sendMessage(chatID, "❌ Could not download your file. Please try again.")
		return
	}

	res, err := b.eval.Evaluate(data, suffix)
	if err != nil {
		if errors.Is(err, noise.ErrDecode) {
			b.sendMessage(chatID, "❌ Could not decode your file as audio. Please send a WAV recording.")
		} else {
			b.sendMessage(chatID, "❌ Could not analyze your recording. Please try again.")
		}
		return
	}

	sub := &store.Submission{
		ChatID:     chatID,
		Username:   username,
		Prompt:     currentPrompt,
		FileID:     fileID,
		NoiseLevel: res.NoiseFloor,
		Accepted:   res.Accepted,
	}
	if err := b.store.LogSubmission(ctx, sub); err != nil {
		b.replyStoreTrouble(chatID, err)
		return
	}

	if !res.Accepted {
		b.sendMessage(chatID, fmt.Sprintf(
			"❌ Error\n"+
				"Message: File not accepted\n"+
				"Reason: High background noise detected\n"+
				"Noise Level: %.5f\n"+
				"Resolution: Please record in a quieter environment and try again. The threshold is set at %g.",
			res.NoiseFloor, b.noiseThreshold))
	} else {
		b.sendMessage(chatID, "✅ Success\nAudio file submitted.")
		left, err := b.store.DecrementAudioLeft(ctx, chatID)
		switch {
		case errors.Is(err, store.ErrQuotaExhausted):
			b.sendWithKeyboard(chatID, "You have no audio submissions left. Please contact support.", loggedInKeyboard)
		case err != nil:
			b.replyStoreTrouble(chatID, err)
		default:
			b.sendWithKeyboard(chatID, fmt.Sprintf("Audio files left: %d", left), loggedInKeyboard)
		}
	}

	b.sendWithKeyboard(chatID, "Continue?", recordActionKeyboard)
}

// attachmentRef picks the audio-bearing field out of the three possible
// event shapes, returning the file reference and a filename hint.
func attachmentRef(msg *tgbotapi.Message) (fileID, nameHint string, ok bool) {
	switch {
	case msg.Audio != nil:
		return msg.Audio.FileID, msg.Audio.FileName, true
	case msg.Voice != nil:
		return msg.Voice.FileID, "", true
	case msg.Document != nil:
		return msg.Document.FileID, msg.Document.FileName, true
	}
	return "", "", false
}
