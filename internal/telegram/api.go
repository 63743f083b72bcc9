package telegram

import (
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the slice of the Telegram API the bot talks through. Tests swap
// in a fake.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFile(cfg tgbotapi.FileConfig) (tgbotapi.File, error)
}

type botAPISender struct{ api *tgbotapi.BotAPI }

func (s botAPISender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return s.api.Send(c)
}

func (s botAPISender) GetFile(cfg tgbotapi.FileConfig) (tgbotapi.File, error) {
	return s.api.GetFile(cfg)
}

// downloader fetches attachment bytes by URL.
type downloader func(url string) ([]byte, error)

func httpDownload(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	return data, nil
}
