package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/whyhi/wos/internal/logger"
)

type telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func newTelegram(token string, chatID int64) (Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, fmt.Errorf("telegram notifier requires token and chat id")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}

	return &telegram{api: api, chatID: chatID}, nil
}

func (t *telegram) Notify(ctx context.Context, message string) error {
	msg := tgbotapi.NewMessage(t.chatID, message)
	_, err := t.api.Send(msg)
	if err != nil {
		logger.Error("telegram notify failed", "error", err, "chatID", t.chatID)
	} else {
		logger.Info("telegram notification sent", "chatID", t.chatID, "chars", len(message))
	}
	return err
}
