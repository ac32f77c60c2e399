package notify

import (
	"context"
	"fmt"
)

// Notifier delivers a short operator-facing message on some channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Config selects the delivery channel. Channel is one of "telegram",
// "discord" or "" (disabled).
type Config struct {
	Channel        string
	Token          string
	TelegramChatID int64
	DiscordChannel string
}

// New builds a notifier from config. Returns (nil, nil) when no channel
// is configured.
func New(cfg Config) (Notifier, error) {
	switch cfg.Channel {
	case "":
		return nil, nil
	case "telegram":
		return newTelegram(cfg.Token, cfg.TelegramChatID)
	case "discord":
		return newDiscord(cfg.Token, cfg.DiscordChannel)
	default:
		return nil, fmt.Errorf("unknown notify channel: %s", cfg.Channel)
	}
}
