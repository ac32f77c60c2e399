package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/whyhi/wos/internal/logger"
)

type discord struct {
	session   *discordgo.Session
	channelID string
}

func newDiscord(token, channelID string) (Notifier, error) {
	if token == "" || channelID == "" {
		return nil, fmt.Errorf("discord notifier requires token and channel id")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session init: %w", err)
	}

	return &discord{session: session, channelID: channelID}, nil
}

func (d *discord) Notify(ctx context.Context, message string) error {
	_, err := d.session.ChannelMessageSend(d.channelID, message)
	if err != nil {
		logger.Error("discord notify failed", "error", err, "channelID", d.channelID)
	} else {
		logger.Info("discord notification sent", "channelID", d.channelID, "chars", len(message))
	}
	return err
}
