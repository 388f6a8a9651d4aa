// Package publish distributes finished videos: YouTube upload and a
// Telegram channel post. Both are downstream of the pipeline; their
// failures never touch the produced video file.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
)

// Telegram posts lesson announcements to a channel.
type Telegram struct {
	bot    *telego.Bot
	chatID telego.ChatID
}

// NewTelegram creates a poster for a channel. The channel is either a
// numeric chat ID or a public @username.
func NewTelegram(token, channel string) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	chatID, err := parseChannel(channel)
	if err != nil {
		return nil, err
	}
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func parseChannel(channel string) (telego.ChatID, error) {
	if channel == "" {
		return telego.ChatID{}, fmt.Errorf("telegram channel is required")
	}
	if strings.HasPrefix(channel, "@") {
		return telego.ChatID{Username: channel}, nil
	}
	id, err := strconv.ParseInt(channel, 10, 64)
	if err != nil {
		return telego.ChatID{}, fmt.Errorf("invalid telegram channel %q: %w", channel, err)
	}
	return telego.ChatID{ID: id}, nil
}

// Post sends an HTML-formatted message and returns the message ID. When
// Telegram rejects the HTML, the message is retried as plain text.
func (t *Telegram) Post(ctx context.Context, message string) (string, error) {
	msg, err := t.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    t.chatID,
		Text:      message,
		ParseMode: telego.ModeHTML,
	})
	if err != nil {
		slog.Warn("telegram HTML post failed, retrying as plain text", "error", err)
		msg, err = t.bot.SendMessage(ctx, &telego.SendMessageParams{
			ChatID: t.chatID,
			Text:   message,
		})
		if err != nil {
			return "", fmt.Errorf("telegram post: %w", err)
		}
	}
	return strconv.Itoa(msg.MessageID), nil
}

// Ping verifies the bot token.
func (t *Telegram) Ping(ctx context.Context) error {
	if _, err := t.bot.GetMe(ctx); err != nil {
		return fmt.Errorf("telegram bot authentication: %w", err)
	}
	return nil
}
