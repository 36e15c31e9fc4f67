package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sjsage522/projectwatcher/internal/store"
	"sjsage522/projectwatcher/logger"
	"sjsage522/projectwatcher/pkg/errors"
)

// sender is the part of tgbotapi.BotAPI the notifier uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends new projects to a Telegram chat
type TelegramNotifier struct {
	bot    sender
	chatID int64
	log    *logger.Logger
}

// Ensure TelegramNotifier implements Notifier
var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier authenticates the bot token and targets chatID
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, errors.NewNotifier("telegram", "initializing bot", err)
	}
	return newTelegramNotifier(bot, chatID), nil
}

func newTelegramNotifier(bot sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		log:    logger.ForNotifier().WithField("sink", "telegram"),
	}
}

// Notify sends a message for rec and logs any failure
func (t *TelegramNotifier) Notify(ctx context.Context, rec store.Record) {
	text := fmt.Sprintf("New project: %s\n%s", rec.Title, rec.URL)
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		t.log.Warn().Err(err).Int64("chat_id", t.chatID).Str("url", rec.URL).Msg("Failed to send alert")
	}
}
