// Package notify delivers fire-and-forget status messages to the operator.
package notify

import (
	"github.com/rs/zerolog"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends a message without ever blocking or failing the caller.
type Notifier interface {
	Send(msg string)
}

// Telegram posts messages to a fixed chat. A nil receiver, nil bot, or zero
// chat id makes Send a no-op, so an unconfigured notifier is safe to use.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	log    zerolog.Logger
}

// NewTelegram connects the bot API. An empty token returns (nil, nil): the
// caller gets a working no-op notifier for free.
func NewTelegram(token string, chatID int64, log zerolog.Logger) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	bot, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: bot, chatID: chatID, log: log}, nil
}

// Send posts the message, swallowing delivery errors after logging them.
func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		t.log.Warn().Err(err).Msg("telegram send failed")
	}
}

// Noop discards every message.
type Noop struct{}

// Send does nothing.
func (Noop) Send(string) {}
