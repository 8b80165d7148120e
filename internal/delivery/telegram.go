package delivery

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"

	"inventory-alert-service/internal/logging"
	"inventory-alert-service/internal/models"
)

// TelegramMirror copies every pushed alert into an ops chat. It is a secondary
// channel: a mirror failure never fails the push.
type TelegramMirror struct {
	bot    *bot.Bot
	chatID int64
	logger *logging.Logger
}

func NewTelegramMirror(token string, chatID int64, logger *logging.Logger) (*TelegramMirror, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	return &TelegramMirror{bot: b, chatID: chatID, logger: logger}, nil
}

func (t *TelegramMirror) Push(ctx context.Context, msg models.Message) error {
	text := fmt.Sprintf("*%s*\n%s\n\n_topic: %s_", msg.Title, msg.Body, msg.Topic)
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    t.chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", t.chatID, err)
	}
	return nil
}

// Sender is any outbound channel that can deliver a composed message.
type Sender interface {
	Push(ctx context.Context, msg models.Message) error
}

// Fanout pushes to a primary channel and mirrors to secondaries. Only the
// primary's error propagates.
type Fanout struct {
	Primary Sender
	Mirrors []Sender
	Logger  *logging.Logger
}

func (f *Fanout) Push(ctx context.Context, msg models.Message) error {
	for _, m := range f.Mirrors {
		if err := m.Push(ctx, msg); err != nil {
			f.Logger.Warnf("Mirror push failed for topic %s: %v", msg.Topic, err)
		}
	}
	return f.Primary.Push(ctx, msg)
}
