package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the Telegram bot API the notifier uses
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends HTML messages to a recipient's chat
type TelegramNotifier struct {
	api Sender
}

// NewTelegramNotifier connects to the bot API with token
func NewTelegramNotifier(token string) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{api: api}, nil
}

// NewTelegramNotifierWithSender uses an existing sender
func NewTelegramNotifierWithSender(api Sender) *TelegramNotifier {
	return &TelegramNotifier{api: api}
}

// Notify implements Notifier. Recipients without a chat id get ErrNoChannel.
func (t *TelegramNotifier) Notify(ctx context.Context, to Recipient, msg Message) error {
	if to.ChatID == 0 {
		return ErrNoChannel
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	out := tgbotapi.NewMessage(to.ChatID, FormatHTML(msg))
	out.ParseMode = tgbotapi.ModeHTML
	out.DisableWebPagePreview = true
	if _, err := t.api.Send(out); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
