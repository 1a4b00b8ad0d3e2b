package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pzhukov/medminder/internal/bot/keyboards"
	"github.com/pzhukov/medminder/internal/domain"
	"github.com/pzhukov/medminder/internal/logger"
)

// Notifier delivers reminders and alerts to the configured chat. Without a
// chat id (the user never started the bot and none is configured) delivery
// degrades to a logged no-op rather than an error.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewNotifier(api *tgbotapi.BotAPI, chatID int64) *Notifier {
	return &Notifier{api: api, chatID: chatID}
}

// SetChatID updates the delivery target, typically on first /start.
func (n *Notifier) SetChatID(chatID int64) {
	n.chatID = chatID
}

func (n *Notifier) Notify(ctx context.Context, notification domain.Notification) error {
	if n.chatID == 0 {
		logger.Warn("No chat configured, dropping notification", "title", notification.Title)
		return nil
	}

	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf("%s\n%s", notification.Title, notification.Body))
	if notification.WithActions {
		msg.ReplyMarkup = keyboards.ReminderActions(notification.MedicationID)
	}
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}
