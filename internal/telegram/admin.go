package telegram

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dkostiuk/clipferry/internal/config"
)

// Notifier forwards request failures to the admin chats.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	cfg    config.AdminConfig
	logger *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(bot *tgbotapi.BotAPI, cfg config.AdminConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		bot:    bot,
		cfg:    cfg,
		logger: logger,
	}
}

// NotifyError sends the failure to every configured admin chat. Notification
// failures are logged and never escalated further.
func (n *Notifier) NotifyError(username, url string, err error) {
	if !n.cfg.SendErrors {
		return
	}

	text := fmt.Sprintf("request failed\nfrom: @%s\nurl: %s\nerror: %v", username, url, err)
	for _, chatID := range n.cfg.ChatIDs {
		if _, sendErr := n.bot.Send(tgbotapi.NewMessage(chatID, text)); sendErr != nil {
			n.logger.Error("failed to notify admin", "chat_id", chatID, "error", sendErr)
		}
	}
}
