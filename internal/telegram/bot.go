// Package telegram is the bot front end: it receives messages over long
// polling, applies access control, and feeds media URLs into the pipeline.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dkostiuk/clipferry/internal/config"
	"github.com/dkostiuk/clipferry/internal/dispatch"
	"github.com/dkostiuk/clipferry/internal/responses"
)

const updateTimeoutSeconds = 30

// Bot runs the long-polling update loop.
type Bot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	logger  *slog.Logger
}

// New connects to the Bot API and wires the message handler.
func New(cfg *config.Config, pipe MediaPipeline, msgs *responses.Provider, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("connect bot api: %w", err)
	}
	api.Debug = cfg.Bot.Debug

	sinks := func(chatID int64, replyTo int) dispatch.Sink {
		return NewChatSink(api, chatID, replyTo, logger)
	}
	notifier := NewNotifier(api, cfg.Admin, logger)
	handler := NewHandler(pipe, msgs, cfg.Access, sinks, notifier.NotifyError, logger)

	return &Bot{
		api:     api,
		handler: handler,
		logger:  logger,
	}, nil
}

// Run blocks on the update channel until ctx is cancelled. Each message is
// handled on its own goroutine so a slow download never stalls the loop.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeoutSeconds
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handler.HandleMessage(ctx, update.Message)
		}
	}
}
