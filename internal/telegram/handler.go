package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dkostiuk/clipferry/internal/classify"
	"github.com/dkostiuk/clipferry/internal/config"
	"github.com/dkostiuk/clipferry/internal/dispatch"
	"github.com/dkostiuk/clipferry/internal/responses"
)

// mentionTriggers make the bot answer with a random canned reply. The reply
// carries the chat id so operators can fill the allow-lists without digging
// through logs.
var mentionTriggers = []string{"ботяра", "bot_health"}

const spoilerEntity = "spoiler"

// MediaPipeline runs one accepted media request.
type MediaPipeline interface {
	Handle(ctx context.Context, url string, spoiler bool, sink dispatch.Sink) error
}

// SinkFactory builds the delivery sink for one inbound message.
type SinkFactory func(chatID int64, replyToMessageID int) dispatch.Sink

// ErrorNotifier escalates a failed request to the operators.
type ErrorNotifier func(username, url string, err error)

// Handler routes inbound messages: mentions get a canned reply, media URLs go
// through the pipeline, everything else is ignored.
type Handler struct {
	pipe   MediaPipeline
	msgs   *responses.Provider
	access config.AccessConfig
	sinks  SinkFactory
	notify ErrorNotifier
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(
	pipe MediaPipeline,
	msgs *responses.Provider,
	access config.AccessConfig,
	sinks SinkFactory,
	notify ErrorNotifier,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		pipe:   pipe,
		msgs:   msgs,
		access: access,
		sinks:  sinks,
		notify: notify,
		logger: logger,
	}
}

// HandleMessage processes one inbound message to completion.
func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.Text == "" || msg.Chat == nil {
		return
	}

	sink := h.sinks(msg.Chat.ID, msg.MessageID)
	username := ""
	if msg.From != nil {
		username = msg.From.UserName
	}

	if isMention(msg.Text) {
		text := fmt.Sprintf("%s\n[%d] [%s]", h.msgs.RandomMention(), msg.Chat.ID, username)
		h.reply(ctx, sink, text)
		return
	}

	res := classify.Classify(msg.Text)
	switch res.Kind {
	case classify.KindRequiresLogin:
		// Answered from the classification alone: no extractor ever runs.
		h.reply(ctx, sink, h.msgs.RequiresLogin())

	case classify.KindUnsupported:
		// Groups stay quiet about unrelated links; private chats get told.
		if strings.Contains(msg.Text, "http") && msg.Chat.IsPrivate() {
			h.reply(ctx, sink, h.msgs.NotSupported())
		}

	case classify.KindSupported, classify.KindOptIn:
		if !Allowed(h.access, username, msg.Chat.ID) {
			h.logger.Info("rejected disallowed sender",
				"username", username,
				"chat_id", msg.Chat.ID,
			)
			h.reply(ctx, sink, h.msgs.NotAllowed())
			return
		}

		if err := h.pipe.Handle(ctx, res.URL, hasSpoiler(msg), sink); err != nil {
			h.notify(username, res.URL, err)
		}
	}
}

func (h *Handler) reply(ctx context.Context, sink dispatch.Sink, text string) {
	if err := sink.ReplyText(ctx, text); err != nil {
		h.logger.Error("failed to reply", "error", err)
	}
}

func isMention(text string) bool {
	lower := strings.ToLower(text)
	for _, trigger := range mentionTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// hasSpoiler reports whether the sender hid the link behind a spoiler
// entity. The flag is carried through to single-media sends.
func hasSpoiler(msg *tgbotapi.Message) bool {
	for _, entity := range msg.Entities {
		if entity.Type == spoilerEntity {
			return true
		}
	}
	return false
}
