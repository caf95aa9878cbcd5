package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dkostiuk/clipferry/internal/domain"
)

// ChatSink delivers media and text replies to one chat, replying to the
// message that carried the request. It implements dispatch.Sink.
type ChatSink struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	replyTo int
	logger  *slog.Logger
}

// NewChatSink creates a sink bound to one chat and request message.
func NewChatSink(bot *tgbotapi.BotAPI, chatID int64, replyTo int, logger *slog.Logger) *ChatSink {
	return &ChatSink{
		bot:     bot,
		chatID:  chatID,
		replyTo: replyTo,
		logger:  logger,
	}
}

// SendSingle uploads one media file. The client library carries no context,
// so ctx only gates the call site.
func (s *ChatSink) SendSingle(_ context.Context, item domain.MediaItem, spoiler bool) error {
	if spoiler {
		return s.sendSpoiler(item)
	}

	var msg tgbotapi.Chattable
	switch item.Kind {
	case domain.KindImage:
		photo := tgbotapi.NewPhoto(s.chatID, tgbotapi.FilePath(item.Path))
		photo.ReplyToMessageID = s.replyTo
		msg = photo
	default:
		video := tgbotapi.NewVideo(s.chatID, tgbotapi.FilePath(item.Path))
		video.ReplyToMessageID = s.replyTo
		video.SupportsStreaming = true
		msg = video
	}

	_, err := s.bot.Send(msg)
	return s.mapErr(err)
}

// sendSpoiler uploads with the has_spoiler flag through the raw endpoint:
// the typed configs of this client version predate that flag.
func (s *ChatSink) sendSpoiler(item domain.MediaItem) error {
	endpoint, field := "sendVideo", "video"
	if item.Kind == domain.KindImage {
		endpoint, field = "sendPhoto", "photo"
	}

	params := make(tgbotapi.Params)
	params.AddNonZero64("chat_id", s.chatID)
	params.AddNonZero("reply_to_message_id", s.replyTo)
	params.AddBool("has_spoiler", true)
	if endpoint == "sendVideo" {
		params.AddBool("supports_streaming", true)
	}

	files := []tgbotapi.RequestFile{{Name: field, Data: tgbotapi.FilePath(item.Path)}}
	_, err := s.bot.UploadFiles(endpoint, params, files)
	return s.mapErr(err)
}

// SendGroup uploads a same-kind media group as one message.
func (s *ChatSink) SendGroup(_ context.Context, items []domain.MediaItem) error {
	media := make([]interface{}, 0, len(items))
	for _, item := range items {
		switch item.Kind {
		case domain.KindImage:
			media = append(media, tgbotapi.NewInputMediaPhoto(tgbotapi.FilePath(item.Path)))
		default:
			media = append(media, tgbotapi.NewInputMediaVideo(tgbotapi.FilePath(item.Path)))
		}
	}

	group := tgbotapi.NewMediaGroup(s.chatID, media)
	group.ReplyToMessageID = s.replyTo
	_, err := s.bot.SendMediaGroup(group)
	return s.mapErr(err)
}

// ReplyText sends a plain text reply.
func (s *ChatSink) ReplyText(_ context.Context, text string) error {
	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ReplyToMessageID = s.replyTo
	_, err := s.bot.Send(msg)
	return s.mapErr(err)
}

// mapErr folds network timeouts into the soft transport-timeout error so the
// dispatcher can tell them apart from hard failures.
func (s *ChatSink) mapErr(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrTransportTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return fmt.Errorf("%w: %v", domain.ErrTransportTimeout, err)
	}
	return err
}
