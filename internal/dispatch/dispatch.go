// Package dispatch delivers batched media to a sink, pacing large deliveries
// and isolating transport failures per batch.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dkostiuk/clipferry/internal/domain"
	"github.com/dkostiuk/clipferry/internal/responses"
)

// Sink is the delivery surface. The telegram package provides the production
// implementation; tests substitute fakes.
type Sink interface {
	// SendSingle delivers one item, optionally flagged as a spoiler.
	SendSingle(ctx context.Context, item domain.MediaItem, spoiler bool) error
	// SendGroup delivers a same-kind media group in one message.
	SendGroup(ctx context.Context, items []domain.MediaItem) error
	// ReplyText sends a plain text reply to the requesting chat.
	ReplyText(ctx context.Context, text string) error
}

// Pacer inserts a pause between consecutive batch sends.
type Pacer interface {
	Pause(ctx context.Context)
}

// FixedPacer waits a fixed delay, cut short by context cancellation.
type FixedPacer struct {
	Delay time.Duration
}

// Pause blocks for the configured delay or until ctx is done.
func (p FixedPacer) Pause(ctx context.Context) {
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Dispatcher sends batches sequentially through a sink. Deliveries larger
// than the throttle threshold are paced to avoid flooding the transport.
// One Dispatcher serves all chats; the per-chat sink is passed per call.
type Dispatcher struct {
	pacer     Pacer
	strings   *responses.Provider
	threshold int
	logger    *slog.Logger
}

// New creates a Dispatcher. threshold is the total item count above which
// pacing engages for the whole delivery.
func New(pacer Pacer, strings *responses.Provider, threshold int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		pacer:     pacer,
		strings:   strings,
		threshold: threshold,
		logger:    logger,
	}
}

// Dispatch sends every batch in order. A single-item batch is sent as one
// message carrying the spoiler flag; larger batches go out as a media group,
// which the transport cannot flag as a spoiler. A hard transport error fails
// only its own batch: the user is told and the remaining batches still go
// out. Soft timeouts are logged and counted as delivered, since the transport
// usually completed the send anyway.
func (d *Dispatcher) Dispatch(ctx context.Context, sink Sink, id domain.RequestID, batches []domain.Batch, spoiler bool) []domain.DispatchOutcome {
	total := 0
	for _, b := range batches {
		total += len(b.Items)
	}
	throttled := total > d.threshold
	if throttled {
		d.logger.Info("throttling delivery",
			"request_id", id,
			"items", total,
			"batches", len(batches),
		)
	}

	outcomes := make([]domain.DispatchOutcome, 0, len(batches))
	for i, b := range batches {
		if throttled && i > 0 {
			d.pacer.Pause(ctx)
		}
		outcomes = append(outcomes, d.send(ctx, sink, id, b, spoiler))
	}
	return outcomes
}

func (d *Dispatcher) send(ctx context.Context, sink Sink, id domain.RequestID, b domain.Batch, spoiler bool) domain.DispatchOutcome {
	var err error
	if len(b.Items) == 1 {
		err = sink.SendSingle(ctx, b.Items[0], spoiler)
	} else {
		err = sink.SendGroup(ctx, b.Items)
	}
	if err == nil {
		return domain.DispatchOutcome{Status: domain.StatusDelivered}
	}

	if errors.Is(err, domain.ErrTransportTimeout) {
		d.logger.Warn("send timed out, assuming delivered",
			"request_id", id,
			"kind", b.Kind,
			"error", err,
		)
		return domain.DispatchOutcome{Status: domain.StatusDelivered, Err: err}
	}

	d.logger.Error("failed to send batch",
		"request_id", id,
		"kind", b.Kind,
		"items", len(b.Items),
		"error", err,
	)
	if replyErr := sink.ReplyText(ctx, d.strings.SendError(err.Error())); replyErr != nil {
		d.logger.Error("failed to report send error", "request_id", id, "error", replyErr)
	}
	return domain.DispatchOutcome{Status: domain.StatusFailed, Err: err}
}
