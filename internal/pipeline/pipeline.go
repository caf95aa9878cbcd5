// Package pipeline orchestrates one media request end to end: remote duration
// probe, workspace creation, extraction, gatekeeping, batching and dispatch.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dkostiuk/clipferry/internal/batch"
	"github.com/dkostiuk/clipferry/internal/config"
	"github.com/dkostiuk/clipferry/internal/dispatch"
	"github.com/dkostiuk/clipferry/internal/domain"
	"github.com/dkostiuk/clipferry/internal/gatekeep"
	"github.com/dkostiuk/clipferry/internal/responses"
	"github.com/dkostiuk/clipferry/internal/workspace"
)

// RemoteProber checks remote media duration before any download happens.
type RemoteProber interface {
	TooLong(ctx context.Context, url string, max time.Duration) (bool, float64)
}

// Extractor resolves a URL into media files inside a workspace.
type Extractor interface {
	Extract(ctx context.Context, url string, ws *workspace.Workspace) (domain.ExtractResult, error)
}

// Gate applies per-file duration and size policy.
type Gate interface {
	Check(ctx context.Context, item domain.MediaItem) gatekeep.Result
}

// Sender delivers batches through a per-chat sink.
type Sender interface {
	Dispatch(ctx context.Context, sink dispatch.Sink, id domain.RequestID, batches []domain.Batch, spoiler bool) []domain.DispatchOutcome
}

// Pipeline runs media requests. One Pipeline instance serves all chats; the
// per-request state lives in the workspace and on the stack.
type Pipeline struct {
	probe      RemoteProber
	extractor  Extractor
	gate       Gate
	dispatcher Sender
	strings    *responses.Provider
	cfg        config.MediaConfig
	logger     *slog.Logger
	stats      *Stats
}

// New creates a Pipeline.
func New(
	probe RemoteProber,
	extractor Extractor,
	gate Gate,
	dispatcher Sender,
	strings *responses.Provider,
	cfg config.MediaConfig,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		probe:      probe,
		extractor:  extractor,
		gate:       gate,
		dispatcher: dispatcher,
		strings:    strings,
		cfg:        cfg,
		logger:     logger,
		stats:      &Stats{},
	}
}

// Stats exposes the pipeline's request counters.
func (p *Pipeline) Stats() *Stats {
	return p.stats
}

// Handle runs one request to completion. sink is the requesting chat: it
// receives the media and carries the drop and failure explanations back. The
// workspace is released exactly once on every exit path, success and failure
// alike.
func (p *Pipeline) Handle(ctx context.Context, url string, spoiler bool, sink dispatch.Sink) error {
	id := domain.RequestID(uuid.New().String())
	p.stats.requests.Add(1)

	logger := p.logger.With("request_id", id, "url", url)
	logger.Info("handling media request")

	// Cheap metadata-only rejection before the costly download.
	if tooLong, duration := p.probe.TooLong(ctx, url, p.cfg.MaxDuration()); tooLong {
		logger.Info("rejected by remote duration probe", "duration_s", duration)
		p.stats.dropped.Add(1)
		p.reply(ctx, sink, p.strings.TooLong(p.cfg.MaxDurationMinutes))
		return nil
	}

	ws, err := workspace.New(p.cfg.TempPath, logger)
	if err != nil {
		p.stats.failed.Add(1)
		p.reply(ctx, sink, p.strings.ExtractionFailed())
		return domain.NewRequestError(id, "workspace", err)
	}
	defer ws.Release()

	result, err := p.extractor.Extract(ctx, url, ws)
	if err != nil {
		logger.Error("extraction failed", "error", err)
		p.stats.failed.Add(1)
		p.reply(ctx, sink, p.strings.ExtractionFailed())
		return domain.NewRequestError(id, "extract", err)
	}

	accepted := p.gatekeepAll(ctx, result.List(), sink, logger)
	if len(accepted) == 0 {
		logger.Info("no media accepted for dispatch")
		return nil
	}

	batches := batch.Split(accepted)
	outcomes := p.dispatcher.Dispatch(ctx, sink, id, batches, spoiler)

	var delivered, failed int
	for _, out := range outcomes {
		switch out.Status {
		case domain.StatusDelivered:
			delivered++
			p.stats.delivered.Add(1)
		case domain.StatusFailed:
			failed++
			p.stats.failed.Add(1)
		}
	}

	logger.Info("request complete",
		"accepted", len(accepted),
		"batches", len(batches),
		"delivered", delivered,
		"failed", failed,
	)
	return nil
}

// gatekeepAll checks every extracted file, replies per dropped video, and
// returns the accepted items in discovery order.
func (p *Pipeline) gatekeepAll(ctx context.Context, items []domain.MediaItem, sink dispatch.Sink, logger *slog.Logger) []domain.MediaItem {
	var accepted []domain.MediaItem
	for _, item := range items {
		res := p.gate.Check(ctx, item)
		switch res.Decision {
		case gatekeep.DecisionAccept:
			accepted = append(accepted, res.Item)
		case gatekeep.DecisionDropTooLong:
			p.stats.dropped.Add(1)
			p.reply(ctx, sink, p.strings.TooLong(p.cfg.MaxDurationMinutes))
		case gatekeep.DecisionDropTooLarge:
			p.stats.dropped.Add(1)
			p.reply(ctx, sink, p.strings.TooLarge(p.cfg.MaxFileSizeMB))
		case gatekeep.DecisionExclude:
			logger.Debug("excluding non-media file", "path", res.Item.Path)
		}
	}
	return accepted
}

func (p *Pipeline) reply(ctx context.Context, sink dispatch.Sink, text string) {
	if err := sink.ReplyText(ctx, text); err != nil {
		p.logger.Error("failed to reply", "error", err)
	}
}
