// Package gatekeep decides, per extracted media file, whether it is sent as
// is, recompressed first, or dropped with a user-facing reason.
package gatekeep

import (
	"context"
	"log/slog"
	"os"

	"github.com/dkostiuk/clipferry/internal/config"
	"github.com/dkostiuk/clipferry/internal/domain"
)

// DurationProber measures a local media file's duration in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Transcoder shrinks an oversized video in place.
type Transcoder interface {
	Compress(ctx context.Context, path string, targetBytes int64) error
}

// Decision is the gatekeeping outcome for one media file.
type Decision string

const (
	// DecisionAccept hands the item to the batcher.
	DecisionAccept Decision = "accept"
	// DecisionDropTooLong rejects an over-duration video. Compression is
	// never attempted on these.
	DecisionDropTooLong Decision = "drop-too-long"
	// DecisionDropTooLarge rejects a video still over the size ceiling after
	// a compression attempt.
	DecisionDropTooLarge Decision = "drop-too-large"
	// DecisionExclude silently skips a file with an unknown suffix.
	DecisionExclude Decision = "exclude"
)

// Result pairs the decision with the (possibly updated) item.
type Result struct {
	Decision Decision
	Item     domain.MediaItem
}

// Gatekeeper applies duration and size policy to extracted files.
type Gatekeeper struct {
	prober     DurationProber
	transcoder Transcoder
	cfg        config.MediaConfig
	logger     *slog.Logger
}

// New creates a Gatekeeper.
func New(prober DurationProber, transcoder Transcoder, cfg config.MediaConfig, logger *slog.Logger) *Gatekeeper {
	return &Gatekeeper{
		prober:     prober,
		transcoder: transcoder,
		cfg:        cfg,
		logger:     logger,
	}
}

// Check classifies one file and applies policy. Duration is checked before
// size: rejecting by duration is cheaper and takes priority. Images carry no
// size or duration policy in this design.
func (g *Gatekeeper) Check(ctx context.Context, item domain.MediaItem) Result {
	kind, ok := domain.KindForPath(item.Path)
	if !ok {
		return Result{Decision: DecisionExclude, Item: item}
	}
	item.Kind = kind

	if kind == domain.KindImage {
		return Result{Decision: DecisionAccept, Item: item}
	}

	// Unknown duration passes: policy only rejects measured overruns.
	if duration, err := g.prober.Duration(ctx, item.Path); err == nil {
		item.DurationSeconds = duration
		if duration > g.cfg.MaxDuration().Seconds() {
			g.logger.Debug("video over duration ceiling",
				"path", item.Path,
				"duration_s", duration,
			)
			return Result{Decision: DecisionDropTooLong, Item: item}
		}
	} else {
		g.logger.Debug("local duration unknown, passing", "path", item.Path, "error", err)
	}

	size, err := fileSize(item.Path)
	if err != nil {
		g.logger.Error("failed to stat media file", "path", item.Path, "error", err)
		return Result{Decision: DecisionExclude, Item: item}
	}
	item.SizeBytes = size

	if size > g.cfg.MaxFileSizeBytes() {
		g.logger.Debug("video over size ceiling, compressing",
			"path", item.Path,
			"size_bytes", size,
		)
		if err := g.transcoder.Compress(ctx, item.Path, g.cfg.TargetSizeBytes()); err != nil {
			// Non-fatal: the re-check below simply finds the file still
			// oversized and drops it.
			g.logger.Error("compression failed", "path", item.Path, "error", err)
		}

		size, err = fileSize(item.Path)
		if err != nil {
			g.logger.Error("failed to stat media file", "path", item.Path, "error", err)
			return Result{Decision: DecisionExclude, Item: item}
		}
		item.SizeBytes = size

		if size > g.cfg.MaxFileSizeBytes() {
			return Result{Decision: DecisionDropTooLarge, Item: item}
		}
	}

	return Result{Decision: DecisionAccept, Item: item}
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
