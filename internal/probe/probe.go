// Package probe queries remote media metadata without downloading payloads.
// The pre-download duration check exists to avoid spending the costly
// extraction step on content that would be rejected anyway.
package probe

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dkostiuk/clipferry/internal/execx"
)

// Remote performs metadata-only queries against source URLs.
type Remote struct {
	runner  execx.Runner
	logger  *slog.Logger
	timeout time.Duration
}

// NewRemote creates a remote metadata prober.
func NewRemote(runner execx.Runner, logger *slog.Logger) *Remote {
	return &Remote{
		runner:  runner,
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

// metadata is the subset of the extractor's JSON dump we care about.
type metadata struct {
	Duration float64 `json:"duration"`
}

// Duration fetches the remote media duration in seconds. ok is false when the
// origin exposes no duration metadata or the query fails.
func (r *Remote) Duration(ctx context.Context, url string) (float64, bool) {
	out, err := r.runner.Run(ctx, r.timeout, "yt-dlp",
		"-J",
		"--no-playlist",
		"--quiet",
		url,
	)
	if err != nil {
		r.logger.Debug("metadata query failed", "url", url, "error", err)
		return 0, false
	}

	var meta metadata
	if err := json.Unmarshal([]byte(out), &meta); err != nil {
		r.logger.Debug("metadata parse failed", "url", url, "error", err)
		return 0, false
	}
	if meta.Duration <= 0 {
		return 0, false
	}

	return meta.Duration, true
}

// TooLong reports whether the remote media exceeds max. The check fails open:
// missing or unparseable metadata never blocks a download.
func (r *Remote) TooLong(ctx context.Context, url string, max time.Duration) (bool, float64) {
	duration, ok := r.Duration(ctx, url)
	if !ok {
		r.logger.Debug("no duration metadata, passing", "url", url)
		return false, 0
	}

	r.logger.Debug("remote duration",
		"url", url,
		"duration_s", duration,
		"max_s", max.Seconds(),
	)
	return duration > max.Seconds(), duration
}
