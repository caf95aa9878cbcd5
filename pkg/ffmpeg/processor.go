// Package ffmpeg probes and recompresses local video files using the ffmpeg
// and ffprobe binaries.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dkostiuk/clipferry/internal/execx"
)

// ErrUnknownDuration is returned when ffprobe cannot determine a duration.
// The transcoder refuses to run without one rather than guessing a bitrate.
var ErrUnknownDuration = errors.New("ffprobe: duration unknown")

// Fixed encode policy. These are part of the one supported compression
// strategy, not per-request knobs.
const (
	maxFrameHeight = 720
	videoCodec     = "libx264"
	encodePreset   = "fast"
	audioCodec     = "aac"
	audioBitrate   = "128k"
)

// Processor handles video probing and recompression.
type Processor struct {
	runner        execx.Runner
	logger        *slog.Logger
	probeTimeout  time.Duration
	encodeTimeout time.Duration
}

// NewProcessor creates a Processor. encodeTimeout bounds a full re-encode;
// probes get a short fixed deadline since ffprobe reads only headers.
func NewProcessor(runner execx.Runner, logger *slog.Logger, encodeTimeout time.Duration) *Processor {
	if encodeTimeout <= 0 {
		encodeTimeout = 10 * time.Minute
	}
	return &Processor{
		runner:        runner,
		logger:        logger,
		probeTimeout:  30 * time.Second,
		encodeTimeout: encodeTimeout,
	}
}

// Duration returns the duration of a local media file in seconds.
// Non-numeric or error output means the duration is unknown.
func (p *Processor) Duration(ctx context.Context, path string) (float64, error) {
	out, err := p.runner.Run(ctx, p.probeTimeout, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnknownDuration, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil || duration <= 0 {
		return 0, fmt.Errorf("%w: output %q", ErrUnknownDuration, strings.TrimSpace(out))
	}

	return duration, nil
}

// Compress re-encodes the video at path down to roughly targetBytes, replacing
// the file in place. The video bitrate is derived from the source duration;
// if the duration cannot be measured Compress fails fast. On encode failure
// the original file is left untouched.
func (p *Processor) Compress(ctx context.Context, path string, targetBytes int64) error {
	duration, err := p.Duration(ctx, path)
	if err != nil {
		return err
	}

	// bit/s -> kbit/s against the byte budget
	bitrateKbps := int(float64(targetBytes) * 8 / duration / 1000)
	if bitrateKbps < 1 {
		bitrateKbps = 1
	}

	tmpOutput := filepath.Join(filepath.Dir(path), ".compress-"+filepath.Base(path))

	p.logger.Debug("starting compression",
		"path", path,
		"duration_s", duration,
		"bitrate_kbps", bitrateKbps,
	)

	// nice keeps a long encode from starving the rest of the process.
	_, err = p.runner.Run(ctx, p.encodeTimeout, "nice",
		"-n", "19",
		"ffmpeg",
		"-i", path,
		"-b:v", fmt.Sprintf("%dk", bitrateKbps),
		"-vf", fmt.Sprintf("scale=-2:%d", maxFrameHeight),
		"-c:v", videoCodec,
		"-preset", encodePreset,
		"-c:a", audioCodec,
		"-b:a", audioBitrate,
		"-y",
		tmpOutput,
	)
	if err != nil {
		os.Remove(tmpOutput)
		return fmt.Errorf("compress %s: %w", path, err)
	}

	if err := os.Rename(tmpOutput, path); err != nil {
		os.Remove(tmpOutput)
		return fmt.Errorf("replace %s: %w", path, err)
	}

	p.logger.Debug("compression completed", "path", path)
	return nil
}

// IsAvailable checks if ffmpeg and ffprobe are installed.
func (p *Processor) IsAvailable() bool {
	return execx.LookPath("ffmpeg") == nil && execx.LookPath("ffprobe") == nil
}
