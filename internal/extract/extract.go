// Package extract resolves a source URL into local media files inside a
// request's workspace. The primary tool (yt-dlp) handles everything with a
// downloadable video; a known class of image-only posts makes it fail with a
// recognizable signature, and only that signature triggers the fallback tool
// (gallery-dl).
package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dkostiuk/clipferry/internal/config"
	"github.com/dkostiuk/clipferry/internal/domain"
	"github.com/dkostiuk/clipferry/internal/execx"
	"github.com/dkostiuk/clipferry/internal/workspace"
)

// Failure signature of the recoverable class: the origin has no downloadable
// video, only images. Any other primary failure is terminal.
const (
	sigInstagram      = "[Instagram]"
	sigNoVideoFormats = "No video formats found"
)

// reelFragment marks single-video posts. Those are primary-extractor
// territory; a fallback hit there is a logic error, not something to retry.
const reelFragment = "/reel"

// formatPreference is the fixed codec/quality tie-break policy: prefer H.264
// video and AAC audio, then higher fps and resolution.
const formatPreference = "vcodec:h264,fps,res,acodec:m4a"

// Orchestrator runs the extraction tools against a workspace.
type Orchestrator struct {
	runner     execx.Runner
	logger     *slog.Logger
	timeout    time.Duration
	cookieFile string
}

// NewOrchestrator creates an Orchestrator. When cookies are enabled but the
// configured file is missing on disk, the feature is disabled with a warning
// instead of failing requests later.
func NewOrchestrator(runner execx.Runner, logger *slog.Logger, timeout time.Duration, insta config.InstagramConfig) *Orchestrator {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	cookieFile := ""
	if insta.CookiesEnabled {
		if _, err := os.Stat(insta.CookieFile); err != nil {
			logger.Warn("cookie file configured but not found, cookies disabled",
				"cookie_file", insta.CookieFile,
			)
		} else {
			cookieFile = insta.CookieFile
		}
	}

	return &Orchestrator{
		runner:     runner,
		logger:     logger,
		timeout:    timeout,
		cookieFile: cookieFile,
	}
}

// Extract resolves url into media files under ws. The caller owns ws and is
// responsible for releasing it whether or not extraction succeeds.
func (o *Orchestrator) Extract(ctx context.Context, url string, ws *workspace.Workspace) (domain.ExtractResult, error) {
	item, err := o.primary(ctx, url, ws)
	if err == nil {
		return domain.SingleResult(item), nil
	}

	if errors.Is(err, execx.ErrTimeout) {
		return domain.ExtractResult{}, fmt.Errorf("%w: primary: %v", domain.ErrExtractionTimeout, err)
	}

	if !isImageOnlySignature(err) {
		return domain.ExtractResult{}, fmt.Errorf("%w: primary: %v", domain.ErrExtractionFailed, err)
	}

	o.logger.Debug("primary extractor found no video formats, trying fallback", "url", url)

	items, err := o.fallback(ctx, url, ws)
	if err != nil {
		if errors.Is(err, execx.ErrTimeout) {
			return domain.ExtractResult{}, fmt.Errorf("%w: fallback: %v", domain.ErrExtractionTimeout, err)
		}
		if errors.Is(err, domain.ErrNoMedia) {
			return domain.ExtractResult{}, err
		}
		return domain.ExtractResult{}, fmt.Errorf("%w: fallback: %v", domain.ErrExtractionFailed, err)
	}

	return domain.ManyResult(items), nil
}

// primary invokes yt-dlp. Output files are named by the stable media id, not
// the title, which may contain filesystem-unsafe characters.
func (o *Orchestrator) primary(ctx context.Context, url string, ws *workspace.Workspace) (domain.MediaItem, error) {
	args := []string{}
	if o.cookieFile != "" {
		args = append(args, "--cookies", o.cookieFile)
	}
	args = append(args,
		"-S", formatPreference,
		url,
		"-o", filepath.Join(ws.Root(), "%(id)s.%(ext)s"),
	)

	o.logger.Debug("running primary extractor", "url", url, "workspace", ws.Root())

	if _, err := o.runner.Run(ctx, o.timeout, "yt-dlp", args...); err != nil {
		return domain.MediaItem{}, err
	}

	// Success means a video landed in the workspace root.
	entries, err := os.ReadDir(ws.Root())
	if err != nil {
		return domain.MediaItem{}, fmt.Errorf("read workspace: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp4") {
			continue
		}
		path := filepath.Join(ws.Root(), entry.Name())
		info, err := entry.Info()
		if err != nil {
			return domain.MediaItem{}, fmt.Errorf("stat %s: %w", path, err)
		}
		return domain.MediaItem{
			Path:      path,
			Kind:      domain.KindVideo,
			SizeBytes: info.Size(),
		}, nil
	}

	return domain.MediaItem{}, fmt.Errorf("%w: primary produced no video file", domain.ErrNoMedia)
}

// fallback invokes gallery-dl and scans the workspace recursively: the tool
// nests its output in subdirectories.
func (o *Orchestrator) fallback(ctx context.Context, url string, ws *workspace.Workspace) ([]domain.MediaItem, error) {
	if strings.Contains(url, reelFragment) {
		return nil, fmt.Errorf("single-video post %q reached the fallback extractor", url)
	}

	args := []string{}
	if o.cookieFile != "" {
		args = append(args, "--cookies", o.cookieFile)
	}
	args = append(args, url, "-d", ws.Root())

	o.logger.Debug("running fallback extractor", "url", url, "workspace", ws.Root())

	if _, err := o.runner.Run(ctx, o.timeout, "gallery-dl", args...); err != nil {
		return nil, err
	}

	items, err := scanWorkspace(ws.Root())
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: fallback produced no media files", domain.ErrNoMedia)
	}

	o.logger.Debug("fallback extractor produced media", "count", len(items))
	return items, nil
}

// scanWorkspace walks root recursively and collects files with media
// extensions, in lexical order.
func scanWorkspace(root string) ([]domain.MediaItem, error) {
	var items []domain.MediaItem

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		kind, ok := domain.KindForPath(path)
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		items = append(items, domain.MediaItem{
			Path:      path,
			Kind:      kind,
			SizeBytes: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan workspace: %w", err)
	}

	return items, nil
}

func isImageOnlySignature(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, sigInstagram) && strings.Contains(msg, sigNoVideoFormats)
}
