package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkostiuk/clipferry/internal/config"
	"github.com/dkostiuk/clipferry/internal/domain"
	"github.com/dkostiuk/clipferry/internal/execx"
	"github.com/dkostiuk/clipferry/internal/workspace"
)

// fakeRunner dispatches per-executable handlers, which lets tests simulate
// the extractors writing files into the workspace.
type fakeRunner struct {
	calls    [][]string
	handlers map[string]func(args []string) (string, error)
}

func (f *fakeRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if h, ok := f.handlers[name]; ok {
		return h(args)
	}
	return "", nil
}

func (f *fakeRunner) invoked(name string) bool {
	for _, call := range f.calls {
		if call[0] == name {
			return true
		}
	}
	return false
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.New(t.TempDir(), discard())
	if err != nil {
		t.Fatalf("workspace.New: %v", err)
	}
	t.Cleanup(ws.Release)
	return ws
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestExtract_PrimarySuccess(t *testing.T) {
	ws := newWorkspace(t)
	runner := &fakeRunner{handlers: map[string]func([]string) (string, error){
		"yt-dlp": func(args []string) (string, error) {
			writeFile(t, filepath.Join(ws.Root(), "dQw4w9WgXcQ.mp4"), "video-bytes")
			return "", nil
		},
	}}

	o := NewOrchestrator(runner, discard(), 0, config.InstagramConfig{})
	result, err := o.Extract(context.Background(), "https://youtube.com/shorts/dQw4w9WgXcQ", ws)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if result.Single == nil {
		t.Fatal("want single-item result from primary extractor")
	}
	if result.Single.Kind != domain.KindVideo {
		t.Errorf("Kind = %q, want video", result.Single.Kind)
	}
	if result.Single.SizeBytes != int64(len("video-bytes")) {
		t.Errorf("SizeBytes = %d, want %d", result.Single.SizeBytes, len("video-bytes"))
	}
	if !ws.Contains(result.Single.Path) {
		t.Errorf("item path %q escapes the workspace", result.Single.Path)
	}
	if runner.invoked("gallery-dl") {
		t.Error("fallback must not run when the primary succeeds")
	}
}

func TestExtract_PrimaryUsesFormatPreference(t *testing.T) {
	ws := newWorkspace(t)
	runner := &fakeRunner{handlers: map[string]func([]string) (string, error){
		"yt-dlp": func(args []string) (string, error) {
			writeFile(t, filepath.Join(ws.Root(), "v1.mp4"), "x")
			return "", nil
		},
	}}

	o := NewOrchestrator(runner, discard(), 0, config.InstagramConfig{})
	if _, err := o.Extract(context.Background(), "https://x.com/u/status/1", ws); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	args := runner.calls[0]
	found := false
	for i, arg := range args {
		if arg == "-S" && i+1 < len(args) && args[i+1] == "vcodec:h264,fps,res,acodec:m4a" {
			found = true
		}
	}
	if !found {
		t.Errorf("yt-dlp args missing format preference: %v", args)
	}
}

func TestExtract_SignatureTriggersFallback(t *testing.T) {
	ws := newWorkspace(t)
	runner := &fakeRunner{handlers: map[string]func([]string) (string, error){
		"yt-dlp": func(args []string) (string, error) {
			return "", fmt.Errorf("yt-dlp failed: exit status 1: ERROR: [Instagram] abc: No video formats found!")
		},
		"gallery-dl": func(args []string) (string, error) {
			// gallery-dl nests output in subdirectories.
			base := filepath.Join(ws.Root(), "gallery-dl", "instagram", "post")
			writeFile(t, filepath.Join(base, "1.jpg"), "a")
			writeFile(t, filepath.Join(base, "2.jpg"), "bb")
			writeFile(t, filepath.Join(base, "3.png"), "ccc")
			writeFile(t, filepath.Join(base, "metadata.json"), "{}")
			return "", nil
		},
	}}

	o := NewOrchestrator(runner, discard(), 0, config.InstagramConfig{})
	result, err := o.Extract(context.Background(), "https://www.instagram.com/p/abc/", ws)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	items := result.List()
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3 (json sidecar excluded)", len(items))
	}
	for _, item := range items {
		if item.Kind != domain.KindImage {
			t.Errorf("item %s: Kind = %q, want image", item.Path, item.Kind)
		}
		if !ws.Contains(item.Path) {
			t.Errorf("item path %q escapes the workspace", item.Path)
		}
	}
}

func TestExtract_OtherPrimaryFailureIsTerminal(t *testing.T) {
	ws := newWorkspace(t)
	runner := &fakeRunner{handlers: map[string]func([]string) (string, error){
		"yt-dlp": func(args []string) (string, error) {
			return "", fmt.Errorf("yt-dlp failed: exit status 1: ERROR: [TikTok] Unable to download webpage")
		},
	}}

	o := NewOrchestrator(runner, discard(), 0, config.InstagramConfig{})
	_, err := o.Extract(context.Background(), "https://www.tiktok.com/@u/video/1", ws)
	if !errors.Is(err, domain.ErrExtractionFailed) {
		t.Errorf("want ErrExtractionFailed, got %v", err)
	}
	if runner.invoked("gallery-dl") {
		t.Error("fallback must only run on the image-only signature")
	}
}

func TestExtract_PrimaryTimeout(t *testing.T) {
	ws := newWorkspace(t)
	runner := &fakeRunner{handlers: map[string]func([]string) (string, error){
		"yt-dlp": func(args []string) (string, error) {
			return "", fmt.Errorf("yt-dlp: %w after 120s", execx.ErrTimeout)
		},
	}}

	o := NewOrchestrator(runner, discard(), 0, config.InstagramConfig{})
	_, err := o.Extract(context.Background(), "https://reddit.com/r/x/1", ws)
	if !errors.Is(err, domain.ErrExtractionTimeout) {
		t.Errorf("want ErrExtractionTimeout, got %v", err)
	}
	if runner.invoked("gallery-dl") {
		t.Error("timeout must not trigger the fallback")
	}
}

func TestExtract_FallbackRejectsReelURLs(t *testing.T) {
	ws := newWorkspace(t)
	runner := &fakeRunner{handlers: map[string]func([]string) (string, error){
		"yt-dlp": func(args []string) (string, error) {
			return "", fmt.Errorf("yt-dlp failed: [Instagram] No video formats found!")
		},
	}}

	o := NewOrchestrator(runner, discard(), 0, config.InstagramConfig{})
	_, err := o.Extract(context.Background(), "https://www.instagram.com/reel/abc/", ws)
	if !errors.Is(err, domain.ErrExtractionFailed) {
		t.Errorf("want ErrExtractionFailed, got %v", err)
	}
	if runner.invoked("gallery-dl") {
		t.Error("reel URLs are primary territory; fallback must refuse them")
	}
}

func TestExtract_FallbackEmptyScanFails(t *testing.T) {
	ws := newWorkspace(t)
	runner := &fakeRunner{handlers: map[string]func([]string) (string, error){
		"yt-dlp": func(args []string) (string, error) {
			return "", fmt.Errorf("yt-dlp failed: [Instagram] No video formats found!")
		},
		// gallery-dl exits 0 but writes nothing
	}}

	o := NewOrchestrator(runner, discard(), 0, config.InstagramConfig{})
	_, err := o.Extract(context.Background(), "https://www.instagram.com/p/abc/", ws)
	if !errors.Is(err, domain.ErrNoMedia) {
		t.Errorf("want ErrNoMedia, got %v", err)
	}
}

func TestExtract_PrimaryRanButNoVideo(t *testing.T) {
	ws := newWorkspace(t)
	runner := &fakeRunner{} // yt-dlp exits 0, produces nothing

	o := NewOrchestrator(runner, discard(), 0, config.InstagramConfig{})
	_, err := o.Extract(context.Background(), "https://x.com/u/status/1", ws)
	if !errors.Is(err, domain.ErrExtractionFailed) {
		t.Errorf("want ErrExtractionFailed for empty primary run, got %v", err)
	}
}

func TestNewOrchestrator_CookieFile(t *testing.T) {
	t.Run("missing file disables cookies", func(t *testing.T) {
		ws := newWorkspace(t)
		runner := &fakeRunner{handlers: map[string]func([]string) (string, error){
			"yt-dlp": func(args []string) (string, error) {
				writeFile(t, filepath.Join(ws.Root(), "v.mp4"), "x")
				return "", nil
			},
		}}

		o := NewOrchestrator(runner, discard(), 0, config.InstagramConfig{
			CookiesEnabled: true,
			CookieFile:     filepath.Join(t.TempDir(), "nope.txt"),
		})
		if _, err := o.Extract(context.Background(), "https://x.com/u/status/1", ws); err != nil {
			t.Fatalf("Extract: %v", err)
		}

		for _, arg := range runner.calls[0] {
			if arg == "--cookies" {
				t.Error("cookies must be disabled when the file is missing")
			}
		}
	})

	t.Run("present file is passed through", func(t *testing.T) {
		cookieFile := filepath.Join(t.TempDir(), "instagram_cookies.txt")
		writeFile(t, cookieFile, "# Netscape HTTP Cookie File")

		ws := newWorkspace(t)
		runner := &fakeRunner{handlers: map[string]func([]string) (string, error){
			"yt-dlp": func(args []string) (string, error) {
				writeFile(t, filepath.Join(ws.Root(), "v.mp4"), "x")
				return "", nil
			},
		}}

		o := NewOrchestrator(runner, discard(), 0, config.InstagramConfig{
			CookiesEnabled: true,
			CookieFile:     cookieFile,
		})
		if _, err := o.Extract(context.Background(), "https://x.com/u/status/1", ws); err != nil {
			t.Fatalf("Extract: %v", err)
		}

		found := false
		args := runner.calls[0]
		for i, arg := range args {
			if arg == "--cookies" && i+1 < len(args) && args[i+1] == cookieFile {
				found = true
			}
		}
		if !found {
			t.Errorf("yt-dlp args missing --cookies %s: %v", cookieFile, args)
		}
	})
}
