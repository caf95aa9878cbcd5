// Package execx runs external tools (yt-dlp, gallery-dl, ffmpeg, ffprobe) as
// bounded subprocesses. The Runner interface is the seam that lets pipeline
// stages be tested without the real binaries installed.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrTimeout is returned when a subprocess exceeds its deadline.
var ErrTimeout = errors.New("command timed out")

// ErrNotFound is returned when the executable is not installed.
var ErrNotFound = errors.New("executable not found")

// Runner executes an external tool and waits for it to finish.
type Runner interface {
	// Run executes name with args under the given timeout and returns stdout.
	// On failure the returned error carries the trimmed stderr text so callers
	// can match known failure signatures.
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error)
}

// DefaultRunner runs commands with os/exec.
type DefaultRunner struct{}

func (DefaultRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%s: %w after %s", name, ErrTimeout, timeout)
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("%s: %w: %v", name, ErrNotFound, err)
		}
		return "", fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// LookPath reports whether the named executable is installed.
func LookPath(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return nil
}
