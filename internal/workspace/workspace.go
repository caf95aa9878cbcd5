// Package workspace owns the temporary directory tree created for one request.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Workspace is a uniquely-named temporary directory exclusively owned by one
// request. It is created before any extractor runs and removed exactly once
// when the request concludes, on every exit path.
type Workspace struct {
	root    string
	logger  *slog.Logger
	release sync.Once
}

// New creates a fresh workspace directory under tempRoot. An empty tempRoot
// falls back to the system temp directory.
func New(tempRoot string, logger *slog.Logger) (*Workspace, error) {
	if tempRoot == "" {
		tempRoot = os.TempDir()
	}

	root := filepath.Join(tempRoot, "clipferry-"+uuid.New().String())
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", root, err)
	}

	logger.Debug("workspace created", "root", root)

	return &Workspace{
		root:   root,
		logger: logger,
	}, nil
}

// Root returns the workspace directory path.
func (w *Workspace) Root() string {
	return w.root
}

// Contains reports whether path lies inside this workspace.
func (w *Workspace) Contains(path string) bool {
	rel, err := filepath.Rel(w.root, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Release removes the workspace tree. It is safe to call from multiple exit
// paths: only the first call removes anything. Removal failures are logged
// and never escalated.
func (w *Workspace) Release() {
	w.release.Do(func() {
		if err := os.RemoveAll(w.root); err != nil {
			w.logger.Error("failed to remove workspace", "root", w.root, "error", err)
			return
		}
		w.logger.Debug("workspace removed", "root", w.root)
	})
}
