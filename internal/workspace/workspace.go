package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/alnah/go-docpress/internal/fileutil"
	"github.com/alnah/go-docpress/internal/logfields"
)

// ErrWorkspace indicates the workspace could not be created or populated.
var ErrWorkspace = errors.New("workspace error")

// Manager creates isolated workspaces.
type Manager struct {
	baseDir string
	assets  []string
	logger  *slog.Logger
}

// NewManager creates a Manager rooted at baseDir (os.TempDir() when empty).
// Every file in assets is copied into each acquired workspace.
func NewManager(baseDir string, assets []string, logger *slog.Logger) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{baseDir: baseDir, assets: assets, logger: logger}
}

// Acquire creates a new workspace with the template assets materialized.
// On error nothing is left behind on disk.
func (m *Manager) Acquire(ctx context.Context) (*Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(m.baseDir, "docpress-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating directory: %v", ErrWorkspace, err)
	}
	ws := &Workspace{dir: dir, logger: m.logger}

	for _, asset := range m.assets {
		if _, err := fileutil.CopyFile(asset, dir); err != nil {
			_ = ws.Release()
			return nil, fmt.Errorf("%w: materializing asset: %v", ErrWorkspace, err)
		}
	}

	m.logger.Debug("Created workspace", logfields.Path(dir))
	return ws, nil
}

// Workspace is a single-use directory owned by one compile.
type Workspace struct {
	dir     string
	logger  *slog.Logger
	once    sync.Once
	release error
}

// Dir returns the absolute workspace path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the absolute path of name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteFile writes a file into the workspace.
func (w *Workspace) WriteFile(name string, data []byte) error {
	if _, err := fileutil.WriteFileIn(w.dir, name, data); err != nil {
		return fmt.Errorf("%w: %v", ErrWorkspace, err)
	}
	return nil
}

// WriteImages writes every request image under its own name.
func (w *Workspace) WriteImages(images map[string][]byte) error {
	for name, data := range images {
		if err := w.WriteFile(name, data); err != nil {
			return err
		}
	}
	return nil
}

// Release removes the workspace directory. Safe to call more than once.
func (w *Workspace) Release() error {
	w.once.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil {
			w.release = fmt.Errorf("%w: cleanup: %v", ErrWorkspace, err)
			w.logger.Warn("Failed to clean up workspace", logfields.Path(w.dir), logfields.Error(err))
			return
		}
		w.logger.Debug("Cleaned up workspace", logfields.Path(w.dir))
	})
	return w.release
}
