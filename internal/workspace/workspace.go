// Package workspace manages per-user working directories and the
// scratch space used by scoring jobs.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const scratchDirName = ".scratch"

// Workspace is a root directory holding one private directory per user
// plus a shared scratch area.
type Workspace struct {
	root   string
	logger *zap.Logger
}

// New opens a workspace rooted at the given directory, creating it and
// the scratch area if needed.
func New(root string) (*Workspace, error) {
	if root == "" {
		return nil, fmt.Errorf("workspace root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, scratchDirName), 0755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{root: root, logger: zap.NewNop()}, nil
}

// SetLogger sets the logger for workspace housekeeping. Defaults to no-op.
func (w *Workspace) SetLogger(l *zap.Logger) {
	w.logger = l
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// UserDir returns the private directory for a user, creating it on
// first use.
func (w *Workspace) UserDir(userID uuid.UUID) (string, error) {
	dir := filepath.Join(w.root, userID.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create user directory: %w", err)
	}
	return dir, nil
}

// Resolve maps a user-relative file reference to an absolute path.
// References that escape the user's directory are refused.
func (w *Workspace) Resolve(userID uuid.UUID, rel string) (string, error) {
	dir, err := w.UserDir(userID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, rel)
	if path != dir && !strings.HasPrefix(path, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace", rel)
	}
	return path, nil
}

// ScratchRoot is the parent directory for per-job scratch files.
func (w *Workspace) ScratchRoot() string {
	return filepath.Join(w.root, scratchDirName)
}
