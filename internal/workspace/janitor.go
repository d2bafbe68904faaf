package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// DefaultScratchMaxAge is how long scratch entries survive before the
// janitor removes them. Finished jobs clean up after themselves; this
// catches the leftovers of crashed or killed runs.
const DefaultScratchMaxAge = 24 * time.Hour

// Janitor periodically removes stale scratch directories.
type Janitor struct {
	ws        *Workspace
	maxAge    time.Duration
	scheduler *gocron.Scheduler
}

// NewJanitor creates a janitor for the workspace scratch area. A
// non-positive maxAge takes DefaultScratchMaxAge.
func NewJanitor(ws *Workspace, maxAge time.Duration) *Janitor {
	if maxAge <= 0 {
		maxAge = DefaultScratchMaxAge
	}
	return &Janitor{ws: ws, maxAge: maxAge}
}

// Start schedules a daily sweep and returns immediately.
func (j *Janitor) Start() {
	j.scheduler = gocron.NewScheduler(time.UTC)
	j.scheduler.Every(1).Days().At("04:00:00").Do(func() {
		if err := j.Sweep(); err != nil {
			j.ws.logger.Warn("scratch sweep failed", zap.Error(err))
		}
	})
	j.scheduler.StartAsync()
}

// Stop halts the scheduled sweeps.
func (j *Janitor) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}

// Sweep removes scratch entries older than the retention age.
func (j *Janitor) Sweep() error {
	root := j.ws.ScratchRoot()
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read scratch root: %w", err)
	}

	cutoff := time.Now().Add(-j.maxAge)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, entry.Name())); err != nil {
			j.ws.logger.Warn("remove stale scratch entry",
				zap.String("name", entry.Name()),
				zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		j.ws.logger.Info("swept stale scratch entries", zap.Int("removed", removed))
	}
	return nil
}
