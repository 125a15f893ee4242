package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Runner executes one pipeline run. Satisfied by pipeline.Runner.
type Runner interface {
	Run(ctx context.Context, explicitInputs []string) (string, error)
}

// Watcher observes the data directory (non-recursive) and schedules one
// pipeline run per burst of file events: every create or move-into event
// resets the debounce timer, so the run fires only after the directory has
// been quiet for the debounce interval (trailing-edge debounce). A failed
// run is logged and the watch loop keeps observing.
type Watcher struct {
	runner   Runner
	dataDir  string
	debounce time.Duration
	logger   *slog.Logger

	fsw *fsnotify.Watcher

	// mu protects timer so rapid events can cancel-and-reschedule safely.
	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher on dataDir. The directory must exist.
func New(runner Runner, dataDir string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dataDir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dataDir, err)
	}

	return &Watcher{
		runner:   runner,
		dataDir:  dataDir,
		debounce: debounce,
		fsw:      fsw,
		logger:   logger,
	}, nil
}

// Watch consumes file-system events until ctx is cancelled. It returns nil
// on cancellation and an error only when the event source itself closes
// unexpectedly.
func (w *Watcher) Watch(ctx context.Context) error {
	w.logger.Info("watching for new snapshots",
		slog.String("data_dir", w.dataDir),
		slog.Duration("debounce", w.debounce))

	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch event channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("snapshot event",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()))
			w.schedule(ctx)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch error channel closed")
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

// Close releases the underlying file-system watcher.
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.fsw.Close()
}

// relevant reports whether an event should trigger a run: file creation in
// the watched directory, including a file moved into it (fsnotify reports
// move-into as Create). Directories are ignored.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create == 0 {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		// The file may already be gone; let discovery sort it out.
		return true
	}
	return !info.IsDir()
}

// schedule cancels any pending run and re-arms the debounce timer, so a
// burst of N events yields exactly one run, fired debounce after the last
// event in the burst.
func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.runOnce(ctx)
	})
}

// runOnce executes one pipeline run from the timer callback. Run failures
// are logged and swallowed; the watcher keeps observing regardless of the
// run outcome.
func (w *Watcher) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	outputPath, err := w.runner.Run(ctx, nil)
	if err != nil {
		w.logger.Error("pipeline run failed", slog.String("error", err.Error()))
		return
	}
	w.logger.Info("pipeline run triggered by watch completed",
		slog.String("output_path", outputPath))
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
