package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"colorizer/imageio"
	"colorizer/logging"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettle is how long a new file must stay unmodified before it is
// processed.
const DefaultSettle = 500 * time.Millisecond

// Watcher colorizes images as they appear in an inbox directory.
// Files are processed one at a time in arrival order.
type Watcher struct {
	runner *Runner
	inbox  string
	outDir string
	settle time.Duration
	logger *zap.Logger

	// OnResult, when set, is called after each file.
	OnResult func(ItemResult)

	mu      sync.Mutex
	pending map[string]*settleTimer
}

// settleTimer is the pending entry for one path. A callback whose entry has
// been replaced does nothing.
type settleTimer struct {
	t *time.Timer
}

// NewWatcher creates a watcher writing into outDir.
func NewWatcher(runner *Runner, inbox, outDir string, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		runner:  runner,
		inbox:   inbox,
		outDir:  outDir,
		settle:  DefaultSettle,
		logger:  logger,
		pending: make(map[string]*settleTimer),
	}
}

// SetSettle overrides the settle delay.
func (w *Watcher) SetSettle(d time.Duration) {
	w.settle = d
}

// Run watches until ctx is done. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.inbox); err != nil {
		return fmt.Errorf("watch %s: %w", w.inbox, err)
	}
	w.logger.Info("watching inbox",
		zap.String("inbox", w.inbox),
		zap.String("output_dir", w.outDir))

	ready := make(chan string, 64)
	done := make(chan struct{})
	defer close(done)
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !w.accepts(ev.Name) {
				continue
			}
			w.schedule(ev.Name, ready, done)

		case path := <-ready:
			w.process(path)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// accepts filters events to supported images that are not our own outputs.
func (w *Watcher) accepts(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, OutputPrefix) {
		return false
	}
	return imageio.IsSupportedExt(name)
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(path string, ready chan<- string, done <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scheduleLocked(path, ready, done)
}

func (w *Watcher) scheduleLocked(path string, ready chan<- string, done <-chan struct{}) {
	// Stop fails once the callback has started; it may be blocked on w.mu,
	// so replace the entry rather than resetting a timer that already fired.
	if old, ok := w.pending[path]; ok && old.t.Stop() {
		old.t.Reset(w.settle)
		return
	}
	entry := &settleTimer{}
	w.pending[path] = entry
	entry.t = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		if w.pending[path] != entry {
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case ready <- path:
		case <-done:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, entry := range w.pending {
		entry.t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) process(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	out := w.runner.outputPath(Job{Input: path}, w.outDir)
	item := w.runner.Process(path, out)
	if item.Success {
		w.logger.Info("inbox file colorized",
			logging.Input(path),
			logging.Output(item.Output),
			zap.Bool("degraded", item.Degraded))
	}
	if w.OnResult != nil {
		w.OnResult(item)
	}
}
