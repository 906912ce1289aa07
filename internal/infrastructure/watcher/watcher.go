// Package watcher observes dataset source files and reports content changes.
// It decides only WHETHER something changed, never parses anything, and emits
// at most one event per actual content change no matter how many filesystem
// events an editor produces while saving.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/tradeops/masterdata/internal/domain/masterdata"
)

// Event reports that a dataset's source file content changed
type Event struct {
	DatasetKey  string
	Path        string
	Fingerprint string
	At          time.Time
}

// Config holds watcher tuning knobs
type Config struct {
	// Debounce is how long to wait after the last filesystem event before
	// fingerprinting. Editors write several times during one save.
	Debounce time.Duration
	// PollInterval drives the fallback scan that catches changes native
	// events missed (network shares, lost watches, files absent earlier).
	PollInterval time.Duration
}

// DefaultConfig returns default watcher configuration
func DefaultConfig() Config {
	return Config{
		Debounce:     2 * time.Second,
		PollInterval: 10 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Debounce <= 0 {
		c.Debounce = def.Debounce
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
}

// Watcher tracks the source files of a fixed set of datasets
type Watcher struct {
	config   Config
	logger   *zap.Logger
	datasets []masterdata.Dataset
	byPath   map[string]masterdata.Dataset
	events   chan Event

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	fs        *fsnotify.Watcher

	stateMu sync.Mutex
	last    map[string]string
	timers  map[string]*time.Timer
}

// New creates a watcher for the given datasets
func New(config Config, datasets []masterdata.Dataset, logger *zap.Logger) *Watcher {
	config.applyDefaults()

	byPath := make(map[string]masterdata.Dataset, len(datasets))
	for _, ds := range datasets {
		byPath[filepath.Clean(ds.Path)] = ds
	}

	return &Watcher{
		config:   config,
		logger:   logger,
		datasets: datasets,
		byPath:   byPath,
		events:   make(chan Event, 16),
		last:     make(map[string]string, len(datasets)),
		timers:   make(map[string]*time.Timer),
	}
}

// Events returns the change notification channel. The channel is never
// closed, consumers should stop on their own context.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching. The current content of every tracked file is taken
// as the baseline, only changes after this point are reported. Native event
// delivery is best effort, the poll loop is the backstop when the watch
// cannot be established.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = true
	w.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.seedBaseline()

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("native file watching unavailable, polling only", zap.Error(err))
	} else {
		w.fs = fs
		// Watch the containing directories. Editors save by writing a
		// temp file and renaming it over the original, which a watch on
		// the file itself would lose track of.
		seen := make(map[string]struct{})
		for _, ds := range w.datasets {
			dir := filepath.Dir(ds.Path)
			if _, ok := seen[dir]; ok {
				continue
			}
			seen[dir] = struct{}{}
			if err := fs.Add(dir); err != nil {
				w.logger.Warn("cannot watch directory, polling will cover it",
					zap.String("dir", dir),
					zap.Error(err),
				)
			}
		}

		w.wg.Add(1)
		go w.eventLoop(ctx)
	}

	w.wg.Add(1)
	go w.pollLoop(ctx)

	w.logger.Info("file watcher started",
		zap.Int("datasets", len(w.datasets)),
		zap.Duration("debounce", w.config.Debounce),
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Bool("native_events", w.fs != nil),
	)
	return nil
}

// Stop stops watching
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	if w.fs != nil {
		_ = w.fs.Close()
	}

	w.stateMu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.stateMu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("file watcher stopped")
		return nil
	case <-ctx.Done():
		w.logger.Warn("file watcher stop timed out")
		return ctx.Err()
	}
}

// seedBaseline records the current fingerprints so startup does not look
// like every file just changed. Absent files baseline as empty and will
// report once they appear with content.
func (w *Watcher) seedBaseline() {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	for _, ds := range w.datasets {
		fp, err := FingerprintFile(ds.Path)
		if err != nil {
			w.last[ds.Key] = ""
			continue
		}
		w.last[ds.Key] = fp
	}
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !isContentOp(ev.Op) {
				continue
			}
			ds, tracked := w.byPath[filepath.Clean(ev.Name)]
			if !tracked {
				continue
			}
			w.scheduleCheck(ctx, ds)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) pollLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, ds := range w.datasets {
				w.check(ctx, ds)
			}
		}
	}
}

// scheduleCheck arms the dataset's debounce timer, resetting it if a
// previous event from the same burst already armed one.
func (w *Watcher) scheduleCheck(ctx context.Context, ds masterdata.Dataset) {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	if t, ok := w.timers[ds.Key]; ok {
		t.Stop()
	}
	w.timers[ds.Key] = time.AfterFunc(w.config.Debounce, func() {
		w.check(ctx, ds)
	})
}

// check fingerprints the file and emits an event when the content actually
// differs from the last observation. A file that cannot be read right now
// (mid-save, locked, briefly gone) is left alone, the next poll retries.
func (w *Watcher) check(ctx context.Context, ds masterdata.Dataset) {
	if ctx.Err() != nil {
		return
	}

	fp, err := FingerprintFile(ds.Path)
	if err != nil {
		w.logger.Debug("source file not readable, will retry",
			zap.String("dataset", ds.Key),
			zap.Error(err),
		)
		return
	}

	w.stateMu.Lock()
	if w.last[ds.Key] == fp {
		w.stateMu.Unlock()
		return
	}
	w.last[ds.Key] = fp
	w.stateMu.Unlock()

	w.logger.Info("source file changed",
		zap.String("dataset", ds.Key),
		zap.String("path", ds.Path),
	)

	select {
	case w.events <- Event{DatasetKey: ds.Key, Path: ds.Path, Fingerprint: fp, At: time.Now()}:
	case <-ctx.Done():
	}
}

func isContentOp(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) ||
		op.Has(fsnotify.Create) ||
		op.Has(fsnotify.Rename) ||
		op.Has(fsnotify.Remove)
}
