package confloader

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
)

// DefaultDebounce coalesces the burst of events editors emit per save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports changes to watched configuration files.
type Watcher struct {
	watcher   *fsnotify.Watcher
	mu        sync.RWMutex
	callbacks []func(string)
	files     map[string]bool
	debounce  time.Duration
	log       logger.Logger

	pendingMu sync.Mutex
	pending   map[string]*time.Timer

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger.
func WithWatcherLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		w.log = l
	}
}

// WithDebounce sets how long the watcher waits for a file to settle before
// notifying. Zero notifies on every event.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a watcher.
func NewWatcher(opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]bool),
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = logger.Discard()
	}
	return w, nil
}

// Watch adds a file. Its directory is watched so that editors which
// replace the file by rename are still seen.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := w.watcher.Add(dir); err != nil {
		w.log.Error("failed to watch directory", "path", dir, "error", err)
		return err
	}
	w.mu.Lock()
	w.files[abs] = true
	w.mu.Unlock()
	w.log.Debug("watching config file", "path", abs)
	return nil
}

// OnChange registers a callback receiving the path of the changed file.
func (w *Watcher) OnChange(callback func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start processes events until Stop is called.
func (w *Watcher) Start() {
	w.log.Info("configuration watcher started")
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.watched(abs) {
				continue
			}
			w.log.Debug("configuration file changed", "file", abs, "op", event.Op.String())
			w.schedule(abs)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("configuration watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// StartAsync runs Start in a goroutine.
func (w *Watcher) StartAsync() {
	go w.Start()
}

// Stop stops the watcher and cancels pending notifications.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.pendingMu.Lock()
		for path, t := range w.pending {
			t.Stop()
			delete(w.pending, path)
		}
		w.pendingMu.Unlock()
		err = w.watcher.Close()
		w.log.Info("configuration watcher stopped")
	})
	return err
}

func (w *Watcher) watched(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.files[path]
}

func (w *Watcher) schedule(path string) {
	if w.debounce <= 0 {
		w.notify(path)
		return
	}
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.pendingMu.Lock()
		delete(w.pending, path)
		w.pendingMu.Unlock()
		select {
		case <-w.done:
			return
		default:
		}
		w.notify(path)
	})
}

func (w *Watcher) notify(path string) {
	w.mu.RLock()
	cbs := append(([]func(string))(nil), w.callbacks...)
	w.mu.RUnlock()
	for _, cb := range cbs {
		cb(path)
	}
}
