// FILE: lixenwraith/settings/watch.go
package settings

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultMaxWatchers = 100 // Prevent resource exhaustion

// Watch events sent instead of a key.
const (
	EventFileDeleted        = "file_deleted"
	EventPermissionsChanged = "permissions_changed"
	EventReloadTimeout      = "reload_timeout"
	EventReloadErrorPrefix  = "reload_error:"
)

// WatchOptions configures file watching behavior
type WatchOptions struct {
	// PollInterval for file stat checks (minimum 100ms)
	PollInterval time.Duration

	// Debounce duration to avoid rapid reloads
	Debounce time.Duration

	// MaxWatchers limits concurrent watch channels
	MaxWatchers int

	// ReloadTimeout for file reload operations
	ReloadTimeout time.Duration

	// VerifyPermissions checks file hasn't been replaced with different permissions
	VerifyPermissions bool
}

// DefaultWatchOptions returns sensible defaults for file watching
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval:      DefaultPollInterval,
		Debounce:          DefaultDebounce,
		MaxWatchers:       DefaultMaxWatchers,
		ReloadTimeout:     DefaultReloadTimeout,
		VerifyPermissions: true,
	}
}

// watcher polls one settings file
type watcher struct {
	mu               sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
	opts             WatchOptions
	name             string
	filePath         string
	lastModTime      time.Time
	lastSize         int64
	lastMode         os.FileMode
	watching         atomic.Bool
	reloadInProgress atomic.Bool
	watchers         map[int64]chan string // subscriber channels
	watcherID        atomic.Int64
	debounceTimer    *time.Timer
}

// WatchFile applies the table name of filePath and reapplies it whenever
// the file changes. Only the keys found in the file are written; edits
// staged by other callers stay pending. Keys whose live value changed are
// sent to the Watch channels.
func (r *Registry) WatchFile(name, filePath string, opts WatchOptions) error {
	r.StopWatch()

	if err := r.applySettingsFile(name, filePath); err != nil {
		return fmt.Errorf("failed to apply settings file for watching: %w", err)
	}

	if opts.PollInterval < MinPollInterval {
		opts.PollInterval = MinPollInterval
	}
	if opts.MaxWatchers <= 0 {
		opts.MaxWatchers = DefaultMaxWatchers
	}
	if opts.ReloadTimeout <= 0 {
		opts.ReloadTimeout = DefaultReloadTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{
		ctx:      ctx,
		cancel:   cancel,
		opts:     opts,
		name:     name,
		filePath: filePath,
		watchers: make(map[int64]chan string),
	}

	// Initial file state
	if info, err := os.Stat(filePath); err == nil {
		w.lastModTime = info.ModTime()
		w.lastSize = info.Size()
		w.lastMode = info.Mode()
	}

	r.mutex.Lock()
	r.watcher = w
	r.mutex.Unlock()

	w.watching.Store(true)
	go w.watchLoop(r)
	return nil
}

// StopWatch stops the file watcher and closes the Watch channels
func (r *Registry) StopWatch() {
	r.mutex.Lock()
	w := r.watcher
	r.watcher = nil
	r.mutex.Unlock()

	if w != nil {
		w.stop()
	}
}

// Watch returns a channel receiving the keys of settings changed by a
// reload. Without an active watcher the channel is closed.
func (r *Registry) Watch() <-chan string {
	r.mutex.RLock()
	w := r.watcher
	r.mutex.RUnlock()

	if w == nil || !w.watching.Load() {
		ch := make(chan string)
		close(ch)
		return ch
	}
	return w.subscribe()
}

// IsWatching returns true if a file watcher runs
func (r *Registry) IsWatching() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.watcher != nil && r.watcher.watching.Load()
}

// WatcherCount returns the number of active watch channels
func (r *Registry) WatcherCount() int {
	r.mutex.RLock()
	w := r.watcher
	r.mutex.RUnlock()

	if w == nil {
		return 0
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.watchers)
}

// watchLoop is the main file watching loop
func (w *watcher) watchLoop(r *Registry) {
	defer w.watching.Store(false)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.checkAndReload(r)
		}
	}
}

// checkAndReload checks if file changed and triggers reload
func (w *watcher) checkAndReload(r *Registry) {
	info, err := os.Stat(w.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			w.notifyWatchers(EventFileDeleted)
		}
		return
	}

	changed := !info.ModTime().Equal(w.lastModTime) || info.Size() != w.lastSize

	// SECURITY: Verify permissions haven't changed suspiciously
	if w.opts.VerifyPermissions && w.lastMode != 0 && info.Mode() != w.lastMode {
		if (info.Mode() & 0077) != (w.lastMode & 0077) {
			// World/group permissions changed, do not reload
			w.notifyWatchers(EventPermissionsChanged)
			return
		}
	}

	if changed {
		w.lastModTime = info.ModTime()
		w.lastSize = info.Size()
		w.lastMode = info.Mode()

		// Debounce rapid changes
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.debounceTimer = time.AfterFunc(w.opts.Debounce, func() {
			w.performReload(r)
		})
		w.mu.Unlock()
	}
}

// performReload reloads the settings file and reports changed keys
func (w *watcher) performReload(r *Registry) {
	// Prevent concurrent reloads
	if !w.reloadInProgress.CompareAndSwap(false, true) {
		return
	}
	defer w.reloadInProgress.Store(false)

	ctx, cancel := context.WithTimeout(w.ctx, w.opts.ReloadTimeout)
	defer cancel()

	oldValues := r.snapshot()

	done := make(chan error, 1)
	go func() {
		done <- r.applySettingsFile(w.name, w.filePath)
	}()

	select {
	case err := <-done:
		if err != nil {
			r.notifier.Notifyf(r, SeverityError, "settings reload of %s failed: %v", w.filePath, err)
			w.notifyWatchers(EventReloadErrorPrefix + err.Error())
			return
		}

		for key, newVal := range r.snapshot() {
			if oldVal, existed := oldValues[key]; !existed || !reflect.DeepEqual(oldVal, newVal) {
				w.notifyWatchers(key)
			}
		}

	case <-ctx.Done():
		w.notifyWatchers(EventReloadTimeout)
	}
}

// subscribe creates a new watcher channel
func (w *watcher) subscribe() <-chan string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.watchers) >= w.opts.MaxWatchers {
		// Closed channel to prevent resource exhaustion
		ch := make(chan string)
		close(ch)
		return ch
	}

	// Buffered to prevent blocking
	ch := make(chan string, 10)
	id := w.watcherID.Add(1)
	w.watchers[id] = ch

	go func() {
		<-w.ctx.Done()
		w.mu.Lock()
		delete(w.watchers, id)
		close(ch)
		w.mu.Unlock()
	}()

	return ch
}

// notifyWatchers sends change notification to all subscribers
func (w *watcher) notifyWatchers(key string) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ch := range w.watchers {
		select {
		case ch <- key:
		default:
			// Channel full, skip
		}
	}
}

// stop terminates the watcher
func (w *watcher) stop() {
	if w.cancel != nil {
		w.cancel()
	}

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.mu.Unlock()

	// Wait for watch loop to exit with timeout
	for i := 0; i < int(shutdownPollCycles) && w.watching.Load(); i++ {
		time.Sleep(SpinWaitInterval)
	}
}

// snapshot maps slash-joined keys to live values
func (r *Registry) snapshot() map[string]any {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	snapshot := make(map[string]any, len(r.entries))
	for _, e := range r.entries {
		if value, err := e.Live(); err == nil {
			snapshot[JoinPath(e.key)] = value
		}
	}
	return snapshot
}
