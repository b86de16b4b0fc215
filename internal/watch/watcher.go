// Package watch monitors a document file and emits stable content snapshots.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Snapshot is the content of the watched file after it went quiet.
type Snapshot struct {
	Path      string
	Content   string
	Timestamp time.Time
}

// Watcher monitors one file for changes and emits a snapshot once the file
// has been stable for the debounce interval.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration

	// State tracking: last write seen, and whether a capture is pending
	stateMu sync.Mutex
	lastMod time.Time
	dirty   bool

	snapshots chan Snapshot
	errors    chan error

	// Control
	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher for a single file.
func New(path string, debounce time.Duration) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		path:      absPath,
		debounce:  debounce,
		snapshots: make(chan Snapshot, 16),
		errors:    make(chan error, 4),
		done:      make(chan struct{}),
	}, nil
}

// Snapshots returns the channel of stable file snapshots.
func (w *Watcher) Snapshots() <-chan Snapshot {
	return w.snapshots
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching. The file's directory is watched rather than the
// file itself so editors that replace the file on save stay tracked.
func (w *Watcher) Start() error {
	if _, err := os.Stat(w.path); err != nil {
		return err
	}
	if err := w.fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop gracefully shuts down the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	close(w.snapshots)
	close(w.errors)
	return w.fsWatcher.Close()
}

// eventLoop marks the file dirty on writes.
func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			// Only track writes and creates
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// The directory watch also reports sibling files
			if event.Name != w.path {
				continue
			}

			w.stateMu.Lock()
			w.lastMod = time.Now()
			w.dirty = true
			w.stateMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// debounceLoop emits a snapshot once the file has been quiet long enough.
func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	tick := w.debounce / 2
	if tick < 25*time.Millisecond {
		tick = 25 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case now := <-ticker.C:
			w.captureIfStable(now)
		}
	}
}

// captureIfStable reads the file when a pending change has settled. The read
// happens without the lock; a write landing mid-read marks the state dirty
// again, so a fresh snapshot follows once it settles.
func (w *Watcher) captureIfStable(now time.Time) {
	w.stateMu.Lock()
	pending := w.dirty && now.Sub(w.lastMod) >= w.debounce
	if pending {
		w.dirty = false
	}
	w.stateMu.Unlock()

	if !pending {
		return
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		select {
		case w.errors <- err:
		default:
		}
		return
	}

	snapshot := Snapshot{
		Path:      w.path,
		Content:   string(data),
		Timestamp: now,
	}
	select {
	case w.snapshots <- snapshot:
	default:
		// Channel full; leave the state dirty so the content is retried.
		w.stateMu.Lock()
		w.dirty = true
		w.stateMu.Unlock()
	}
}
