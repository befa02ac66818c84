// Package watcher notifies when a single file changes on disk, coalescing
// bursts of writes from editors into one signal.
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must be quiet before a change is emitted.
const DefaultDebounce = 100 * time.Millisecond

// ChangeKind describes the type of file change detected.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota // File written, created or replaced
	ChangeRemoved                    // File no longer exists
)

// String returns the lower-case name of the change kind.
func (k ChangeKind) String() string {
	if k == ChangeRemoved {
		return "removed"
	}
	return "modified"
}

// Change is a debounced change of the watched file.
type Change struct {
	Kind ChangeKind
	File string
}

// Watcher monitors one file through its parent directory, so editors that
// save by rename keep being observed.
type Watcher struct {
	File    string
	Changes <-chan Change // Read-only external channel

	changes  chan Change
	done     chan struct{}
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// New creates a watcher for path. A non-positive debounce selects
// DefaultDebounce.
func New(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	// Capacity one: a queued signal already tells the consumer to reload.
	ch := make(chan Change, 1)
	return &Watcher{
		File:     abs,
		Changes:  ch,
		changes:  ch,
		done:     make(chan struct{}),
		debounce: debounce,
		watcher:  fw,
	}, nil
}

// Start begins watching the file's directory.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.File)); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	var pending time.Time
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				if !pending.IsZero() {
					w.emit()
				}
				return
			}
			if filepath.Clean(event.Name) != w.File {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				pending = time.Now()
			}

		case now := <-ticker.C:
			if !pending.IsZero() && now.Sub(pending) >= w.debounce {
				w.emit()
				pending = time.Time{}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal.
		}
	}
}

func (w *Watcher) emit() {
	kind := ChangeModified
	if _, err := os.Stat(w.File); errors.Is(err, os.ErrNotExist) {
		kind = ChangeRemoved
	}
	select {
	case w.changes <- Change{Kind: kind, File: w.File}:
	default:
	}
}
