// Package watch re-runs a callback when a watched file changes.
package watch

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 500 * time.Millisecond

// Watcher watches a single file and invokes a callback on writes,
// debounced so editors that write in multiple steps trigger one run.
type Watcher struct {
	file     string
	callback func() error
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher creates a watcher for file. The containing directory is
// watched so the file can be replaced atomically.
func NewWatcher(file string, callback func() error) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	absPath, err := filepath.Abs(file)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		file:     absPath,
		callback: callback,
		watcher:  watcher,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the callback once, then blocks, re-running it on every
// change of the watched file until Stop is called.
func (w *Watcher) Start() error {
	if err := w.callback(); err != nil {
		return err
	}

	debounce := time.NewTimer(debounceDelay)
	debounce.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			eventPath, err := filepath.Abs(event.Name)
			if err != nil || eventPath != w.file {
				continue
			}
			debounce.Reset(debounceDelay)

		case <-debounce.C:
			if err := w.callback(); err != nil {
				return err
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)

		case <-w.done:
			return nil
		}
	}
}

// Stop ends the watch loop and releases the underlying watcher.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
}
