package watcher

// Tells the editor when something else (usually the game) writes to the save being edited.

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"avsave/logging"
)

// How long a file has to be left alone before a change is reported.
// Games write saves in several goes; one write of the file is one Change.
const SETTLE = 500 * time.Millisecond

type Change struct {
	Path string
	Op   fsnotify.Op
}

type Watcher struct {
	path   string
	Settle time.Duration

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

func New(path string) *Watcher {
	return &Watcher{path: filepath.Clean(path), Settle: SETTLE}
}

// Start watches the file's directory (so that replace-by-rename is seen too) and sends
// debounced changes to the file on changes.  changes is never closed by the watcher.
func (w *Watcher) Start(changes chan<- Change) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher
	w.done = make(chan struct{})

	w.wg.Add(1)
	go w.loop(changes)

	err = w.watcher.Add(filepath.Dir(w.path))
	if err != nil {
		w.Stop()
	}
	return err
}

func (w *Watcher) loop(changes chan<- Change) {
	defer w.wg.Done()

	var timer <-chan time.Time
	var pending Change
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logging.Log.Trace("file event", logging.Log.Args("path", event.Name, "op", event.Op.String()))
			pending.Path = w.path
			pending.Op |= event.Op
			timer = time.After(w.Settle)

		case <-timer:
			timer = nil
			select {
			case changes <- pending:
			case <-w.done:
				return
			}
			pending = Change{}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Log.Warn("watcher error", logging.Log.Args("error", err))

		case <-w.done:
			return
		}
	}
}

// Stop stops watching.  No Change is sent after Stop returns.
func (w *Watcher) Stop() {
	if w.watcher == nil {
		return
	}
	close(w.done)
	w.watcher.Close()
	w.wg.Wait()
	w.watcher = nil
}
