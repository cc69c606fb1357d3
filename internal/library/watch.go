package library

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow absorbs the burst of write events editors produce for a
// single save.
const debounceWindow = 200 * time.Millisecond

// Watcher re-extracts library items when their files change on disk and
// reports the affected item ids.
type Watcher struct {
	lib     *Library
	fsw     *fsnotify.Watcher
	changed chan string
	done    chan struct{}
}

// Watch starts watching every item's parent directory. The returned
// channel delivers the id of each item whose content was reloaded.
func (l *Library) Watch() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("library: starting watcher: %w", err)
	}

	dirs := make(map[string]struct{})
	for _, it := range l.Items() {
		dirs[filepath.Dir(it.Path)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("library: watching %s: %w", dir, err)
		}
	}

	w := &Watcher{
		lib:     l,
		fsw:     fsw,
		changed: make(chan string, 8),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Changed delivers item ids whose files were rewritten.
func (w *Watcher) Changed() <-chan string { return w.changed }

func (w *Watcher) run() {
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounceWindow)
	defer ticker.Stop()

	known := func(path string) bool {
		for _, it := range w.lib.Items() {
			if it.Path == path {
				return true
			}
		}
		return false
	}

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if known(ev.Name) {
				pending[ev.Name] = time.Now()
			}

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}

		case now := <-ticker.C:
			for path, at := range pending {
				if now.Sub(at) < debounceWindow {
					continue
				}
				delete(pending, path)
				id, err := w.lib.reload(path)
				if err != nil {
					continue
				}
				select {
				case w.changed <- id:
				default:
				}
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
