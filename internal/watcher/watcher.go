// Package watcher turns filesystem activity under the desk's search roots
// into debounced change notifications, driving watch-mode resynchronization.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vk/couchdesk/internal/ctxlog"
)

const debounce = 200 * time.Millisecond

// Watcher monitors directory search roots recursively. Bursts of events are
// coalesced; one batch of changed paths is emitted per quiet period.
// Archive search roots cannot be watched and are skipped.
type Watcher struct {
	Changes <-chan []string // read-only external channel

	changes chan []string
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// New creates a watcher over the given search roots. Roots that are not
// directories (archives, missing paths) are skipped with a debug log.
func New(ctx context.Context, roots []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			logger.Debug("Not watching non-directory search root.", "path", root)
			continue
		}
		if err := addRecursive(fw, root); err != nil {
			fw.Close()
			return nil, err
		}
	}

	ch := make(chan []string, 16)
	return &Watcher{
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}, nil
}

// Start begins delivering change batches on Changes.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				// New subdirectories must be watched too; fsnotify
				// watches are not recursive on their own.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addRecursive(w.watcher, event.Name)
				}
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[event.Name] = time.Now()
			}

		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			now := time.Now()
			ready := true
			for _, ts := range pending {
				if now.Sub(ts) < debounce {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
				delete(pending, path)
			}
			sort.Strings(batch)
			w.changes <- batch

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next cycle re-enumerates
			// everything anyway.
		}
	}
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}
