// Package watch reruns the planning pipeline when the project definition
// file changes on disk.
package watch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a single project definition file and invokes a
// callback after changes settle.
type FileWatcher struct {
	path         string
	watcher      *fsnotify.Watcher
	onChange     func()
	debounceTime time.Duration

	mu      sync.Mutex
	pending bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFileWatcher creates a watcher for the given file.
func NewFileWatcher(path string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &FileWatcher{
		path:         path,
		watcher:      watcher,
		debounceTime: 500 * time.Millisecond,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// OnChange sets the callback invoked after the file settles.
func (fw *FileWatcher) OnChange(callback func()) {
	fw.onChange = callback
}

// Start begins watching. Editors commonly replace files on save, so the
// parent directory is watched and events are filtered by name.
func (fw *FileWatcher) Start() error {
	if err := fw.watcher.Add(filepath.Dir(fw.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", fw.path, err)
	}

	fw.wg.Add(2)
	go fw.eventLoop()
	go fw.debounceLoop()
	return nil
}

// Stop stops the watcher.
func (fw *FileWatcher) Stop() error {
	fw.cancel()
	fw.wg.Wait()
	return fw.watcher.Close()
}

func (fw *FileWatcher) eventLoop() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(fw.path) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				fw.mu.Lock()
				fw.pending = true
				fw.mu.Unlock()
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)
		}
	}
}

func (fw *FileWatcher) debounceLoop() {
	defer fw.wg.Done()

	ticker := time.NewTicker(fw.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			return
		case <-ticker.C:
			fw.mu.Lock()
			fire := fw.pending
			fw.pending = false
			fw.mu.Unlock()
			if fire && fw.onChange != nil {
				fw.onChange()
			}
		}
	}
}
