// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last write before
// reloading. Editors often write a file in several steps.
const DefaultDebounce = 150 * time.Millisecond

// =============================================================================
// CONFIG WATCHER
// =============================================================================

// ChangeFunc receives the reloaded config, or the error that prevented it.
// A failed reload never replaces a good config.
type ChangeFunc func(cfg *Config, err error)

// Watcher reloads a config file when it changes on disk.
//
// The parent directory is watched rather than the file: editors that save by
// writing a temp file and renaming it would otherwise drop the watch.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange ChangeFunc

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	mu      sync.Mutex
	once    sync.Once
}

// NewWatcher creates a watcher for path. debounce <= 0 selects DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, onChange ChangeFunc) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		watcher:  w,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// Watch starts watching in a background goroutine. Calling it again after a
// successful start does nothing.
func (cw *Watcher) Watch() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.started || cw.ctx.Err() != nil {
		return nil
	}
	if err := cw.watcher.Add(filepath.Dir(cw.path)); err != nil {
		return err
	}
	cw.started = true
	go cw.processEvents()
	return nil
}

// Close stops watching and waits for the event loop to exit. It is safe to
// call whether or not Watch succeeded.
func (cw *Watcher) Close() error {
	var err error
	cw.once.Do(func() {
		cw.mu.Lock()
		started := cw.started
		cw.cancel()
		cw.mu.Unlock()

		err = cw.watcher.Close()
		if started {
			<-cw.done
		} else {
			close(cw.done)
		}
	})
	return err
}

func (cw *Watcher) processEvents() {
	defer close(cw.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-cw.ctx.Done():
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(cw.debounce)
			}

		case <-timer.C:
			cfg, err := LoadFromPath(cw.path)
			if cw.onChange != nil {
				cw.onChange(cfg, err)
			}

		case _, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
