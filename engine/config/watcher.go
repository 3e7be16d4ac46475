package config

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Carmen-Shannon/oxy-ink/common"
)

type watcherImpl struct {
	mu *sync.Mutex

	path     string
	current  Settings
	onChange []func(Settings)

	retryInterval   time.Duration
	retryMaxElapsed time.Duration

	fsw    *fsnotify.Watcher
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Watcher keeps the latest valid settings of a file and reloads them when the
// file changes. An invalid document keeps the previous settings.
type Watcher interface {
	// Settings returns a snapshot of the latest valid settings.
	//
	// Returns:
	//   - Settings: a deep copy owned by the caller
	Settings() Settings

	// Reload reads the file now and notifies the change callbacks when the
	// settings differ from the current ones.
	//
	// Parameters:
	//   - ctx: cancels the read retries
	//
	// Returns:
	//   - error: the load error, the current settings are kept
	Reload(ctx context.Context) error

	// Close stops watching. It waits for a reload in progress.
	Close() error
}

var _ Watcher = &watcherImpl{}

// NewWatcher loads the settings file at path and starts watching it.
//
// Parameters:
//   - path: the settings file
//   - options: variadic list of WatcherBuilderOption functions
//
// Returns:
//   - Watcher: the running watcher
//   - error: the initial load error or a file system watcher error
func NewWatcher(path string, options ...WatcherBuilderOption) (Watcher, error) {
	w := &watcherImpl{
		mu:              &sync.Mutex{},
		path:            filepath.Clean(path),
		retryInterval:   DefaultRetryInterval,
		retryMaxElapsed: DefaultRetryMaxElapsed,
		done:            make(chan struct{}),
	}
	for _, option := range options {
		option(w)
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())

	s, err := load(w.ctx, w.path, w.retryInterval, w.retryMaxElapsed)
	if err != nil {
		w.cancel()
		return nil, err
	}
	w.current = s

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.cancel()
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	// Editors replace files by renaming, which drops a watch on the file itself.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		w.cancel()
		return nil, fmt.Errorf("config: watch %s: %w", w.path, err)
	}
	w.fsw = fsw
	go w.run()
	return w, nil
}

func (w *watcherImpl) Settings() Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current.Clone()
}

func (w *watcherImpl) Reload(ctx context.Context) error {
	s, err := load(ctx, w.path, w.retryInterval, w.retryMaxElapsed)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if reflect.DeepEqual(s, w.current) {
		w.mu.Unlock()
		return nil
	}
	w.current = s
	callbacks := w.onChange
	w.mu.Unlock()

	common.Logger().Info("config: settings reloaded", "path", w.path, "pipeline", s.Pipeline)
	for _, fn := range callbacks {
		fn(s.Clone())
	}
	return nil
}

func (w *watcherImpl) run() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := w.Reload(w.ctx); err != nil && w.ctx.Err() == nil {
				common.Logger().Error("config: reload failed, keeping previous settings", "path", w.path, "error", err)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("config: watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *watcherImpl) Close() error {
	w.cancel()
	err := w.fsw.Close()
	<-w.done
	return err
}
