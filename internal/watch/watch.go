// Package watch reports changes to a document on disk as debounced
// callbacks.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/metcalfc/hll/internal/logger"
	"github.com/romdo/go-debounce"
)

const (
	// DefaultWait is how long the file must be quiet before a callback.
	DefaultWait = 150 * time.Millisecond
	// DefaultMaxWait bounds the delay while events keep arriving.
	DefaultMaxWait = time.Second
)

// Watcher watches a single file. Editors often save by writing a temporary
// file and renaming it over the original, so the parent directory is watched
// and events are filtered by name.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	log      logger.Logger
	notify   func()
	cancel   func()
	done     chan struct{}
	stopOnce sync.Once
}

// Options tune a Watcher. Zero values select the defaults.
type Options struct {
	Wait    time.Duration
	MaxWait time.Duration
	// Logger defaults to the logger carried by ctx.
	Logger logger.Logger
}

// New starts watching path and calls onChange, debounced, after it is
// written, created or replaced. The watcher stops when ctx is done or Close
// is called.
func New(ctx context.Context, path string, onChange func(), opts Options) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("watch: onChange cannot be nil")
	}
	if opts.Wait <= 0 {
		opts.Wait = DefaultWait
	}
	if opts.MaxWait < opts.Wait {
		opts.MaxWait = DefaultMaxWait
	}
	if opts.Logger == nil {
		opts.Logger = logger.FromContext(ctx)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	notify, cancel := debounce.NewWithMaxWait(opts.Wait, opts.MaxWait, onChange)
	w := &Watcher{
		watcher: fsWatcher,
		path:    absPath,
		log:     opts.Logger.With("path", absPath),
		notify:  notify,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go w.handleEvents(ctx)
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) handleEvents(ctx context.Context) {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.log.Debug("document changed on disk", "op", event.Op.String())
				w.notify()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", "error", err)
		}
	}
}

// Close stops the watcher and drops any pending callback.
func (w *Watcher) Close() error {
	var closeErr error
	w.stopOnce.Do(func() {
		close(w.done)
		w.cancel()
		if err := w.watcher.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close watcher: %w", err)
		}
	})
	return closeErr
}
