package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/cake/pkg/transcript"
)

// DefaultDebounce is how long a chunk file must stay quiet before it is
// handed to the watcher callback.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports chunk files created or rewritten under a directory tree.
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger

	afterFunc func(d time.Duration, f func()) stopper
}

type stopper interface {
	Stop() bool
}

// settled is a debounce timer firing for one generation of a path.
type settled struct {
	path string
	gen  uint64
}

type pending struct {
	timer stopper
	gen   uint64
}

// NewWatcher creates a watcher for dir. A non-positive debounce uses
// DefaultDebounce.
func NewWatcher(dir string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		logger:   logger,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// Run watches until ctx is cancelled, calling handle once per settled file.
// Calls to handle are sequential.
func (w *Watcher) Run(ctx context.Context, handle func(ctx context.Context, path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addTree(watcher, w.dir); err != nil {
		return err
	}

	return w.watch(ctx, watcher, watcher.Events, watcher.Errors, handle)
}

// watch runs the debounce loop over events. Pending timers are released when
// it returns, whatever the reason.
func (w *Watcher) watch(
	ctx context.Context,
	watcher *fsnotify.Watcher,
	events <-chan fsnotify.Event,
	errs <-chan error,
	handle func(ctx context.Context, path string),
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ready := make(chan settled)
	timers := make(map[string]*pending)
	var gen uint64
	defer func() {
		for _, p := range timers {
			p.timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if event.Op&fsnotify.Create != 0 && watcher != nil {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(watcher, event.Name); err != nil {
						w.logger.Warn("could not watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}

			if !transcript.IsChunkFile(event.Name) {
				continue
			}

			// A timer that already fired may still be waiting on ready;
			// bumping the generation makes that delivery stale.
			if p, ok := timers[event.Name]; ok {
				p.timer.Stop()
			}
			gen++
			fire := settled{path: event.Name, gen: gen}
			timers[event.Name] = &pending{
				gen: gen,
				timer: w.afterFunc(w.debounce, func() {
					select {
					case ready <- fire:
					case <-ctx.Done():
					}
				}),
			}

		case s := <-ready:
			p, ok := timers[s.path]
			if !ok || p.gen != s.gen {
				continue
			}
			delete(timers, s.path)
			w.logger.Debug("chunk file settled", "path", s.path)
			handle(ctx, s.path)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
