// Package watch signals when project sources change so contracts can be
// regenerated.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pawfa/pact-gen-ts/internal/log"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// Options configures Run.
type Options struct {
	// Exclude names directories that are never watched, e.g. node_modules.
	Exclude []string
	// Match reports whether a change to path is relevant. Nil matches all.
	Match func(path string) bool
	// Debounce is the quiet period before a change is signalled.
	Debounce time.Duration
}

// Run watches dirs recursively and sends on out once per burst of relevant
// changes. Sends never block: a pending signal absorbs new ones. Run returns
// when ctx is done.
func Run(ctx context.Context, dirs []string, opts Options, out chan<- struct{}) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	exclude := make(map[string]bool, len(opts.Exclude))
	for _, d := range opts.Exclude {
		exclude[d] = true
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	for _, dir := range dirs {
		if err := addTree(w, dir, exclude); err != nil {
			return err
		}
	}

	timer := time.NewTimer(opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(w, ev.Name, exclude); err != nil {
						log.Error("watch add failed", "dir", ev.Name, "error", err)
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if opts.Match != nil && !opts.Match(ev.Name) {
				continue
			}
			log.Debug("source changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(opts.Debounce)
		case <-timer.C:
			select {
			case out <- struct{}{}:
			default:
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("watch error", "error", err)
		}
	}
}

// addTree watches dir and every directory below it that is not excluded.
func addTree(w *fsnotify.Watcher, dir string, exclude map[string]bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && exclude[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
