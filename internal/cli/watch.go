package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 250 * time.Millisecond

// watchAndRun runs once, then re-runs with a fresh engine each time the
// config or workload file changes. It returns when ctx is done.
func watchAndRun(ctx context.Context, out io.Writer, f runFlags) error {
	var paths []string
	for _, p := range []string{f.config, f.workload} {
		if p != "" {
			paths = append(paths, filepath.Clean(p))
		}
	}
	if len(paths) == 0 {
		return errors.New("--watch needs --config or --workload")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init: %w", err)
	}
	defer w.Close()

	// Editors often replace files instead of writing in place, so watch
	// the directories and match on the file name.
	watched := make(map[string]bool)
	files := make(map[string]bool)
	for _, p := range paths {
		dir := filepath.Dir(p)
		if !watched[dir] {
			if err := w.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			watched[dir] = true
		}
		files[p] = true
	}

	rerun := func() {
		if _, err := runOnce(ctx, out, f); err != nil && ctx.Err() == nil {
			logger.Warn().Err(err).Msg("run failed; waiting for the next change")
		}
	}
	rerun()

	reload := make(chan struct{}, 1)
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func(name string) {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		logger.Debug().Str("path", name).Msg("change detected; scheduling re-run")
		timer = time.AfterFunc(watchDebounce, func() {
			select {
			case reload <- struct{}{}:
			default:
			}
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	logger.Info().Strs("paths", paths).Msg("watching for changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if !files[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) != 0 {
				debounce(ev.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			logger.Warn().Err(err).Msg("watch error")
		case <-reload:
			fmt.Fprintln(out)
			rerun()
		}
	}
}
