package preview

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/observability"
)

// watchDebounce coalesces editor save bursts into one reload.
const watchDebounce = 200 * time.Millisecond

// watcher observes the site directory and invokes onChange after writes
// settle. New subdirectories are added to the watch set as they appear.
type watcher struct {
	fs       *fsnotify.Watcher
	onChange func(context.Context)
}

func newWatcher(dir string, onChange func(context.Context)) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create file watcher")
	}

	err = filepath.Walk(dir, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return fw.Add(p)
		}
		return nil
	})
	if err != nil {
		_ = fw.Close()
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to watch site directory").
			WithContext("directory", dir)
	}
	return &watcher{fs: fw, onChange: onChange}, nil
}

func (w *watcher) run(ctx context.Context) {
	defer func() { _ = w.fs.Close() }()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = w.fs.Add(ev.Name)
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			observability.WarnContext(ctx, "file watcher error", slog.String("error", err.Error()))
		case <-timerC:
			timer = nil
			timerC = nil
			w.onChange(ctx)
		}
	}
}
