package scenario

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/primitives/internal/errors"
)

// Watch loads path, calls fn with the result, and calls it again every
// time the file is written, until ctx is done. Bursts of events within
// debounce are folded into one reload.
//
// The parent directory is watched so that editors that replace the file
// on save keep triggering reloads.
func Watch(ctx context.Context, path string, debounce time.Duration, fn func(*Scenario, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.New("E202").WithDetail(path).Wrap(err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New("E202").Wrap(err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return errors.New("E202").WithDetail(filepath.Dir(abs)).Wrap(err)
	}

	fn(Load(abs))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fn(nil, errors.New("E202").WithDetail(abs).Wrap(err))

		case <-fire:
			fire = nil
			fn(Load(abs))
		}
	}
}
