package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/trussrig/pkg/observability"
)

// settleDelay coalesces the burst of events an editor produces on save.
const settleDelay = 100 * time.Millisecond

// Update is a reloaded configuration or the error that prevented it.
type Update struct {
	Config *Config
	Err    error
}

// Watch reloads the config file at path whenever it changes and sends the
// result on the returned channel. The parent directory is watched so that
// editors which save by renaming are picked up. The channel is closed when
// ctx is done.
func Watch(ctx context.Context, path string) (<-chan Update, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	out := make(chan Update)
	go func() {
		defer close(out)
		defer w.Close()

		var timer <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					timer = time.After(settleDelay)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if !send(ctx, out, Update{Err: fmt.Errorf("watch config: %w", err)}) {
					return
				}
			case <-timer:
				timer = nil
				cfg, err := loadFile(abs)
				observability.Config().OnConfigReload(abs, err)
				if !send(ctx, out, Update{Config: cfg, Err: err}) {
					return
				}
			}
		}
	}()
	return out, nil
}

func send(ctx context.Context, out chan<- Update, u Update) bool {
	select {
	case out <- u:
		return true
	case <-ctx.Done():
		return false
	}
}
