package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces editor save bursts into one reload.
const DefaultDebounce = 100 * time.Millisecond

// Watch reloads the config whenever one of Paths changes on disk. Only
// directories that already exist are watched. Reload failures are logged
// and the previous config stays active. Watching stops when ctx is done or
// Close is called.
func (m *Manager) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	targets := make(map[string]struct{})
	dirs := make(map[string]struct{})
	for _, p := range m.Paths() {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		targets[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	watched := 0
	for dir := range dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		watched++
	}
	slog.Debug("watching config", slog.Int("directories", watched))

	go m.watchLoop(ctx, w, targets)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, w *fsnotify.Watcher, targets map[string]struct{}) {
	defer w.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopWatch:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if _, hit := targets[filepath.Clean(ev.Name)]; !hit {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(DefaultDebounce)
			} else {
				timer.Reset(DefaultDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := m.Reload(); err != nil {
				slog.Warn("config reload failed", slog.String("error", err.Error()))
				continue
			}
			slog.Info("config reloaded")
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", slog.String("error", err.Error()))
		}
	}
}
