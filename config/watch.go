package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 150 * time.Millisecond

// Watcher reloads a config file whenever it changes on disk and hands the
// result to a callback. The parent directory is watched so editors that
// replace the file through a rename are picked up.
type Watcher struct {
	path     string
	onChange func(*Config)
	logger   *slog.Logger
	w        *fsnotify.Watcher
	done     chan struct{}
	once     sync.Once
}

// Watch starts watching path. Call Close to stop.
func Watch(path string, onChange func(*Config), logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		logger:   logger,
		w:        fw,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(reloadDebounce, w.reload)
			} else {
				timer.Reset(reloadDebounce)
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("config watch error", "error", err)
			}
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("config reload failed", "path", w.path, "error", err)
		}
		return
	}
	if w.logger != nil {
		w.logger.Info("config reloaded", "path", w.path, "preset", cfg.Preset)
	}
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		err = w.w.Close()
		<-w.done
	})
	return err
}
