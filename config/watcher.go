package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gocrud/empower/logging"
)

// DefaultDebounce 文件变更的合并窗口
const DefaultDebounce = 200 * time.Millisecond

// Watcher 监听配置文件变更并触发重载
type Watcher struct {
	config   ReloadableConfiguration
	files    map[string]struct{}
	debounce time.Duration
	logger   logging.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

// WatcherOption 监听器选项
type WatcherOption func(*Watcher)

// WithDebounce 设置合并窗口
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithWatcherLogger 设置日志记录器
func WithWatcherLogger(logger logging.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// Watch 监听给定文件，变更时调用 cfg.Reload
// 监听的是文件所在目录，这样编辑器的"写临时文件再重命名"也能被捕获
func Watch(ctx context.Context, cfg ReloadableConfiguration, paths []string, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: failed to create watcher: %w", err)
	}

	w := &Watcher{
		config:   cfg,
		files:    make(map[string]struct{}, len(paths)),
		debounce: DefaultDebounce,
		logger:   logging.Nop(),
		watcher:  fw,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("config: invalid path %s: %w", p, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("config: failed to watch %s: %w", dir, err)
		}
	}

	go w.run(ctx)
	return w, nil
}

// Close 停止监听并等待后台协程退出
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Config file changed",
				logging.Field{Key: "path", Value: event.Name},
				logging.Field{Key: "op", Value: event.Op.String()})
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error", logging.Field{Key: "error", Value: err})

		case <-fire:
			fire = nil
			if err := w.config.Reload(); err != nil {
				w.logger.Error("Failed to reload configuration", logging.Field{Key: "error", Value: err})
				continue
			}
			w.logger.Info("Configuration reloaded")
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}
