package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultReloadDebounce = 100 * time.Millisecond

// SlogLevel maps the configured level name to a slog.Level. Unknown names map to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelWatcher re-reads the config file when it changes on disk and applies a
// new log.level to a shared slog.LevelVar. Every other setting needs a restart.
type LevelWatcher struct {
	path     string
	level    *slog.LevelVar
	logger   *slog.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewLevelWatcher watches the directory holding path, so editors that replace
// the file on save are still picked up.
func NewLevelWatcher(path string, level *slog.LevelVar, logger *slog.Logger) (*LevelWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}

	return &LevelWatcher{
		path:     abs,
		level:    level,
		logger:   logger.With("component", "config_watcher"),
		debounce: defaultReloadDebounce,
		watcher:  fw,
	}, nil
}

// Run processes file events until ctx is done or the watcher is closed.
// Bursts of events are collapsed into a single reload.
func (w *LevelWatcher) Run(ctx context.Context) {
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Chmod == fsnotify.Chmod || filepath.Clean(ev.Name) != w.path {
				continue
			}
			pending = time.After(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "err", err)

		case <-pending:
			pending = nil
			if err := w.reload(); err != nil {
				w.logger.Warn("config reload failed, keeping current log level", "err", err)
			}
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *LevelWatcher) Close() error {
	return w.watcher.Close()
}

func (w *LevelWatcher) reload() error {
	var cfg Config
	if err := decodeFile(w.path, &cfg); err != nil {
		return err
	}
	if err := cfg.Log.Validate(); err != nil {
		return fmt.Errorf("config: log: %w", err)
	}

	next := cfg.Log.SlogLevel()
	if prev := w.level.Level(); prev != next {
		w.level.Set(next)
		w.logger.Info("log level changed", "from", prev.String(), "to", next.String())
	}
	return nil
}
