// Package watcher turns file system changes to config, theme, keymap and
// plugin paths into debounced reload signals for the UI loop.
package watcher

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 200 * time.Millisecond

// Watcher is safe to close from any goroutine. Reloads is the only channel
// consumers read.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	files    map[string]struct{}
	dirs     map[string]struct{}
	reloads  chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New watches targets. A file target is watched through its parent
// directory so atomic replaces are seen; a directory target is watched
// directly. Targets that cannot be watched are logged and skipped.
func New(targets []string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:       fsw,
		debounce: debounce,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
		reloads:  make(chan struct{}, 1),
	}
	watched := make(map[string]struct{})
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		target = filepath.Clean(target)
		dir := target
		if isDir(target) {
			w.dirs[target] = struct{}{}
		} else {
			w.files[target] = struct{}{}
			dir = filepath.Dir(target)
		}
		if _, ok := watched[dir]; ok {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			slog.Warn("watcher: add failed", slog.String("path", dir), slog.Any("err", err))
			continue
		}
		watched[dir] = struct{}{}
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Reloads receives one value per burst of relevant changes.
func (w *Watcher) Reloads() <-chan struct{} {
	return w.reloads
}

// WatchList reports the directories currently registered.
func (w *Watcher) WatchList() []string {
	return w.fs.WatchList()
}

func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	pending := false
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			resetTimer(timer, w.debounce, pending)
			pending = true
		case <-timer.C:
			if pending {
				select {
				case w.reloads <- struct{}{}:
				default:
				}
			}
			pending = false
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				slog.Warn("watcher: error", slog.Any("err", err))
				continue
			}
			resetTimer(timer, w.debounce, pending)
			pending = true
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(ev.Name)
	if shouldIgnoreFile(name) {
		return false
	}
	if _, ok := w.files[name]; ok {
		return true
	}
	if _, ok := w.dirs[name]; ok {
		return true
	}
	_, ok := w.dirs[filepath.Dir(name)]
	return ok
}

func resetTimer(timer *time.Timer, debounce time.Duration, pending bool) {
	if !timer.Stop() && pending {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(debounce)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func shouldIgnoreFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".#") || strings.HasSuffix(base, "~") {
		return true
	}
	return strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp")
}
