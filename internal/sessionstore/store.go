package sessionstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/regenrek/splitdesk/internal/atomicfile"
	"github.com/regenrek/splitdesk/internal/userpath"
)

const (
	appFileName       = "app.json"
	windowFileName    = "window.json"
	quarantineDirName = "quarantine"
	backupExt         = ".gz"

	// DefaultBackups is how many previous app snapshots are kept.
	DefaultBackups = 3
)

// ErrNoSnapshot means nothing restorable was found on disk.
var ErrNoSnapshot = errors.New("sessionstore: no snapshot")

// Store persists the app snapshot and the last window's geometry.
type Store struct {
	dir     string
	backups int

	mu sync.Mutex
}

type Option func(*Store)

// WithBackups sets the size of the gzip backup ring. Zero disables it.
func WithBackups(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.backups = n
		}
	}
}

// NewStore opens the store rooted at dir, creating it if needed.
func NewStore(dir string, opts ...Option) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("sessionstore: dir is required")
	}
	dir = filepath.Clean(userpath.Expand(dir))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("sessionstore: create dir: %w", err)
	}
	s := &Store{dir: dir, backups: DefaultBackups}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// SaveApp writes snap and, when active is set, records it as the last
// window. The previous snapshot moves into the backup ring first.
func (s *Store) SaveApp(ctx context.Context, snap AppSnapshot, active *WindowRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.Windows == nil {
		snap.Windows = []WindowRecord{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("sessionstore: encode app: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rotate(); err != nil {
		slog.Warn("sessionstore: rotate backups failed", slog.Any("err", err))
	}
	if err := atomicfile.Save(s.path(appFileName), data, 0o600); err != nil {
		return fmt.Errorf("sessionstore: save app: %w", err)
	}
	if active != nil {
		if err := s.saveWindowLocked(*active); err != nil {
			return err
		}
	}
	return nil
}

// SaveWindow records w as the last window geometry.
func (s *Store) SaveWindow(ctx context.Context, w WindowRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveWindowLocked(w)
}

func (s *Store) saveWindowLocked(w WindowRecord) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("sessionstore: encode window: %w", err)
	}
	if err := atomicfile.Save(s.path(windowFileName), data, 0o600); err != nil {
		return fmt.Errorf("sessionstore: save window: %w", err)
	}
	return nil
}

// LoadApp reads the last snapshot. A corrupt file is quarantined and the
// newest readable backup is used instead.
func (s *Store) LoadApp(ctx context.Context) (AppSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return AppSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.path(appFileName)
	snap, err := readJSON[AppSnapshot](path, false)
	if err == nil {
		return normalizeApp(snap), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		slog.Warn("sessionstore: app snapshot unreadable", slog.String("path", path), slog.Any("err", err))
		s.quarantine(path)
	}
	for i := 1; i <= s.backups; i++ {
		if err := ctx.Err(); err != nil {
			return AppSnapshot{}, err
		}
		bpath := s.backupPath(i)
		snap, err := readJSON[AppSnapshot](bpath, true)
		if err == nil {
			slog.Info("sessionstore: restored from backup", slog.String("path", bpath))
			return normalizeApp(snap), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("sessionstore: backup unreadable", slog.String("path", bpath), slog.Any("err", err))
			s.quarantine(bpath)
		}
	}
	return AppSnapshot{}, ErrNoSnapshot
}

// LastWindow returns the geometry of the window that was active when the
// app last saved.
func (s *Store) LastWindow(ctx context.Context) (WindowRecord, error) {
	if err := ctx.Err(); err != nil {
		return WindowRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := readJSON[WindowRecord](s.path(windowFileName), false)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return WindowRecord{}, ErrNoSnapshot
		}
		s.quarantine(s.path(windowFileName))
		return WindowRecord{}, err
	}
	return w.Normalize(), nil
}

func normalizeApp(snap AppSnapshot) AppSnapshot {
	for i := range snap.Windows {
		snap.Windows[i] = snap.Windows[i].Normalize()
	}
	return snap
}

// rotate shifts app.json.N.gz up by one and compresses the current app.json
// into slot 1.
func (s *Store) rotate() error {
	if s.backups == 0 {
		return nil
	}
	current, err := os.ReadFile(s.path(appFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	_ = os.Remove(s.backupPath(s.backups))
	for i := s.backups - 1; i >= 1; i-- {
		if err := os.Rename(s.backupPath(i), s.backupPath(i+1)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return atomicfile.SaveWith(s.backupPath(1), 0o600, func(w io.Writer) error {
		gz := gzip.NewWriter(w)
		if _, err := gz.Write(current); err != nil {
			_ = gz.Close()
			return err
		}
		return gz.Close()
	})
}

func (s *Store) quarantine(path string) {
	dir := filepath.Join(s.dir, quarantineDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		slog.Warn("sessionstore: create quarantine dir failed", slog.Any("err", err))
		return
	}
	target := filepath.Join(dir, filepath.Base(path)+"-"+time.Now().UTC().Format("20060102-150405"))
	if err := os.Rename(path, target); err != nil {
		slog.Warn("sessionstore: quarantine failed", slog.String("path", path), slog.Any("err", err))
	}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) backupPath(i int) string {
	return fmt.Sprintf("%s.%d%s", s.path(appFileName), i, backupExt)
}

func readJSON[T any](path string, compressed bool) (T, error) {
	var out T
	data, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	var r io.Reader = bytes.NewReader(data)
	if compressed {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return out, fmt.Errorf("sessionstore: open gzip %s: %w", filepath.Base(path), err)
		}
		defer gz.Close()
		r = gz
	}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return out, fmt.Errorf("sessionstore: decode %s: %w", filepath.Base(path), err)
	}
	return out, nil
}
