package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitReload(t *testing.T, w *Watcher, want bool) {
	t.Helper()
	select {
	case <-w.Reloads():
		if !want {
			t.Fatalf("unexpected reload")
		}
	case <-time.After(500 * time.Millisecond):
		if want {
			t.Fatalf("reload not delivered")
		}
	}
}

func TestFileTargetReloads(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(cfg, []byte("{}\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	w, err := New([]string{cfg, filepath.Join(dir, "missing", "keymaps.yml")}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitReload(t, w, false)

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(cfg, []byte("window:\n  width: 900\n"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	waitReload(t, w, true)
	waitReload(t, w, false)
}

func TestAtomicReplaceReloads(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(cfg, []byte("{}\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	w, err := New([]string{cfg}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer w.Close()
	tmp := filepath.Join(dir, ".config.yml.123.tmp")
	if err := os.WriteFile(tmp, []byte("{}\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Rename(tmp, cfg); err != nil {
		t.Fatalf("rename: %v", err)
	}
	waitReload(t, w, true)
}

func TestDirectoryTargetReloads(t *testing.T) {
	themes := filepath.Join(t.TempDir(), "themes")
	if err := os.MkdirAll(themes, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	w, err := New([]string{themes, themes}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer w.Close()
	if got := len(w.WatchList()); got != 1 {
		t.Fatalf("watch list = %d entries, want 1", got)
	}
	if err := os.WriteFile(filepath.Join(themes, "dark.toml"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitReload(t, w, true)
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
}
