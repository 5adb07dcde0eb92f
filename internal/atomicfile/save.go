package atomicfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathRequired is returned when the destination path is blank.
var ErrPathRequired = errors.New("atomicfile: path is required")

// Save writes data to path through a temp file and rename.
func Save(path string, data []byte, perm os.FileMode) error {
	return SaveWith(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// SaveWith streams the file body through write. The destination is only
// replaced when write and the fsync both succeed.
func SaveWith(path string, perm os.FileMode, write func(io.Writer) error) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrPathRequired
	}
	if write == nil {
		return errors.New("atomicfile: writer func is required")
	}
	if perm == 0 {
		perm = 0o600
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("atomicfile: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("atomicfile: create temp: %w", err)
	}
	name := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(name)
		}
	}()
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("atomicfile: chmod temp: %w", err)
	}
	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("atomicfile: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("atomicfile: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("atomicfile: close temp: %w", err)
	}
	if err := replace(name, path); err != nil {
		return fmt.Errorf("atomicfile: replace file: %w", err)
	}
	committed = true
	_ = os.Chmod(path, perm)
	return nil
}

// replace renames src over dst, retrying once after removing dst for
// platforms that refuse to rename onto an existing file.
func replace(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if removeErr := os.Remove(dst); removeErr != nil && !os.IsNotExist(removeErr) {
		return err
	}
	return os.Rename(src, dst)
}
