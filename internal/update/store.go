package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/regenrek/splitdesk/internal/appdirs"
	"github.com/regenrek/splitdesk/internal/atomicfile"
	"github.com/regenrek/splitdesk/internal/runenv"
)

const stateFileName = "update-state.json"

var ErrStateDisabled = errors.New("update: state disabled")

// Store loads and saves update state.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

// FileStore persists update state to a JSON file.
type FileStore struct {
	Path string
}

// DefaultStatePath places the state file in the data directory. Fresh
// config runs keep no state.
func DefaultStatePath() (string, error) {
	if runenv.FreshConfigEnabled() && runenv.DataDir() == "" {
		return "", ErrStateDisabled
	}
	dir, err := appdirs.DataDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, stateFileName), nil
}

// Load reads update state. A missing file is an empty state.
func (s FileStore) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	path, err := cleanStatePath(s.Path)
	if err != nil {
		return State{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("update: read state: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("update: parse state: %w", err)
	}
	return state, nil
}

// Save writes update state atomically.
func (s FileStore) Save(ctx context.Context, state State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := cleanStatePath(s.Path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("update: create state dir: %w", err)
	}
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("update: marshal state: %w", err)
	}
	payload = append(payload, '\n')
	if err := atomicfile.Save(path, payload, 0o600); err != nil {
		return fmt.Errorf("update: save state: %w", err)
	}
	return nil
}

func cleanStatePath(path string) (string, error) {
	if path == "" {
		return "", ErrStateDisabled
	}
	cleaned := filepath.Clean(path)
	if !filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("update: state path must be absolute")
	}
	return cleaned, nil
}
