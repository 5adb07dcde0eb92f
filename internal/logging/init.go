package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/regenrek/splitdesk/internal/appdirs"
	"github.com/regenrek/splitdesk/internal/identity"
)

// DefaultLogFile is the rotated file name under the logs directory.
const DefaultLogFile = identity.AppSlug + ".log"

type InitOptions struct {
	App     string
	Version string
	Mode    Mode
}

// Init installs the default slog logger and returns a close func for the
// underlying sink.
func Init(ctx context.Context, cfg Config, opts InitOptions) (func() error, error) {
	if opts.App == "" {
		opts.App = identity.AppSlug
	}
	if opts.Mode == 0 {
		opts.Mode = ModeLauncher
	}

	normalized, err := DefaultConfig(opts.Mode).Merge(cfg).WithEnv().Normalize()
	if err != nil {
		return nil, err
	}
	logger, closeFn, err := buildLogger(ctx, normalized, opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	setIncludePayloads(normalized.IncludePayloads != nil && *normalized.IncludePayloads)
	return closeFn, nil
}

func buildLogger(_ context.Context, cfg Config, opts InitOptions) (*slog.Logger, func() error, error) {
	sink := SinkStderr
	if cfg.Sink != nil {
		sink = Sink(*cfg.Sink)
	}
	writer, closeFn, err := resolveWriter(cfg, sink)
	if err != nil {
		return nil, nil, err
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource != nil && *cfg.AddSource,
	}
	var handler slog.Handler
	if cfg.Format != nil && Format(*cfg.Format) == FormatJSON {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(writer, handlerOpts)
	}
	logger := slog.New(handler).With(
		slog.String("app", opts.App),
		slog.String("version", opts.Version),
		slog.String("mode", opts.Mode.String()),
		slog.Int("pid", os.Getpid()),
	)
	return logger, closeFn, nil
}

func parseLevel(value *string) slog.Leveler {
	if value == nil {
		return slog.LevelInfo
	}
	switch strings.ToLower(strings.TrimSpace(*value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func resolveWriter(cfg Config, sink Sink) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch sink {
	case SinkNone:
		return io.Discard, noop, nil
	case SinkStderr:
		return os.Stderr, noop, nil
	case SinkFile:
		path := ""
		if cfg.File != nil {
			path = strings.TrimSpace(*cfg.File)
		}
		if path == "" {
			dir, err := appdirs.LogsDir()
			if err != nil {
				return nil, nil, fmt.Errorf("logging: resolve logs dir: %w", err)
			}
			path = filepath.Join(dir, DefaultLogFile)
		} else if _, err := appdirs.EnsureDir(filepath.Dir(path), true); err != nil {
			return nil, nil, fmt.Errorf("logging: %w", err)
		}
		rot := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    derefInt(cfg.MaxSizeMB, 20),
			MaxBackups: derefInt(cfg.MaxBackups, 5),
			MaxAge:     derefInt(cfg.MaxAgeDays, 7),
			Compress:   cfg.Compress == nil || *cfg.Compress,
		}
		return rot, rot.Close, nil
	default:
		return nil, nil, fmt.Errorf("logging: unknown sink %q", sink)
	}
}

func derefInt(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
