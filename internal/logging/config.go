package logging

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type Sink string

const (
	SinkStderr Sink = "stderr"
	SinkFile   Sink = "file"
	SinkNone   Sink = "none"
)

const (
	EnvLogLevel           = "SPLITDESK_LOG_LEVEL"
	EnvLogFormat          = "SPLITDESK_LOG_FORMAT"
	EnvLogSink            = "SPLITDESK_LOG_SINK"
	EnvLogFile            = "SPLITDESK_LOG_FILE"
	EnvLogAddSource       = "SPLITDESK_LOG_ADD_SOURCE"
	EnvLogIncludePayloads = "SPLITDESK_LOG_INCLUDE_PAYLOADS"
	EnvLogMaxSizeMB       = "SPLITDESK_LOG_MAX_SIZE_MB"
	EnvLogMaxBackups      = "SPLITDESK_LOG_MAX_BACKUPS"
	EnvLogMaxAgeDays      = "SPLITDESK_LOG_MAX_AGE_DAYS"
	EnvLogCompress        = "SPLITDESK_LOG_COMPRESS"
)

// Config is the logging section of config.yml. Nil fields fall back to the
// mode defaults.
type Config struct {
	Level           *string `yaml:"level,omitempty"`
	Format          *string `yaml:"format,omitempty"`
	Sink            *string `yaml:"sink,omitempty"`
	File            *string `yaml:"file,omitempty"`
	AddSource       *bool   `yaml:"add_source,omitempty"`
	IncludePayloads *bool   `yaml:"include_payloads,omitempty"`

	MaxSizeMB  *int  `yaml:"max_size_mb,omitempty"`
	MaxBackups *int  `yaml:"max_backups,omitempty"`
	MaxAgeDays *int  `yaml:"max_age_days,omitempty"`
	Compress   *bool `yaml:"compress,omitempty"`
}

func DefaultConfig(mode Mode) Config {
	level := "error"
	sink := string(SinkStderr)
	format := string(FormatText)
	if mode == ModeApp {
		level = "info"
		sink = string(SinkFile)
		format = string(FormatJSON)
	}
	return Config{
		Level:           &level,
		Format:          &format,
		Sink:            &sink,
		AddSource:       boolPtr(false),
		IncludePayloads: boolPtr(false),
		MaxSizeMB:       intPtr(20),
		MaxBackups:      intPtr(5),
		MaxAgeDays:      intPtr(7),
		Compress:        boolPtr(true),
	}
}

// Merge overlays the non-nil fields of override onto c.
func (c Config) Merge(override Config) Config {
	pick := func(dst **string, src *string) {
		if src != nil {
			*dst = src
		}
	}
	pickBool := func(dst **bool, src *bool) {
		if src != nil {
			*dst = src
		}
	}
	pickInt := func(dst **int, src *int) {
		if src != nil {
			*dst = src
		}
	}
	pick(&c.Level, override.Level)
	pick(&c.Format, override.Format)
	pick(&c.Sink, override.Sink)
	pick(&c.File, override.File)
	pickBool(&c.AddSource, override.AddSource)
	pickBool(&c.IncludePayloads, override.IncludePayloads)
	pickInt(&c.MaxSizeMB, override.MaxSizeMB)
	pickInt(&c.MaxBackups, override.MaxBackups)
	pickInt(&c.MaxAgeDays, override.MaxAgeDays)
	pickBool(&c.Compress, override.Compress)
	return c
}

// WithEnv applies SPLITDESK_LOG_* overrides. Unparseable numbers are ignored.
func (c Config) WithEnv() Config {
	for env, dst := range map[string]**string{
		EnvLogLevel:  &c.Level,
		EnvLogFormat: &c.Format,
		EnvLogSink:   &c.Sink,
		EnvLogFile:   &c.File,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = &v
		}
	}
	for env, dst := range map[string]**bool{
		EnvLogAddSource:       &c.AddSource,
		EnvLogIncludePayloads: &c.IncludePayloads,
		EnvLogCompress:        &c.Compress,
	} {
		if raw := strings.TrimSpace(os.Getenv(env)); raw != "" {
			*dst = boolPtr(!isDisabledString(raw))
		}
	}
	for env, dst := range map[string]**int{
		EnvLogMaxSizeMB:  &c.MaxSizeMB,
		EnvLogMaxBackups: &c.MaxBackups,
		EnvLogMaxAgeDays: &c.MaxAgeDays,
	} {
		raw := strings.TrimSpace(os.Getenv(env))
		if raw == "" {
			continue
		}
		if n, err := strconv.Atoi(raw); err == nil {
			*dst = &n
		}
	}
	return c
}

func (c Config) Normalize() (Config, error) {
	lower := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.ToLower(strings.TrimSpace(*s))
		if v == "" {
			return nil
		}
		return &v
	}
	c.Level = lower(c.Level)
	c.Format = lower(c.Format)
	c.Sink = lower(c.Sink)
	if c.File != nil {
		if v := strings.TrimSpace(*c.File); v == "" {
			c.File = nil
		} else {
			c.File = &v
		}
	}
	for _, n := range []*int{c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays} {
		if n != nil && *n < 0 {
			*n = 0
		}
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.Level != nil {
		switch *c.Level {
		case "debug", "info", "warn", "warning", "error":
		default:
			return fmt.Errorf("logging.level: invalid %q", *c.Level)
		}
	}
	if c.Format != nil {
		switch Format(*c.Format) {
		case FormatText, FormatJSON:
		default:
			return fmt.Errorf("logging.format: invalid %q", *c.Format)
		}
	}
	if c.Sink != nil {
		switch Sink(*c.Sink) {
		case SinkStderr, SinkFile, SinkNone:
		default:
			return fmt.Errorf("logging.sink: invalid %q", *c.Sink)
		}
	}
	return nil
}

func isDisabledString(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "0", "false", "no", "off":
		return true
	default:
		return false
	}
}

func boolPtr(v bool) *bool { return &v }

func intPtr(v int) *int { return &v }
