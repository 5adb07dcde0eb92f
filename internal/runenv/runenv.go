package runenv

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	RuntimeDirEnv     = "SPLITDESK_RUNTIME_DIR"
	DataDirEnv        = "SPLITDESK_DATA_DIR"
	ConfigDirEnv      = "SPLITDESK_CONFIG_DIR"
	FreshConfigEnv    = "SPLITDESK_FRESH_CONFIG"
	HandoffTimeoutEnv = "SPLITDESK_HANDOFF_TIMEOUT"
	SocketPathEnv     = "SPLITDESK_SOCKET"
	// ShellEnvEnv carries the launcher's "load" or "skip" decision to the
	// --wait process, whose stdin is never the user's terminal.
	ShellEnvEnv = "SPLITDESK_SHELL_ENV"
)

// DefaultHandoffTimeout bounds the wait for the running instance's ack.
const DefaultHandoffTimeout = 500 * time.Millisecond

func enabledEnv(name string) bool {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return false
	}
	switch strings.ToLower(value) {
	case "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

func FreshConfigEnabled() bool {
	return enabledEnv(FreshConfigEnv)
}

func ConfigDir() string {
	return strings.TrimSpace(os.Getenv(ConfigDirEnv))
}

func RuntimeDir() string {
	return strings.TrimSpace(os.Getenv(RuntimeDirEnv))
}

func DataDir() string {
	return strings.TrimSpace(os.Getenv(DataDirEnv))
}

func ShellEnv() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(ShellEnvEnv)))
}

func SocketPath() string {
	return strings.TrimSpace(os.Getenv(SocketPathEnv))
}

// HandoffTimeout accepts a Go duration ("750ms") or a bare millisecond count.
func HandoffTimeout() time.Duration {
	raw := strings.TrimSpace(os.Getenv(HandoffTimeoutEnv))
	if raw == "" {
		return DefaultHandoffTimeout
	}
	if d, err := time.ParseDuration(raw); err == nil {
		if d <= 0 {
			return DefaultHandoffTimeout
		}
		return d
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return DefaultHandoffTimeout
	}
	return time.Duration(ms) * time.Millisecond
}
