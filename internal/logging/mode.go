package logging

import "strings"

// Mode picks the default sink/level pair for a process role.
type Mode uint8

const (
	// ModeLauncher is the short-lived first invocation that only re-execs or
	// hands paths off.
	ModeLauncher Mode = iota + 1
	// ModeApp is the long-running --wait process that owns the windows.
	ModeApp
)

// ModeFromArgs returns ModeApp when the internal --wait marker is present.
func ModeFromArgs(args []string) Mode {
	for _, arg := range args[min(1, len(args)):] {
		arg = strings.TrimSpace(arg)
		if arg == "--" {
			break
		}
		if arg == "--wait" || arg == "-wait" {
			return ModeApp
		}
	}
	return ModeLauncher
}

func (m Mode) String() string {
	switch m {
	case ModeApp:
		return "app"
	default:
		return "launcher"
	}
}
