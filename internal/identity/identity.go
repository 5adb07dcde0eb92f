package identity

import (
	"path/filepath"
	"strings"
)

const (
	BrandName = "Splitdesk"
	// AppSlug names the on-disk state directories and the local channel.
	AppSlug = "splitdesk"
	CLIName = "splitdesk"

	GlobalConfigFile = "config.yml"
	SessionDirName   = "session"
	LogsDirName      = "logs"
	ThemesDirName    = "themes"
	PluginsDirName   = "plugins"
	KeymapsFile      = "keymaps.yml"
	SocketFileName   = "local.sock"
)

// DefaultWindowTitle is used for windows whose workspace has no path.
const DefaultWindowTitle = BrandName

// ResolveBinaryName returns the name the binary was invoked as, falling back
// to CLIName when argv is empty.
func ResolveBinaryName(args []string) string {
	if len(args) == 0 {
		return CLIName
	}
	base := strings.TrimSpace(filepath.Base(args[0]))
	base = strings.TrimSuffix(base, ".exe")
	if base == "" || base == "." || base == string(filepath.Separator) {
		return CLIName
	}
	return base
}
