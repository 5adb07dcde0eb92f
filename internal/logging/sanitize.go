package logging

import (
	"regexp"
	"strings"
)

var (
	sensitiveFlagPattern = regexp.MustCompile(`(?i)(--(?:token|access-token|api-key|apikey|secret|password|passwd|auth|cookie|session))(=|\s+)(\S+)`)
	sensitiveEnvPattern  = regexp.MustCompile(`(?i)\b([A-Z0-9_]*?(?:TOKEN|SECRET|PASSWORD|PASS|API_KEY|APIKEY|AUTH|COOKIE|SESSION)[A-Z0-9_]*)=([^\s]+)`)
)

// SanitizeCommand redacts credentials from a shell command line before it is
// logged.
func SanitizeCommand(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = sensitiveFlagPattern.ReplaceAllString(value, "$1$2<redacted>")
	return sensitiveEnvPattern.ReplaceAllString(value, "$1=<redacted>")
}

// SensitiveEnvKey reports whether an environment variable name looks like it
// holds a credential, so its value must not be logged.
func SensitiveEnvKey(key string) bool {
	return sensitiveEnvPattern.MatchString(key + "=x")
}
