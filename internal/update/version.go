package update

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var goInstallRegexp = regexp.MustCompile(`^v?\d+\.\d+\.\d+-\d+\.\d{14}-[0-9a-f]{12}$`)

// NormalizeVersion trims whitespace and a leading "v".
func NormalizeVersion(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimPrefix(trimmed, "v")
}

// IsDevelopmentVersion reports whether raw is a local or pseudo build that
// should never be compared against releases.
func IsDevelopmentVersion(raw string) bool {
	value := strings.TrimSpace(raw)
	if value == "" {
		return true
	}
	switch lower := strings.ToLower(value); {
	case lower == "dev", lower == "devel", lower == "unknown", lower == "nightly":
		return true
	case strings.Contains(lower, "dirty"):
		return true
	}
	return goInstallRegexp.MatchString(value)
}

func parseSemver(raw string) (*semver.Version, error) {
	normalized := NormalizeVersion(raw)
	if normalized == "" {
		return nil, semver.ErrInvalidSemVer
	}
	return semver.NewVersion(normalized)
}

// CompareVersions returns -1, 0 or 1 as current is older, equal or newer
// than latest.
func CompareVersions(current, latest string) (int, error) {
	cur, err := parseSemver(current)
	if err != nil {
		return 0, err
	}
	lat, err := parseSemver(latest)
	if err != nil {
		return 0, err
	}
	return cur.Compare(lat), nil
}

// IsNewer reports whether latest is a strictly newer release than current.
// Unparseable versions are never newer.
func IsNewer(current, latest string) bool {
	cmp, err := CompareVersions(current, latest)
	return err == nil && cmp < 0
}
