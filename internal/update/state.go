package update

import "time"

// State is the update metadata kept between runs.
type State struct {
	CurrentVersion  string `json:"current_version"`
	LatestVersion   string `json:"latest_version,omitempty"`
	ReleaseURL      string `json:"release_url,omitempty"`
	LastCheckUnixMs int64  `json:"last_check_unix_ms,omitempty"`
}

// UpdateAvailable reports whether a newer version exists.
func (s State) UpdateAvailable() bool {
	if IsDevelopmentVersion(s.CurrentVersion) {
		return false
	}
	return IsNewer(s.CurrentVersion, s.LatestVersion)
}

func (s *State) MarkChecked(now time.Time) {
	if s == nil {
		return
	}
	s.LastCheckUnixMs = now.UnixMilli()
}

// Record stores rel as the latest known release.
func (s *State) Record(rel Release) {
	if s == nil {
		return
	}
	s.LatestVersion = rel.Version()
	s.ReleaseURL = rel.URL
}
