//go:build windows

package workspace

// DetectKind picks RemoteWSL for folders opened from inside a WSL session.
func DetectKind() Kind {
	if InWSL() {
		return RemoteWSL("")
	}
	return Local()
}
