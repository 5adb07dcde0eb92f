// Package workspace describes the folder a workspace tab is rooted at.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/regenrek/splitdesk/internal/userpath"
)

// DefaultTitle is shown for a workspace tab without a folder.
const DefaultTitle = "New Tab"

type KindType string

const (
	KindLocal     KindType = "local"
	KindRemoteSSH KindType = "remote_ssh"
	KindRemoteWSL KindType = "remote_wsl"
)

// Kind says where the workspace lives. Host is empty for local workspaces
// and for the default WSL distribution.
type Kind struct {
	Type KindType `json:"type"`
	Host string   `json:"host,omitempty"`
}

func Local() Kind                { return Kind{Type: KindLocal} }
func RemoteSSH(host string) Kind { return Kind{Type: KindRemoteSSH, Host: host} }
func RemoteWSL(host string) Kind { return Kind{Type: KindRemoteWSL, Host: host} }

func (k Kind) IsRemote() bool {
	return k.Type == KindRemoteSSH || k.Type == KindRemoteWSL
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	type plain Kind
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("workspace: kind: %w", err)
	}
	switch v.Type {
	case "":
		v.Type = KindLocal
	case KindLocal, KindRemoteSSH, KindRemoteWSL:
	default:
		return fmt.Errorf("workspace: unknown kind %q", v.Type)
	}
	*k = Kind(v)
	return nil
}

// Descriptor is the persisted form of a workspace.
type Descriptor struct {
	Kind     Kind    `json:"kind"`
	Path     *string `json:"path,omitempty"`
	LastOpen int64   `json:"last_open"`
}

// Default is a local workspace with no folder.
func Default() Descriptor {
	return Descriptor{Kind: Local()}
}

// ForDir builds a local descriptor for dir, or a WSL one when running
// under WSL interop on windows.
func ForDir(dir string) Descriptor {
	path := NormalizePath(dir)
	return Descriptor{Kind: DetectKind(), Path: &path}
}

func (d Descriptor) HasPath() bool {
	return d.Path != nil && *d.Path != ""
}

// Title is the folder's base name plus a remote suffix.
func (d Descriptor) Title() string {
	if !d.HasPath() {
		return DefaultTitle
	}
	name := filepath.Base(*d.Path)
	if name == "." || name == string(filepath.Separator) {
		name = *d.Path
	}
	switch d.Kind.Type {
	case KindRemoteSSH:
		return fmt.Sprintf("%s [SSH: %s]", name, d.Kind.Host)
	case KindRemoteWSL:
		return fmt.Sprintf("%s [WSL: %s]", name, d.Kind.Host)
	default:
		return name
	}
}

// Touch stamps LastOpen with now.
func (d *Descriptor) Touch(now time.Time) {
	d.LastOpen = now.Unix()
}

// Equal compares kind and path, ignoring LastOpen.
func (d Descriptor) Equal(other Descriptor) bool {
	if d.Kind != other.Kind || d.HasPath() != other.HasPath() {
		return false
	}
	return !d.HasPath() || *d.Path == *other.Path
}

// NormalizePath expands ~ and makes path absolute and clean.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	path = filepath.Clean(userpath.Expand(path))
	if filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

var lookupEnv = os.Getenv

// InWSL reports whether WSL interop variables are present.
func InWSL() bool {
	return strings.TrimSpace(lookupEnv("WSL_DISTRO_NAME")) != "" ||
		strings.TrimSpace(lookupEnv("WSL_INTEROP")) != ""
}
