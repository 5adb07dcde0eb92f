//go:build !windows

package workspace

func DetectKind() Kind {
	return Local()
}
