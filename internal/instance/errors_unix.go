//go:build !windows

package instance

import "syscall"

var connErrnos = []syscall.Errno{syscall.ECONNREFUSED, syscall.ENOENT, syscall.ECONNRESET, syscall.EPIPE}
