//go:build windows

package instance

import (
	"syscall"

	"golang.org/x/sys/windows"
)

var connErrnos = []syscall.Errno{
	windows.WSAECONNREFUSED,
	windows.WSAECONNRESET,
	windows.ERROR_FILE_NOT_FOUND,
	windows.ERROR_PATH_NOT_FOUND,
	syscall.EPIPE,
}
