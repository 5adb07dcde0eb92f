package instance

import (
	"errors"
	"io"
	"net"
	"os"
)

var (
	ErrAckTimeout   = errors.New("instance: ack timed out")
	ErrBadAck       = errors.New("instance: unexpected ack")
	ErrServerClosed = errors.New("instance: server closed")
	ErrQueueFull    = errors.New("instance: request queue full")
	ErrNoSocketPath = errors.New("instance: socket path is required")
)

// IsConnectionError reports whether err means no instance is listening on
// the socket or the peer went away. Errors such as a permission failure are
// not connection errors: something is there that this process cannot reach.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		return true
	}
	for _, errno := range connErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return os.IsNotExist(err)
}
