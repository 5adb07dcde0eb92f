package instance

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/regenrek/splitdesk/internal/pathspec"
)

// State is where a launch ended up.
type State uint8

const (
	StateUnknown State = iota
	StateProbing
	StateHandedOff
	StateRunningAsServer
)

func (s State) String() string {
	switch s {
	case StateProbing:
		return "probing"
	case StateHandedOff:
		return "handed_off"
	case StateRunningAsServer:
		return "running_as_server"
	default:
		return "unknown"
	}
}

// Coordinator decides whether this process hands its paths to a running
// instance or becomes the instance itself.
type Coordinator struct {
	SocketPath string
	Timeout    time.Duration
	QueueSize  int

	state State
	dial  func(ctx context.Context, path string) (net.Conn, error)
}

func (c *Coordinator) State() State {
	return c.state
}

// Launch looks for a running instance unless forceNew is set. When one
// answers, paths are handed over and the returned state is StateHandedOff;
// the caller exits without opening a window. A handshake that fails after
// connecting also ends in StateHandedOff with a non-nil error, so a second
// instance is never started behind a live but slow one. When nothing answers
// the server is bound and returned with StateRunningAsServer. A dial error
// that is not a connection error leaves the socket alone and returns
// StateUnknown.
func (c *Coordinator) Launch(ctx context.Context, paths []pathspec.Object, forceNew bool) (*Server, State, error) {
	if !forceNew {
		c.state = StateProbing
		dial := c.dial
		if dial == nil {
			dial = Dial
		}
		conn, err := dial(ctx, c.SocketPath)
		if err == nil {
			defer conn.Close()
			err := Send(ctx, conn, NewOpenPaths(paths), c.Timeout)
			c.state = StateHandedOff
			if err != nil {
				slog.Error("instance: handoff failed", slog.String("socket", c.SocketPath), slog.Any("err", err))
				return nil, c.state, err
			}
			slog.Info("instance: handed off", slog.Int("paths", len(paths)))
			return nil, c.state, nil
		}
		if !IsConnectionError(err) {
			c.state = StateUnknown
			return nil, c.state, err
		}
		slog.Debug("instance: no running instance", slog.Any("err", err))
	}
	srv, err := Listen(c.SocketPath, c.QueueSize)
	if err != nil {
		c.state = StateUnknown
		return nil, c.state, err
	}
	c.state = StateRunningAsServer
	return srv, c.state, nil
}
