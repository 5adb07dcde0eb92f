package instance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/regenrek/splitdesk/internal/runenv"
)

const dialTimeout = 2 * time.Second

// Dial connects to a running instance.
func Dial(ctx context.Context, path string) (net.Conn, error) {
	if path == "" {
		return nil, ErrNoSocketPath
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("instance: dial %s: %w", path, err)
	}
	return conn, nil
}

// Send writes msg and waits up to timeout for the ack. The timeout is the
// only bound on the wait; ctx cancels it early.
func Send(ctx context.Context, conn net.Conn, msg Notification, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = runenv.DefaultHandoffTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("instance: set deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := WriteNotification(conn, msg); err != nil {
		return classify(ctx, fmt.Errorf("instance: send: %w", err))
	}
	buf := make([]byte, len(Ack))
	if _, err := io.ReadFull(conn, buf); err != nil {
		return classify(ctx, fmt.Errorf("instance: read ack: %w", err))
	}
	if string(buf) != Ack {
		return fmt.Errorf("%w: %q", ErrBadAck, buf)
	}
	return nil
}

func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrAckTimeout, err)
	}
	return err
}
