package instance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/regenrek/splitdesk/internal/logging"
)

const (
	// DefaultQueueSize bounds requests waiting for the UI loop.
	DefaultQueueSize = 16

	ackWriteTimeout = 2 * time.Second
	queueFullLogGap = 10 * time.Second
)

// Server accepts open requests from later launches and queues them for the
// UI goroutine.
type Server struct {
	path     string
	listener net.Listener
	requests chan OpenPaths

	closing atomic.Bool
	wg      sync.WaitGroup

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
}

// Listen removes any stale socket at path, binds it and starts accepting.
func Listen(path string, queueSize int) (*Server, error) {
	if path == "" {
		return nil, ErrNoSocketPath
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("instance: create socket dir: %w", err)
	}
	if err := removeStaleSocket(path); err != nil {
		return nil, err
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("instance: listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o700); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("instance: chmod socket: %w", err)
	}
	s := &Server{
		path:     path,
		listener: listener,
		requests: make(chan OpenPaths, queueSize),
		conns:    make(map[net.Conn]struct{}),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	slog.Info("instance: listening", slog.String("socket", path))
	return s, nil
}

func (s *Server) Path() string {
	return s.path
}

// Requests delivers parsed open requests. It is closed by Close.
func (s *Server) Requests() <-chan OpenPaths {
	return s.requests
}

// Close stops accepting, drops open connections, waits for the handlers and
// removes the socket.
func (s *Server) Close() error {
	if s == nil || s.closing.Swap(true) {
		return nil
	}
	err := s.listener.Close()
	s.connsMu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.connsMu.Unlock()
	s.wg.Wait()
	close(s.requests)
	_ = os.Remove(s.path)
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closing.Load() {
				return
			}
			slog.Warn("instance: accept failed", slog.Any("err", err))
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		if !s.track(conn) {
			_ = conn.Close()
			return
		}
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	if s.closing.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
	_ = conn.Close()
}

// handle reads frames until EOF. Each dispatched request is acked; a
// malformed frame or a full queue drops the connection without an ack.
func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	for {
		msg, raw, err := ReadNotification(conn)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
			case s.closing.Load() || errors.Is(err, net.ErrClosed):
			case raw != nil:
				slog.Warn("instance: malformed request", slog.Any("err", err), logging.PayloadAttr("payload", raw))
			default:
				slog.Warn("instance: read request failed", slog.Any("err", err))
			}
			return
		}
		if err := s.enqueue(msg.Params); err != nil {
			logging.LogEvery(context.Background(), "instance.queue_full", queueFullLogGap, slog.LevelWarn,
				"instance: dropping open request", slog.Any("err", err), slog.Int("paths", len(msg.Params.Paths)))
			return
		}
		if err := conn.SetWriteDeadline(time.Now().Add(ackWriteTimeout)); err != nil {
			return
		}
		if _, err := io.WriteString(conn, Ack); err != nil {
			slog.Warn("instance: write ack failed", slog.Any("err", err))
			return
		}
	}
}

func (s *Server) enqueue(req OpenPaths) error {
	if s.closing.Load() {
		return ErrServerClosed
	}
	select {
	case s.requests <- req:
		return nil
	default:
		return ErrQueueFull
	}
}

func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("instance: stat socket: %w", err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("instance: %s exists and is not a socket", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("instance: remove stale socket: %w", err)
	}
	return nil
}
