package instance

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/regenrek/splitdesk/internal/pathspec"
)

// MethodOpenPaths is the only notification the server accepts.
const MethodOpenPaths = "open_paths"

// Ack is written back after each dispatched notification.
const Ack = "received"

// MaxFrameSize bounds a single frame body.
const MaxFrameSize = 8 << 20

var ErrFrameTooLarge = errors.New("instance: frame too large")

// OpenPaths asks the running instance to open paths.
type OpenPaths struct {
	Paths []pathspec.Object `json:"paths"`
}

// Notification is the framed message body.
type Notification struct {
	Method string    `json:"method"`
	Params OpenPaths `json:"params"`
}

func NewOpenPaths(paths []pathspec.Object) Notification {
	if paths == nil {
		paths = []pathspec.Object{}
	}
	return Notification{Method: MethodOpenPaths, Params: OpenPaths{Paths: paths}}
}

// writeFrame writes a 4-byte big-endian length followed by body.
func writeFrame(w io.Writer, body []byte) error {
	if len(body) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(body))
	}
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[4:], body)
	_, err := w.Write(buf)
	return err
}

// readFrame returns io.EOF only when the peer closed between frames.
func readFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return body, nil
}

func WriteNotification(w io.Writer, msg Notification) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("instance: encode notification: %w", err)
	}
	return writeFrame(w, body)
}

// ReadNotification reads one frame. A decode error carries the raw body so
// the caller can log it.
func ReadNotification(r io.Reader) (Notification, []byte, error) {
	body, err := readFrame(r)
	if err != nil {
		return Notification{}, nil, err
	}
	var msg Notification
	if err := json.Unmarshal(body, &msg); err != nil {
		return Notification{}, body, fmt.Errorf("instance: decode notification: %w", err)
	}
	if msg.Method != MethodOpenPaths {
		return Notification{}, body, fmt.Errorf("instance: unknown method %q", msg.Method)
	}
	return msg, body, nil
}
