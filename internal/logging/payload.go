package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// payloadInspectLimit caps how much of a frame is hashed for redaction.
const payloadInspectLimit = 4096

var includePayloads atomic.Bool

func setIncludePayloads(v bool) {
	includePayloads.Store(v)
}

func IncludePayloads() bool {
	return includePayloads.Load()
}

// PayloadAttr returns a loggable attribute for raw wire bytes. Unless
// include_payloads is set only the length and a hash prefix are emitted,
// since open requests carry user file paths.
func PayloadAttr(key string, payload []byte) slog.Attr {
	if key == "" {
		key = "payload"
	}
	if len(payload) == 0 {
		return slog.String(key, `""`)
	}
	if !IncludePayloads() {
		return slog.String(key, redactedPayloadString(payload))
	}
	const preview = 256
	if len(payload) <= preview {
		return slog.String(key, fmt.Sprintf("%q", payload))
	}
	return slog.String(key, fmt.Sprintf("%q...(+%d bytes)", payload[:preview], len(payload)-preview))
}

func redactedPayloadString(payload []byte) string {
	data := payload
	if len(data) > payloadInspectLimit {
		data = data[:payloadInspectLimit]
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("redacted(len=%d sha256_prefix=%s prefix_len=%d)", len(payload), hex.EncodeToString(sum[:6]), len(data))
}
