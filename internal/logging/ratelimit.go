package logging

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

var (
	logEveryMu      sync.Mutex
	logEveryLast    = map[string]time.Time{}
	maxLogEveryKeys = 1024
)

// LogEvery emits a log entry at most once per interval for a key. Used for
// warnings that a misbehaving peer could otherwise trigger in a tight loop.
func LogEvery(ctx context.Context, key string, interval time.Duration, level slog.Level, msg string, attrs ...slog.Attr) {
	if !slog.Default().Enabled(ctx, level) {
		return
	}
	if key != "" && interval > 0 && !claimLogEvery(key, interval, time.Now()) {
		return
	}
	slog.LogAttrs(ctx, level, msg, attrs...)
}

func claimLogEvery(key string, interval time.Duration, now time.Time) bool {
	logEveryMu.Lock()
	defer logEveryMu.Unlock()
	if last, ok := logEveryLast[key]; ok && now.Sub(last) < interval {
		return false
	}
	logEveryLast[key] = now
	if len(logEveryLast) > maxLogEveryKeys {
		pruneLogEvery()
	}
	return true
}

func pruneLogEvery() {
	keys := make([]string, 0, len(logEveryLast))
	for key := range logEveryLast {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return logEveryLast[keys[i]].Before(logEveryLast[keys[j]])
	})
	for _, key := range keys[:len(keys)-maxLogEveryKeys] {
		delete(logEveryLast, key)
	}
}
