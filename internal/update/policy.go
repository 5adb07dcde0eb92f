package update

import "time"

const (
	DefaultCheckInterval = time.Hour
	MinCheckInterval     = time.Minute
)

// Policy decides when the background check runs.
type Policy struct {
	CheckInterval time.Duration
}

func DefaultPolicy() Policy {
	return Policy{CheckInterval: DefaultCheckInterval}
}

func (p Policy) interval() time.Duration {
	switch {
	case p.CheckInterval <= 0:
		return DefaultCheckInterval
	case p.CheckInterval < MinCheckInterval:
		return MinCheckInterval
	default:
		return p.CheckInterval
	}
}

// ShouldCheck reports whether a periodic update check should run.
func (p Policy) ShouldCheck(lastCheckUnixMs int64, now time.Time) bool {
	if lastCheckUnixMs <= 0 {
		return true
	}
	return now.Sub(time.UnixMilli(lastCheckUnixMs)) >= p.interval()
}

// NextCheck returns how long to wait before the next check.
func (p Policy) NextCheck(lastCheckUnixMs int64, now time.Time) time.Duration {
	if p.ShouldCheck(lastCheckUnixMs, now) {
		return 0
	}
	return p.interval() - now.Sub(time.UnixMilli(lastCheckUnixMs))
}
