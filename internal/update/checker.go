package update

import (
	"context"
	"log/slog"
	"time"
)

// Checker polls a release source in the background and reports releases
// newer than the running build.
type Checker struct {
	Source  ReleaseSource
	Store   Store
	Current string
	Policy  Policy
	Now     func() time.Time
}

func (c *Checker) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// CheckOnce fetches the latest release and records it. newer is true when
// it is ahead of Current.
func (c *Checker) CheckOnce(ctx context.Context, state *State) (rel Release, newer bool, err error) {
	rel, err = c.Source.LatestRelease(ctx)
	state.MarkChecked(c.now())
	if err != nil {
		return Release{}, false, err
	}
	state.CurrentVersion = c.Current
	state.Record(rel)
	return rel, IsNewer(c.Current, rel.Version()), nil
}

// Run checks immediately when due and then once per interval until ctx is
// done. Development builds never check.
func (c *Checker) Run(ctx context.Context, out chan<- Release) {
	if IsDevelopmentVersion(c.Current) {
		slog.Debug("update: development build, skipping checks", slog.String("version", c.Current))
		return
	}
	state := c.load(ctx)
	timer := time.NewTimer(c.Policy.NextCheck(state.LastCheckUnixMs, c.now()))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		rel, newer, err := c.CheckOnce(ctx, &state)
		if err != nil {
			slog.Warn("update: check failed", slog.Any("err", err))
		} else if newer {
			slog.Info("update: newer release available", slog.String("current", c.Current), slog.String("latest", rel.Version()))
			select {
			case out <- rel:
			case <-ctx.Done():
				return
			}
		}
		c.save(ctx, state)
		timer.Reset(c.Policy.interval())
	}
}

func (c *Checker) load(ctx context.Context) State {
	if c.Store == nil {
		return State{CurrentVersion: c.Current}
	}
	state, err := c.Store.Load(ctx)
	if err != nil {
		slog.Warn("update: load state failed", slog.Any("err", err))
		return State{CurrentVersion: c.Current}
	}
	if NormalizeVersion(state.CurrentVersion) != NormalizeVersion(c.Current) {
		state = State{CurrentVersion: c.Current}
	}
	return state
}

func (c *Checker) save(ctx context.Context, state State) {
	if c.Store == nil {
		return
	}
	if err := c.Store.Save(ctx, state); err != nil && ctx.Err() == nil {
		slog.Warn("update: save state failed", slog.Any("err", err))
	}
}
