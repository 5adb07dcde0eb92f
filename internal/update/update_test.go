package update

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestCompareVersions(t *testing.T) {
	cmp, err := CompareVersions("1.2.3", "1.2.4")
	if err != nil {
		t.Fatalf("CompareVersions error: %v", err)
	}
	if cmp >= 0 {
		t.Fatalf("expected current < latest")
	}

	cmp, err = CompareVersions("v1.2.3", "1.2.3")
	if err != nil {
		t.Fatalf("CompareVersions error: %v", err)
	}
	if cmp != 0 {
		t.Fatalf("expected versions equal")
	}
	if IsNewer("1.2.3", "garbage") || !IsNewer("0.9.0", "v1.0.0") {
		t.Fatalf("IsNewer mismatch")
	}
}

func TestIsDevelopmentVersion(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"dev", true},
		{"unknown", true},
		{"nightly", true},
		{"1.2.3-dirty", true},
		{"v0.1.0-0.20251231235959-06c807842604", true},
		{"1.2.3", false},
	}
	for _, c := range cases {
		if got := IsDevelopmentVersion(c.value); got != c.want {
			t.Fatalf("IsDevelopmentVersion(%q) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestStateUpdateAvailable(t *testing.T) {
	state := State{CurrentVersion: "1.0.0"}
	state.Record(Release{TagName: "v1.1.0", URL: "https://example.invalid/r"})
	if !state.UpdateAvailable() || state.ReleaseURL == "" {
		t.Fatalf("expected update available: %#v", state)
	}
	state.CurrentVersion = "dev"
	if state.UpdateAvailable() {
		t.Fatalf("dev builds never have updates")
	}
}

func TestPolicyNextCheck(t *testing.T) {
	now := time.Now()
	policy := DefaultPolicy()
	if !policy.ShouldCheck(0, now) || policy.NextCheck(0, now) != 0 {
		t.Fatalf("first check should run immediately")
	}
	last := now.Add(-20 * time.Minute).UnixMilli()
	if policy.ShouldCheck(last, now) {
		t.Fatalf("expected check to wait")
	}
	if got := policy.NextCheck(last, now); got < 39*time.Minute || got > 41*time.Minute {
		t.Fatalf("NextCheck() = %v", got)
	}
	if got := (Policy{CheckInterval: time.Second}).interval(); got != MinCheckInterval {
		t.Fatalf("interval floor = %v", got)
	}
}

func TestFileStoreSaveLoad(t *testing.T) {
	dir := t.TempDir()
	store := FileStore{Path: filepath.Join(dir, "nested", "update-state.json")}
	state := State{
		CurrentVersion:  "1.0.0",
		LatestVersion:   "1.2.0",
		LastCheckUnixMs: 456,
	}
	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded != state {
		t.Fatalf("loaded state mismatch: %#v", loaded)
	}
	if _, err := (FileStore{}).Load(context.Background()); !errors.Is(err, ErrStateDisabled) {
		t.Fatalf("expected ErrStateDisabled, got %v", err)
	}
	if err := (FileStore{Path: "relative.json"}).Save(context.Background(), state); err == nil {
		t.Fatalf("expected relative path to be rejected")
	}
}

func TestDefaultStatePathUsesDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SPLITDESK_DATA_DIR", dir)
	path, err := DefaultStatePath()
	if err != nil {
		t.Fatalf("DefaultStatePath() error: %v", err)
	}
	if path != filepath.Join(dir, stateFileName) {
		t.Fatalf("path = %q", path)
	}
}

func feedServer(t *testing.T, body string, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing user agent")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestFeedClientLatestRelease(t *testing.T) {
	srv, _ := feedServer(t, `{"tag_name":"v2.0.0","html_url":"https://example.invalid/v2","assets":[{"name":"splitdesk.tar.gz","browser_download_url":"https://example.invalid/a"}]}`, http.StatusOK)
	rel, err := NewFeedClient(srv.URL).LatestRelease(context.Background())
	if err != nil {
		t.Fatalf("LatestRelease() error: %v", err)
	}
	if rel.Version() != "2.0.0" || len(rel.Assets) != 1 {
		t.Fatalf("release = %#v", rel)
	}
}

func TestFeedClientErrors(t *testing.T) {
	srv, hits := feedServer(t, `nope`, http.StatusNotFound)
	if _, err := NewFeedClient(srv.URL).LatestRelease(context.Background()); err == nil {
		t.Fatalf("expected status error")
	}
	if hits.Load() != 1 {
		t.Fatalf("404 should not be retried, hits = %d", hits.Load())
	}
	empty, _ := feedServer(t, `{}`, http.StatusOK)
	if _, err := NewFeedClient(empty.URL).LatestRelease(context.Background()); !errors.Is(err, ErrNoRelease) {
		t.Fatalf("expected ErrNoRelease, got %v", err)
	}
	if _, err := NewFeedClient("").LatestRelease(context.Background()); err == nil {
		t.Fatalf("expected empty url error")
	}
}

type fakeSource struct {
	rel   Release
	calls atomic.Int32
}

func (f *fakeSource) LatestRelease(context.Context) (Release, error) {
	f.calls.Add(1)
	return f.rel, nil
}

func TestCheckerReportsNewerRelease(t *testing.T) {
	src := &fakeSource{rel: Release{TagName: "v1.5.0"}}
	store := FileStore{Path: filepath.Join(t.TempDir(), stateFileName)}
	checker := &Checker{Source: src, Store: store, Current: "1.4.0"}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Release, 1)
	done := make(chan struct{})
	go func() {
		checker.Run(ctx, out)
		close(done)
	}()
	select {
	case rel := <-out:
		if rel.Version() != "1.5.0" {
			t.Fatalf("release = %#v", rel)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no release reported")
	}
	cancel()
	<-done
	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if state.LatestVersion != "1.5.0" || state.LastCheckUnixMs == 0 {
		t.Fatalf("state = %#v", state)
	}
}

func TestCheckerSkipsDevBuilds(t *testing.T) {
	src := &fakeSource{rel: Release{TagName: "v9.9.9"}}
	checker := &Checker{Source: src, Current: "dev"}
	checker.Run(context.Background(), make(chan Release, 1))
	if src.calls.Load() != 0 {
		t.Fatalf("dev build checked for updates")
	}
}

func TestCheckerSameVersionNotReported(t *testing.T) {
	src := &fakeSource{rel: Release{TagName: "v1.0.0"}}
	checker := &Checker{Source: src, Current: "1.0.0"}
	var state State
	_, newer, err := checker.CheckOnce(context.Background(), &state)
	if err != nil || newer {
		t.Fatalf("CheckOnce() newer=%v err=%v", newer, err)
	}
}
