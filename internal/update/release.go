package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/regenrek/splitdesk/internal/identity"
)

var ErrNoRelease = errors.New("update: feed has no release")

// Asset is one downloadable file of a release.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
}

// Release is the latest published version as reported by the feed.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name,omitempty"`
	URL         string    `json:"html_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets,omitempty"`
}

func (r Release) Version() string {
	return NormalizeVersion(r.TagName)
}

// ReleaseSource retrieves the latest release.
type ReleaseSource interface {
	LatestRelease(ctx context.Context) (Release, error)
}

// FeedClient reads a GitHub style "latest release" document.
type FeedClient struct {
	URL       string
	UserAgent string
	client    *retryablehttp.Client
}

// NewFeedClient returns a client that retries transient failures a few
// times with backoff.
func NewFeedClient(url string) *FeedClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 1 * time.Second
	rc.RetryWaitMax = 30 * time.Second
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil
	return &FeedClient{URL: url, client: rc}
}

// LatestRelease implements ReleaseSource.
func (c *FeedClient) LatestRelease(ctx context.Context) (release Release, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	url := strings.TrimSpace(c.URL)
	if url == "" {
		return Release{}, errors.New("update: feed url is empty")
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Release{}, fmt.Errorf("update: feed request: %w", err)
	}
	ua := c.UserAgent
	if ua == "" {
		ua = identity.AppSlug + "/update-check"
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := c.client.Do(req)
	if err != nil {
		return Release{}, fmt.Errorf("update: feed request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("update: close feed response: %w", cerr)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return Release{}, fmt.Errorf("update: feed status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return Release{}, fmt.Errorf("update: decode feed: %w", err)
	}
	if strings.TrimSpace(release.TagName) == "" {
		return Release{}, ErrNoRelease
	}
	slog.Debug("update: fetched release", slog.String("tag", release.TagName))
	return release, nil
}
