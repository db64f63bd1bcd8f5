package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cartavis/download-stats/internal/constants"
	"github.com/cartavis/download-stats/internal/downloads"
	"github.com/cartavis/download-stats/internal/fileutils"
)

// release is the subset of a release listing entry the fetcher reads.
type release struct {
	TagName string  `json:"tag_name"`
	Assets  []asset `json:"assets"`
}

// asset is the subset of a release asset the fetcher reads.
type asset struct {
	Name          string `json:"name"`
	DownloadCount int64  `json:"download_count"`
}

// Fetch returns the download counters of assets in the release of owner/repo tagged tag.
//
// The snapshot keeps the order of assets. Assets missing from the release are counted as 0.
// Errors for which IsSkip is true are logged here already.
func (f Fetcher) Fetch(ctx context.Context, owner, repo, tag string, assets []string) (downloads.Snapshot, error) {
	f.log.Debug("Fetching release downloads", "owner", owner, "repo", repo, "tag", tag)

	releases, err := f.listReleases(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	var found *release
	for i := range releases {
		if releases[i].TagName == tag {
			found = &releases[i]
			break
		}
	}
	if found == nil {
		f.log.Error("Release tag not found", "owner", owner, "repo", repo, "tag", tag)
		return nil, fmt.Errorf("%w: %q in %s/%s", ErrTagNotFound, tag, owner, repo)
	}

	snapshot := downloads.New(assets)
	for i, name := range assets {
		for _, a := range found.Assets {
			if a.Name == name {
				snapshot[i].Count = a.DownloadCount
				break
			}
		}
	}
	f.log.Debug("Fetched release downloads", "tag", tag, "downloads", snapshot)

	return snapshot, nil
}

func (f Fetcher) listReleases(ctx context.Context, owner, repo string) ([]release, error) {
	u, err := f.releasesURL(owner, repo)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", constants.GitHubAcceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Error("Error fetching data", "url", u, "error", err)
		return nil, errors.Join(ErrRequest, fmt.Errorf("failed to send HTTP request: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		args := []any{"url", u, "status", resp.StatusCode}
		if until, ok := rateLimitReset(resp.Header, time.Now()); ok {
			args = append(args, "rate_limit_reset_in", until.Round(time.Second))
		}
		f.log.Error("Error fetching data", args...)
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var releases []release
	if err := fileutils.ParseJSON(resp.Body, &releases); err != nil {
		return nil, fmt.Errorf("failed to read release listing: %v", err)
	}

	return releases, nil
}

func (f Fetcher) releasesURL(owner, repo string) (string, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL %s: %v", f.baseURL, err)
	}
	return u.JoinPath("repos", owner, repo, "releases").String(), nil
}

// rateLimitReset returns how long until the rate limit advertised in h resets, if h advertises one.
func rateLimitReset(h http.Header, now time.Time) (time.Duration, bool) {
	raw := h.Get("X-Ratelimit-Reset")
	if raw == "" {
		return 0, false
	}

	reset, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	return time.Unix(reset, 0).Sub(now), true
}
