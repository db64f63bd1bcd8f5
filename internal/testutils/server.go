package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cartavis/download-stats/internal/constants"
	"github.com/stretchr/testify/assert"
)

// Asset is a release asset as served by ReleaseServer.
type Asset struct {
	Name          string `json:"name"`
	DownloadCount int64  `json:"download_count"`
}

// Release is a release as served by ReleaseServer.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// ReleaseServer is a fake release hosting API serving /repos/{owner}/{repo}/releases.
type ReleaseServer struct {
	*httptest.Server

	mu       sync.Mutex
	releases map[string][]Release
	status   int
	requests []string
}

// NewReleaseServer starts a fake release hosting API serving releases keyed by "owner/repo".
// The server is closed on test cleanup.
func NewReleaseServer(t *testing.T, releases map[string][]Release) *ReleaseServer {
	t.Helper()

	s := &ReleaseServer{releases: releases, status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.requests = append(s.requests, r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method, "Release listing should be requested with GET")
		assert.Equal(t, constants.GitHubAcceptHeader, r.Header.Get("Accept"), "Release listing should ask for the GitHub media type")

		if s.status != http.StatusOK {
			w.WriteHeader(s.status)
			return
		}

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 4 || parts[0] != "repos" || parts[3] != "releases" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		rels, ok := s.releases[parts[1]+"/"+parts[2]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if rels == nil {
			rels = []Release{}
		}

		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(rels), "Fake server failed to encode releases")
	}))
	t.Cleanup(s.Close)

	return s
}

// SetStatus makes every following request answer with status and no body. http.StatusOK restores normal answers.
func (s *ReleaseServer) SetStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// SetReleases replaces the releases served for "owner/repo".
func (s *ReleaseServer) SetReleases(ownerRepo string, releases []Release) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases[ownerRepo] = releases
}

// Requests returns the paths requested so far.
func (s *ReleaseServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}
