// Package fetcher implements the fetcher component.
// The fetcher reads the cumulative download counters of release assets from the release hosting API.
package fetcher

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cartavis/download-stats/internal/constants"
)

var (
	// ErrUnexpectedStatus is returned when the release listing answers with a non-200 status code.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrRequest is returned when the release listing could not be requested at all.
	ErrRequest = errors.New("release listing request failed")
	// ErrTagNotFound is returned when no release in the listing carries the requested tag.
	ErrTagNotFound = errors.New("tag not found")
)

// IsSkip reports whether err means the release should be skipped for this run, rather than aborting it.
func IsSkip(err error) bool {
	return errors.Is(err, ErrUnexpectedStatus) || errors.Is(err, ErrRequest) || errors.Is(err, ErrTagNotFound)
}

// Fetcher reads download counters from the releases endpoint.
type Fetcher struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

type options struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Options represents an optional function to override Fetcher default values.
type Options func(*options)

// WithBaseURL sets the base URL of the release hosting API.
func WithBaseURL(url string) Options {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Options {
	return func(o *options) {
		o.client = c
	}
}

// WithLogger sets the logger of the fetcher.
func WithLogger(l *slog.Logger) Options {
	return func(o *options) {
		o.logger = l
	}
}

// New returns a new Fetcher.
func New(args ...Options) Fetcher {
	opts := options{
		baseURL: constants.DefaultAPIURL,
		client:  &http.Client{Timeout: constants.DefaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range args {
		opt(&opts)
	}

	return Fetcher{
		baseURL: opts.baseURL,
		client:  opts.client,
		log:     opts.logger,
	}
}
