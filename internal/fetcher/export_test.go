package fetcher

import (
	"net/http"
	"time"
)

// RateLimitReset exposes rateLimitReset for tests.
func RateLimitReset(h http.Header, now time.Time) (time.Duration, bool) {
	return rateLimitReset(h, now)
}
