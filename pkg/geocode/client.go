// Package geocode resolves free-text location queries to WGS84 coordinates
// via Nominatim, with an optional Postgres-backed result cache.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client geocodes free-text queries.
type Client interface {
	// Geocode resolves a single query. An unmatched query is not an error:
	// the result comes back with Matched=false.
	Geocode(ctx context.Context, query string) (*Result, error)

	// BatchGeocode resolves multiple queries, preserving input order.
	BatchGeocode(ctx context.Context, queries []string) ([]Result, error)
}

// Result holds the geocoding output for one query.
type Result struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name,omitempty"`
	Source      string  `json:"source"`
	Matched     bool    `json:"matched"`
}

// Provider represents a single geocoding backend.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, query string) (*Result, error)
	Available() bool
}

// Option configures the cascade client.
type Option func(*CascadeClient)

// WithHTTPClient sets a custom HTTP client for provider requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *CascadeClient) {
		for _, p := range c.providers {
			if np, ok := p.(*NominatimProvider); ok {
				np.http = hc
			}
		}
	}
}

// WithRateLimit sets the requests-per-second limit applied across providers.
// Nominatim's usage policy allows at most 1 request per second.
func WithRateLimit(rps float64) Option {
	return func(c *CascadeClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithBatchConcurrency sets the max parallel lookups for BatchGeocode.
func WithBatchConcurrency(n int) Option {
	return func(c *CascadeClient) {
		if n > 0 {
			c.batchConcurrency = n
		}
	}
}

// WithCache enables the Postgres result cache on the given pool.
func WithCache(pool Pool, ttl time.Duration) Option {
	return func(c *CascadeClient) {
		c.pool = pool
		c.cacheTTL = ttl
	}
}
