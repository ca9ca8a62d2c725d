package geocode

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// CascadeClient tries geocode providers in order until one matches.
type CascadeClient struct {
	providers        []Provider
	limiter          *rate.Limiter
	pool             Pool
	cacheTTL         time.Duration
	batchConcurrency int
}

// NewClient creates a cascade Client over the given providers.
func NewClient(providers []Provider, opts ...Option) *CascadeClient {
	c := &CascadeClient{
		providers:        providers,
		limiter:          rate.NewLimiter(1, 1), // Nominatim policy default
		batchConcurrency: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode implements Client. Provider errors fall through to the next
// provider; an unmatched query from every provider is returned as
// Matched=false, never as an error.
func (c *CascadeClient) Geocode(ctx context.Context, query string) (*Result, error) {
	key := cacheKey(query)

	if c.pool != nil {
		if cached, err := c.checkCache(ctx, key); err == nil && cached != nil {
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		result, err := p.Geocode(ctx, query)
		if err != nil {
			zap.L().Debug("geocode: provider error, trying next",
				zap.String("provider", p.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		if result != nil && result.Matched {
			if c.pool != nil {
				_ = c.storeCache(ctx, key, result)
			}
			return result, nil
		}
	}

	noMatch := &Result{Matched: false, Source: "cascade"}
	if c.pool != nil {
		_ = c.storeCache(ctx, key, noMatch)
	}
	return noMatch, nil
}

// BatchGeocode implements Client by geocoding queries in parallel. An
// individual failure yields an unmatched result, not a batch error.
func (c *CascadeClient) BatchGeocode(ctx context.Context, queries []string) ([]Result, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	results := make([]Result, len(queries))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.batchConcurrency)

	for i, q := range queries {
		eg.Go(func() error {
			r, err := c.Geocode(gCtx, q)
			if err != nil || r == nil {
				results[i] = Result{Matched: false, Source: "cascade"}
				return nil //nolint:nilerr // individual failures don't fail the batch
			}
			results[i] = *r
			return nil
		})
	}

	_ = eg.Wait()
	return results, nil
}
