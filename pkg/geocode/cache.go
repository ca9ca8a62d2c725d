package geocode

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// Pool is the subset of pgxpool.Pool the cache needs. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// cacheKey returns SHA-256 hex of the normalized query for cache lookup.
// Unicode is NFC-normalized so visually identical addresses share a key.
func cacheKey(query string) string {
	normalized := norm.NFC.String(strings.ToLower(strings.Join(strings.Fields(query), " ")))
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// checkCache looks up a cached geocode result, respecting TTL if configured.
// Cached non-matches (Matched=false) are returned so callers skip the
// network round trip.
func (c *CascadeClient) checkCache(ctx context.Context, key string) (*Result, error) {
	query := "SELECT latitude, longitude, display_name, source, matched FROM public.geocode_cache WHERE query_hash = $1"
	if c.cacheTTL > 0 {
		query += fmt.Sprintf(" AND cached_at > now() - interval '%d seconds'", int(c.cacheTTL.Seconds()))
	}

	var r Result
	row := c.pool.QueryRow(ctx, query, key)
	if err := row.Scan(&r.Latitude, &r.Longitude, &r.DisplayName, &r.Source, &r.Matched); err != nil {
		return nil, err // no row or scan error; caller falls through to providers
	}

	keyPrefix := key
	if len(keyPrefix) > 12 {
		keyPrefix = keyPrefix[:12]
	}
	zap.L().Debug("geocode cache hit", zap.String("key", keyPrefix), zap.Bool("matched", r.Matched))
	return &r, nil
}

// storeCache inserts a geocode result (match or non-match) into the cache.
func (c *CascadeClient) storeCache(ctx context.Context, key string, result *Result) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO public.geocode_cache (query_hash, latitude, longitude, display_name, source, matched, cached_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (query_hash) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			display_name = EXCLUDED.display_name,
			source = EXCLUDED.source,
			matched = EXCLUDED.matched,
			cached_at = now()`,
		key, result.Latitude, result.Longitude, result.DisplayName, result.Source, result.Matched,
	)
	if err != nil {
		return eris.Wrap(err, "geocode: store cache")
	}
	return nil
}
