package geocode

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey_Deterministic(t *testing.T) {
	key1 := cacheKey("123 Main St, Vancouver, WA")
	key2 := cacheKey("123 Main St, Vancouver, WA")
	assert.Equal(t, key1, key2)
	assert.Len(t, key1, 64) // SHA-256 hex is 64 chars
}

func TestCacheKey_NormalizesCaseAndSpace(t *testing.T) {
	assert.Equal(t, cacheKey("123  Main   St"), cacheKey("123 MAIN st"))
}

func TestCacheKey_DifferentQueries(t *testing.T) {
	assert.NotEqual(t, cacheKey("123 Main St"), cacheKey("456 Main St"))
}

func TestCheckCache_Hit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT latitude, longitude, display_name, source, matched FROM public.geocode_cache`).
		WithArgs("abc123").
		WillReturnRows(
			pgxmock.NewRows([]string{"latitude", "longitude", "display_name", "source", "matched"}).
				AddRow(45.73, -122.11, "123 Main St", "nominatim", true),
		)

	c := NewClient(nil, WithCache(mock, 0))
	result, err := c.checkCache(context.Background(), "abc123")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Matched)
	assert.InDelta(t, 45.73, result.Latitude, 0.01)
	assert.InDelta(t, -122.11, result.Longitude, 0.01)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckCache_Miss(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT latitude, longitude, display_name, source, matched FROM public.geocode_cache`).
		WithArgs("missing-key").
		WillReturnError(assert.AnError)

	c := NewClient(nil, WithCache(mock, 0))
	result, err := c.checkCache(context.Background(), "missing-key")

	assert.Error(t, err)
	assert.Nil(t, result)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCache(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO public.geocode_cache`).
		WithArgs("hashkey", 45.73, -122.11, "123 Main St", "nominatim", true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	c := NewClient(nil, WithCache(mock, 0))
	err = c.storeCache(context.Background(), "hashkey", &Result{
		Latitude:    45.73,
		Longitude:   -122.11,
		DisplayName: "123 Main St",
		Source:      "nominatim",
		Matched:     true,
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGeocode_UsesCacheBeforeProviders(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT latitude, longitude, display_name, source, matched FROM public.geocode_cache`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(
			pgxmock.NewRows([]string{"latitude", "longitude", "display_name", "source", "matched"}).
				AddRow(45.73, -122.11, "cached", "nominatim", true),
		)

	p := &stubProvider{name: "p", available: true, result: &Result{Matched: true}}
	c := NewClient([]Provider{p}, WithRateLimit(1000), WithCache(mock, 0))

	result, err := c.Geocode(context.Background(), "123 Main St")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "cached", result.DisplayName)
	assert.Equal(t, 0, p.calls)

	require.NoError(t, mock.ExpectationsWereMet())
}
