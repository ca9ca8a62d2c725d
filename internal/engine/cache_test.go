package engine

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/georef-cli/internal/model"
	"github.com/sells-group/georef-cli/pkg/gisdb"
)

func recordWithCounty(county, state string) model.ExtractionRecord {
	return model.ExtractionRecord{
		PropertyDetails: model.PropertyDetails{ParcelNumbers: []string{"123"}},
		AdditionalInfo:  model.AdditionalInfo{County: county, State: state},
	}
}

var testEndpoints = []gisdb.Endpoint{
	{Name: "skamania_county_gis", County: "skamania", State: "washington", URL: "https://example.test/0"},
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_, ok := c.Get(ctx, "skamania", "washington", "usa")
	assert.False(t, ok)

	c.Set(ctx, "Skamania", " Washington ", "USA", testEndpoints)

	// Lookup is normalized: case and padding don't matter.
	got, ok := c.Get(ctx, "skamania", "washington", "usa")
	require.True(t, ok)
	assert.Equal(t, testEndpoints, got)
}

func TestMemoryCache_EmptyResultIsCached(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "nowhere", "", "", nil)
	got, ok := c.Get(ctx, "nowhere", "", "")
	assert.True(t, ok) // a known-empty jurisdiction is not re-discovered
	assert.Empty(t, got)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCache(client, time.Hour)
	ctx := context.Background()

	_, ok := c.Get(ctx, "skamania", "washington", "usa")
	assert.False(t, ok)

	c.Set(ctx, "skamania", "washington", "usa", testEndpoints)

	got, ok := c.Get(ctx, "SKAMANIA", "Washington", "usa")
	require.True(t, ok)
	assert.Equal(t, testEndpoints, got)
}

func TestRedisCache_Expiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCache(client, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "skamania", "washington", "usa", testEndpoints)
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, "skamania", "washington", "usa")
	assert.False(t, ok)
}

func TestRedisCache_DownIsAMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCache(client, time.Hour)
	mr.Close()

	_, ok := c.Get(context.Background(), "skamania", "washington", "usa")
	assert.False(t, ok)
}

func TestEngineCachesDiscovery(t *testing.T) {
	g := &stubGeocoder{err: assert.AnError}
	cache := NewMemoryCache()
	e := newTestEngine(g, &stubLookup{})
	e.cache = cache

	record := recordWithCounty("skamania", "washington")
	_ = e.GeoReference(context.Background(), record)

	cached, ok := cache.Get(context.Background(), "skamania", "washington", "")
	require.True(t, ok)
	require.Len(t, cached, 1)
	assert.Equal(t, "skamania_county_gis", cached[0].Name)
}
