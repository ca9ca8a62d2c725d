package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nominatimServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestNominatim_Match(t *testing.T) {
	srv := nominatimServer(t, `[{"lat":"45.7301","lon":"-122.1105","display_name":"123 Main St, Vancouver, WA"}]`, http.StatusOK)
	defer srv.Close()

	p := NewNominatimProvider(srv.URL)
	result, err := p.Geocode(context.Background(), "123 Main St, Vancouver, WA")

	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.InDelta(t, 45.7301, result.Latitude, 1e-9)
	assert.InDelta(t, -122.1105, result.Longitude, 1e-9)
	assert.Equal(t, "nominatim", result.Source)
}

func TestNominatim_NoMatch(t *testing.T) {
	srv := nominatimServer(t, `[]`, http.StatusOK)
	defer srv.Close()

	p := NewNominatimProvider(srv.URL)
	result, err := p.Geocode(context.Background(), "nowhere at all")

	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestNominatim_ServerError(t *testing.T) {
	srv := nominatimServer(t, `upstream broke`, http.StatusBadGateway)
	defer srv.Close()

	p := NewNominatimProvider(srv.URL)
	_, err := p.Geocode(context.Background(), "123 Main St")
	assert.Error(t, err)
}

func TestNominatim_MalformedCoordinates(t *testing.T) {
	srv := nominatimServer(t, `[{"lat":"not-a-number","lon":"-122.1"}]`, http.StatusOK)
	defer srv.Close()

	p := NewNominatimProvider(srv.URL)
	result, err := p.Geocode(context.Background(), "123 Main St")

	require.NoError(t, err)
	assert.False(t, result.Matched)
}

// stubProvider is a scripted provider for cascade tests.
type stubProvider struct {
	name      string
	result    *Result
	err       error
	available bool
	calls     int
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return s.available }
func (s *stubProvider) Geocode(_ context.Context, _ string) (*Result, error) {
	s.calls++
	return s.result, s.err
}

func TestCascade_FirstMatchWins(t *testing.T) {
	first := &stubProvider{name: "first", available: true, result: &Result{Matched: true, Latitude: 1, Longitude: 2, Source: "first"}}
	second := &stubProvider{name: "second", available: true, result: &Result{Matched: true, Source: "second"}}

	c := NewClient([]Provider{first, second}, WithRateLimit(1000))
	result, err := c.Geocode(context.Background(), "somewhere")

	require.NoError(t, err)
	assert.Equal(t, "first", result.Source)
	assert.Equal(t, 0, second.calls)
}

func TestCascade_ErrorFallsThrough(t *testing.T) {
	first := &stubProvider{name: "first", available: true, err: assert.AnError}
	second := &stubProvider{name: "second", available: true, result: &Result{Matched: true, Source: "second"}}

	c := NewClient([]Provider{first, second}, WithRateLimit(1000))
	result, err := c.Geocode(context.Background(), "somewhere")

	require.NoError(t, err)
	assert.Equal(t, "second", result.Source)
}

func TestCascade_AllMiss(t *testing.T) {
	first := &stubProvider{name: "first", available: true, result: &Result{Matched: false, Source: "first"}}

	c := NewClient([]Provider{first}, WithRateLimit(1000))
	result, err := c.Geocode(context.Background(), "nowhere")

	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestCascade_SkipsUnavailable(t *testing.T) {
	down := &stubProvider{name: "down", available: false}
	up := &stubProvider{name: "up", available: true, result: &Result{Matched: true, Source: "up"}}

	c := NewClient([]Provider{down, up}, WithRateLimit(1000))
	result, err := c.Geocode(context.Background(), "somewhere")

	require.NoError(t, err)
	assert.Equal(t, "up", result.Source)
	assert.Equal(t, 0, down.calls)
}

func TestBatchGeocode_PreservesOrder(t *testing.T) {
	p := &stubProvider{name: "p", available: true, result: &Result{Matched: true, Latitude: 9, Source: "p"}}

	c := NewClient([]Provider{p}, WithRateLimit(1000), WithBatchConcurrency(2))
	results, err := c.BatchGeocode(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.Matched)
	}
}

func TestBatchGeocode_Empty(t *testing.T) {
	c := NewClient(nil)
	results, err := c.BatchGeocode(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}
