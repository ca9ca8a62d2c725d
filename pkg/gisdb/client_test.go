package gisdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/georef-cli/internal/model"
	"github.com/sells-group/georef-cli/internal/resilience"
)

const parcelReply = `{
	"features": [{
		"attributes": {"PARCEL_ID": "02061234560000"},
		"geometry": {"rings": [[
			[-122.110, 45.730],
			[-122.108, 45.730],
			[-122.108, 45.732],
			[-122.110, 45.732],
			[-122.110, 45.730]
		]]}
	}]
}`

func noRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 1}
}

func TestSearch_FindsBoundary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("where"), "02061234560000")
		assert.Equal(t, "json", r.URL.Query().Get("f"))
		_, _ = w.Write([]byte(parcelReply))
	}))
	defer srv.Close()

	c := NewClient(WithRetryConfig(noRetry()))
	details := model.PropertyDetails{ParcelNumbers: []string{"02061234560000"}}
	endpoints := []Endpoint{{Name: "test_county", URL: srv.URL}}

	result, err := c.Search(context.Background(), details, endpoints)
	require.NoError(t, err)
	require.NotNil(t, result)

	// Closing duplicate point is dropped.
	assert.Len(t, result.Vertices, 4)
	assert.Equal(t, "test_county", result.Source)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
	assert.InDelta(t, 45.730, result.Vertices[0].Latitude, 1e-9)
	assert.InDelta(t, -122.110, result.Vertices[0].Longitude, 1e-9)
	assert.Equal(t, model.VertexFromReference, result.Vertices[0].Method)
}

func TestSearch_NoParcelNumbers(t *testing.T) {
	c := NewClient(WithRetryConfig(noRetry()))
	result, err := c.Search(context.Background(), model.PropertyDetails{}, []Endpoint{{URL: "http://unused"}})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestSearch_EmptyFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features": []}`))
	}))
	defer srv.Close()

	c := NewClient(WithRetryConfig(noRetry()))
	details := model.PropertyDetails{ParcelNumbers: []string{"123"}}

	result, err := c.Search(context.Background(), details, []Endpoint{{Name: "e", URL: srv.URL}})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestSearch_EndpointErrorFallsThrough(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(parcelReply))
	}))
	defer good.Close()

	c := NewClient(WithRetryConfig(noRetry()))
	details := model.PropertyDetails{ParcelNumbers: []string{"02061234560000"}}
	endpoints := []Endpoint{
		{Name: "broken", URL: bad.URL},
		{Name: "working", URL: good.URL},
	}

	result, err := c.Search(context.Background(), details, endpoints)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "working", result.Source)
}

func TestSearch_ArcGISErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "invalid query"}}`))
	}))
	defer srv.Close()

	c := NewClient(WithRetryConfig(noRetry()))
	details := model.PropertyDetails{ParcelNumbers: []string{"123"}}

	result, err := c.Search(context.Background(), details, []Endpoint{{Name: "e", URL: srv.URL}})
	require.NoError(t, err) // endpoint errors are logged, not returned
	assert.Nil(t, result)
}

func TestRingToVertices_ShortRing(t *testing.T) {
	assert.Empty(t, ringToVertices(nil))
}

func TestRegistry_Discover(t *testing.T) {
	r := DefaultRegistry()

	eps := r.Discover("Skamania", "Washington", "USA")
	require.Len(t, eps, 1)
	assert.Equal(t, "skamania_county_gis", eps[0].Name)

	assert.Empty(t, r.Discover("", "washington", ""))
	assert.Empty(t, r.Discover("nowhere", "", ""))
}

func TestRegistry_MatchDetails_CountyHint(t *testing.T) {
	r := DefaultRegistry()

	eps := r.MatchDetails(model.PropertyDetails{}, model.AdditionalInfo{County: "clark", State: "washington"})
	require.Len(t, eps, 1)
	assert.Equal(t, "clark_county_gis", eps[0].Name)
}

func TestRegistry_MatchDetails_LegalDescription(t *testing.T) {
	r := DefaultRegistry()

	details := model.PropertyDetails{
		LegalDescription: "Section 4, Township 1 North, Range 5 East, Skamania County, Washington",
	}
	eps := r.MatchDetails(details, model.AdditionalInfo{})
	require.Len(t, eps, 1)
	assert.Equal(t, "skamania_county_gis", eps[0].Name)
}

func TestRegistry_MatchDetails_NoMatch(t *testing.T) {
	r := DefaultRegistry()
	assert.Empty(t, r.MatchDetails(model.PropertyDetails{LegalDescription: "Lot 7, Block 2"}, model.AdditionalInfo{}))
}
