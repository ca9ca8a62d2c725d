package geodesy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/georef-cli/internal/model"
)

func TestDestinationPoint_ZeroDistanceIdentity(t *testing.T) {
	lat, lon := DestinationPoint(45.730, -122.110, 135.0, 0)
	assert.InDelta(t, 45.730, lat, 1e-12)
	assert.InDelta(t, -122.110, lon, 1e-12)
}

func TestDestinationPoint_DueNorth(t *testing.T) {
	// 1000 m due north moves latitude by ~0.009 degrees, longitude unchanged.
	lat, lon := DestinationPoint(45.0, -122.0, 0, 1000)
	assert.Greater(t, lat, 45.0)
	assert.InDelta(t, 45.0+1000/EarthRadiusMeters*180/3.141592653589793, lat, 1e-6)
	assert.InDelta(t, -122.0, lon, 1e-9)
}

func TestDestinationPoint_RoundTrip(t *testing.T) {
	// Walking east then west returns to the start within a few millimeters.
	lat1, lon1 := DestinationPoint(45.0, -122.0, 90, 500)
	lat2, lon2 := DestinationPoint(lat1, lon1, 270, 500)
	assert.Less(t, Distance(45.0, -122.0, lat2, lon2), 0.01)
}

func TestDistance_KnownValue(t *testing.T) {
	// One degree of latitude is ~111.19 km on the 6371 km sphere.
	d := Distance(45.0, -122.0, 46.0, -122.0)
	assert.InDelta(t, 111195, d, 10)
}

func TestDistance_Zero(t *testing.T) {
	assert.Zero(t, Distance(45.0, -122.0, 45.0, -122.0))
}

func square(side float64) []model.Vertex {
	lat0, lon0 := 45.730, -122.110
	v := []model.Vertex{{Latitude: lat0, Longitude: lon0}}
	lat, lon := DestinationPoint(lat0, lon0, 0, side)
	v = append(v, model.Vertex{Latitude: lat, Longitude: lon})
	lat, lon = DestinationPoint(lat, lon, 90, side)
	v = append(v, model.Vertex{Latitude: lat, Longitude: lon})
	lat, lon = DestinationPoint(lat, lon, 180, side)
	v = append(v, model.Vertex{Latitude: lat, Longitude: lon})
	return v
}

func TestPolygonAreaAcres_TooFewVertices(t *testing.T) {
	assert.Zero(t, PolygonAreaAcres(nil))
	assert.Zero(t, PolygonAreaAcres(square(100)[:2]))
}

func TestPolygonAreaAcres_Positive(t *testing.T) {
	area := PolygonAreaAcres(square(200))
	assert.Greater(t, area, 0.0)
}

func TestBoundaryPolygon_ClosesRing(t *testing.T) {
	poly, err := BoundaryPolygon(square(100))
	require.NoError(t, err)

	ring := poly.Coords()[0]
	assert.Equal(t, ring[0], ring[len(ring)-1])
	assert.Equal(t, 4326, poly.SRID())
}

func TestBoundaryPolygon_TooFew(t *testing.T) {
	_, err := BoundaryPolygon(square(100)[:2])
	assert.Error(t, err)
}

func TestEncodeWKT(t *testing.T) {
	s, err := EncodeWKT(square(100))
	require.NoError(t, err)
	assert.Contains(t, s, "POLYGON")
}

func TestEncodeGeoJSON(t *testing.T) {
	data, err := EncodeGeoJSON(square(100))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Polygon"`)
}
