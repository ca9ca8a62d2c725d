package geodesy

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/sells-group/georef-cli/internal/model"
)

// BoundaryPolygon converts a vertex sequence into a closed go-geom polygon
// in (lon, lat) order with SRID 4326. The ring is closed by repeating the
// first vertex when the walk did not close exactly.
func BoundaryPolygon(vertices []model.Vertex) (*geom.Polygon, error) {
	if len(vertices) < 3 {
		return nil, eris.Errorf("geodesy: need at least 3 vertices for a polygon, got %d", len(vertices))
	}

	coords := make([]geom.Coord, 0, len(vertices)+1)
	for _, v := range vertices {
		coords = append(coords, geom.Coord{v.Longitude, v.Latitude})
	}
	first, last := coords[0], coords[len(coords)-1]
	if first[0] != last[0] || first[1] != last[1] {
		coords = append(coords, first)
	}

	poly := geom.NewPolygon(geom.XY).SetSRID(4326)
	if _, err := poly.SetCoords([][]geom.Coord{coords}); err != nil {
		return nil, eris.Wrap(err, "geodesy: build polygon")
	}
	return poly, nil
}

// EncodeWKT renders the boundary as a WKT POLYGON string.
func EncodeWKT(vertices []model.Vertex) (string, error) {
	poly, err := BoundaryPolygon(vertices)
	if err != nil {
		return "", err
	}
	s, err := wkt.Marshal(poly)
	if err != nil {
		return "", eris.Wrap(err, "geodesy: encode WKT")
	}
	return s, nil
}

// EncodeGeoJSON renders the boundary as a GeoJSON geometry.
func EncodeGeoJSON(vertices []model.Vertex) ([]byte, error) {
	poly, err := BoundaryPolygon(vertices)
	if err != nil {
		return nil, err
	}
	data, err := geojson.Marshal(poly)
	if err != nil {
		return nil, eris.Wrap(err, "geodesy: encode GeoJSON")
	}
	return data, nil
}
