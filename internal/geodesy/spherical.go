// Package geodesy provides the spherical geometry used to walk parcel
// boundaries: direct destination points, haversine distances, and a
// shoelace acreage estimate.
package geodesy

import (
	"math"

	"github.com/sells-group/georef-cli/internal/model"
)

// EarthRadiusMeters is the mean Earth radius used by the spherical formulas.
const EarthRadiusMeters = 6371000.0

// shoelaceAcresFactor converts the raw (lon, lat)-degree shoelace area to
// acres. It was tuned empirically and ignores latitude scaling; the
// validator's confidence weights were calibrated against this output, so
// it stays as-is. See DESIGN.md.
const shoelaceAcresFactor = 247.105

// DestinationPoint computes the point reached by traveling distanceM
// meters from (lat, lon) along the given azimuth, using the spherical
// direct geodesic formula. Suitable for parcel-scale walks only: there is
// no antimeridian or inverse-geodesic handling.
func DestinationPoint(lat, lon, azimuthDeg, distanceM float64) (float64, float64) {
	latRad := lat * math.Pi / 180
	lonRad := lon * math.Pi / 180
	azRad := azimuthDeg * math.Pi / 180
	angular := distanceM / EarthRadiusMeters

	lat2 := math.Asin(
		math.Sin(latRad)*math.Cos(angular) +
			math.Cos(latRad)*math.Sin(angular)*math.Cos(azRad),
	)
	lon2 := lonRad + math.Atan2(
		math.Sin(azRad)*math.Sin(angular)*math.Cos(latRad),
		math.Cos(angular)-math.Sin(latRad)*math.Sin(lat2),
	)

	return lat2 * 180 / math.Pi, lon2 * 180 / math.Pi
}

// Distance returns the haversine great-circle distance in meters between
// two WGS84 points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// PolygonAreaAcres estimates the enclosed area of a vertex ring in acres
// using the planar shoelace formula over raw (longitude, latitude) pairs.
// Returns 0 for fewer than 3 vertices. This is a latitude-insensitive
// approximation, not a survey-grade area.
func PolygonAreaAcres(vertices []model.Vertex) float64 {
	n := len(vertices)
	if n < 3 {
		return 0
	}

	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += vertices[i].Longitude * vertices[j].Latitude
		area -= vertices[j].Longitude * vertices[i].Latitude
	}
	area = math.Abs(area) / 2

	return area * shoelaceAcresFactor
}
