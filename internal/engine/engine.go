// Package engine orchestrates the staged geo-referencing pipeline:
// county database lookup, survey walking, enhanced landmark geocoding,
// and last-resort center estimation. The first stage to produce vertices
// is terminal; exhausting all four yields a failed result, never an error.
package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/model"
	"github.com/sells-group/georef-cli/internal/refpoint"
	"github.com/sells-group/georef-cli/internal/validate"
	"github.com/sells-group/georef-cli/internal/walker"
	"github.com/sells-group/georef-cli/pkg/geocode"
	"github.com/sells-group/georef-cli/pkg/gisdb"
)

// squareOffsetDegrees is the half-side of the synthesized boundary square
// (~100 m) used by the geocoding fallback stages.
const squareOffsetDegrees = 0.001

// landmarkVariants are the query suffixes tried, in order, before the raw
// address itself.
var landmarkVariants = []string{"property boundary", "parcel", "lot"}

// Engine runs the resolution pipeline. All collaborators are injected;
// zero-value fields are not usable, construct with New.
type Engine struct {
	registry *gisdb.Registry
	parcels  gisdb.Lookup
	resolver *refpoint.Resolver
	geocoder geocode.Client
	cache    DiscoveryCache
}

// Option configures the Engine.
type Option func(*Engine)

// WithDiscoveryCache replaces the default in-process jurisdiction cache.
func WithDiscoveryCache(c DiscoveryCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithParcelLookup replaces the county GIS client.
func WithParcelLookup(l gisdb.Lookup) Option {
	return func(e *Engine) { e.parcels = l }
}

// New creates an Engine over the given registry, anchor resolver, and
// geocoder.
func New(registry *gisdb.Registry, resolver *refpoint.Resolver, geocoder geocode.Client, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		parcels:  gisdb.NewClient(),
		resolver: resolver,
		geocoder: geocoder,
		cache:    NewMemoryCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GeoReference resolves an extraction record to absolute coordinates.
// Stages run in fixed priority order and the first one producing a
// non-empty vertex sequence is terminal. A fully failed run is reported
// in the result value, not as an error.
func (e *Engine) GeoReference(ctx context.Context, record model.ExtractionRecord) model.GeoReferenceResult {
	var notes []string

	type stage struct {
		name string
		run  func(context.Context, model.ExtractionRecord) (*model.GeoReferenceResult, string)
	}
	stages := []stage{
		{"database_lookup", e.lookupDatabase},
		{"survey_calculation", e.calculateFromSurvey},
		{"enhanced_geocoding", e.geocodeLandmarks},
		{"center_estimation", e.estimateCenter},
	}

	for _, s := range stages {
		result, note := s.run(ctx, record)
		if note != "" {
			notes = append(notes, note)
		}
		if result == nil || len(result.Vertices) == 0 {
			zap.L().Info("engine: stage exhausted", zap.String("stage", s.name))
			continue
		}

		result.Success = true
		result.CoordinateSystem = model.CoordinateSystem
		result.Confidence = model.ClampConfidence(result.Confidence)
		zap.L().Info("engine: stage succeeded",
			zap.String("stage", s.name),
			zap.Int("vertices", len(result.Vertices)),
			zap.Float64("confidence", result.Confidence),
		)
		return *result
	}

	return model.GeoReferenceResult{
		Success:          false,
		CoordinateSystem: model.CoordinateSystem,
		Notes:            "all resolution stages failed: " + strings.Join(notes, "; "),
	}
}

// lookupDatabase queries county GIS endpoints for an authoritative parcel
// boundary, caching jurisdiction discovery across runs.
func (e *Engine) lookupDatabase(ctx context.Context, record model.ExtractionRecord) (*model.GeoReferenceResult, string) {
	endpoints := e.discoverEndpoints(ctx, record)
	if len(endpoints) == 0 {
		return nil, "no county GIS endpoints for jurisdiction"
	}

	parcel, err := e.parcels.Search(ctx, record.PropertyDetails, endpoints)
	if err != nil {
		return nil, fmt.Sprintf("database lookup failed: %v", err)
	}
	if parcel == nil || len(parcel.Vertices) == 0 {
		return nil, "no parcel boundary in county GIS"
	}

	return &model.GeoReferenceResult{
		Vertices:   parcel.Vertices,
		Confidence: parcel.Confidence,
		Source:     parcel.Source,
		Method:     model.MethodDatabaseLookup,
	}, ""
}

// discoverEndpoints resolves the jurisdiction to its registered endpoints,
// consulting the discovery cache first.
func (e *Engine) discoverEndpoints(ctx context.Context, record model.ExtractionRecord) []gisdb.Endpoint {
	info := record.AdditionalInfo
	if info.County != "" {
		if cached, ok := e.cache.Get(ctx, info.County, info.State, info.Country); ok {
			return cached
		}
	}

	endpoints := e.registry.MatchDetails(record.PropertyDetails, info)
	if info.County != "" {
		e.cache.Set(ctx, info.County, info.State, info.Country, endpoints)
	}
	return endpoints
}

// calculateFromSurvey anchors the call chain at the best reference point
// and walks it. Confidence reflects whether the traverse closes.
func (e *Engine) calculateFromSurvey(ctx context.Context, record model.ExtractionRecord) (*model.GeoReferenceResult, string) {
	calls := record.Measurements.Calls()
	if len(calls) == 0 {
		return nil, "no survey call chain"
	}

	candidates := e.resolver.Resolve(ctx, record.PropertyDetails)
	anchor, ok := refpoint.Best(candidates)
	if !ok {
		return nil, "no reference point resolved"
	}

	walk := walker.Walk(anchor, calls, record.BoundaryCoordinates.Vertices)
	if len(walk.Vertices) == 0 {
		return nil, "survey walk produced no vertices"
	}

	validation := validate.Boundary(walk.Vertices, anchor, record.PropertyDetails.AreaMeasurements.StatedAcres())
	confidence := 0.6
	if validation.ClosureCheck {
		confidence = 0.8
	}

	notes := walk.Warnings
	if !validation.ClosureCheck {
		notes = append(notes, "traverse does not close")
	}

	return &model.GeoReferenceResult{
		Vertices:   walk.Vertices,
		Confidence: confidence,
		Source:     "survey walk from " + anchor.Name,
		Method:     model.MethodSurveyCalculation,
		Notes:      strings.Join(notes, "; "),
	}, ""
}

// geocodeLandmarks tries enhanced query variants per address and
// synthesizes a boundary square around the first hit.
func (e *Engine) geocodeLandmarks(ctx context.Context, record model.ExtractionRecord) (*model.GeoReferenceResult, string) {
	addresses := record.PropertyDetails.Addresses
	if len(addresses) == 0 {
		return nil, "no addresses for landmark geocoding"
	}

	for _, address := range addresses {
		queries := make([]string, 0, len(landmarkVariants)+1)
		for _, variant := range landmarkVariants {
			queries = append(queries, address+" "+variant)
		}
		queries = append(queries, address)

		for _, q := range queries {
			result, err := e.geocoder.Geocode(ctx, q)
			if err != nil || result == nil || !result.Matched {
				continue
			}
			return &model.GeoReferenceResult{
				Vertices:   SynthesizeSquare(result.Latitude, result.Longitude),
				Confidence: 0.65,
				Source:     "enhanced geocoding: " + q,
				Method:     model.MethodEnhancedGeocoding,
			}, ""
		}
	}
	return nil, "no address variant geocoded"
}

// estimateCenter is the last resort: geocode the first address as-is and
// synthesize a square around it.
func (e *Engine) estimateCenter(ctx context.Context, record model.ExtractionRecord) (*model.GeoReferenceResult, string) {
	addresses := record.PropertyDetails.Addresses
	if len(addresses) == 0 {
		return nil, "no address for center estimation"
	}

	result, err := e.geocoder.Geocode(ctx, addresses[0])
	if err != nil {
		return nil, fmt.Sprintf("center estimation geocode failed: %v", err)
	}
	if result == nil || !result.Matched {
		return nil, "center address did not geocode"
	}

	return &model.GeoReferenceResult{
		Vertices:   SynthesizeSquare(result.Latitude, result.Longitude),
		Confidence: 0.5,
		Source:     "center estimate: " + addresses[0],
		Method:     model.MethodCenterEstimation,
	}, ""
}

// SynthesizeSquare builds the fixed ~100 m estimated boundary square
// around a center point, corners ordered NW, NE, SE, SW.
func SynthesizeSquare(lat, lon float64) []model.Vertex {
	corners := []struct {
		id       string
		dlat     float64
		dlon     float64
		position string
	}{
		{"NW", squareOffsetDegrees, -squareOffsetDegrees, "northwest corner"},
		{"NE", squareOffsetDegrees, squareOffsetDegrees, "northeast corner"},
		{"SE", -squareOffsetDegrees, squareOffsetDegrees, "southeast corner"},
		{"SW", -squareOffsetDegrees, -squareOffsetDegrees, "southwest corner"},
	}

	vertices := make([]model.Vertex, 0, len(corners))
	for _, c := range corners {
		vertices = append(vertices, model.Vertex{
			PointID:     c.id,
			Latitude:    lat + c.dlat,
			Longitude:   lon + c.dlon,
			Description: "Estimated " + c.position,
			Method:      model.VertexEstimated,
		})
	}
	return vertices
}
