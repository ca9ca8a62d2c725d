package model

// CoordinateSystem is the only output datum the engine produces.
const CoordinateSystem = "WGS84"

// Method identifies which resolution stage produced a result.
type Method string

const (
	MethodDatabaseLookup    Method = "database_lookup"
	MethodSurveyCalculation Method = "survey_calculation"
	MethodEnhancedGeocoding Method = "enhanced_geocoding"
	MethodCenterEstimation  Method = "center_estimation"
)

// Accuracy classifies how precisely a reference point is located.
type Accuracy string

const (
	AccuracyAddressLevel Accuracy = "address_level"
	AccuracySectionLevel Accuracy = "section_level"
	AccuracyUnknown      Accuracy = "unknown"
)

// ReferencePointType distinguishes anchor candidates by origin.
type ReferencePointType string

const (
	RefPropertyCenter ReferencePointType = "property_center"
	RefRoadReference  ReferencePointType = "road_reference"
)

// ReferencePoint is a candidate anchor for a survey walk.
type ReferencePoint struct {
	Type       ReferencePointType `json:"type"`
	Name       string             `json:"name,omitempty"`
	Latitude   float64            `json:"latitude"`
	Longitude  float64            `json:"longitude"`
	Accuracy   Accuracy           `json:"accuracy"`
	Confidence float64            `json:"confidence"`
}

// VertexMethod records how a vertex coordinate was obtained.
type VertexMethod string

const (
	VertexFromReference VertexMethod = "reference_point"
	VertexFromSurvey    VertexMethod = "calculated_from_survey"
	VertexEstimated     VertexMethod = "estimated"
)

// Vertex is a single boundary point with provenance.
type Vertex struct {
	PointID     string       `json:"point_id"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	Description string       `json:"description,omitempty"`
	Method      VertexMethod `json:"method"`

	// Provenance, populated only for calculated_from_survey vertices.
	BearingUsed       string `json:"bearing_used,omitempty"`
	DistanceUsed      string `json:"distance_used,omitempty"`
	AzimuthCalculated string `json:"azimuth_calculated,omitempty"`
}

// ValidationResult holds the boundary checks and their additive confidence.
// OverallConfidence is the raw sum of check contributions; callers clamp
// the final score, not this value.
type ValidationResult struct {
	ClosureCheck       bool    `json:"closure_check"`
	AreaValidation     bool    `json:"area_validation"`
	ReferenceProximity bool    `json:"reference_proximity"`
	OverallConfidence  float64 `json:"overall_confidence"`
}

// GeoReferenceResult is the terminal output of a resolution run. It is
// immutable once produced; a failed run is a valid result, not an error.
type GeoReferenceResult struct {
	Success          bool     `json:"success"`
	Vertices         []Vertex `json:"vertices"`
	CoordinateSystem string   `json:"coordinate_system"`
	Confidence       float64  `json:"confidence"`
	Source           string   `json:"source"`
	Method           Method   `json:"method,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

// ClampConfidence bounds a confidence score to [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
