package model

// ExtractionRecord is the structured output of the external AI document
// extractor. It is untrusted input: any field may be missing, and the
// bearings, distances, and vertex label arrays may disagree in length.
type ExtractionRecord struct {
	PropertyDetails     PropertyDetails     `json:"property_details"`
	BoundaryCoordinates BoundaryCoordinates `json:"boundary_coordinates"`
	Measurements        Measurements        `json:"measurements"`
	AdditionalInfo      AdditionalInfo      `json:"additional_info"`
	ConfidenceScore     float64             `json:"confidence_score"`
}

// PropertyDetails identifies the property being resolved.
type PropertyDetails struct {
	Addresses        []string         `json:"addresses"`
	ParcelNumbers    []string         `json:"parcel_numbers"`
	LegalDescription string           `json:"legal_description"`
	AreaMeasurements AreaMeasurements `json:"area_measurements"`
	ReferencePoints  ReferenceHints   `json:"reference_points"`
}

// AreaMeasurements holds the stated area from the survey document.
type AreaMeasurements struct {
	Acres      float64 `json:"acres,omitempty"`
	SquareFeet float64 `json:"square_feet,omitempty"`
}

// StatedAcres returns the stated area in acres, converting from square
// feet when only that is present. Returns 0 when no area is stated.
func (a AreaMeasurements) StatedAcres() float64 {
	if a.Acres > 0 {
		return a.Acres
	}
	if a.SquareFeet > 0 {
		return a.SquareFeet / 43560.0
	}
	return 0
}

// ReferenceHints lists document features that can be independently located.
type ReferenceHints struct {
	RoadReferences []string `json:"road_references,omitempty"`
	Monuments      []string `json:"monuments,omitempty"`
}

// BoundaryCoordinates holds the optional per-vertex labels from the document.
// These labels are display metadata only; the walk is driven by the
// measurement arrays, never by this list.
type BoundaryCoordinates struct {
	Vertices []VertexLabel `json:"vertices"`
}

// VertexLabel is a labeled point as drawn on the survey document.
type VertexLabel struct {
	PointID     string `json:"point_id"`
	Description string `json:"description"`
}

// Measurements holds the ordered survey call chain. Bearings and distances
// are parallel arrays walked in lock-step by index.
type Measurements struct {
	Bearings  []string `json:"bearings"`
	Distances []string `json:"distances"`
}

// Calls pairs bearings with distances into an ordered call chain, bounded
// by the shorter of the two arrays.
func (m Measurements) Calls() []SurveyCall {
	n := len(m.Bearings)
	if len(m.Distances) < n {
		n = len(m.Distances)
	}
	calls := make([]SurveyCall, 0, n)
	for i := 0; i < n; i++ {
		calls = append(calls, SurveyCall{Bearing: m.Bearings[i], Distance: m.Distances[i]})
	}
	return calls
}

// SurveyCall is a single bearing+distance edge in a call chain.
type SurveyCall struct {
	Bearing  string `json:"bearing"`
	Distance string `json:"distance"`
}

// AdditionalInfo carries document metadata used for scoring, not geometry.
type AdditionalInfo struct {
	Scale        string `json:"scale,omitempty"`
	NorthArrow   string `json:"north_arrow,omitempty"`
	SurveyorInfo string `json:"surveyor_info,omitempty"`
	County       string `json:"county,omitempty"`
	State        string `json:"state,omitempty"`
	Country      string `json:"country,omitempty"`
}
