// Package walker traverses a metes-and-bounds call chain from an anchor
// point, producing an ordered vertex sequence with per-vertex provenance.
package walker

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/geodesy"
	"github.com/sells-group/georef-cli/internal/model"
	"github.com/sells-group/georef-cli/internal/survey"
)

// Result is a completed walk: the anchor plus one vertex per usable call,
// with the parse warnings accumulated along the way.
type Result struct {
	Vertices []model.Vertex
	Warnings []string
}

// Walk traverses the call chain starting at anchor. The anchor becomes
// vertex 0. Each call moves the cursor by its parsed bearing and distance;
// a bad distance drops that call entirely, while a bad bearing degrades to
// azimuth 0 (due north) so the chain keeps its length. Labels, when
// provided, are attached positionally.
func Walk(anchor model.ReferencePoint, calls []model.SurveyCall, labels []model.VertexLabel) Result {
	// An empty chain is stage failure, not a single-point boundary.
	if len(calls) == 0 {
		return Result{}
	}

	result := Result{
		Vertices: []model.Vertex{{
			PointID:     "START",
			Latitude:    anchor.Latitude,
			Longitude:   anchor.Longitude,
			Description: anchorDescription(anchor),
			Method:      model.VertexFromReference,
		}},
	}

	lat, lon := anchor.Latitude, anchor.Longitude
	for i, call := range calls {
		distance, err := survey.ParseDistance(call.Distance)
		if err != nil {
			warning := fmt.Sprintf("call %d skipped: %v", i+1, err)
			result.Warnings = append(result.Warnings, warning)
			zap.L().Warn("walker: skipping call",
				zap.Int("call", i+1),
				zap.String("distance", call.Distance),
				zap.Error(err),
			)
			continue
		}

		azimuth, err := survey.ParseBearing(call.Bearing)
		if err != nil {
			// Degraded, not dropped: the edge length is still known, so the
			// vertex is placed due north and flagged.
			azimuth = 0
			warning := fmt.Sprintf("call %d bearing unparseable, assumed due north: %v", i+1, err)
			result.Warnings = append(result.Warnings, warning)
			zap.L().Warn("walker: bearing unparseable, assuming due north",
				zap.Int("call", i+1),
				zap.String("bearing", call.Bearing),
			)
		}

		lat, lon = geodesy.DestinationPoint(lat, lon, azimuth, distance)

		v := model.Vertex{
			PointID:           fmt.Sprintf("P%d", i+1),
			Latitude:          lat,
			Longitude:         lon,
			Method:            model.VertexFromSurvey,
			BearingUsed:       call.Bearing,
			DistanceUsed:      call.Distance,
			AzimuthCalculated: fmt.Sprintf("%.4f", azimuth),
		}
		if i < len(labels) {
			if labels[i].PointID != "" {
				v.PointID = labels[i].PointID
			}
			v.Description = labels[i].Description
		}
		result.Vertices = append(result.Vertices, v)
	}

	return result
}

func anchorDescription(anchor model.ReferencePoint) string {
	if anchor.Name != "" {
		return "Walk anchor: " + anchor.Name
	}
	return "Walk anchor"
}
