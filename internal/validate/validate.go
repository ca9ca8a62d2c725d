// Package validate checks a walked boundary against closure, anchor
// proximity, and stated-area agreement, and scores overall document
// quality for confidence adjustment.
package validate

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/geodesy"
	"github.com/sells-group/georef-cli/internal/model"
)

const (
	// ClosureToleranceMeters is the first-to-last vertex distance below
	// which a traverse counts as closed.
	ClosureToleranceMeters = 10.0

	// proximityToleranceMeters bounds how far every vertex may be from the
	// anchor before the proximity check fails.
	proximityToleranceMeters = 1000.0

	// areaToleranceRatio is the accepted relative error between the
	// shoelace estimate and the document's stated acreage.
	areaToleranceRatio = 0.10

	closureWeight   = 0.3
	proximityWeight = 0.2
	areaWeight      = 0.3
)

// Boundary validates a vertex sequence against its anchor and the stated
// acreage. Fewer than 3 vertices fails every check with confidence 0. The
// confidence is the raw additive sum of passing checks (maximum 0.8); the
// orchestrator layers method confidence on top and clamps.
func Boundary(vertices []model.Vertex, anchor model.ReferencePoint, statedAcres float64) model.ValidationResult {
	var result model.ValidationResult
	if len(vertices) < 3 {
		return result
	}

	first, last := vertices[0], vertices[len(vertices)-1]
	closure := geodesy.Distance(first.Latitude, first.Longitude, last.Latitude, last.Longitude)
	if closure < ClosureToleranceMeters {
		result.ClosureCheck = true
		result.OverallConfidence += closureWeight
	}

	for _, v := range vertices {
		if geodesy.Distance(v.Latitude, v.Longitude, anchor.Latitude, anchor.Longitude) < proximityToleranceMeters {
			result.ReferenceProximity = true
			result.OverallConfidence += proximityWeight
			break
		}
	}

	if statedAcres > 0 {
		estimated := geodesy.PolygonAreaAcres(vertices)
		if estimated > 0 && math.Abs(estimated-statedAcres)/statedAcres < areaToleranceRatio {
			result.AreaValidation = true
			result.OverallConfidence += areaWeight
		}
	}

	zap.L().Debug("validate: boundary checked",
		zap.Float64("closure_m", closure),
		zap.Bool("closure", result.ClosureCheck),
		zap.Bool("proximity", result.ReferenceProximity),
		zap.Bool("area", result.AreaValidation),
		zap.Float64("confidence", result.OverallConfidence),
	)
	return result
}
