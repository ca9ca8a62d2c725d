package refpoint

import (
	"github.com/uber/h3-go/v4"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/model"
)

// dedupeResolution is the H3 resolution used to collapse near-duplicate
// anchors. Resolution 10 cells average ~66m across, tight enough that two
// points in one cell describe the same feature.
const dedupeResolution = 10

// DedupeByCell collapses reference points that fall into the same H3 cell,
// keeping the highest-confidence point per cell and preserving discovery
// order among the survivors.
func DedupeByCell(points []model.ReferencePoint) []model.ReferencePoint {
	if len(points) < 2 {
		return points
	}

	type slot struct {
		index int
		point model.ReferencePoint
	}
	byCell := make(map[h3.Cell]*slot, len(points))
	order := make([]h3.Cell, 0, len(points))

	for i, p := range points {
		cell, err := h3.LatLngToCell(h3.LatLng{Lat: p.Latitude, Lng: p.Longitude}, dedupeResolution)
		if err != nil {
			zap.L().Warn("refpoint: cell index failed, keeping point as-is",
				zap.Float64("lat", p.Latitude),
				zap.Float64("lon", p.Longitude),
				zap.Error(err),
			)
			// An unindexable point can't collide with anything; give it a
			// synthetic slot keyed off its position.
			cell = h3.Cell(^uint64(i))
		}

		existing, ok := byCell[cell]
		if !ok {
			byCell[cell] = &slot{index: i, point: p}
			order = append(order, cell)
			continue
		}
		if p.Confidence > existing.point.Confidence {
			existing.point = p
		}
	}

	if len(order) == len(points) {
		return points
	}

	out := make([]model.ReferencePoint, 0, len(order))
	for _, cell := range order {
		out = append(out, byCell[cell].point)
	}
	zap.L().Debug("refpoint: deduplicated anchors",
		zap.Int("before", len(points)),
		zap.Int("after", len(out)),
	)
	return out
}
