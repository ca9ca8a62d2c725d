package refpoint

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// sectionKey identifies one PLSS section in a shapefile index.
type sectionKey struct {
	section     int
	township    int
	townshipDir string
	rangeNum    int
	rangeDir    string
}

// ShapefileCalibration locates sections from a BLM PLSS section shapefile,
// indexed once at load time. It outranks the synthetic township grids when
// present, since the shapefile carries surveyed geometry.
type ShapefileCalibration struct {
	name     string
	sections map[sectionKey][2]float64 // key -> (lat, lon) centroid
}

// blm CadNSDI first-division attribute names.
const (
	fieldSection     = "FRSTDIVNO"
	fieldTownship    = "TWNSHPNO"
	fieldTownshipDir = "TWNSHPDIR"
	fieldRange       = "RANGENO"
	fieldRangeDir    = "RANGEDIR"
)

// LoadShapefileCalibration reads a PLSS section shapefile and builds a
// centroid index keyed by section/township/range.
func LoadShapefileCalibration(path string) (*ShapefileCalibration, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "refpoint: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	idx := map[string]int{}
	for i, f := range fields {
		idx[strings.ToUpper(strings.TrimRight(string(f.Name[:]), "\x00"))] = i
	}
	for _, required := range []string{fieldSection, fieldTownship, fieldTownshipDir, fieldRange, fieldRangeDir} {
		if _, ok := idx[required]; !ok {
			return nil, eris.Errorf("refpoint: shapefile %s missing field %s", path, required)
		}
	}

	cal := &ShapefileCalibration{
		name:     "shapefile:" + path,
		sections: map[sectionKey][2]float64{},
	}

	// DBF values carry trailing NUL padding.
	attr := func(field string) string {
		return strings.Trim(reader.Attribute(idx[field]), " \x00")
	}

	for reader.Next() {
		_, shape := reader.Shape()

		section, err := strconv.Atoi(attr(fieldSection))
		if err != nil {
			continue
		}
		township, err := strconv.Atoi(attr(fieldTownship))
		if err != nil {
			continue
		}
		rangeNum, err := strconv.Atoi(attr(fieldRange))
		if err != nil {
			continue
		}

		key := sectionKey{
			section:     section,
			township:    township,
			townshipDir: strings.ToUpper(attr(fieldTownshipDir)),
			rangeNum:    rangeNum,
			rangeDir:    strings.ToUpper(attr(fieldRangeDir)),
		}

		box := shape.BBox()
		lat := (box.MinY + box.MaxY) / 2
		lon := (box.MinX + box.MaxX) / 2
		cal.sections[key] = [2]float64{lat, lon}
	}

	zap.L().Info("refpoint: shapefile calibration loaded",
		zap.String("path", path),
		zap.Int("sections", len(cal.sections)),
	)
	return cal, nil
}

// Name implements Calibration.
func (c *ShapefileCalibration) Name() string { return c.name }

// Locate implements Calibration from the section index.
func (c *ShapefileCalibration) Locate(ref PLSSReference) (float64, float64, bool) {
	key := sectionKey{
		section:     ref.Section,
		township:    ref.Township,
		townshipDir: ref.TownshipDir,
		rangeNum:    ref.Range,
		rangeDir:    ref.RangeDir,
	}
	center, ok := c.sections[key]
	if !ok {
		return 0, 0, false
	}
	return center[0], center[1], true
}
