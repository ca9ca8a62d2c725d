package refpoint

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/georef-cli/internal/model"
)

// PLSSReference is a parsed section/township/range triple.
type PLSSReference struct {
	Section     int
	Township    int
	TownshipDir string // "N" or "S"
	Range       int
	RangeDir    string // "E" or "W"
}

var (
	sectionRe  = regexp.MustCompile(`(?i)section\s+(\d+)`)
	townshipRe = regexp.MustCompile(`(?i)township\s+(\d+)\s*(north|south|[ns])`)
	rangeRe    = regexp.MustCompile(`(?i)range\s+(\d+)\s*(east|west|[ew])`)
)

// ParsePLSS extracts a section/township/range reference from a legal
// description. All three components must be present.
func ParsePLSS(legalDescription string) (PLSSReference, bool) {
	sec := sectionRe.FindStringSubmatch(legalDescription)
	twp := townshipRe.FindStringSubmatch(legalDescription)
	rng := rangeRe.FindStringSubmatch(legalDescription)
	if sec == nil || twp == nil || rng == nil {
		return PLSSReference{}, false
	}

	section, _ := strconv.Atoi(sec[1])
	township, _ := strconv.Atoi(twp[1])
	rangeNum, _ := strconv.Atoi(rng[1])
	if section < 1 || section > 36 {
		return PLSSReference{}, false
	}

	return PLSSReference{
		Section:     section,
		Township:    township,
		TownshipDir: strings.ToUpper(twp[2][:1]),
		Range:       rangeNum,
		RangeDir:    strings.ToUpper(rng[2][:1]),
	}, true
}

// Calibration converts a PLSS reference to an approximate coordinate.
// Implementations are jurisdiction-specific; a resolver tries its
// calibrations in order and stops at the first hit.
type Calibration interface {
	Name() string
	Locate(ref PLSSReference) (lat, lon float64, ok bool)
}

// sectionSpanDegrees is the approximate angular size of one PLSS section
// (1 mile) at mid-northern latitudes.
const sectionSpanDegrees = 0.0145

// sectionOffset returns the (lat, lon) offset of a section within its
// township grid. Sections are numbered 1-36 boustrophedon from the NE
// corner; the approximation here uses simple row/column placement.
func sectionOffset(section int) (latOff, lonOff float64) {
	row := (36 - section) / 6
	col := (section - 1) % 6
	return float64(row) * sectionSpanDegrees, float64(col) * sectionSpanDegrees
}

// TownshipCalibration anchors one specific township/range to a surveyed
// base coordinate.
type TownshipCalibration struct {
	Jurisdiction string  `yaml:"jurisdiction"`
	Township     int     `yaml:"township"`
	TownshipDir  string  `yaml:"township_dir"`
	Range        int     `yaml:"range"`
	RangeDir     string  `yaml:"range_dir"`
	BaseLat      float64 `yaml:"base_lat"`
	BaseLon      float64 `yaml:"base_lon"`
}

// Name implements Calibration.
func (c TownshipCalibration) Name() string { return c.Jurisdiction }

// Locate implements Calibration for the calibrated township only.
func (c TownshipCalibration) Locate(ref PLSSReference) (float64, float64, bool) {
	if ref.Township != c.Township || ref.TownshipDir != c.TownshipDir ||
		ref.Range != c.Range || ref.RangeDir != c.RangeDir {
		return 0, 0, false
	}
	latOff, lonOff := sectionOffset(ref.Section)
	return c.BaseLat + latOff, c.BaseLon + lonOff, true
}

// skamaniaCalibration is the builtin calibration for T1N R5E in Skamania
// County, WA, the primary survey area this tool was built for.
var skamaniaCalibration = TownshipCalibration{
	Jurisdiction: "skamania_t1n_r5e",
	Township:     1,
	TownshipDir:  "N",
	Range:        5,
	RangeDir:     "E",
	BaseLat:      45.730,
	BaseLon:      -122.110,
}

// WashingtonFallback is the coarse statewide approximation used when no
// township-specific calibration matches. Townships span ~6 miles
// (~0.087°) from the Willamette meridian baseline.
type WashingtonFallback struct{}

// Name implements Calibration.
func (WashingtonFallback) Name() string { return "washington_fallback" }

// Locate implements Calibration for any Washington-plausible reference.
func (WashingtonFallback) Locate(ref PLSSReference) (float64, float64, bool) {
	const baseLat, baseLon, townshipSpan = 46.0, -121.0, 0.087

	latDir, lonDir := 1.0, 1.0
	if ref.TownshipDir == "S" {
		latDir = -1
	}
	if ref.RangeDir == "W" {
		lonDir = -1
	}

	latOff := float64((ref.Section-1)/6) * sectionSpanDegrees
	lonOff := float64((ref.Section-1)%6) * sectionSpanDegrees

	lat := baseLat + float64(ref.Township-1)*townshipSpan*latDir + latOff
	lon := baseLon + float64(ref.Range-1)*townshipSpan*lonDir + lonOff
	return lat, lon, true
}

// PLSSResolver turns legal descriptions into section-level anchors using
// an ordered calibration chain.
type PLSSResolver struct {
	calibrations []Calibration
}

// NewPLSSResolver creates a resolver over the given calibrations, tried in
// order. Passing none installs the builtin chain (Skamania township, then
// the statewide fallback).
func NewPLSSResolver(calibrations ...Calibration) *PLSSResolver {
	if len(calibrations) == 0 {
		calibrations = []Calibration{skamaniaCalibration, WashingtonFallback{}}
	}
	return &PLSSResolver{calibrations: calibrations}
}

// calibrationFile is the YAML shape of a calibration config file.
type calibrationFile struct {
	Calibrations []TownshipCalibration `yaml:"calibrations"`
}

// LoadCalibrations reads township calibrations from a YAML file and
// returns a resolver trying them before the builtin chain. A missing path
// returns the builtin resolver.
func LoadCalibrations(path string) (*PLSSResolver, error) {
	if path == "" {
		return NewPLSSResolver(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewPLSSResolver(), nil
		}
		return nil, eris.Wrapf(err, "refpoint: read calibrations %s", path)
	}

	var f calibrationFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "refpoint: parse calibrations %s", path)
	}

	chain := make([]Calibration, 0, len(f.Calibrations)+2)
	for _, c := range f.Calibrations {
		chain = append(chain, c)
	}
	chain = append(chain, skamaniaCalibration, WashingtonFallback{})
	return &PLSSResolver{calibrations: chain}, nil
}

// WithPriorityCalibration returns a resolver that tries cal before the
// existing chain.
func (r *PLSSResolver) WithPriorityCalibration(cal Calibration) *PLSSResolver {
	chain := make([]Calibration, 0, len(r.calibrations)+1)
	chain = append(chain, cal)
	chain = append(chain, r.calibrations...)
	return &PLSSResolver{calibrations: chain}
}

// Resolve parses the legal description and locates it through the
// calibration chain. Returns nil when the description has no complete
// PLSS reference or no calibration covers it.
func (r *PLSSResolver) Resolve(legalDescription string) *model.ReferencePoint {
	ref, ok := ParsePLSS(legalDescription)
	if !ok {
		return nil
	}

	for _, cal := range r.calibrations {
		lat, lon, ok := cal.Locate(ref)
		if !ok {
			continue
		}
		zap.L().Info("refpoint: PLSS reference located",
			zap.String("calibration", cal.Name()),
			zap.Int("section", ref.Section),
			zap.String("township", strconv.Itoa(ref.Township)+ref.TownshipDir),
			zap.String("range", strconv.Itoa(ref.Range)+ref.RangeDir),
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
		)
		return &model.ReferencePoint{
			Type:       model.RefPropertyCenter,
			Name:       "PLSS section estimate",
			Latitude:   lat,
			Longitude:  lon,
			Accuracy:   model.AccuracySectionLevel,
			Confidence: 0.6,
		}
	}
	return nil
}
