// Package survey parses raw survey-call strings (quadrant bearings and
// distances with unit suffixes) into azimuth degrees and meters.
package survey

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Bearing grammar: [N|S][dd]°[mm]'[ss]"[E|W] with minutes and seconds
// optional. Full-word quadrant names are normalized to letters first.
var bearingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^([NS])(\d{1,3})°(\d{1,2})'(\d{1,2})"?([EW])$`), // degrees, minutes, seconds
	regexp.MustCompile(`^([NS])(\d{1,3})°(\d{1,2})'([EW])$`),           // degrees, minutes
	regexp.MustCompile(`^([NS])(\d{1,3})°([EW])$`),                     // degrees only
}

var wordQuadrants = strings.NewReplacer(
	"NORTH", "N",
	"SOUTH", "S",
	"EAST", "E",
	"WEST", "W",
)

// ParseBearing converts a quadrant bearing like `N88°57'56"W` into an
// azimuth in degrees clockwise from true north. Unparseable input returns
// 0.0 with a non-nil error; callers must report it as a parse warning and
// never fold the zero into aggregate bearing statistics.
func ParseBearing(text string) (float64, error) {
	cleaned := wordQuadrants.Replace(strings.ToUpper(strings.TrimSpace(text)))
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	// Smart quotes show up in OCR'd survey text.
	cleaned = strings.NewReplacer("’", "'", "`", "'", "”", `"`, "''", `"`).Replace(cleaned)

	var m []string
	for _, re := range bearingPatterns {
		if m = re.FindStringSubmatch(cleaned); m != nil {
			break
		}
	}
	if m == nil {
		return 0, eris.Errorf("survey: unparseable bearing %q", text)
	}

	ns := m[1]
	var ew string
	degrees, _ := strconv.ParseFloat(m[2], 64)
	var minutes, seconds float64
	switch len(m) {
	case 6: // with seconds
		minutes, _ = strconv.ParseFloat(m[3], 64)
		seconds, _ = strconv.ParseFloat(m[4], 64)
		ew = m[5]
	case 5: // without seconds
		minutes, _ = strconv.ParseFloat(m[3], 64)
		ew = m[4]
	default: // degrees only
		ew = m[3]
	}

	decimal := degrees + minutes/60 + seconds/3600

	switch {
	case ns == "N" && ew == "E":
		return decimal, nil
	case ns == "S" && ew == "E":
		return 180 - decimal, nil
	case ns == "S" && ew == "W":
		return 180 + decimal, nil
	case ns == "N" && ew == "W":
		return 360 - decimal, nil
	}
	return 0, eris.Errorf("survey: unparseable bearing %q", text)
}
