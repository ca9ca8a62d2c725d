package survey

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// FeetToMeters is the conversion factor for survey distances given in feet.
const FeetToMeters = 0.3048

var numberToken = regexp.MustCompile(`\d+\.?\d*`)

// metric markers must be checked before the bare-quote foot marker so
// "meters" isn't mangled into "eters".
var metricSuffixes = []string{"meters", "meter", "m"}
var footSuffixes = []string{"feet", "ft", "'"}

// ParseDistance converts a raw distance string like `1,680.53'` or
// `512 ft` into meters. Unitless values are treated as feet, matching
// US survey plat convention. An unparseable distance returns an error;
// callers skip that single call rather than failing the chain.
func ParseDistance(text string) (float64, error) {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	metric := false
	for _, suffix := range metricSuffixes {
		if strings.HasSuffix(cleaned, suffix) {
			cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, suffix))
			metric = true
			break
		}
	}
	if !metric {
		for _, suffix := range footSuffixes {
			if strings.HasSuffix(cleaned, suffix) {
				cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, suffix))
				break
			}
		}
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		// Fall back to the first embedded numeric token, e.g. "about 512.3 ft".
		token := numberToken.FindString(cleaned)
		if token == "" {
			return 0, eris.Errorf("survey: unparseable distance %q", text)
		}
		value, err = strconv.ParseFloat(token, 64)
		if err != nil {
			return 0, eris.Errorf("survey: unparseable distance %q", text)
		}
	}

	if metric {
		return value, nil
	}
	return value * FeetToMeters, nil
}
