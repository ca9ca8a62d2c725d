package validate

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/model"
	"github.com/sells-group/georef-cli/pkg/geocode"
)

// QualityCheck is one scored document-quality dimension.
type QualityCheck struct {
	Name    string  `json:"check"`
	Score   float64 `json:"score"`
	Details string  `json:"details"`
}

// QualityReport scores the extraction record itself, independent of any
// boundary geometry, and converts the average into a confidence delta
// applied to the extractor's own score.
type QualityReport struct {
	Checks               []QualityCheck `json:"validation_checks"`
	Score                float64        `json:"validation_score"`
	ConfidenceAdjustment float64        `json:"confidence_adjustment"`
	RecommendedScore     float64        `json:"recommended_confidence"`
}

// Quality runs the five document checks and folds the result into the
// record's extraction confidence. The geocoder is optional; without one
// the geographic check scores neutral.
func Quality(ctx context.Context, record model.ExtractionRecord, geocoder geocode.Client) QualityReport {
	report := QualityReport{
		Checks: []QualityCheck{
			{
				Name:    "Legal Description Format",
				Score:   scoreLegalDescription(record.PropertyDetails.LegalDescription),
				Details: "Format and completeness of legal description",
			},
			{
				Name:    "Measurement Consistency",
				Score:   scoreMeasurements(record.Measurements),
				Details: "Internal consistency of bearings and distances",
			},
			{
				Name:    "Property Identification",
				Score:   scoreIdentification(record.PropertyDetails),
				Details: "Parcel numbers, addresses, and legal references",
			},
			{
				Name:    "Surveyor Credentials",
				Score:   scoreSurveyor(record.AdditionalInfo.SurveyorInfo),
				Details: "Professional surveyor information and licensing",
			},
			{
				Name:    "Geographic Location",
				Score:   scoreGeography(ctx, record.PropertyDetails.Addresses, geocoder),
				Details: "Address and location consistency",
			},
		},
	}

	var total float64
	for _, c := range report.Checks {
		total += c.Score
	}
	report.Score = total / float64(len(report.Checks))
	report.ConfidenceAdjustment = confidenceAdjustment(report.Score)
	report.RecommendedScore = model.ClampConfidence(record.ConfidenceScore + report.ConfidenceAdjustment)

	zap.L().Info("validate: document quality scored",
		zap.Float64("score", report.Score),
		zap.Float64("adjustment", report.ConfidenceAdjustment),
	)
	return report
}

// confidenceAdjustment steps the quality average into a bounded delta.
func confidenceAdjustment(score float64) float64 {
	switch {
	case score >= 0.9:
		return 0.05
	case score >= 0.8:
		return 0.02
	case score >= 0.6:
		return 0.0
	case score >= 0.4:
		return -0.05
	default:
		return -0.1
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func scoreLegalDescription(legal string) float64 {
	if legal == "" {
		return 0
	}
	lower := strings.ToLower(legal)

	var score float64
	if containsAny(lower, "section", "township", "range") {
		score += 0.3
	}
	if containsAny(lower, "lot", "block", "plat") {
		score += 0.2
	}
	if containsAny(lower, "beginning", "point of beginning", "pob") {
		score += 0.2
	}
	if containsAny(lower, "thence", "bearing", "feet", "degrees") {
		score += 0.2
	}
	if strings.Contains(lower, "county") {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}

// bearingShape is a looser pattern than the parser's: it asks only whether
// the text is shaped like a quadrant bearing, not whether it parses.
var bearingShape = regexp.MustCompile(`^[NS]\d{1,3}°\d{1,2}'(\d{1,2}"?)?[EW]$`)

var digits = regexp.MustCompile(`\d`)

func scoreMeasurements(m model.Measurements) float64 {
	if len(m.Bearings) == 0 && len(m.Distances) == 0 {
		return 0
	}

	var score float64
	if len(m.Bearings) > 0 {
		score += 0.3
		valid := 0
		for _, b := range m.Bearings {
			if bearingShape.MatchString(strings.ReplaceAll(b, " ", "")) {
				valid++
			}
		}
		score += 0.2 * float64(valid) / float64(len(m.Bearings))
	}
	if len(m.Distances) > 0 {
		score += 0.3
		valid := 0
		for _, d := range m.Distances {
			if digits.MatchString(d) {
				valid++
			}
		}
		score += 0.2 * float64(valid) / float64(len(m.Distances))
	}
	if score > 1 {
		score = 1
	}
	return score
}

func scoreIdentification(details model.PropertyDetails) float64 {
	var score float64
	if len(details.Addresses) > 0 {
		score += 0.3
	}
	if len(details.ParcelNumbers) > 0 {
		score += 0.4
		for _, p := range details.ParcelNumbers {
			if len(p) >= 10 {
				score += 0.1
				break
			}
		}
	}
	if len(details.LegalDescription) > 50 {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	return score
}

var licenseNumber = regexp.MustCompile(`\d{3,6}`)

func scoreSurveyor(info string) float64 {
	if info == "" {
		return 0
	}
	lower := strings.ToLower(info)

	var score float64
	if containsAny(lower, "pls", "professional land surveyor", "reg. no") {
		score += 0.5
	}
	if licenseNumber.MatchString(info) {
		score += 0.3
	}
	if containsAny(lower, "associates", "inc", "llc", "company") {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	return score
}

func scoreGeography(ctx context.Context, addresses []string, geocoder geocode.Client) float64 {
	if len(addresses) == 0 {
		return 0.5 // nothing to contradict
	}
	if geocoder == nil {
		return 0.4
	}

	result, err := geocoder.Geocode(ctx, addresses[0])
	if err != nil {
		zap.L().Warn("validate: geography check geocode failed", zap.Error(err))
		return 0.4
	}
	if result == nil || !result.Matched {
		return 0.3
	}
	return 0.8
}
