// Package refpoint resolves candidate anchor points for a survey walk:
// geocoded addresses, PLSS section estimates, county parcel lookups, and
// supplementary road references.
package refpoint

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/model"
	"github.com/sells-group/georef-cli/pkg/geocode"
)

// ParcelLocator is the extension point for parcel-number lookups that
// return a single representative point (not a full boundary). The general
// deployment has no such source and uses NoParcelLocator.
type ParcelLocator interface {
	Locate(ctx context.Context, parcelNumber string, details model.PropertyDetails) (*model.ReferencePoint, error)
}

// NoParcelLocator is the default no-op parcel locator.
type NoParcelLocator struct{}

// Locate always reports no result.
func (NoParcelLocator) Locate(context.Context, string, model.PropertyDetails) (*model.ReferencePoint, error) {
	return nil, nil
}

// Resolver produces ordered anchor candidates from property details.
type Resolver struct {
	geocoder geocode.Client
	plss     *PLSSResolver
	parcels  ParcelLocator
	timeout  time.Duration
}

// ResolverOption configures the Resolver.
type ResolverOption func(*Resolver)

// WithParcelLocator sets the parcel lookup extension point.
func WithParcelLocator(p ParcelLocator) ResolverOption {
	return func(r *Resolver) { r.parcels = p }
}

// WithGeocodeTimeout bounds each individual geocoding call.
func WithGeocodeTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.timeout = d }
}

// NewResolver creates a Resolver over the given geocoder and PLSS strategy.
func NewResolver(geocoder geocode.Client, plss *PLSSResolver, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		geocoder: geocoder,
		plss:     plss,
		parcels:  NoParcelLocator{},
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve produces anchor candidates in fixed precedence: address
// geocoding, then PLSS parsing, then parcel lookup, stopping at the
// first sub-method that yields a primary point. Supplementary road
// references are always appended. It never fails hard: exhausting every
// method returns an empty slice, which the caller treats as stage failure.
func (r *Resolver) Resolve(ctx context.Context, details model.PropertyDetails) []model.ReferencePoint {
	var points []model.ReferencePoint

	if p := r.resolveAddresses(ctx, details.Addresses); p != nil {
		points = append(points, *p)
	}

	if len(points) == 0 && details.LegalDescription != "" {
		if p := r.plss.Resolve(details.LegalDescription); p != nil {
			points = append(points, *p)
		}
	}

	if len(points) == 0 {
		for _, parcel := range details.ParcelNumbers {
			p, err := r.parcels.Locate(ctx, parcel, details)
			if err != nil {
				zap.L().Warn("refpoint: parcel lookup failed",
					zap.String("parcel", parcel),
					zap.Error(err),
				)
				continue
			}
			if p != nil {
				points = append(points, *p)
				break
			}
		}
	}

	// Road references supplement whatever primary anchor was found; they
	// are never a substitute for one on their own precedence tier.
	points = append(points, r.resolveRoadReferences(ctx, details)...)

	return DedupeByCell(points)
}

// resolveAddresses geocodes each address, normalized first, then retried
// as a bare "street, city" pair. The first match wins.
func (r *Resolver) resolveAddresses(ctx context.Context, addresses []string) *model.ReferencePoint {
	for _, address := range addresses {
		if address == "" {
			continue
		}

		queries := []string{NormalizeAddress(address)}
		if simplified := simplifyAddress(address); simplified != "" {
			queries = append(queries, simplified)
		}

		for _, q := range queries {
			result := r.geocodeQuery(ctx, q)
			if result == nil {
				continue
			}
			zap.L().Info("refpoint: address geocoded",
				zap.String("address", address),
				zap.String("query", q),
				zap.Float64("lat", result.Latitude),
				zap.Float64("lon", result.Longitude),
			)
			return &model.ReferencePoint{
				Type:       model.RefPropertyCenter,
				Name:       address,
				Latitude:   result.Latitude,
				Longitude:  result.Longitude,
				Accuracy:   model.AccuracyAddressLevel,
				Confidence: 0.8,
			}
		}
	}
	return nil
}

// resolveRoadReferences geocodes named roads near the property.
func (r *Resolver) resolveRoadReferences(ctx context.Context, details model.PropertyDetails) []model.ReferencePoint {
	var points []model.ReferencePoint
	for _, road := range details.ReferencePoints.RoadReferences {
		if road == "" {
			continue
		}

		query := road
		if len(details.Addresses) > 0 {
			query = road + " near " + details.Addresses[0]
		}

		result := r.geocodeQuery(ctx, query)
		if result == nil {
			continue
		}
		points = append(points, model.ReferencePoint{
			Type:       model.RefRoadReference,
			Name:       road,
			Latitude:   result.Latitude,
			Longitude:  result.Longitude,
			Accuracy:   model.AccuracyAddressLevel,
			Confidence: 0.7,
		})
	}
	return points
}

// geocodeQuery runs one bounded geocode call, flattening errors and
// non-matches to nil.
func (r *Resolver) geocodeQuery(ctx context.Context, query string) *geocode.Result {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.geocoder.Geocode(callCtx, query)
	if err != nil {
		zap.L().Warn("refpoint: geocoding failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	if result == nil || !result.Matched {
		return nil
	}
	return result
}

// abbreviations expanded before geocoding. Only trailing-token forms are
// rewritten so "State St" doesn't become "Statereet".
var addressExpansions = map[string]string{
	"rd":  "Road",
	"rd.": "Road",
	"st":  "Street",
	"st.": "Street",
}

// NormalizeAddress expands common road-type abbreviations token-wise.
func NormalizeAddress(address string) string {
	fields := strings.Fields(address)
	for i, f := range fields {
		trailingComma := strings.HasSuffix(f, ",")
		token := strings.ToLower(strings.TrimSuffix(f, ","))
		if expanded, ok := addressExpansions[token]; ok {
			if trailingComma {
				expanded += ","
			}
			fields[i] = expanded
		}
	}
	return strings.Join(fields, " ")
}

// simplifyAddress truncates an address to its "street, city" tokens for a
// retry when the full address fails to geocode. Returns "" when the
// address has fewer than two comma-separated parts.
func simplifyAddress(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[0]) + ", " + strings.TrimSpace(parts[1])
}

// Best selects the anchor to walk from: highest confidence, ties broken
// by earliest discovery order. The comparison is explicit so candidate
// reordering upstream cannot change the outcome. Returns false when the
// slice is empty.
func Best(points []model.ReferencePoint) (model.ReferencePoint, bool) {
	if len(points) == 0 {
		return model.ReferencePoint{}, false
	}
	best := points[0]
	for _, p := range points[1:] {
		if p.Confidence > best.Confidence {
			best = p
		}
	}
	return best, true
}
