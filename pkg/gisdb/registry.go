// Package gisdb queries county GIS parcel services (ArcGIS REST) for
// authoritative boundary coordinates. The endpoint registry stands in for
// the upstream database-discovery service, which this engine consumes as
// an opaque lookup.
package gisdb

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/georef-cli/internal/model"
)

// Endpoint describes one county parcel query service.
type Endpoint struct {
	Name        string `yaml:"name" json:"name"`
	County      string `yaml:"county" json:"county"`
	State       string `yaml:"state" json:"state"`
	Country     string `yaml:"country" json:"country"`
	URL         string `yaml:"url" json:"url"`
	ParcelField string `yaml:"parcel_field" json:"parcel_field"`
}

// Registry holds the known county GIS endpoints.
type Registry struct {
	endpoints []Endpoint
}

// registryFile is the YAML shape of a registry config file.
type registryFile struct {
	Endpoints []Endpoint `yaml:"endpoints"`
}

// builtinEndpoints covers the southwest-Washington counties this tool is
// primarily used in. A registry file extends these.
var builtinEndpoints = []Endpoint{
	{
		Name:        "skamania_county_gis",
		County:      "skamania",
		State:       "washington",
		Country:     "usa",
		URL:         "https://gis.skamaniacounty.org/arcgis/rest/services/Parcels/MapServer/0",
		ParcelField: "PARCEL_ID",
	},
	{
		Name:        "cowlitz_county_gis",
		County:      "cowlitz",
		State:       "washington",
		Country:     "usa",
		URL:         "https://gis.co.cowlitz.wa.us/arcgis/rest/services/Parcels/MapServer/0",
		ParcelField: "PARCEL_ID",
	},
	{
		Name:        "clark_county_gis",
		County:      "clark",
		State:       "washington",
		Country:     "usa",
		URL:         "https://gis.clark.wa.gov/arcgis/rest/services/Parcels/MapServer/0",
		ParcelField: "PARCEL_ID",
	},
}

// NewRegistry creates a Registry from explicit endpoints.
func NewRegistry(endpoints []Endpoint) *Registry {
	return &Registry{endpoints: endpoints}
}

// DefaultRegistry returns the builtin endpoint set.
func DefaultRegistry() *Registry {
	return &Registry{endpoints: builtinEndpoints}
}

// LoadRegistry reads endpoints from a YAML file, appending them to the
// builtin set. Missing path returns the builtin registry.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRegistry(), nil
		}
		return nil, eris.Wrapf(err, "gisdb: read registry %s", path)
	}

	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "gisdb: parse registry %s", path)
	}

	return &Registry{endpoints: append(append([]Endpoint{}, builtinEndpoints...), f.Endpoints...)}, nil
}

// Discover returns the endpoints registered for a jurisdiction,
// case-insensitively. An empty county matches nothing.
func (r *Registry) Discover(county, state, country string) []Endpoint {
	county = strings.ToLower(strings.TrimSpace(county))
	state = strings.ToLower(strings.TrimSpace(state))
	country = strings.ToLower(strings.TrimSpace(country))
	if county == "" {
		return nil
	}

	var matched []Endpoint
	for _, e := range r.endpoints {
		if strings.ToLower(e.County) != county {
			continue
		}
		if state != "" && strings.ToLower(e.State) != state {
			continue
		}
		if country != "" && e.Country != "" && strings.ToLower(e.Country) != country {
			continue
		}
		matched = append(matched, e)
	}
	return matched
}

// MatchDetails infers a jurisdiction from the property details and returns
// the endpoints covering it. The extractor's county hint wins; otherwise
// the legal description is scanned for registered county names.
func (r *Registry) MatchDetails(details model.PropertyDetails, info model.AdditionalInfo) []Endpoint {
	if info.County != "" {
		return r.Discover(info.County, info.State, info.Country)
	}

	legal := strings.ToLower(details.LegalDescription)
	for _, e := range r.endpoints {
		if e.County != "" && strings.Contains(legal, strings.ToLower(e.County)) {
			return r.Discover(e.County, "", "")
		}
	}

	for _, addr := range details.Addresses {
		lower := strings.ToLower(addr)
		for _, e := range r.endpoints {
			if e.County != "" && strings.Contains(lower, strings.ToLower(e.County)) {
				return r.Discover(e.County, "", "")
			}
		}
	}

	return nil
}
