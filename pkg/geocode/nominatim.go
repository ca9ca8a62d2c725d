package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

// nominatimUserAgent identifies this tool per the Nominatim usage policy.
const nominatimUserAgent = "georef-cli/1.0 (parcel geo-referencing)"

// NominatimProvider geocodes via the Nominatim search API.
type NominatimProvider struct {
	baseURL string
	http    *http.Client
}

// NewNominatimProvider creates a NominatimProvider. An empty baseURL uses
// the public openstreetmap.org instance.
func NewNominatimProvider(baseURL string) *NominatimProvider {
	if baseURL == "" {
		baseURL = defaultNominatimBaseURL
	}
	return &NominatimProvider{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return "nominatim" }

// Available implements Provider.
func (p *NominatimProvider) Available() bool { return true }

// nominatimPlace is one entry of the Nominatim search response.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode implements Provider against GET /search.
func (p *NominatimProvider) Geocode(ctx context.Context, query string) (*Result, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: create request")
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: search request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("nominatim: search returned %d: %s", resp.StatusCode, string(body))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, eris.Wrap(err, "nominatim: decode response")
	}

	if len(places) == 0 {
		return &Result{Matched: false, Source: p.Name()}, nil
	}

	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		zap.L().Warn("nominatim: malformed coordinates in response",
			zap.String("query", query),
			zap.String("lat", places[0].Lat),
			zap.String("lon", places[0].Lon),
		)
		return &Result{Matched: false, Source: p.Name()}, nil
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: places[0].DisplayName,
		Source:      p.Name(),
		Matched:     true,
	}, nil
}
