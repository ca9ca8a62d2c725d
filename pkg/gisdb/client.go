package gisdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/model"
	"github.com/sells-group/georef-cli/internal/resilience"
)

// ParcelResult holds authoritative boundary coordinates from a county GIS.
type ParcelResult struct {
	Vertices   []model.Vertex `json:"vertices"`
	Confidence float64        `json:"confidence"`
	Source     string         `json:"source"`
}

// Lookup searches county parcel services for a property's boundary.
type Lookup interface {
	// Search queries the given endpoints for the property's parcel
	// numbers. Returns nil (not an error) when nothing is found; the
	// caller treats that as stage failure.
	Search(ctx context.Context, details model.PropertyDetails, endpoints []Endpoint) (*ParcelResult, error)
}

// Client queries ArcGIS REST parcel layers.
type Client struct {
	http  *http.Client
	retry resilience.RetryConfig
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithRetryConfig overrides the retry policy for endpoint queries.
func WithRetryConfig(cfg resilience.RetryConfig) ClientOption {
	return func(c *Client) { c.retry = cfg }
}

// NewClient creates a county GIS client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:  &http.Client{Timeout: 15 * time.Second},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// arcgisResponse is the subset of an ArcGIS query reply we decode.
type arcgisResponse struct {
	Features []struct {
		Geometry struct {
			Rings [][][]float64 `json:"rings"`
		} `json:"geometry"`
	} `json:"features"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Search implements Lookup. Each parcel number is tried against each
// endpoint; the first feature with a boundary ring wins.
func (c *Client) Search(ctx context.Context, details model.PropertyDetails, endpoints []Endpoint) (*ParcelResult, error) {
	if len(details.ParcelNumbers) == 0 || len(endpoints) == 0 {
		return nil, nil
	}

	for _, endpoint := range endpoints {
		for _, parcel := range details.ParcelNumbers {
			vertices, err := c.queryParcel(ctx, endpoint, parcel)
			if err != nil {
				zap.L().Warn("gisdb: endpoint query failed",
					zap.String("endpoint", endpoint.Name),
					zap.String("parcel", parcel),
					zap.Error(err),
				)
				continue
			}
			if len(vertices) == 0 {
				continue
			}
			zap.L().Info("gisdb: parcel boundary found",
				zap.String("endpoint", endpoint.Name),
				zap.String("parcel", parcel),
				zap.Int("vertices", len(vertices)),
			)
			return &ParcelResult{
				Vertices:   vertices,
				Confidence: 0.9,
				Source:     endpoint.Name,
			}, nil
		}
	}

	return nil, nil
}

// queryParcel runs a single ArcGIS query with retries on transient errors.
func (c *Client) queryParcel(ctx context.Context, endpoint Endpoint, parcel string) ([]model.Vertex, error) {
	field := endpoint.ParcelField
	if field == "" {
		field = "PARCEL_ID"
	}

	q := url.Values{}
	q.Set("where", fmt.Sprintf("%s='%s'", field, parcel))
	q.Set("outFields", field)
	q.Set("returnGeometry", "true")
	q.Set("outSR", "4326")
	q.Set("f", "json")
	queryURL := endpoint.URL + "/query?" + q.Encode()

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*arcgisResponse, error) {
		return c.doQuery(ctx, queryURL)
	})
	if err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, eris.Errorf("gisdb: %s returned error %d: %s", endpoint.Name, resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Features) == 0 {
		return nil, nil
	}

	rings := resp.Features[0].Geometry.Rings
	if len(rings) == 0 || len(rings[0]) < 3 {
		return nil, nil
	}

	return ringToVertices(rings[0]), nil
}

func (c *Client) doQuery(ctx context.Context, queryURL string) (*arcgisResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "gisdb: create request")
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "gisdb: query request")
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		err := eris.Errorf("gisdb: query returned %d: %s", httpResp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(httpResp.StatusCode) {
			return nil, resilience.NewTransientError(err, httpResp.StatusCode)
		}
		return nil, err
	}

	var resp arcgisResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, eris.Wrap(err, "gisdb: decode response")
	}
	return &resp, nil
}

// ringToVertices converts an ArcGIS ring ([x=lon, y=lat] pairs) into the
// engine's vertex sequence, dropping the duplicated closing point.
func ringToVertices(ring [][]float64) []model.Vertex {
	n := len(ring)
	if n > 1 {
		first, last := ring[0], ring[n-1]
		if len(first) >= 2 && len(last) >= 2 && first[0] == last[0] && first[1] == last[1] {
			n--
		}
	}

	vertices := make([]model.Vertex, 0, n)
	for i := 0; i < n; i++ {
		pt := ring[i]
		if len(pt) < 2 {
			continue
		}
		vertices = append(vertices, model.Vertex{
			PointID:     fmt.Sprintf("P%d", i+1),
			Longitude:   pt[0],
			Latitude:    pt[1],
			Description: "County GIS parcel boundary",
			Method:      model.VertexFromReference,
		})
	}
	return vertices
}
