package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ipo-sim/internal/geo"
)

const mapboxGeocodeURL = "https://api.mapbox.com/geocoding/v5/mapbox.places/"

type mapboxResponse struct {
	Features []struct {
		Center    []float64 `json:"center"`
		PlaceName string    `json:"place_name"`
	} `json:"features"`
}

// MapboxProvider geocodes through the Mapbox Places API. It requires an access
// token and biases results toward the service area.
type MapboxProvider struct {
	httpProvider
	token     string
	bounds    geo.Bounds
	proximity geo.LatLng
}

// NewMapboxProvider creates a MapboxProvider constrained to bounds and biased
// toward proximity.
func NewMapboxProvider(token string, bounds geo.Bounds, proximity geo.LatLng, opts ...Option) *MapboxProvider {
	return &MapboxProvider{
		httpProvider: newHTTPProvider(mapboxGeocodeURL, opts),
		token:        strings.TrimSpace(token),
		bounds:       bounds,
		proximity:    proximity,
	}
}

// Name implements Provider.
func (p *MapboxProvider) Name() string { return "mapbox" }

// Available implements Provider.
func (p *MapboxProvider) Available() bool { return p.token != "" }

// Geocode implements Provider.
func (p *MapboxProvider) Geocode(ctx context.Context, query string) (*Result, error) {
	if !p.Available() {
		return nil, eris.New("geocode: mapbox token not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return &Result{Source: "mapbox"}, nil
	}

	params := url.Values{
		"access_token": {p.token},
		"limit":        {"1"},
		"bbox":         {p.bounds.BBox()},
		"proximity":    {fmt.Sprintf("%g,%g", p.proximity.Lng(), p.proximity.Lat())},
	}
	base := strings.TrimSuffix(p.baseURL, "/") + "/"
	reqURL := base + url.PathEscape(query) + ".json?" + params.Encode()

	body, err := p.get(ctx, "mapbox", reqURL)
	if err != nil {
		return nil, err
	}

	var resp mapboxResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "geocode: mapbox parse response")
	}
	if len(resp.Features) == 0 || len(resp.Features[0].Center) != 2 {
		return &Result{Source: "mapbox"}, nil
	}

	f := resp.Features[0]
	r := &Result{
		Lat:     f.Center[1],
		Lng:     f.Center[0],
		Source:  "mapbox",
		Label:   f.PlaceName,
		Matched: true,
	}
	if !r.Position().Finite() {
		return &Result{Source: "mapbox"}, nil
	}
	return r, nil
}
