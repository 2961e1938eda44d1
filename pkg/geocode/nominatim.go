package geocode

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

const nominatimSearchURL = "https://nominatim.openstreetmap.org/search"

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NominatimProvider geocodes through the public OpenStreetMap Nominatim API.
// The usage policy allows one request per second with an identifying User-Agent.
type NominatimProvider struct {
	httpProvider
}

// NewNominatimProvider creates a NominatimProvider.
func NewNominatimProvider(opts ...Option) *NominatimProvider {
	return &NominatimProvider{httpProvider: newHTTPProvider(nominatimSearchURL, opts)}
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return "nominatim" }

// Available implements Provider.
func (p *NominatimProvider) Available() bool { return true }

// Geocode implements Provider.
func (p *NominatimProvider) Geocode(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Result{Source: "nominatim"}, nil
	}

	params := url.Values{
		"format":         {"jsonv2"},
		"q":              {query},
		"limit":          {"1"},
		"addressdetails": {"0"},
	}
	body, err := p.get(ctx, "nominatim", p.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse response")
	}
	if len(places) == 0 {
		return &Result{Source: "nominatim"}, nil
	}

	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(places[0].Lon, 64)
	r := &Result{Lat: lat, Lng: lng, Source: "nominatim", Label: places[0].DisplayName}
	if latErr != nil || lngErr != nil || !r.Position().Finite() {
		return &Result{Source: "nominatim"}, nil
	}
	r.Matched = true
	return r, nil
}
