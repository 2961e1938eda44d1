package geocode

import (
	"context"
	"math"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// DefaultPhotonURL is the public Photon instance.
const DefaultPhotonURL = "https://photon.komoot.io/api/"

// PhotonProvider geocodes through a Photon endpoint. Its results carry the
// feature properties so callers can verify city and street metadata.
type PhotonProvider struct {
	httpProvider
}

// NewPhotonProvider creates a PhotonProvider. Use WithBaseURL to point it at
// another Photon-compatible endpoint.
func NewPhotonProvider(opts ...Option) *PhotonProvider {
	return &PhotonProvider{httpProvider: newHTTPProvider(DefaultPhotonURL, opts)}
}

// Name implements Provider.
func (p *PhotonProvider) Name() string { return "photon" }

// Available implements Provider.
func (p *PhotonProvider) Available() bool { return true }

// Geocode implements Provider.
func (p *PhotonProvider) Geocode(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Result{Source: "photon"}, nil
	}

	params := url.Values{
		"q":     {query},
		"limit": {"1"},
		"lang":  {"en"},
	}
	endpoint := strings.TrimSuffix(p.baseURL, "/")
	body, err := p.get(ctx, "photon", endpoint+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, eris.New("geocode: photon returned invalid json")
	}

	hit := gjson.GetBytes(body, "features.0")
	if !hit.Exists() {
		return &Result{Source: "photon"}, nil
	}
	coords := hit.Get("geometry.coordinates").Array()
	if len(coords) != 2 {
		return &Result{Source: "photon"}, nil
	}
	lng, lat := coords[0].Float(), coords[1].Float()
	if coords[0].Type != gjson.Number || coords[1].Type != gjson.Number ||
		math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return &Result{Source: "photon"}, nil
	}

	props := make(map[string]string)
	hit.Get("properties").ForEach(func(k, v gjson.Result) bool {
		switch v.Type {
		case gjson.String, gjson.Number:
			props[k.String()] = v.String()
		}
		return true
	})

	return &Result{
		Lat:        lat,
		Lng:        lng,
		Source:     "photon",
		Label:      formatOneLine(props["name"], props["street"], props["city"]),
		Matched:    true,
		Properties: props,
	}, nil
}
