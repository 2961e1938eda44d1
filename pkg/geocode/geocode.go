// Package geocode resolves free-text addresses to coordinates via Mapbox,
// Nominatim or Photon, and keeps a persistent cache of resolved firm addresses.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/ipo-sim/internal/geo"
)

// Provider represents a single geocoding backend.
type Provider interface {
	Name() string
	Available() bool
	// Geocode returns the best match for query. A miss is an unmatched
	// Result, not an error; errors are reserved for transport failures.
	Geocode(ctx context.Context, query string) (*Result, error)
}

// AddressInput is the address portion of a firm record.
type AddressInput struct {
	Name   string
	Street string
	City   string
	State  string
}

// OneLine joins the non-empty street, city and state with ", ".
func (a AddressInput) OneLine() string {
	return formatOneLine(a.Street, a.City, a.State)
}

// Result holds the output of one provider call.
type Result struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Source  string  `json:"source"`
	Matched bool    `json:"matched"`
	Label   string  `json:"label,omitempty"`

	// Properties carries provider metadata (city, county, street, name...)
	// flattened to strings. Only Photon fills it.
	Properties map[string]string `json:"properties,omitempty"`
}

// Position returns the result as a lat/lng pair.
func (r Result) Position() geo.LatLng {
	return geo.LatLng{r.Lat, r.Lng}
}

// Option configures an HTTP-backed provider.
type Option func(*httpProvider)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *httpProvider) {
		p.httpClient = hc
	}
}

// WithLimiter sets the request rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(p *httpProvider) {
		p.limiter = l
	}
}

// WithRateLimit allows rps requests per second with a burst of one.
func WithRateLimit(rps float64) Option {
	return func(p *httpProvider) {
		p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithUserAgent sets the User-Agent header. Nominatim and Photon reject
// anonymous clients.
func WithUserAgent(ua string) Option {
	return func(p *httpProvider) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(u string) Option {
	return func(p *httpProvider) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// DefaultUserAgent identifies this client to public geocoders.
const DefaultUserAgent = "ipo-sim-geocoder/1.0"

func newHTTPProvider(baseURL string, opts []Option) httpProvider {
	p := httpProvider{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
		userAgent:  DefaultUserAgent,
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func formatOneLine(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}
