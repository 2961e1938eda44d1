// Package resolver backfills real coordinates for firms that only carry a
// placeholder, consulting the geocode cache before any provider.
package resolver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/ipo-sim/internal/geo"
	"github.com/sells-group/ipo-sim/internal/model"
	"github.com/sells-group/ipo-sim/internal/session"
	"github.com/sells-group/ipo-sim/pkg/geocode"
)

// DefaultDelay spaces consecutive provider calls.
const DefaultDelay = 700 * time.Millisecond

// Outcome describes what happened to one firm.
type Outcome string

// Outcomes.
const (
	OutcomeCached   Outcome = "cached"
	OutcomeGeocoded Outcome = "geocoded"
	OutcomeNoMatch  Outcome = "no_match"
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped"
)

// FirmResult is the resolution of a single firm.
type FirmResult struct {
	ID       int         `json:"id"`
	Name     string      `json:"firm_name"`
	Outcome  Outcome     `json:"outcome"`
	Position *geo.LatLng `json:"position,omitempty"`
	Source   string      `json:"source,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Report summarizes a ResolveMissing pass.
type Report struct {
	Considered int          `json:"considered"`
	Cached     int          `json:"cached"`
	Geocoded   int          `json:"geocoded"`
	NoMatch    int          `json:"no_match"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Results    []FirmResult `json:"results"`
}

func (r *Report) add(fr FirmResult) {
	r.Considered++
	switch fr.Outcome {
	case OutcomeCached:
		r.Cached++
	case OutcomeGeocoded:
		r.Geocoded++
	case OutcomeNoMatch:
		r.NoMatch++
	case OutcomeFailed:
		r.Failed++
	case OutcomeSkipped:
		r.Skipped++
	}
	r.Results = append(r.Results, fr)
}

// Resolver looks up firm positions and records them as session overrides.
type Resolver struct {
	provider  geocode.Provider
	cache     *geocode.Cache
	overrides *session.Overrides
	bounds    geo.Bounds
	limiter   *rate.Limiter
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDelay sets the minimum spacing between provider calls.
func WithDelay(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
		}
	}
}

// WithLimiter sets the provider call limiter directly.
func WithLimiter(l *rate.Limiter) Option {
	return func(r *Resolver) {
		r.limiter = l
	}
}

// WithBounds sets the acceptance area. Defaults to geo.NYC.
func WithBounds(b geo.Bounds) Option {
	return func(r *Resolver) {
		r.bounds = b
	}
}

// New creates a Resolver.
func New(provider geocode.Provider, cache *geocode.Cache, overrides *session.Overrides, opts ...Option) *Resolver {
	r := &Resolver{
		provider:  provider,
		cache:     cache,
		overrides: overrides,
		bounds:    geo.NYC,
		limiter:   rate.NewLimiter(rate.Every(DefaultDelay), 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveMissing resolves every firm without a real position and without an
// override, one at a time. Running it again only touches firms still
// unresolved. It returns early with ctx's error when ctx ends.
func (r *Resolver) ResolveMissing(ctx context.Context, firms []model.Firm) (*Report, error) {
	report := &Report{Results: []FirmResult{}}
	for _, f := range firms {
		if !f.NeedsGeocode() || r.overrides.Has(f.ID) {
			continue
		}
		fr := r.resolve(ctx, f, false)
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.add(fr)
	}

	zap.L().Info("resolver: pass complete",
		zap.Int("considered", report.Considered),
		zap.Int("cached", report.Cached),
		zap.Int("geocoded", report.Geocoded),
		zap.Int("no_match", report.NoMatch),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// ResolveFirm resolves a single firm regardless of its current position. With
// refresh set the cache is bypassed for the lookup but still updated on success.
func (r *Resolver) ResolveFirm(ctx context.Context, f model.Firm, refresh bool) (FirmResult, error) {
	fr := r.resolve(ctx, f, refresh)
	if err := ctx.Err(); err != nil {
		return fr, err
	}
	return fr, nil
}

func (r *Resolver) resolve(ctx context.Context, f model.Firm, refresh bool) FirmResult {
	log := zap.L().With(zap.Int("firm_id", f.ID), zap.String("firm", f.Name))
	fr := FirmResult{ID: f.ID, Name: f.Name}

	addr := geocode.AddressInput{Name: f.Name, Street: f.Address, City: f.City, State: f.State}
	key := geocode.CacheKey(addr)

	if !refresh {
		pos, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			log.Warn("resolver: cache lookup failed", zap.Error(err))
		} else if ok {
			r.overrides.Set(f.ID, pos)
			fr.Outcome = OutcomeCached
			fr.Position = &pos
			fr.Source = "cache"
			return fr
		}
	}

	query := addr.OneLine()
	if query == "" {
		fr.Outcome = OutcomeSkipped
		fr.Error = "no address"
		return fr
	}

	if err := r.limiter.Wait(ctx); err != nil {
		fr.Outcome = OutcomeFailed
		fr.Error = err.Error()
		return fr
	}

	result, err := r.provider.Geocode(ctx, query)
	if err != nil {
		log.Warn("resolver: geocode failed", zap.String("query", query), zap.Error(err))
		fr.Outcome = OutcomeFailed
		fr.Error = err.Error()
		return fr
	}
	if result == nil || !result.Matched || !r.bounds.Contains(result.Lat, result.Lng) {
		log.Debug("resolver: no match", zap.String("query", query))
		fr.Outcome = OutcomeNoMatch
		return fr
	}

	pos := result.Position()
	if err := r.cache.Put(ctx, key, pos); err != nil {
		log.Warn("resolver: cache write failed", zap.Error(err))
	}
	r.overrides.Set(f.ID, pos)

	fr.Outcome = OutcomeGeocoded
	fr.Position = &pos
	fr.Source = result.Source
	return fr
}
