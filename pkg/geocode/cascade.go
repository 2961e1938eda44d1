package geocode

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/ipo-sim/internal/geo"
)

// Cascade tries providers in order and returns the first match inside bounds.
// A match outside bounds is treated as a miss and the next provider is tried.
type Cascade struct {
	providers []Provider
	bounds    geo.Bounds
}

// NewCascade creates a Cascade over providers.
func NewCascade(bounds geo.Bounds, providers ...Provider) *Cascade {
	return &Cascade{providers: providers, bounds: bounds}
}

// Name implements Provider.
func (c *Cascade) Name() string { return "cascade" }

// Available implements Provider.
func (c *Cascade) Available() bool {
	for _, p := range c.providers {
		if p.Available() {
			return true
		}
	}
	return false
}

// Geocode implements Provider. Provider errors are logged and skipped, so the
// cascade itself only fails when ctx ends.
func (c *Cascade) Geocode(ctx context.Context, query string) (*Result, error) {
	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		result, err := p.Geocode(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Debug("cascade: provider error, trying next",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}
		if result == nil || !result.Matched {
			continue
		}
		if !c.bounds.Contains(result.Lat, result.Lng) {
			zap.L().Debug("cascade: match outside bounds",
				zap.String("provider", p.Name()),
				zap.Float64("lat", result.Lat),
				zap.Float64("lng", result.Lng),
			)
			continue
		}
		return result, nil
	}
	return &Result{Source: "cascade"}, nil
}
