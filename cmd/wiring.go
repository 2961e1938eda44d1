package main

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/ipo-sim/internal/content"
	"github.com/sells-group/ipo-sim/internal/fetcher"
	"github.com/sells-group/ipo-sim/internal/geo"
	"github.com/sells-group/ipo-sim/internal/store"
	"github.com/sells-group/ipo-sim/pkg/geocode"
)

// initFetcher reads datasets from the deployed bundle when a base URL is
// configured, otherwise from the local content directory.
func initFetcher() fetcher.Fetcher {
	if cfg.Content.BaseURL != "" {
		return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			BaseURL: cfg.Content.BaseURL,
			Timeout: secs(cfg.Content.TimeoutSecs),
		})
	}
	return fetcher.NewDirFetcher(cfg.Content.Dir)
}

func initLoader() *content.Loader {
	paths := content.DefaultPaths()
	if cfg.Content.BaseFirms != "" {
		paths.BaseFirms = cfg.Content.BaseFirms
	}
	if cfg.Content.Economy != "" {
		paths.Economy = cfg.Content.Economy
	}
	if len(cfg.Content.JSONOverride) > 0 {
		paths.JSONOverride = cfg.Content.JSONOverride
	}
	if len(cfg.Content.CSVOverride) > 0 {
		paths.CSVOverride = cfg.Content.CSVOverride
	}
	return content.NewLoader(initFetcher(), content.WithPaths(paths))
}

// initCache opens the configured key-value store and wraps it in a geocode
// cache. The caller closes the store.
func initCache(ctx context.Context) (store.Store, *geocode.Cache, error) {
	st, err := store.Open(ctx, store.Config{Driver: cfg.Cache.Driver, DSN: cfg.Cache.DSN})
	if err != nil {
		return nil, nil, err
	}
	return st, geocode.NewCache(st), nil
}

// providerOpts disables provider-level throttling; callers pace requests.
// Nominatim overrides this with its one-request-per-second usage policy.
func providerOpts() []geocode.Option {
	return []geocode.Option{
		geocode.WithHTTPClient(&http.Client{Timeout: cfg.Geocode.Timeout()}),
		geocode.WithLimiter(rate.NewLimiter(rate.Inf, 1)),
		geocode.WithUserAgent(cfg.Geocode.UserAgent),
	}
}

// initInteractiveProvider returns Mapbox (when a token is set) falling back to
// Nominatim, both restricted to the NYC bounds. Each is suspended for a while
// after repeated throttling.
func initInteractiveProvider() geocode.Provider {
	mapbox := geocode.NewMapboxProvider(cfg.Geocode.MapboxToken, geo.NYC, geo.Center, providerOpts()...)
	nominatim := geocode.NewNominatimProvider(append(providerOpts(),
		geocode.WithBaseURL(cfg.Geocode.NominatimURL),
		geocode.WithRateLimit(1),
	)...)
	return geocode.NewCascade(geo.NYC,
		geocode.NewBreaker(mapbox, 3, time.Minute),
		geocode.NewBreaker(nominatim, 3, time.Minute),
	)
}

func initPhotonProvider() geocode.Provider {
	return geocode.NewPhotonProvider(append(providerOpts(), geocode.WithBaseURL(cfg.Geocode.Endpoint))...)
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}
