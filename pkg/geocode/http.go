package geocode

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 4 << 20

// StatusError is returned when a provider answers with a non-200 status.
type StatusError struct {
	Provider string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("geocode: %s returned status %d", e.Provider, e.Code)
}

// Throttled reports whether the status signals rate limiting or an outage.
func (e *StatusError) Throttled() bool {
	return e.Code == http.StatusTooManyRequests || e.Code == http.StatusRequestTimeout || e.Code >= 500
}

type httpProvider struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	baseURL    string
}

// get performs a rate-limited GET and returns the response body.
func (p *httpProvider) get(ctx context.Context, name, reqURL string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrapf(err, "geocode: %s rate limit", name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s build request", name)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s request", name)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: name, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s read body", name)
	}
	return body, nil
}
