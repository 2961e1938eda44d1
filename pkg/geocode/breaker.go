package geocode

import (
	"context"
	"errors"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrProviderSuspended is returned by a Breaker while it is open.
var ErrProviderSuspended = eris.New("geocode: provider suspended")

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	// BreakerClosed passes calls through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls until the cooldown elapses.
	BreakerOpen
	// BreakerHalfOpen lets a single trial call through.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker suspends a provider after consecutive throttling or network
// failures. While suspended it reports itself unavailable so a Cascade skips
// straight to the next provider.
type Breaker struct {
	Provider

	threshold int
	cooldown  time.Duration

	mu            sync.Mutex
	state         BreakerState
	failures      int
	openedAt      time.Time
	trialInFlight bool

	nowFunc func() time.Time
}

// NewBreaker wraps p. threshold consecutive transient failures open the
// breaker for cooldown. Non-positive values use 3 failures and one minute.
func NewBreaker(p Provider, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &Breaker{
		Provider:  p,
		threshold: threshold,
		cooldown:  cooldown,
		nowFunc:   time.Now,
	}
}

// State returns the current state, reporting half-open once the cooldown of an
// open breaker has elapsed.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.nowFunc().Sub(b.openedAt) >= b.cooldown {
		return BreakerHalfOpen
	}
	return b.state
}

// Available implements Provider. A half-open breaker whose trial call is still in
// flight is unavailable.
func (b *Breaker) Available() bool {
	if b.State() == BreakerOpen {
		return false
	}
	b.mu.Lock()
	inFlight := b.trialInFlight
	b.mu.Unlock()
	return !inFlight && b.Provider.Available()
}

// Geocode implements Provider.
func (b *Breaker) Geocode(ctx context.Context, query string) (*Result, error) {
	if err := b.allow(); err != nil {
		return nil, err
	}
	result, err := b.Provider.Geocode(ctx, query)
	if ctx.Err() != nil {
		b.endTrial()
		return result, err
	}
	b.record(err)
	return result, err
}

// allow admits a call. After the cooldown exactly one trial call is admitted until
// its outcome is recorded.
func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case BreakerClosed:
		return nil
	case BreakerOpen:
		if b.nowFunc().Sub(b.openedAt) < b.cooldown {
			return eris.Wrap(ErrProviderSuspended, b.Provider.Name())
		}
		b.state = BreakerHalfOpen
	}
	if b.trialInFlight {
		return eris.Wrap(ErrProviderSuspended, b.Provider.Name())
	}
	b.trialInFlight = true
	return nil
}

func (b *Breaker) endTrial() {
	b.mu.Lock()
	b.trialInFlight = false
	b.mu.Unlock()
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trialInFlight = false

	if err == nil || !IsTransient(err) {
		if b.state != BreakerClosed {
			zap.L().Info("geocode: provider resumed", zap.String("provider", b.Provider.Name()))
		}
		b.state = BreakerClosed
		b.failures = 0
		return
	}

	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.threshold {
		b.state = BreakerOpen
		b.openedAt = b.nowFunc()
		zap.L().Warn("geocode: provider suspended",
			zap.String("provider", b.Provider.Name()),
			zap.Int("failures", b.failures),
			zap.Duration("cooldown", b.cooldown),
			zap.Error(err),
		)
	}
}

// IsTransient reports whether err is throttling, an upstream outage or a
// network failure, as opposed to a malformed response.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Throttled()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}
