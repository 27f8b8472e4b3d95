package worker

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultLimiterBurst = 5

// Limiter rate-limits outbound requests per target host so evidence
// fetching stays polite to each site regardless of how many claims point
// at it.
type Limiter struct {
	mu       sync.Mutex
	perHost  map[string]*rate.Limiter
	rateDef  rate.Limit
	burstDef int
}

func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = defaultLimiterBurst
	}
	return &Limiter{
		perHost:  make(map[string]*rate.Limiter),
		rateDef:  rate.Limit(requestsPerSecond),
		burstDef: burst,
	}
}

// Wait blocks until the host of rawURL may be contacted again.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostOf(rawURL)
	if err != nil {
		return err
	}
	return l.limiterFor(host).Wait(ctx)
}

// WaitWithDelay is Wait followed by an extra pause, used to honor a
// crawl-delay advertised in robots.txt.
func (l *Limiter) WaitWithDelay(ctx context.Context, rawURL string, delay time.Duration) error {
	if err := l.Wait(ctx, rawURL); err != nil {
		return err
	}
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// Allow reports whether a request to rawURL could proceed right now,
// consuming a token if so.
func (l *Limiter) Allow(rawURL string) bool {
	host, err := hostOf(rawURL)
	if err != nil {
		return false
	}
	return l.limiterFor(host).Allow()
}

// SetHostRate overrides the limit for one host.
func (l *Limiter) SetHostRate(host string, requestsPerSecond float64, burst int) {
	if burst <= 0 {
		burst = l.burstDef
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.perHost[host] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

func (l *Limiter) limiterFor(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.perHost[host]
	if !ok {
		lim = rate.NewLimiter(l.rateDef, l.burstDef)
		l.perHost[host] = lim
	}
	return lim
}

func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}
