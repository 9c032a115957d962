package transport

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"chirp/internal/logging"
	"chirp/internal/metrics"
)

// Warner receives one message per retry.
type Warner interface {
	Warn(msg string)
}

// Policy is an exponential backoff without jitter: the n-th retry waits
// Base^n seconds.
type Policy struct {
	MaxRetries int
	Base       int
}

var DefaultPolicy = Policy{MaxRetries: 3, Base: 4}

// Wait returns the pause before retry number attempt (1-based).
func (p Policy) Wait(attempt int) time.Duration {
	return time.Duration(math.Pow(float64(p.Base), float64(attempt))) * time.Second
}

// Retrying decorates a Requester, retrying connection-reset and timeout
// failures according to its Policy.
type Retrying struct {
	Inner  Requester
	Policy Policy
	Warner Warner
	// Sleep pauses between attempts; nil means a context-aware time.After.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewRetrying(inner Requester, p Policy, w Warner) *Retrying {
	return &Retrying{Inner: inner, Policy: p, Warner: w}
}

func (r *Retrying) Get(ctx context.Context, rawURL string, req *Request) (string, error) {
	return r.retry(ctx, rawURL, func() (string, error) { return r.Inner.Get(ctx, rawURL, req) })
}

func (r *Retrying) Post(ctx context.Context, rawURL string, payload url.Values, req *Request) (string, error) {
	return r.retry(ctx, rawURL, func() (string, error) { return r.Inner.Post(ctx, rawURL, payload, req) })
}

func (r *Retrying) retry(ctx context.Context, rawURL string, f func() (string, error)) (string, error) {
	host := hostOf(rawURL)
	for attempt := 0; ; attempt++ {
		body, err := f()
		if err == nil || !IsRetryable(err) || attempt >= r.Policy.MaxRetries {
			return body, err
		}
		wait := r.Policy.Wait(attempt + 1)
		metrics.IncAPIRetry(host)
		logging.Warn("http_retry", map[string]any{"host": host, "attempt": attempt + 1, "wait": wait.String(), "error": err.Error()})
		if r.Warner != nil {
			r.Warner.Warn(fmt.Sprintf("Could not connect -- retrying in %d seconds", int(wait/time.Second)))
		}
		if err := r.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
}

func (r *Retrying) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
