package transport

import "golang.org/x/time/rate"

const (
	defaultRPS   = 2.0
	defaultBurst = 10
)

// NewLimiter paces requests at rps with the given burst. Non-positive
// values fall back to 2 requests per second with a burst of 10.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		rps = defaultRPS
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
