package clients

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing requests
type RateLimiter interface {
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
}

// NewRateLimiter returns a token bucket allowing perSec requests per second
// with the given burst. A non-positive rate disables limiting.
func NewRateLimiter(perSec float64, burst int) RateLimiter {
	if perSec <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = int(math.Max(1, math.Ceil(perSec)))
	}
	return rate.NewLimiter(rate.Limit(perSec), burst)
}
