package embeddings

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// Limiter paces provider requests with a token bucket. Providers take one
// token per request they send, so a batch counts once and the per item
// retries after a failed batch count once each. A nil *Limiter never waits.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter returns a Limiter allowing perSecond requests. A perSecond of
// zero or less disables limiting and returns nil.
func NewLimiter(perSecond float64) *Limiter {
	if perSecond <= 0 {
		return nil
	}
	burst := int(math.Max(1, math.Ceil(perSecond)))
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a request may be sent or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
