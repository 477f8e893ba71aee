package extractor

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/teemow/slotbook/internal/session"
)

// RateLimited paces calls to the wrapped extractor so a fast retry loop
// cannot exhaust the model quota.
type RateLimited struct {
	next    Extractor
	limiter *rate.Limiter
}

// NewRateLimited allows perMinute calls per minute with a burst of one.
// perMinute <= 0 disables limiting.
func NewRateLimited(next Extractor, perMinute int) *RateLimited {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, 1)}
}

// Extract waits for a token and forwards the request.
func (r *RateLimited) Extract(ctx context.Context, req Request) (session.Slot, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return session.Slot{}, failure(fmt.Errorf("rate limit wait: %w", err))
	}
	return r.next.Extract(ctx, req)
}
