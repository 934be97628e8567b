package service

import (
	"context"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// AnonymousKey is the shared identity for unauthenticated traffic. All
// anonymous requests drain one bucket; that coarseness is deliberate.
const AnonymousKey = "anonymous"

// RateLimiter enforces capacity requests per interval for each identity
// key. Counting is fixed-window: the counter resets to full capacity at the
// window boundary. State lives behind limiter.Store so a shared backend can
// be injected when scaling out; the default is the in-process memory store.
type RateLimiter struct {
	limiter *limiter.Limiter
}

func NewRateLimiter(store limiter.Store, capacity int64, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limiter: limiter.New(store, limiter.Rate{
			Period: interval,
			Limit:  capacity,
		}),
	}
}

// NewMemoryRateLimitStore returns the in-process store. cleanupInterval
// bounds how long idle counters linger.
func NewMemoryRateLimitStore(cleanupInterval time.Duration) limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "ratelimit",
		CleanUpInterval: cleanupInterval,
	})
}

// Allow consumes one unit for key. When denied, retryAfter is the time until
// the window resets, suitable for a Retry-After header. Store failures fail
// open.
func (l *RateLimiter) Allow(ctx context.Context, key string) (ok bool, retryAfter time.Duration) {
	lctx, err := l.limiter.Get(ctx, key)
	if err != nil {
		return true, 0
	}
	if lctx.Reached {
		retry := time.Until(time.Unix(lctx.Reset, 0))
		if retry < 0 {
			retry = 0
		}
		return false, retry
	}
	return true, 0
}
