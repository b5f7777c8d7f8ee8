package ports

import (
	"context"
	"time"
)

// RateLimitStore tracks request counts per client key within a fixed
// window. Incr returns the count after the increment; the first hit on
// a key starts the window.
type RateLimitStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}
