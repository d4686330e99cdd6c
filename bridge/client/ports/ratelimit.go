package clientports

import "context"

// RateLimiter coordinates call throughput per tool.
type RateLimiter interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
