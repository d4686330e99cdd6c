package clientports

import (
	"context"
	"time"
)

// Cache memoizes fetched tool schemas between calls.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
