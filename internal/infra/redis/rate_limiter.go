package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter bounds abusive polling. It never touches job state; a limited
// client just sees 429 and retries later.
type RateLimiter struct {
	client *Client
}

func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}

func PollKey(remoteAddr, endpoint string) string {
	return fmt.Sprintf("rate_limit:%s:%s", remoteAddr, endpoint)
}
