package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// ResetMarks records user-initiated resets. A reset does not cancel in-flight
// stage work and never deletes records; it only makes subsequent renders for
// the job start from scratch. Marks expire on their own: by then the job's
// records are stale history anyway.
type ResetMarks struct {
	client *Client
	ttl    time.Duration
}

func NewResetMarks(client *Client, ttl time.Duration) *ResetMarks {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ResetMarks{client: client, ttl: ttl}
}

func (r *ResetMarks) Mark(ctx context.Context, jobID string) error {
	return r.client.Set(ctx, "reset:"+jobID, "1", r.ttl)
}

func (r *ResetMarks) IsMarked(ctx context.Context, jobID string) (bool, error) {
	_, err := r.client.Get(ctx, "reset:"+jobID)
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
