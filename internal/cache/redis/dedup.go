package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/mkravets/binderbot/internal/domain"
)

// ForwardDedup implements domain.ForwardDedup on Redis, so notification
// suppression survives restarts and is shared between instances watching the
// same account.
type ForwardDedup struct {
	client *Client
	ttl    time.Duration
}

// NewForwardDedup creates a dedup store. Seen markers expire after ttl; zero
// means 30 days.
func NewForwardDedup(c *Client, ttl time.Duration) *ForwardDedup {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &ForwardDedup{client: c, ttl: ttl}
}

func dedupKey(id string) string {
	return "binderbot:forwarded:" + id
}

// FirstSeen marks the notification ID as forwarded and reports whether this
// call was the first to do so. SetNX makes the check-and-mark atomic.
func (d *ForwardDedup) FirstSeen(ctx context.Context, id string) (bool, error) {
	first, err := d.client.Underlying().SetNX(ctx, dedupKey(id), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: dedup first-seen %s: %w", id, err)
	}
	return first, nil
}

var _ domain.ForwardDedup = (*ForwardDedup)(nil)
