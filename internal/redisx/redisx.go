package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/atwebdev/storefront-service/internal/config"

	"github.com/redis/go-redis/v9"
)

func New(cfg config.Redis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr})
}

// Keyspace: dedup:webhook:{event_id}
const keyDedup = "dedup:webhook:%s"

// EventDedup remembers which webhook event ids have been processed. SETNX
// makes check-and-mark a single round trip.
type EventDedup struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEventDedup(client *redis.Client, ttl time.Duration) *EventDedup {
	return &EventDedup{client: client, ttl: ttl}
}

// FirstSeen reports whether this is the first delivery of the event and marks
// it in the same operation.
func (d *EventDedup) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	key := fmt.Sprintf(keyDedup, eventID)
	return d.client.SetNX(ctx, key, "1", d.ttl).Result()
}
