package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// seenTTL is how long a provider message ID stays in the seen set.
	// Webhook redeliveries and overlapping poll windows land well inside it.
	seenTTL = 24 * time.Hour

	seenKeyPrefix = "newsletters:seen:"
)

// SeenFilter short-circuits redelivered messages by provider message ID
// before the pipeline runs, using a Redis SET with TTL.
type SeenFilter struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSeenFilter(rdb *redis.Client) *SeenFilter {
	return &SeenFilter{
		rdb: rdb,
		ttl: seenTTL,
	}
}

// IsNew returns true if the message ID has not been seen before. If true,
// the ID is marked as seen atomically (SETNX).
func (f *SeenFilter) IsNew(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		// No provider ID to key on; let the hash-based dedup handle it.
		return true, nil
	}

	key := seenKeyPrefix + messageID

	set, err := f.rdb.SetNX(ctx, key, 1, f.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("seen filter SETNX: %w", err)
	}

	return set, nil
}
