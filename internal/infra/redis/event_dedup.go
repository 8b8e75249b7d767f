package redis

import (
	"context"
	"time"

	"discord-membership-payments/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

// EventDeduper remembers processor event ids for a bounded window. The
// processor delivers at least once; a Seen hit means this id was already
// applied and the delivery can be acknowledged without reprocessing. Ids are
// marked only after a successful apply, so a delivery answered non-2xx keeps
// its redelivery usable.
type EventDeduper struct {
	cli *redis.Client
	ttl time.Duration
}

var _ repository.EventDeduper = (*EventDeduper)(nil)

func NewEventDeduper(c *Client, ttl time.Duration) *EventDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EventDeduper{cli: c.cli, ttl: ttl}
}

func (d *EventDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, nil
	}
	n, err := d.cli.Exists(ctx, dedupKey(eventID)).Result()
	if err != nil {
		// Degrade to at-least-once; the transition table absorbs replays.
		return false, err
	}
	return n > 0, nil
}

func (d *EventDeduper) Mark(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	return d.cli.Set(ctx, dedupKey(eventID), 1, d.ttl).Err()
}

func dedupKey(eventID string) string {
	return "webhook:event:" + eventID
}
