package repository

import (
	"context"
	"time"
)

// Locker serializes webhook deliveries that share a correlation key. TryLock
// returns domain.ErrLockNotAcquired when the key is held after bounded
// retries; callers answer non-2xx so the processor redelivers.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// EventDeduper tracks recently processed event ids in a time-boxed window.
// Losing the window is safe: the transition table is idempotent for replays.
// Mark runs only after a delivery is fully applied, so an event answered
// non-2xx stays unmarked and its redelivery is not swallowed.
type EventDeduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}
