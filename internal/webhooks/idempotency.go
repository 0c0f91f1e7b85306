package webhooks

import (
	"context"
	"time"

	"github.com/sokohub/sokohub-backend/pkg/redis"
)

const guardScope = "pesapal-ipn"

// Guard suppresses duplicate IPN deliveries for the same payment tracking ID.
// It is a best-effort filter; the is_paid compare-and-swap in the orders
// service is the real idempotency boundary.
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewGuard builds a guard over the given store. A zero ttl defaults to two
// minutes.
func NewGuard(store redis.IdempotencyStore, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Guard{store: store, ttl: ttl}
}

// Acquire claims the tracking ID. It returns false when another delivery for
// the same payment already holds the claim.
func (g *Guard) Acquire(ctx context.Context, trackingID string) (bool, error) {
	key := g.store.IdempotencyKey(guardScope, trackingID)
	return g.store.SetNX(ctx, key, "1", g.ttl)
}

// Release frees the claim so a later delivery can be processed. It is called
// after handling failures and after non-final payment statuses, where the
// gateway is expected to call back again.
func (g *Guard) Release(ctx context.Context, trackingID string) error {
	key := g.store.IdempotencyKey(guardScope, trackingID)
	return g.store.Del(ctx, key)
}
