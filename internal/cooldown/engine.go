// Package cooldown implements the Redis-backed per-subscription
// suppression window that keeps a single firing condition from spamming
// a channel (spec §4.7). Grounded on engine/src/cooldown.rs, translating
// its ConnectionManager + SET NX EX call into go-redis/v9's SetNX with an
// expiration, which sends that same single SET NX EX command; cache-key
// and error-handling style is grounded on
// other_examples/…renproject-lightnode…watcher.go's redis.Cmdable usage.
package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
	"github.com/mangekyou-labs/flare-emissary/internal/chainerr"
)

// Engine gates alert delivery through a distributed cooldown timer keyed
// by subscription ID.
type Engine struct {
	client redis.Cmdable
}

func New(client redis.Cmdable) *Engine {
	return &Engine{client: client}
}

// CheckAndSet atomically claims the cooldown window for a subscription.
// It returns true when the subscription was NOT already in cooldown (the
// alert should proceed) and false when it was (the alert should be
// suppressed). The underlying `SET key 1 NX EX ttl` is atomic: only one
// caller across the fleet ever observes allowed=true for a given window.
// A Redis outage fails closed (spec §7): it's reported as
// chainerr.ErrCooldownStoreUnavailable with allowed=false rather than
// letting the alert through unchecked.
func (e *Engine) CheckAndSet(ctx context.Context, subscriptionID uuid.UUID, sub chain.Subscription) (bool, error) {
	ttl := sub.ThresholdConfig.CooldownSeconds()
	key := cooldownKey(subscriptionID)

	allowed, err := e.client.SetNX(ctx, key, "1", time.Duration(ttl)*time.Second).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown: check_and_set %s: %w: %w", subscriptionID, chainerr.ErrCooldownStoreUnavailable, err)
	}
	if !allowed {
		log.Debug("alert suppressed: subscription in cooldown", "subscription_id", subscriptionID, "cooldown_seconds", ttl)
	}
	return allowed, nil
}

// Clear removes a subscription's cooldown key, used when a subscription
// is edited so the new configuration takes effect immediately.
func (e *Engine) Clear(ctx context.Context, subscriptionID uuid.UUID) error {
	if err := e.client.Del(ctx, cooldownKey(subscriptionID)).Err(); err != nil {
		return fmt.Errorf("cooldown: clear %s: %w", subscriptionID, err)
	}
	return nil
}

func cooldownKey(subscriptionID uuid.UUID) string {
	return fmt.Sprintf("subscription:cooldown:%s", subscriptionID)
}
