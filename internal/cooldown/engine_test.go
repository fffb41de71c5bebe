package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

func newTestEngine(t *testing.T) (*Engine, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client), mr
}

func u64p(v uint64) *uint64 { return &v }

func TestCheckAndSetDefaultCooldown(t *testing.T) {
	engine, mr := newTestEngine(t)
	sub := chain.Subscription{ID: uuid.New()}

	allowed, err := engine.CheckAndSet(context.Background(), sub.ID, sub)
	require.NoError(t, err)
	require.True(t, allowed)

	ttl := mr.TTL(cooldownKey(sub.ID))
	require.Equal(t, 300*time.Second, ttl)
}

func TestCheckAndSetSuppressesWithinCooldown(t *testing.T) {
	engine, _ := newTestEngine(t)
	sub := chain.Subscription{ID: uuid.New(), ThresholdConfig: chain.ThresholdConfig{CooldownSeconds: u64p(60)}}

	allowed, err := engine.CheckAndSet(context.Background(), sub.ID, sub)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = engine.CheckAndSet(context.Background(), sub.ID, sub)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestClearAllowsImmediateRefire(t *testing.T) {
	engine, _ := newTestEngine(t)
	sub := chain.Subscription{ID: uuid.New(), ThresholdConfig: chain.ThresholdConfig{CooldownSeconds: u64p(60)}}

	_, err := engine.CheckAndSet(context.Background(), sub.ID, sub)
	require.NoError(t, err)

	require.NoError(t, engine.Clear(context.Background(), sub.ID))

	allowed, err := engine.CheckAndSet(context.Background(), sub.ID, sub)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestCheckAndSetAfterExpiry(t *testing.T) {
	engine, mr := newTestEngine(t)
	sub := chain.Subscription{ID: uuid.New(), ThresholdConfig: chain.ThresholdConfig{CooldownSeconds: u64p(5)}}

	_, err := engine.CheckAndSet(context.Background(), sub.ID, sub)
	require.NoError(t, err)

	mr.FastForward(6 * time.Second)

	allowed, err := engine.CheckAndSet(context.Background(), sub.ID, sub)
	require.NoError(t, err)
	require.True(t, allowed)
}
