package hysteresis

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

func makeSub(hysteresisBlocks *uint64) chain.Subscription {
	return chain.Subscription{
		ID:        uuid.New(),
		EventType: chain.PriceEpochFinalized,
		ThresholdConfig: chain.ThresholdConfig{
			HysteresisBlocks: hysteresisBlocks,
		},
		Active: true,
	}
}

func u64p(v uint64) *uint64 { return &v }

func TestDefaultHysteresisFiresImmediately(t *testing.T) {
	e := New()
	sub := makeSub(nil)
	require.True(t, e.Check(sub.ID, true, 100, sub))
}

func TestHysteresisRequiresConsecutiveBlocks(t *testing.T) {
	e := New()
	sub := makeSub(u64p(3))
	require.False(t, e.Check(sub.ID, true, 100, sub))
	require.False(t, e.Check(sub.ID, true, 101, sub))
	require.True(t, e.Check(sub.ID, true, 102, sub))
}

func TestHysteresisResetsOnThresholdNotMet(t *testing.T) {
	e := New()
	sub := makeSub(u64p(3))
	require.False(t, e.Check(sub.ID, true, 100, sub))
	require.False(t, e.Check(sub.ID, true, 101, sub))
	require.False(t, e.Check(sub.ID, false, 102, sub))
	require.False(t, e.Check(sub.ID, true, 103, sub))
	require.False(t, e.Check(sub.ID, true, 104, sub))
	require.True(t, e.Check(sub.ID, true, 105, sub))
}

func TestHysteresisResetsOnBlockGap(t *testing.T) {
	e := New()
	sub := makeSub(u64p(3))
	require.False(t, e.Check(sub.ID, true, 100, sub))
	require.False(t, e.Check(sub.ID, true, 101, sub))
	require.False(t, e.Check(sub.ID, true, 105, sub))
	require.False(t, e.Check(sub.ID, true, 106, sub))
	require.True(t, e.Check(sub.ID, true, 107, sub))
}

func TestHysteresisStateClearedAfterFire(t *testing.T) {
	e := New()
	sub := makeSub(u64p(2))
	require.False(t, e.Check(sub.ID, true, 100, sub))
	require.True(t, e.Check(sub.ID, true, 101, sub))
	require.False(t, e.Check(sub.ID, true, 102, sub))
	require.True(t, e.Check(sub.ID, true, 103, sub))
}

func TestIndependentSubscriptions(t *testing.T) {
	e := New()
	sub1 := makeSub(u64p(2))
	sub2 := makeSub(u64p(3))

	require.False(t, e.Check(sub1.ID, true, 100, sub1))
	require.False(t, e.Check(sub2.ID, true, 100, sub2))

	require.True(t, e.Check(sub1.ID, true, 101, sub1))
	require.False(t, e.Check(sub2.ID, true, 101, sub2))

	require.True(t, e.Check(sub2.ID, true, 102, sub2))
}

func TestReset(t *testing.T) {
	e := New()
	sub := makeSub(u64p(3))
	require.False(t, e.Check(sub.ID, true, 100, sub))
	require.False(t, e.Check(sub.ID, true, 101, sub))
	require.Equal(t, 1, e.TrackedCount())

	e.Reset(sub.ID)
	require.Equal(t, 0, e.TrackedCount())

	require.False(t, e.Check(sub.ID, true, 102, sub))
}

// Same-block idempotent redelivery must not advance the streak count.
func TestHysteresisSameBlockIsIdempotent(t *testing.T) {
	e := New()
	sub := makeSub(u64p(3))
	require.False(t, e.Check(sub.ID, true, 100, sub))
	require.False(t, e.Check(sub.ID, true, 100, sub))
	require.False(t, e.Check(sub.ID, true, 101, sub))
	require.True(t, e.Check(sub.ID, true, 102, sub))
}
