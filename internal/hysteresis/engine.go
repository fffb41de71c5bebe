// Package hysteresis implements the per-subscription consecutive-block
// streak tracker that keeps a flickering threshold from firing an alert
// on every block (spec §4.6). Grounded on engine/src/hysteresis.rs.
package hysteresis

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

type state struct {
	consecutiveCount    uint64
	firstTriggeredBlock uint64
	lastBlock           uint64
}

// Engine tracks, per subscription, how many consecutive blocks a
// threshold has held. State lives only in memory: a process restart
// resets every streak, which is the conservative (safe) direction
// (spec §4.6 "state is ephemeral").
type Engine struct {
	mu     sync.Mutex
	states map[uuid.UUID]*state
}

func New() *Engine {
	return &Engine{states: make(map[uuid.UUID]*state)}
}

// Check reports whether thresholdMet has now held for the subscription's
// configured number of consecutive blocks. A block number equal to the
// streak's last block is treated as idempotent re-delivery (doesn't
// advance the count); one block past it extends the streak; anything
// else resets it. Firing clears the state so the next alert needs a
// fresh streak (spec §4.6 edge cases).
func (e *Engine) Check(subscriptionID uuid.UUID, thresholdMet bool, blockNumber uint64, sub chain.Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	required := sub.ThresholdConfig.HysteresisBlocks()

	if !thresholdMet {
		delete(e.states, subscriptionID)
		return false
	}

	st, ok := e.states[subscriptionID]

	switch {
	case !ok:
		st = &state{consecutiveCount: 1, firstTriggeredBlock: blockNumber, lastBlock: blockNumber}
		e.states[subscriptionID] = st
	case blockNumber == st.lastBlock:
		// Same-block re-delivery: the count does not change.
	case blockNumber == st.lastBlock+1:
		st.consecutiveCount++
		st.lastBlock = blockNumber
	default:
		st.consecutiveCount = 1
		st.firstTriggeredBlock = blockNumber
		st.lastBlock = blockNumber
	}

	if st.consecutiveCount >= required {
		delete(e.states, subscriptionID)
		return true
	}
	return false
}

// Reset clears tracked state for a subscription, used when a
// subscription is deactivated or its config changes underneath it.
func (e *Engine) Reset(subscriptionID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.states, subscriptionID)
}

// TrackedCount reports how many subscriptions currently have an
// in-progress streak, exposed for the prometheus gauge in internal/metrics.
func (e *Engine) TrackedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.states)
}
