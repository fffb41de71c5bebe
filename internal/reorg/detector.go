// Package reorg implements the sliding-window chain-reorganization
// detector (spec §4.1). Grounded on indexer/src/reorg.rs's
// ReorgDetector, translated from an async VecDeque walk into a Go
// slice-backed ring with the same divergence-walk semantics, and
// styled after the window/backoff shape in
// other_examples/…goran-ethernal-ChainIndexor…reorg_detector.go.
package reorg

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// CanonicalHashOracle answers "what is the current canonical hash at this
// height" during the divergence walk (spec §4.1). Implemented by the
// chain oracle the poller already holds.
type CanonicalHashOracle interface {
	CanonicalHashByNumber(ctx context.Context, height uint64) (common.Hash, bool, error)
}

type entry struct {
	height uint64
	hash   common.Hash
}

// Detector tracks a bounded FIFO window of (height, hash) pairs and
// reports the rollback target when a parent-hash mismatch is observed.
type Detector struct {
	window   []entry
	capacity int
}

// New creates a Detector with the given window capacity W (default 10,
// spec §4.1).
func New(capacity int) *Detector {
	if capacity <= 0 {
		capacity = 10
	}
	return &Detector{capacity: capacity}
}

// WindowSize reports how many blocks are currently tracked.
func (d *Detector) WindowSize() int { return len(d.window) }

// Observe checks the new block's parent hash against the window's record
// for height-1. On a match (or an empty window slot for height-1) the
// pair is appended and the oldest entry is evicted past capacity,
// returning (0, false, nil). On a mismatch, it walks the window via
// oracle to find the divergence height and returns (rollbackFrom, true,
// nil); entries at or above rollbackFrom are purged from the window.
func (d *Detector) Observe(ctx context.Context, height uint64, hash, parentHash common.Hash, oracle CanonicalHashOracle) (rollbackFrom uint64, reorged bool, err error) {
	if height > 0 {
		if idx := d.indexOf(height - 1); idx >= 0 && d.window[idx].hash != parentHash {
			log.Warn("reorg detected: parent hash mismatch",
				"height", height, "expected", d.window[idx].hash, "actual", parentHash)

			from, werr := d.findDivergence(ctx, oracle)
			if werr != nil {
				return 0, false, fmt.Errorf("reorg: divergence walk failed: %w", werr)
			}

			kept := d.window[:0]
			for _, e := range d.window {
				if e.height < from {
					kept = append(kept, e)
				}
			}
			d.window = kept
			return from, true, nil
		}
	}

	d.window = append(d.window, entry{height: height, hash: hash})
	if len(d.window) > d.capacity {
		d.window = d.window[1:]
	}
	return 0, false, nil
}

// findDivergence walks the window newest-to-oldest asking the oracle for
// each stored height's current canonical hash. The first height whose
// stored hash still matches canonical is the last-good height;
// last_good+1 is the rollback target. If the whole window has diverged,
// the oldest stored height is returned (best-effort recovery, spec §4.1).
func (d *Detector) findDivergence(ctx context.Context, oracle CanonicalHashOracle) (uint64, error) {
	for i := len(d.window) - 1; i >= 0; i-- {
		e := d.window[i]
		canonical, ok, err := oracle.CanonicalHashByNumber(ctx, e.height)
		if err != nil {
			return 0, err
		}
		if ok && canonical == e.hash {
			return e.height + 1, nil
		}
	}
	if len(d.window) == 0 {
		return 0, nil
	}
	return d.window[0].height, nil
}

func (d *Detector) indexOf(height uint64) int {
	for i, e := range d.window {
		if e.height == height {
			return i
		}
	}
	return -1
}
