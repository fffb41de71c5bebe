// Package chainerr names the error taxonomy the indexer distinguishes
// (spec §7): transient chain errors are retried, reorgs are a first-class
// signal not an error, decode/evaluator failures drop the offending item,
// and cooldown-store outages fail closed. Grounded on the shape of
// flare_common::error::AppError (common/src/error.rs) translated into
// Go sentinel errors usable with errors.Is/errors.As.
package chainerr

import "errors"

var (
	// ErrBlockNotFound is what the poller reports when a block header
	// cannot be fetched, whether the height is not mined yet or the RPC
	// call failed. The poller sleeps one interval and restarts the cycle
	// without advancing (spec §4.3 step 1).
	ErrBlockNotFound = errors.New("chainerr: block not found")

	// ErrReorgDetected is not a failure — it signals the poller to roll
	// back stored events and restart the cycle at the same height
	// (spec §4.3 step 3). Kept here so callers can use errors.Is
	// uniformly alongside the other sentinels.
	ErrReorgDetected = errors.New("chainerr: reorg detected")

	// ErrCooldownStoreUnavailable means the KV store could not be
	// reached; per spec §7 this fails closed — the alert is suppressed
	// rather than risking a double-fire.
	ErrCooldownStoreUnavailable = errors.New("chainerr: cooldown store unavailable")

	// ErrEventNotFound means a (tx_hash, log_index) pair had no matching
	// indexed_events row when resolving an Alert's event_id subquery
	// (spec §9 open question — resolved as NOT NULL enforcement).
	ErrEventNotFound = errors.New("chainerr: decoded event not found for alert")
)

// Fatal wraps an error that must exit the process for supervisor restart
// (spec §7: database unreachable at startup, malformed required config).
type Fatal struct {
	Err error
}

func (f *Fatal) Error() string { return "fatal: " + f.Err.Error() }
func (f *Fatal) Unwrap() error { return f.Err }

func NewFatal(err error) error { return &Fatal{Err: err} }
