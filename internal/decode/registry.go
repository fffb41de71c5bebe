// Package decode turns raw EVM logs into typed chain.DecodedEvent values.
// Grounded on decoders/src/lib.rs: an ordered list of decoders, each
// owning a set of topic0 signatures, dispatched by trying each in turn
// and returning the first match (spec §4.2).
package decode

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

// Decoder is the three-method capability every protocol decoder
// implements: the signatures it handles, a pure decode function, and a
// name for logging (spec §9 "polymorphic decoders").
type Decoder interface {
	Signatures() []common.Hash
	Decode(lg types.Log, height uint64, timestamp time.Time, network chain.Network) (*chain.DecodedEvent, bool)
	Name() string
}

// Registry dispatches a log to the first decoder that handles it.
type Registry struct {
	decoders []Decoder
}

// NewStrict returns a registry with only the protocol decoders (spec
// §4.2 "Strict"): unknown topics are dropped.
func NewStrict() *Registry {
	return &Registry{decoders: []Decoder{
		NewFTSODecoder(),
		NewFDCDecoder(),
		NewFAssetDecoder(),
	}}
}

// NewPermissive returns a registry that falls back to the generic
// decoder for any log the protocol decoders don't handle (spec §4.2
// "Permissive").
func NewPermissive() *Registry {
	r := NewStrict()
	r.decoders = append(r.decoders, NewGenericDecoder())
	return r
}

// Decode tries each decoder in order, returning the first match. A log
// with zero topics never decodes, not even via the generic decoder
// (spec §4.2 edge-case policy) — each decoder already enforces this by
// requiring topic0.
func (r *Registry) Decode(lg types.Log, height uint64, timestamp time.Time, network chain.Network) (*chain.DecodedEvent, bool) {
	for _, d := range r.decoders {
		if ev, ok := d.Decode(lg, height, timestamp, network); ok {
			log.Debug("decoded event", "decoder", d.Name(), "event_type", ev.EventType, "block", height)
			return ev, true
		}
	}
	return nil, false
}

// Signatures returns every topic0 hash across all registered decoders.
func (r *Registry) Signatures() []common.Hash {
	var all []common.Hash
	for _, d := range r.decoders {
		all = append(all, d.Signatures()...)
	}
	return all
}
