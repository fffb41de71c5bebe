package decode

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

// GenericDecoder captures any log none of the protocol decoders claimed,
// storing its raw topics and data for later user-defined interpretation
// (spec §4.2 "Permissive" mode). Grounded on decoders/src/generic.rs.
// It reports no signatures of its own — the registry only reaches it as
// the last entry in a permissive chain.
type GenericDecoder struct{}

func NewGenericDecoder() *GenericDecoder { return &GenericDecoder{} }

func (d *GenericDecoder) Name() string { return "Generic" }

func (d *GenericDecoder) Signatures() []common.Hash { return nil }

func (d *GenericDecoder) Decode(lg types.Log, height uint64, timestamp time.Time, network chain.Network) (*chain.DecodedEvent, bool) {
	topic0, ok := topicAt(lg.Topics, 0)
	if !ok {
		return nil, false
	}
	address := lowerHex(lg.Address.Bytes())

	topics := make([]string, len(lg.Topics))
	for i, t := range lg.Topics {
		topics[i] = t.Hex()
	}

	data := map[string]any{
		"topic0": topic0.Hex(),
		"topics": topics,
		"data":   lowerHex(lg.Data),
	}
	return newEvent(height, timestamp, network, address, chain.GenericEvent, data), true
}
