package decode

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

// FDCDecoder handles the Flare Data Connector attestation lifecycle
// events (spec §4.2 table). Grounded on decoders/src/fdc.rs.
type FDCDecoder struct {
	attestationRequested common.Hash
	attestationProved    common.Hash
	roundFinalized       common.Hash
}

func NewFDCDecoder() *FDCDecoder {
	return &FDCDecoder{
		attestationRequested: crypto.Keccak256Hash([]byte("AttestationRequested(bytes32,address)")),
		attestationProved:    crypto.Keccak256Hash([]byte("AttestationProved(bytes32,bytes32)")),
		roundFinalized:       crypto.Keccak256Hash([]byte("RoundFinalized(uint256,bytes32)")),
	}
}

func (d *FDCDecoder) Name() string { return "FDC" }

func (d *FDCDecoder) Signatures() []common.Hash {
	return []common.Hash{d.attestationRequested, d.attestationProved, d.roundFinalized}
}

func (d *FDCDecoder) Decode(lg types.Log, height uint64, timestamp time.Time, network chain.Network) (*chain.DecodedEvent, bool) {
	topic0, ok := topicAt(lg.Topics, 0)
	if !ok {
		return nil, false
	}
	address := lowerHex(lg.Address.Bytes())

	switch topic0 {
	case d.attestationRequested:
		data := map[string]any{}
		if t1, ok := topicAt(lg.Topics, 1); ok {
			data["request_id"] = t1.Hex()
		}
		if t2, ok := topicAt(lg.Topics, 2); ok {
			data["requester"] = addressFromTopic(t2)
		}
		return newEvent(height, timestamp, network, address, chain.AttestationRequested, data), true

	case d.attestationProved:
		data := map[string]any{}
		if t1, ok := topicAt(lg.Topics, 1); ok {
			data["request_id"] = t1.Hex()
		}
		if t2, ok := topicAt(lg.Topics, 2); ok {
			data["merkle_root"] = t2.Hex()
		}
		return newEvent(height, timestamp, network, address, chain.AttestationProved, data), true

	case d.roundFinalized:
		data := map[string]any{}
		if t1, ok := topicAt(lg.Topics, 1); ok {
			data["round_id"] = topicUint64(t1)
		}
		return newEvent(height, timestamp, network, address, chain.RoundFinalized, data), true
	}

	return nil, false
}
