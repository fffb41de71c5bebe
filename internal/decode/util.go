package decode

import (
	"encoding/hex"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

// newEvent builds a DecodedEvent with TxHash/LogIndex left blank — the
// poller stamps those from the log envelope after a successful decode
// (spec §4.3 step 5, mirroring decoders/src/*.rs leaving them empty).
func newEvent(height uint64, timestamp time.Time, network chain.Network, address string, et chain.EventType, data map[string]any) *chain.DecodedEvent {
	return &chain.DecodedEvent{
		BlockNumber:    height,
		BlockTimestamp: timestamp,
		Chain:          network,
		Address:        address,
		EventType:      et,
		DecodedData:    data,
	}
}

// addressFromTopic extracts an address topic's low 20 bytes (spec §4.2
// edge-case policy), returned as a lowercase 0x-prefixed hex string.
func addressFromTopic(t common.Hash) string {
	return "0x" + hex.EncodeToString(t.Bytes()[12:32])
}

// lowerHex renders b as a lowercase 0x-prefixed hex string.
func lowerHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// u256FromData reads a big-endian uint256 at the given byte offset and
// renders it as a decimal string to preserve 256-bit range (spec §9
// "integer widths"). Short data is tolerated: ok is false rather than
// zero-filling (spec §4.2 edge-case policy).
func u256FromData(data []byte, offset int) (string, bool) {
	if len(data) < offset+32 {
		return "", false
	}
	return new(big.Int).SetBytes(data[offset : offset+32]).String(), true
}

// topicUint64 reads the low 8 bytes of a 32-byte topic as a uint64, used
// for small identifiers (epoch/round ids) that fit comfortably within
// 64 bits despite being ABI-encoded as uint256.
func topicUint64(t common.Hash) uint64 {
	b := t.Bytes()
	return new(big.Int).SetBytes(b[24:32]).Uint64()
}

func topicAt(topics []common.Hash, i int) (common.Hash, bool) {
	if i < 0 || i >= len(topics) {
		return common.Hash{}, false
	}
	return topics[i], true
}
