package decode

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

// FTSODecoder handles the FTSO v2 protocol events (spec §4.2 table).
// Grounded on decoders/src/ftso.rs.
type FTSODecoder struct {
	priceEpochFinalized common.Hash
	votePowerChanged    common.Hash
	rewardEpochStarted  common.Hash
}

func NewFTSODecoder() *FTSODecoder {
	return &FTSODecoder{
		priceEpochFinalized: crypto.Keccak256Hash([]byte("PriceEpochFinalized(uint256,uint256)")),
		votePowerChanged:    crypto.Keccak256Hash([]byte("VotePowerChanged(address,uint256)")),
		rewardEpochStarted:  crypto.Keccak256Hash([]byte("RewardEpochStarted(uint256,uint256)")),
	}
}

func (d *FTSODecoder) Name() string { return "FTSO v2" }

func (d *FTSODecoder) Signatures() []common.Hash {
	return []common.Hash{d.priceEpochFinalized, d.votePowerChanged, d.rewardEpochStarted}
}

func (d *FTSODecoder) Decode(lg types.Log, height uint64, timestamp time.Time, network chain.Network) (*chain.DecodedEvent, bool) {
	topic0, ok := topicAt(lg.Topics, 0)
	if !ok {
		return nil, false
	}
	address := lowerHex(lg.Address.Bytes())

	switch topic0 {
	case d.priceEpochFinalized:
		data := map[string]any{"raw_data": lowerHex(lg.Data)}
		if t1, ok := topicAt(lg.Topics, 1); ok {
			data["epoch_id"] = topicUint64(t1)
		}
		return newEvent(height, timestamp, network, address, chain.PriceEpochFinalized, data), true

	case d.votePowerChanged:
		data := map[string]any{}
		if t1, ok := topicAt(lg.Topics, 1); ok {
			data["provider"] = addressFromTopic(t1)
		}
		if v, ok := u256FromData(lg.Data, 0); ok {
			data["new_vote_power"] = v
		}
		return newEvent(height, timestamp, network, address, chain.VotePowerChanged, data), true

	case d.rewardEpochStarted:
		data := map[string]any{}
		if t1, ok := topicAt(lg.Topics, 1); ok {
			data["epoch_id"] = topicUint64(t1)
		}
		return newEvent(height, timestamp, network, address, chain.RewardEpochStarted, data), true
	}

	return nil, false
}
