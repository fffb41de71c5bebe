package decode

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

// FAssetDecoder handles the FAsset agent/vault lifecycle events (spec
// §4.2 table). Grounded on decoders/src/fasset.rs.
type FAssetDecoder struct {
	collateralDeposited common.Hash
	collateralWithdrawn common.Hash
	mintingExecuted     common.Hash
	redemptionRequested common.Hash
	liquidationStarted  common.Hash
}

func NewFAssetDecoder() *FAssetDecoder {
	return &FAssetDecoder{
		collateralDeposited: crypto.Keccak256Hash([]byte("CollateralDeposited(address,uint256)")),
		collateralWithdrawn: crypto.Keccak256Hash([]byte("CollateralWithdrawn(address,uint256)")),
		mintingExecuted:     crypto.Keccak256Hash([]byte("MintingExecuted(address,address,uint256)")),
		redemptionRequested: crypto.Keccak256Hash([]byte("RedemptionRequested(address,address,uint256)")),
		liquidationStarted:  crypto.Keccak256Hash([]byte("LiquidationStarted(address,uint256)")),
	}
}

func (d *FAssetDecoder) Name() string { return "FAsset" }

func (d *FAssetDecoder) Signatures() []common.Hash {
	return []common.Hash{
		d.collateralDeposited,
		d.collateralWithdrawn,
		d.mintingExecuted,
		d.redemptionRequested,
		d.liquidationStarted,
	}
}

func (d *FAssetDecoder) Decode(lg types.Log, height uint64, timestamp time.Time, network chain.Network) (*chain.DecodedEvent, bool) {
	topic0, ok := topicAt(lg.Topics, 0)
	if !ok {
		return nil, false
	}
	address := lowerHex(lg.Address.Bytes())

	switch topic0 {
	case d.collateralDeposited:
		data := map[string]any{}
		if t1, ok := topicAt(lg.Topics, 1); ok {
			data["agent"] = addressFromTopic(t1)
		}
		if v, ok := u256FromData(lg.Data, 0); ok {
			data["amount"] = v
		}
		return newEvent(height, timestamp, network, address, chain.CollateralDeposited, data), true

	case d.collateralWithdrawn:
		data := map[string]any{}
		if t1, ok := topicAt(lg.Topics, 1); ok {
			data["agent"] = addressFromTopic(t1)
		}
		if v, ok := u256FromData(lg.Data, 0); ok {
			data["amount"] = v
		}
		return newEvent(height, timestamp, network, address, chain.CollateralWithdrawn, data), true

	case d.mintingExecuted:
		data := map[string]any{}
		if t1, ok := topicAt(lg.Topics, 1); ok {
			data["minter"] = addressFromTopic(t1)
		}
		if t2, ok := topicAt(lg.Topics, 2); ok {
			data["agent"] = addressFromTopic(t2)
		}
		if v, ok := u256FromData(lg.Data, 0); ok {
			data["lots"] = v
		}
		return newEvent(height, timestamp, network, address, chain.MintingExecuted, data), true

	case d.redemptionRequested:
		data := map[string]any{}
		if t1, ok := topicAt(lg.Topics, 1); ok {
			data["redeemer"] = addressFromTopic(t1)
		}
		if t2, ok := topicAt(lg.Topics, 2); ok {
			data["agent"] = addressFromTopic(t2)
		}
		if v, ok := u256FromData(lg.Data, 0); ok {
			data["lots"] = v
		}
		return newEvent(height, timestamp, network, address, chain.RedemptionRequested, data), true

	case d.liquidationStarted:
		data := map[string]any{}
		if t1, ok := topicAt(lg.Topics, 1); ok {
			data["agent"] = addressFromTopic(t1)
		}
		return newEvent(height, timestamp, network, address, chain.LiquidationStarted, data), true
	}

	return nil, false
}
