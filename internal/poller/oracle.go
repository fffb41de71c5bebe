package poller

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/mangekyou-labs/flare-emissary/internal/reorg"
)

// ChainOracle is the read-only RPC surface the poller needs (spec §4.3,
// translating alloy's Provider trait from indexer/src/poller.rs). It
// also satisfies reorg.CanonicalHashOracle so the same client backs the
// divergence walk.
type ChainOracle interface {
	reorg.CanonicalHashOracle
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number uint64) (*types.Header, error)
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
}

// EthClientOracle adapts *ethclient.Client to ChainOracle.
type EthClientOracle struct {
	client *ethclient.Client
}

func NewEthClientOracle(client *ethclient.Client) *EthClientOracle {
	return &EthClientOracle{client: client}
}

func (o *EthClientOracle) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return o.client.BlockNumber(ctx)
}

func (o *EthClientOracle) BlockByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	return o.client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
}

func (o *EthClientOracle) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return o.client.FilterLogs(ctx, query)
}

func (o *EthClientOracle) CanonicalHashByNumber(ctx context.Context, height uint64) (common.Hash, bool, error) {
	header, err := o.client.HeaderByNumber(ctx, new(big.Int).SetUint64(height))
	if err == ethereum.NotFound {
		return common.Hash{}, false, nil
	}
	if err != nil {
		return common.Hash{}, false, err
	}
	return header.Hash(), true, nil
}
