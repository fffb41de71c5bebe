package poller

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
	"github.com/mangekyou-labs/flare-emissary/internal/decode"
)

type fakeOracle struct {
	headers map[uint64]*types.Header
	logs    map[uint64][]types.Log
	latest  uint64
}

func (f *fakeOracle) LatestBlockNumber(ctx context.Context) (uint64, error) { return f.latest, nil }

func (f *fakeOracle) BlockByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	h, ok := f.headers[number]
	if !ok {
		return nil, nil
	}
	return h, nil
}

func (f *fakeOracle) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	height := query.FromBlock.Uint64()
	return f.logs[height], nil
}

func (f *fakeOracle) CanonicalHashByNumber(ctx context.Context, height uint64) (common.Hash, bool, error) {
	h, ok := f.headers[height]
	if !ok {
		return common.Hash{}, false, nil
	}
	return h.Hash(), true, nil
}

type fakeEventStore struct {
	cursor       uint64
	cursorFound  bool
	persisted    [][]chain.DecodedEvent
	rolledBackAt uint64
	rolledBack   bool
}

func (f *fakeEventStore) PersistEvents(ctx context.Context, events []chain.DecodedEvent) error {
	f.persisted = append(f.persisted, events)
	return nil
}

func (f *fakeEventStore) UpdateCursor(ctx context.Context, c chain.Network, blockNumber uint64) error {
	f.cursor = blockNumber
	f.cursorFound = true
	return nil
}

func (f *fakeEventStore) Cursor(ctx context.Context, c chain.Network) (uint64, bool, error) {
	return f.cursor, f.cursorFound, nil
}

func (f *fakeEventStore) RollbackFrom(ctx context.Context, c chain.Network, fromBlock uint64) error {
	f.rolledBack = true
	f.rolledBackAt = fromBlock
	return nil
}

type fakeProcessor struct {
	processed int
	err       error
}

func (f *fakeProcessor) Process(ctx context.Context, event chain.DecodedEvent) (int, error) {
	f.processed++
	return 0, f.err
}

func header(number uint64, parent common.Hash) *types.Header {
	return &types.Header{
		Number:     new(big.Int).SetUint64(number),
		ParentHash: parent,
		Time:       1000 + number,
	}
}

func TestPollerProcessesOneBlockThenStops(t *testing.T) {
	genesis := header(10, common.Hash{})
	oracle := &fakeOracle{
		headers: map[uint64]*types.Header{10: genesis},
		logs:    map[uint64][]types.Log{},
		latest:  10,
	}
	store := &fakeEventStore{cursor: 9, cursorFound: true}
	proc := &fakeProcessor{}
	p := New(chain.Flare, oracle, store, proc, decode.NewPermissive(), 10, time.Millisecond, WithIdleSleep(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := p.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.GreaterOrEqual(t, store.cursor, uint64(10))
}

func TestPollerDecodesAndPersistsLogs(t *testing.T) {
	topic0 := crypto.Keccak256Hash([]byte("LiquidationStarted(address,uint256)"))
	agentTopic := common.Hash{}
	copy(agentTopic[12:], common.HexToAddress("0x1111111111111111111111111111111111111111").Bytes())

	genesis := header(5, common.Hash{})
	oracle := &fakeOracle{
		headers: map[uint64]*types.Header{5: genesis},
		logs: map[uint64][]types.Log{
			5: {{
				Address: common.HexToAddress("0x2222222222222222222222222222222222222222"),
				Topics:  []common.Hash{topic0, agentTopic},
				TxHash:  common.HexToHash("0xdead"),
				Index:   0,
			}},
		},
		latest: 5,
	}
	store := &fakeEventStore{cursor: 4, cursorFound: true}
	proc := &fakeProcessor{}
	p := New(chain.Songbird, oracle, store, proc, decode.NewStrict(), 10, time.Millisecond, WithIdleSleep(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = p.Run(ctx)

	require.NotEmpty(t, store.persisted)
	require.Equal(t, 1, proc.processed)
}

// A subscription-matching/evaluation failure for one event must not halt
// the poller (spec §7): the block is still persisted, the cursor still
// advances, and the next block is still polled.
func TestPollerContinuesPastProcessorError(t *testing.T) {
	topic0 := crypto.Keccak256Hash([]byte("LiquidationStarted(address,uint256)"))
	agentTopic := common.Hash{}
	copy(agentTopic[12:], common.HexToAddress("0x1111111111111111111111111111111111111111").Bytes())

	genesis := header(5, common.Hash{})
	next := header(6, genesis.Hash())
	oracle := &fakeOracle{
		headers: map[uint64]*types.Header{5: genesis, 6: next},
		logs: map[uint64][]types.Log{
			5: {{
				Address: common.HexToAddress("0x2222222222222222222222222222222222222222"),
				Topics:  []common.Hash{topic0, agentTopic},
				TxHash:  common.HexToHash("0xdead"),
				Index:   0,
			}},
		},
		latest: 5,
	}
	store := &fakeEventStore{cursor: 4, cursorFound: true}
	proc := &fakeProcessor{err: fmt.Errorf("matcher: db blip")}
	p := New(chain.Songbird, oracle, store, proc, decode.NewStrict(), 10, time.Millisecond, WithIdleSleep(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := p.Run(ctx)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotEmpty(t, store.persisted)
	require.GreaterOrEqual(t, proc.processed, 1)
	require.GreaterOrEqual(t, store.cursor, uint64(6))
}

func TestPollerWaitsOnUnavailableBlock(t *testing.T) {
	oracle := &fakeOracle{headers: map[uint64]*types.Header{}, logs: map[uint64][]types.Log{}, latest: 100}
	store := &fakeEventStore{cursor: 100, cursorFound: true}
	proc := &fakeProcessor{}
	p := New(chain.Flare, oracle, store, proc, decode.NewPermissive(), 10, 5*time.Millisecond, WithIdleSleep(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()
	err := p.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, store.cursorFound && store.cursor != 100)
}
