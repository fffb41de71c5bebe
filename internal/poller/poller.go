// Package poller continuously pulls new blocks from a chain, decodes
// their logs, detects reorgs, and persists the results (spec §4.3).
// Grounded on indexer/src/poller.rs's BlockPoller.
package poller

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
	"github.com/mangekyou-labs/flare-emissary/internal/chainerr"
	"github.com/mangekyou-labs/flare-emissary/internal/decode"
	"github.com/mangekyou-labs/flare-emissary/internal/metrics"
	"github.com/mangekyou-labs/flare-emissary/internal/reorg"
)

// EventStore is the slice of store.Store the poller depends on.
type EventStore interface {
	PersistEvents(ctx context.Context, events []chain.DecodedEvent) error
	UpdateCursor(ctx context.Context, c chain.Network, blockNumber uint64) error
	Cursor(ctx context.Context, c chain.Network) (uint64, bool, error)
	RollbackFrom(ctx context.Context, c chain.Network, fromBlock uint64) error
}

// AlertProcessor is the slice of alertpipeline.Processor the poller
// drives per decoded event.
type AlertProcessor interface {
	Process(ctx context.Context, event chain.DecodedEvent) (int, error)
}

// BlockPoller fetches new blocks from one chain, decodes their logs,
// rolls back on reorg, and feeds qualifying events into the alert
// pipeline.
type BlockPoller struct {
	chain             chain.Network
	oracle            ChainOracle
	store             EventStore
	processor         AlertProcessor
	decoders          *decode.Registry
	reorgDetector     *reorg.Detector
	contractAddresses []common.Address
	pollInterval      time.Duration
	idleSleep         time.Duration
}

// Option configures a BlockPoller at construction time.
type Option func(*BlockPoller)

// WithContractAddresses restricts log fetches to the given addresses
// (spec §4.3 "optional log filtering"). An empty list fetches every log
// in the block, unfiltered.
func WithContractAddresses(addresses []common.Address) Option {
	return func(p *BlockPoller) {
		if len(addresses) > 0 {
			log.Info("log filtering enabled", "count", len(addresses))
		}
		p.contractAddresses = addresses
	}
}

// WithIdleSleep overrides the brief back-pressure pause taken after every
// processed block (default 100ms, spec §4.3).
func WithIdleSleep(d time.Duration) Option {
	return func(p *BlockPoller) { p.idleSleep = d }
}

func New(c chain.Network, oracle ChainOracle, store EventStore, processor AlertProcessor, decoders *decode.Registry, reorgWindow int, pollInterval time.Duration, opts ...Option) *BlockPoller {
	p := &BlockPoller{
		chain:         c,
		oracle:        oracle,
		store:         store,
		processor:     processor,
		decoders:      decoders,
		reorgDetector: reorg.New(reorgWindow),
		pollInterval:  pollInterval,
		idleSleep:     100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the polling loop until ctx is cancelled (spec §4.3 step
// 0–9). A block not yet available from the RPC is treated as transient:
// the poller waits pollInterval and retries the same height.
func (p *BlockPoller) Run(ctx context.Context) error {
	current, found, err := p.store.Cursor(ctx, p.chain)
	if err != nil {
		return fmt.Errorf("poller: load cursor: %w", err)
	}
	if !found {
		log.Info("no previous indexed block found, starting from latest", "chain", p.chain)
		current, err = p.oracle.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("poller: latest block number: %w", err)
		}
	} else {
		// The cursor records the last fully processed block; resume after it.
		current++
	}

	log.Info("block poller started", "chain", p.chain, "start_block", current, "poll_interval", p.pollInterval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		cycleStart := time.Now()
		events, err := p.pollBlock(ctx, current)
		if err != nil {
			if errors.Is(err, chainerr.ErrBlockNotFound) {
				log.Debug("block not yet available, waiting", "chain", p.chain, "block", current)
				if sleepErr := sleep(ctx, p.pollInterval); sleepErr != nil {
					return sleepErr
				}
				continue
			}
			if errors.Is(err, chainerr.ErrReorgDetected) {
				// Stored events were rolled back; retry the same height.
				continue
			}
			return fmt.Errorf("poller: poll block %d on %s: %w", current, p.chain, err)
		}
		metrics.BlocksProcessed.WithLabelValues(p.chain.String()).Inc()

		if len(events) > 0 {
			log.Info("decoded events from block", "chain", p.chain, "block", current, "events", len(events))
			if err := p.store.PersistEvents(ctx, events); err != nil {
				return fmt.Errorf("poller: persist events: %w", err)
			}
			for _, ev := range events {
				metrics.EventsDecoded.WithLabelValues(p.chain.String(), ev.EventType.String()).Inc()
				if _, err := p.processor.Process(ctx, ev); err != nil {
					// Matcher/evaluator failures are locally recoverable
					// (spec §7): log and keep ingesting rather than
					// aborting the chain's poller over one bad event.
					log.Error("alert processing failed for event, continuing", "chain", p.chain, "block", current, "event_type", ev.EventType, "error", err)
				}
			}
		}

		if err := p.store.UpdateCursor(ctx, p.chain, current); err != nil {
			return fmt.Errorf("poller: update cursor: %w", err)
		}
		metrics.BlockProcessingLatency.WithLabelValues(p.chain.String()).Observe(float64(time.Since(cycleStart).Milliseconds()))
		current++

		if sleepErr := sleep(ctx, p.idleSleep); sleepErr != nil {
			return sleepErr
		}
	}
}

// pollBlock fetches one block's header, checks it for a reorg, then
// fetches and decodes its logs (spec §4.3 steps 1-5).
func (p *BlockPoller) pollBlock(ctx context.Context, height uint64) ([]chain.DecodedEvent, error) {
	header, err := p.oracle.BlockByNumber(ctx, height)
	if err != nil || header == nil {
		return nil, chainerr.ErrBlockNotFound
	}

	blockHash := header.Hash()
	parentHash := header.ParentHash
	blockTimestamp := time.Unix(int64(header.Time), 0).UTC()

	rollbackFrom, reorged, err := p.reorgDetector.Observe(ctx, height, blockHash, parentHash, p.oracle)
	if err != nil {
		return nil, fmt.Errorf("reorg check: %w", err)
	}
	if reorged {
		log.Warn("reorg detected, rolling back events", "chain", p.chain, "reorg_at", rollbackFrom, "current", height)
		metrics.ReorgsDetected.WithLabelValues(p.chain.String()).Inc()
		if err := p.store.RollbackFrom(ctx, p.chain, rollbackFrom); err != nil {
			return nil, fmt.Errorf("rollback: %w", err)
		}
		return nil, chainerr.ErrReorgDetected
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(height),
		ToBlock:   new(big.Int).SetUint64(height),
	}
	if len(p.contractAddresses) > 0 {
		query.Addresses = p.contractAddresses
	}

	logs, err := p.oracle.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("filter logs: %w", err)
	}
	if len(logs) == 0 {
		return nil, nil
	}

	var events []chain.DecodedEvent
	for _, lg := range logs {
		ev, ok := p.decoders.Decode(lg, height, blockTimestamp, p.chain)
		if !ok {
			continue
		}
		ev.TxHash = lg.TxHash.Hex()
		logIndex := uint64(lg.Index)
		ev.LogIndex = &logIndex
		events = append(events, *ev)
	}
	return events, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
