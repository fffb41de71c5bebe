package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
	"github.com/mangekyou-labs/flare-emissary/internal/chainerr"
)

// Store is the gorm-backed persistence gateway for the poller and the
// alert pipeline.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

// AutoMigrate creates/updates the core-owned tables. The externally
// owned tables (subscriptions, monitored_addresses,
// notification_channels) are never migrated here (spec §1): this
// service only ever reads them.
func (s *Store) AutoMigrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&IndexedEventRow{}, &IndexerStateRow{}, &AlertRow{}, &NotificationRow{}); err != nil {
		return fmt.Errorf("store: auto migrate: %w", err)
	}

	// log_index is nullable for synthesized events, so the uniqueness
	// invariant (spec §8 "for all persisted events, (tx_hash, log_index)
	// is unique") can't be expressed as a gorm struct tag: a plain unique
	// index treats every NULL as distinct. coalescing log_index to -1
	// makes synthesized rows dedup too; PersistEvents names the same
	// (tx_hash, COALESCE(log_index, -1)) expression as its ON CONFLICT
	// target so Postgres matches it to this index.
	err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_indexed_events_tx_log
		ON indexed_events (tx_hash, COALESCE(log_index, -1))`).Error
	if err != nil {
		return fmt.Errorf("store: create indexed_events unique index: %w", err)
	}
	return nil
}

// PersistEvents idempotently inserts decoded events, skipping rows whose
// (tx_hash, log_index) pair already exists (spec §4.3 step 6). The
// conflict target is (tx_hash, COALESCE(log_index, -1)), the expression
// the unique index from AutoMigrate is built on.
func (s *Store) PersistEvents(ctx context.Context, events []chain.DecodedEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]IndexedEventRow, len(events))
	for i, e := range events {
		rows[i] = IndexedEventRow{
			TxHash:         e.TxHash,
			LogIndex:       e.LogIndex,
			BlockNumber:    e.BlockNumber,
			BlockTimestamp: e.BlockTimestamp,
			Chain:          e.Chain.String(),
			Address:        e.Address,
			EventType:      e.EventType.String(),
			DecodedData:    fromAnyMap(e.DecodedData),
			IsReorged:      false,
		}
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "COALESCE(log_index, -1)", Raw: true}},
			DoNothing: true,
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("store: persist events: %w", err)
	}
	return nil
}

// EventIDFor resolves the surrogate primary key of a persisted event by
// its natural key, used when stamping Alert.EventID (spec §4.8, mirroring
// the correlated subquery in engine/src/processor.rs's INSERT INTO
// alerts). Returns chainerr.ErrEventNotFound if no such event has been
// persisted — the caller decides whether that's fatal (SPEC_FULL.md §12).
func (s *Store) EventIDFor(ctx context.Context, txHash string, logIndex *uint64) (int64, error) {
	var row IndexedEventRow
	q := s.db.WithContext(ctx).Where("tx_hash = ?", txHash)
	if logIndex != nil {
		q = q.Where("log_index = ?", *logIndex)
	} else {
		q = q.Where("log_index IS NULL")
	}
	err := q.Limit(1).Find(&row).Error
	if err != nil {
		return 0, fmt.Errorf("store: event_id_for %s: %w", txHash, err)
	}
	if row.ID == 0 {
		return 0, chainerr.ErrEventNotFound
	}
	return row.ID, nil
}

// UpdateCursor upserts the indexer's high-water mark for chain c,
// mirroring poller.rs's `INSERT ... ON CONFLICT (chain) DO UPDATE`.
func (s *Store) UpdateCursor(ctx context.Context, c chain.Network, blockNumber uint64) error {
	row := IndexerStateRow{Chain: c.String(), LastBlock: blockNumber, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chain"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_block", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("store: update cursor %s: %w", c, err)
	}
	return nil
}

// Cursor returns the last indexed block for c, or (0, false, nil) when
// the poller has never run for this chain (spec §4.3 step 0: "no
// previous indexed block found, starting from latest").
func (s *Store) Cursor(ctx context.Context, c chain.Network) (uint64, bool, error) {
	var row IndexerStateRow
	err := s.db.WithContext(ctx).Where("chain = ?", c.String()).Limit(1).Find(&row).Error
	if err != nil {
		return 0, false, fmt.Errorf("store: cursor %s: %w", c, err)
	}
	if row.Chain == "" {
		return 0, false, nil
	}
	return row.LastBlock, true, nil
}

// RollbackFrom marks every persisted event at or above fromBlock on
// chain c as reorged (spec §4.1, mirroring poller.rs's
// `UPDATE indexed_events SET is_reorged = true WHERE block_number >= $1
// AND chain = $2`).
func (s *Store) RollbackFrom(ctx context.Context, c chain.Network, fromBlock uint64) error {
	err := s.db.WithContext(ctx).
		Model(&IndexedEventRow{}).
		Where("block_number >= ? AND chain = ?", fromBlock, c.String()).
		Update("is_reorged", true).Error
	if err != nil {
		return fmt.Errorf("store: rollback from %d on %s: %w", fromBlock, c, err)
	}
	log.Info("rolled back events from reorged blocks", "from_block", fromBlock, "chain", c)
	return nil
}

// MatchingSubscriptions returns every active subscription whose
// monitored address and event type match the given event (spec §4.4,
// grounded on engine/src/matcher.rs's find_matching_subscriptions join).
func (s *Store) MatchingSubscriptions(ctx context.Context, address string, eventType chain.EventType) ([]chain.Subscription, error) {
	var rows []SubscriptionRow
	err := s.db.WithContext(ctx).
		Table("subscriptions AS s").
		Select("s.*").
		Joins("JOIN monitored_addresses ma ON s.address_id = ma.id").
		Where("ma.address = ? AND s.event_type = ? AND s.active = true", address, eventType.String()).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: matching subscriptions: %w", err)
	}
	out := make([]chain.Subscription, len(rows))
	for i, r := range rows {
		out[i] = toSubscription(r)
	}
	return out, nil
}

// MonitoredAddressByAddress looks up a single monitored address's
// classification on chain c, read-only against the externally owned
// monitored_addresses table.
func (s *Store) MonitoredAddressByAddress(ctx context.Context, c chain.Network, address string) (chain.MonitoredAddress, bool, error) {
	var row MonitoredAddressRow
	err := s.db.WithContext(ctx).
		Where("address = ? AND chain = ?", address, c.String()).
		Limit(1).Find(&row).Error
	if err != nil {
		return chain.MonitoredAddress{}, false, fmt.Errorf("store: monitored address %s/%s: %w", c, address, err)
	}
	if row.ID == uuid.Nil {
		return chain.MonitoredAddress{}, false, nil
	}
	return chain.MonitoredAddress{
		ID:      row.ID,
		Address: row.Address,
		Chain:   chain.Network(row.Chain),
		Type:    chain.AddressType(row.Type),
	}, true, nil
}

// CreateAlert inserts an Alert row and its paired pending Notification in
// a single transaction (spec §4.8 step 4).
func (s *Store) CreateAlert(ctx context.Context, alert chain.Alert, notification chain.Notification) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		alertRow := AlertRow{
			ID:             alert.ID,
			SubscriptionID: alert.SubscriptionID,
			EventID:        alert.EventID,
			Severity:       alert.Severity.String(),
			Message:        alert.Message,
			TriggeredAt:    alert.TriggeredAt,
		}
		if err := tx.Create(&alertRow).Error; err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}

		notifRow := NotificationRow{
			ID:        notification.ID,
			AlertID:   notification.AlertID,
			ChannelID: notification.ChannelID,
			Status:    notification.Status.String(),
			CreatedAt: notification.CreatedAt,
		}
		if err := tx.Create(&notifRow).Error; err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
		return nil
	})
}
