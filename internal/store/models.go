// Package store is the persistence layer: the core-owned tables
// (indexed_events, indexer_state, alerts, notifications) plus read-only
// models for the externally-owned tables (subscriptions,
// monitored_addresses, notification_channels) the core only ever
// SELECTs from (spec §1 "external interfaces"). Grounded on
// common/src/db.rs and the SQL embedded throughout indexer/src/poller.rs
// and engine/src/{matcher,processor}.rs, translated from sqlx raw SQL
// into gorm.io/gorm models and queries the way the teacher's
// log-broadcaster ORM layer shapes a gorm.DB-backed store
// (other_examples/…chainlink…log-broadcaster.go's WasAlreadyConsumed /
// MarkConsumed pattern).
package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

// IndexedEventRow is the gorm model backing indexed_events. Decoded data
// is stored as JSONB; the composite (tx_hash, log_index) uniqueness
// invariant is enforced by a raw-SQL unique index created in
// Store.AutoMigrate, not by gorm tags, since log_index is nullable for
// synthesized events and gorm struct tags can't express the COALESCE
// needed to treat a NULL log_index as a real dedup key.
type IndexedEventRow struct {
	ID             int64 `gorm:"primaryKey;autoIncrement"`
	TxHash         string
	LogIndex       *uint64
	BlockNumber    uint64
	BlockTimestamp time.Time
	Chain          string
	Address        string
	EventType      string
	DecodedData    JSONMap `gorm:"type:jsonb"`
	IsReorged      bool
	CreatedAt      time.Time
}

func (IndexedEventRow) TableName() string { return "indexed_events" }

// IndexerStateRow is the gorm model backing indexer_state, one row per
// chain holding the poller's high-water mark (spec §3 IndexerCursor).
type IndexerStateRow struct {
	Chain     string `gorm:"primaryKey"`
	LastBlock uint64
	UpdatedAt time.Time
}

func (IndexerStateRow) TableName() string { return "indexer_state" }

// AlertRow is the gorm model backing alerts. EventID is NOT NULL: the
// caller resolves the surrogate key before ever constructing one
// (SPEC_FULL.md §12 decision 1).
type AlertRow struct {
	ID             uuid.UUID `gorm:"primaryKey;type:uuid"`
	SubscriptionID uuid.UUID `gorm:"type:uuid"`
	EventID        int64     `gorm:"not null"`
	Severity       string
	Message        string
	TriggeredAt    time.Time
}

func (AlertRow) TableName() string { return "alerts" }

// NotificationRow is the gorm model backing notifications.
type NotificationRow struct {
	ID          uuid.UUID `gorm:"primaryKey;type:uuid"`
	AlertID     uuid.UUID `gorm:"type:uuid"`
	ChannelID   uuid.UUID `gorm:"type:uuid"`
	Status      string
	SentAt      *time.Time
	ErrorDetail *string
	CreatedAt   time.Time
}

func (NotificationRow) TableName() string { return "notifications" }

// SubscriptionRow is the read-only gorm view of the externally-owned
// subscriptions table (spec §1 "owned by the product API, not this
// service").
type SubscriptionRow struct {
	ID              uuid.UUID `gorm:"primaryKey;type:uuid"`
	UserID          uuid.UUID `gorm:"type:uuid"`
	AddressID       uuid.UUID `gorm:"type:uuid"`
	ChannelID       uuid.UUID `gorm:"type:uuid"`
	EventType       string
	ThresholdConfig JSONMap `gorm:"type:jsonb"`
	Active          bool
	CreatedAt       time.Time
}

func (SubscriptionRow) TableName() string { return "subscriptions" }

// MonitoredAddressRow is the read-only gorm view of monitored_addresses.
type MonitoredAddressRow struct {
	ID      uuid.UUID `gorm:"primaryKey;type:uuid"`
	Address string
	Chain   string
	Type    string
}

func (MonitoredAddressRow) TableName() string { return "monitored_addresses" }

// NotificationChannelRow is the read-only gorm view of notification_channels.
type NotificationChannelRow struct {
	ID     uuid.UUID `gorm:"primaryKey;type:uuid"`
	UserID uuid.UUID `gorm:"type:uuid"`
	Type   string
	Config JSONMap `gorm:"type:jsonb"`
}

func (NotificationChannelRow) TableName() string { return "notification_channels" }

func toSubscription(r SubscriptionRow) chain.Subscription {
	var tc chain.ThresholdConfig
	r.ThresholdConfig.decodeInto(&tc)
	return chain.Subscription{
		ID:              r.ID,
		UserID:          r.UserID,
		AddressID:       r.AddressID,
		ChannelID:       r.ChannelID,
		EventType:       chain.EventType(r.EventType),
		ThresholdConfig: tc,
		Active:          r.Active,
		CreatedAt:       r.CreatedAt,
	}
}
