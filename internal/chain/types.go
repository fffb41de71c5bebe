// Package chain holds the data model shared across the indexer, the alert
// pipeline, and the store: decoded events, subscriptions, alerts and
// notifications, and the small enums that tag them.
package chain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Network is a chain this indexer can be pointed at.
type Network string

const (
	Flare    Network = "flare"
	Songbird Network = "songbird"
)

func (n Network) String() string { return string(n) }

// Valid reports whether n is one of the supported networks.
func (n Network) Valid() bool {
	switch n {
	case Flare, Songbird:
		return true
	default:
		return false
	}
}

// AddressType classifies a MonitoredAddress. Classification itself is an
// out-of-scope collaborator (spec §1); the core only stores the tag.
type AddressType string

const (
	AddressFtsoProvider   AddressType = "ftso_provider"
	AddressFassetAgent    AddressType = "fasset_agent"
	AddressGenericContract AddressType = "generic_contract"
	AddressEOA            AddressType = "eoa"
)

// EventType is the closed set of decodable event kinds (GLOSSARY).
type EventType string

const (
	PriceEpochFinalized  EventType = "price_epoch_finalized"
	VotePowerChanged     EventType = "vote_power_changed"
	RewardEpochStarted   EventType = "reward_epoch_started"
	AttestationRequested EventType = "attestation_requested"
	AttestationProved    EventType = "attestation_proved"
	RoundFinalized       EventType = "round_finalized"
	CollateralDeposited  EventType = "collateral_deposited"
	CollateralWithdrawn  EventType = "collateral_withdrawn"
	MintingExecuted      EventType = "minting_executed"
	RedemptionRequested  EventType = "redemption_requested"
	LiquidationStarted   EventType = "liquidation_started"
	GenericEvent         EventType = "generic_event"
)

func (e EventType) String() string { return string(e) }

// Severity is the alert urgency tag (spec §3).
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) String() string { return string(s) }

// DeliveryStatus is a Notification's lifecycle state (spec §3).
type DeliveryStatus string

const (
	StatusPending DeliveryStatus = "pending"
	StatusSent    DeliveryStatus = "sent"
	StatusFailed  DeliveryStatus = "failed"
)

func (s DeliveryStatus) String() string { return string(s) }

// ChannelType is the transport a NotificationChannel delivers through.
type ChannelType string

const (
	ChannelTelegram ChannelType = "telegram"
	ChannelDiscord  ChannelType = "discord"
	ChannelEmail    ChannelType = "email"
)

// DecodedEvent is an immutable decoded log (spec §3). Identity is
// (TxHash, LogIndex); LogIndex is nil only for synthesized events.
type DecodedEvent struct {
	TxHash         string
	LogIndex       *uint64
	BlockNumber    uint64
	BlockTimestamp time.Time
	Chain          Network
	Address        string
	EventType      EventType
	DecodedData    map[string]any
}

// ThresholdConfig is the typed view of a Subscription's threshold_config
// JSON blob (GLOSSARY). All fields are optional; omitted means unconstrained.
type ThresholdConfig struct {
	MinValue         *float64 `json:"min_value,omitempty"`
	MaxValue         *float64 `json:"max_value,omitempty"`
	DeviationPct     *float64 `json:"deviation_pct,omitempty"`
	HysteresisBlocks *uint64  `json:"hysteresis_blocks,omitempty"`
	CooldownSeconds  *uint64  `json:"cooldown_seconds,omitempty"`
}

const (
	DefaultHysteresisBlocks uint64 = 1
	DefaultCooldownSeconds  uint64 = 300
)

func (t ThresholdConfig) hysteresisBlocks() uint64 {
	if t.HysteresisBlocks != nil {
		return *t.HysteresisBlocks
	}
	return DefaultHysteresisBlocks
}

func (t ThresholdConfig) cooldownSeconds() uint64 {
	if t.CooldownSeconds != nil {
		return *t.CooldownSeconds
	}
	return DefaultCooldownSeconds
}

// HysteresisBlocks returns the configured consecutive-block requirement,
// defaulting to 1 (fire immediately) when unset.
func (t ThresholdConfig) HysteresisBlocks() uint64 { return t.hysteresisBlocks() }

// CooldownSeconds returns the configured cooldown window, defaulting to 300s.
func (t ThresholdConfig) CooldownSeconds() uint64 { return t.cooldownSeconds() }

// Subscription is a user's standing alert request (spec §3).
type Subscription struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	AddressID       uuid.UUID
	ChannelID       uuid.UUID
	EventType       EventType
	ThresholdConfig ThresholdConfig
	Active          bool
	CreatedAt       time.Time
}

// MonitoredAddress is a (address, chain) tuple with a classification tag.
type MonitoredAddress struct {
	ID      uuid.UUID
	Address string
	Chain   Network
	Type    AddressType
}

// NotificationChannel is an opaque delivery target owned by a user.
type NotificationChannel struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Type   ChannelType
	Config map[string]any
}

// Alert is the immutable record of one satisfied subscription trigger.
type Alert struct {
	ID             uuid.UUID
	SubscriptionID uuid.UUID
	EventID        int64
	Severity       Severity
	Message        string
	TriggeredAt    time.Time
}

// Notification is a delivery commitment staged for an out-of-scope worker.
type Notification struct {
	ID          uuid.UUID
	AlertID     uuid.UUID
	ChannelID   uuid.UUID
	Status      DeliveryStatus
	SentAt      *time.Time
	ErrorDetail *string
	CreatedAt   time.Time
}

// NotificationPayload is the human-readable rendering of an event, produced
// by the event processor's translate step (spec §4.8 step 1).
type NotificationPayload struct {
	Title    string
	Body     string
	Severity Severity
	Metadata map[string]any
}

// IndexerCursor is the per-chain high-water mark (spec §3).
type IndexerCursor struct {
	Chain      Network
	LastBlock  uint64
	UpdatedAt  time.Time
}

func (e EventType) GoString() string { return fmt.Sprintf("EventType(%q)", string(e)) }
