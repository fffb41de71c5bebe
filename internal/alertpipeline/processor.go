package alertpipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
	"github.com/mangekyou-labs/flare-emissary/internal/chainerr"
	"github.com/mangekyou-labs/flare-emissary/internal/metrics"
)

// SubscriptionStore is the slice of store.Store the processor depends
// on, kept narrow so tests can fake it without a database.
type SubscriptionStore interface {
	MatchingSubscriptions(ctx context.Context, address string, eventType chain.EventType) ([]chain.Subscription, error)
	EventIDFor(ctx context.Context, txHash string, logIndex *uint64) (int64, error)
	CreateAlert(ctx context.Context, alert chain.Alert, notification chain.Notification) error
}

// HysteresisChecker is the hysteresis.Engine surface the processor needs.
type HysteresisChecker interface {
	Check(subscriptionID uuid.UUID, thresholdMet bool, blockNumber uint64, sub chain.Subscription) bool
}

// CooldownGate is the cooldown.Engine surface the processor needs.
type CooldownGate interface {
	CheckAndSet(ctx context.Context, subscriptionID uuid.UUID, sub chain.Subscription) (bool, error)
}

// AddressClassifier resolves a monitored address's classification tag,
// satisfied by addrcache.Cache. Nil disables enrichment.
type AddressClassifier interface {
	Classify(ctx context.Context, network chain.Network, address string) (chain.MonitoredAddress, bool, error)
}

// Processor orchestrates the full alert pipeline for one decoded event
// (spec §4.8, grounded on engine/src/processor.rs's EventProcessor).
type Processor struct {
	store      SubscriptionStore
	hysteresis HysteresisChecker
	cooldown   CooldownGate
	classifier AddressClassifier
}

func New(store SubscriptionStore, hysteresis HysteresisChecker, cooldown CooldownGate, classifier AddressClassifier) *Processor {
	return &Processor{store: store, hysteresis: hysteresis, cooldown: cooldown, classifier: classifier}
}

// Process runs event through match → translate → threshold → hysteresis
// → cooldown → persist, returning the number of alerts created. A
// subscription is skipped (not fatal to the batch) when any gate fails
// to pass it, or when the event's surrogate key can't be resolved
// (SPEC_FULL.md §12 decision 1 — NOT NULL enforced in Go, not SQL). A
// failure evaluating or persisting one subscription's alert is
// accumulated rather than returned immediately, so it never aborts the
// remaining subscriptions in the same block (spec §7).
func (p *Processor) Process(ctx context.Context, event chain.DecodedEvent) (int, error) {
	subs, err := p.store.MatchingSubscriptions(ctx, event.Address, event.EventType)
	if err != nil {
		return 0, fmt.Errorf("alertpipeline: matching subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return 0, nil
	}

	payload := TranslateEvent(event)
	addressType := p.classifyAddress(ctx, event)

	var created int
	var errs *multierror.Error

	for _, sub := range subs {
		if !EvaluateThreshold(sub, event) {
			continue
		}
		if !p.hysteresis.Check(sub.ID, true, event.BlockNumber, sub) {
			continue
		}
		allowed, err := p.cooldown.CheckAndSet(ctx, sub.ID, sub)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("cooldown check for %s: %w", sub.ID, err))
			continue
		}
		if !allowed {
			metrics.CooldownSuppressions.WithLabelValues(event.EventType.String()).Inc()
			continue
		}

		eventID, err := p.store.EventIDFor(ctx, event.TxHash, event.LogIndex)
		if errors.Is(err, chainerr.ErrEventNotFound) {
			log.Warn("alert skipped: event not yet persisted", "subscription_id", sub.ID, "tx_hash", event.TxHash)
			continue
		}
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("resolve event id for %s: %w", sub.ID, err))
			continue
		}

		now := time.Now().UTC()
		alert := chain.Alert{
			ID:             uuid.New(),
			SubscriptionID: sub.ID,
			EventID:        eventID,
			Severity:       payload.Severity,
			Message:        payload.Body,
			TriggeredAt:    now,
		}
		notification := chain.Notification{
			ID:        uuid.New(),
			AlertID:   alert.ID,
			ChannelID: sub.ChannelID,
			Status:    chain.StatusPending,
			CreatedAt: now,
		}

		if err := p.store.CreateAlert(ctx, alert, notification); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("create alert for %s: %w", sub.ID, err))
			continue
		}

		log.Info("alert created", "alert_id", alert.ID, "subscription_id", sub.ID, "event_type", event.EventType, "address_type", addressType)
		metrics.AlertsCreated.WithLabelValues(event.EventType.String(), payload.Severity.String()).Inc()
		created++
	}

	if errs != nil {
		log.Warn("alertpipeline: some subscriptions failed, continuing with the rest", "event_type", event.EventType, "failures", errs.Len())
		return created, fmt.Errorf("alertpipeline: process %s: %w", event.EventType, errs.ErrorOrNil())
	}
	return created, nil
}

// classifyAddress resolves event's address classification through the
// configured AddressClassifier, if any. Errors and a disabled classifier
// both degrade to an empty tag — classification only enriches log
// output, it never gates an alert.
func (p *Processor) classifyAddress(ctx context.Context, event chain.DecodedEvent) chain.AddressType {
	if p.classifier == nil {
		return ""
	}
	addr, found, err := p.classifier.Classify(ctx, event.Chain, event.Address)
	if err != nil {
		log.Warn("address classification lookup failed", "address", event.Address, "error", err)
		return ""
	}
	if !found {
		return ""
	}
	return addr.Type
}
