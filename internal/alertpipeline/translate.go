package alertpipeline

import (
	"fmt"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

// TranslateEvent renders a decoded event as a human-readable
// notification payload (spec §4.8 step 1, processor.rs's translate_event
// match over every EventType).
func TranslateEvent(event chain.DecodedEvent) chain.NotificationPayload {
	var title, body string
	var severity chain.Severity

	switch event.EventType {
	case chain.PriceEpochFinalized:
		epoch := formatUint(event.DecodedData["epoch_id"], "unknown", "#%v")
		feed := formatString(event.DecodedData["feed_id"], "unknown")
		price := formatFloat(event.DecodedData["price"], "N/A")
		title = "FTSO Price Epoch Finalized"
		body = fmt.Sprintf("Price epoch %s finalized for feed %s: price = %s", epoch, feed, price)
		severity = chain.SeverityInfo

	case chain.VotePowerChanged:
		provider := formatString(event.DecodedData["provider"], "unknown")
		oldV := formatString(event.DecodedData["old_vote_power"], "N/A")
		newV := formatString(event.DecodedData["new_vote_power"], "N/A")
		title = "FTSO Vote Power Changed"
		body = fmt.Sprintf("Provider %s vote power changed: %s → %s", provider, oldV, newV)
		severity = chain.SeverityWarning

	case chain.RewardEpochStarted:
		epoch := formatUint(event.DecodedData["reward_epoch_id"], "unknown", "#%v")
		title = "Reward Epoch Started"
		body = fmt.Sprintf("New reward epoch %s has started", epoch)
		severity = chain.SeverityInfo

	case chain.AttestationRequested:
		source := formatString(event.DecodedData["source_chain"], "unknown")
		title = "Attestation Requested"
		body = fmt.Sprintf("New attestation request from %s at block %d", source, event.BlockNumber)
		severity = chain.SeverityInfo

	case chain.AttestationProved:
		title = "Attestation Proved"
		body = fmt.Sprintf("Attestation proved in tx %s at block %d", event.TxHash, event.BlockNumber)
		severity = chain.SeverityInfo

	case chain.RoundFinalized:
		round := formatUint(event.DecodedData["round_id"], "unknown", "#%v")
		title = "FDC Round Finalized"
		body = fmt.Sprintf("FDC round %s finalized", round)
		severity = chain.SeverityInfo

	case chain.CollateralDeposited:
		amount := formatString(event.DecodedData["amount"], "N/A")
		title = "Collateral Deposited"
		body = fmt.Sprintf("Collateral deposited: %s at address %s", amount, event.Address)
		severity = chain.SeverityInfo

	case chain.CollateralWithdrawn:
		amount := formatString(event.DecodedData["amount"], "N/A")
		title = "Collateral Withdrawn"
		body = fmt.Sprintf("Collateral withdrawn: %s from address %s", amount, event.Address)
		severity = chain.SeverityWarning

	case chain.MintingExecuted:
		amount := formatString(event.DecodedData["amount"], "N/A")
		title = "FAsset Minting Executed"
		body = fmt.Sprintf("Minting executed: %s FAssets at %s", amount, event.Address)
		severity = chain.SeverityInfo

	case chain.RedemptionRequested:
		title = "FAsset Redemption Requested"
		body = fmt.Sprintf("Redemption requested at address %s in block %d", event.Address, event.BlockNumber)
		severity = chain.SeverityWarning

	case chain.LiquidationStarted:
		title = "Liquidation Started"
		body = fmt.Sprintf("CRITICAL: Liquidation started for agent %s at block %d!", event.Address, event.BlockNumber)
		severity = chain.SeverityCritical

	default: // chain.GenericEvent and anything unrecognized
		title = "Contract Event"
		body = fmt.Sprintf("Event detected on %s at block %d", event.Address, event.BlockNumber)
		severity = chain.SeverityInfo
	}

	return chain.NotificationPayload{
		Title:    title,
		Body:     body,
		Severity: severity,
		Metadata: event.DecodedData,
	}
}

func formatString(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

func formatFloat(v any, fallback string) string {
	switch f := v.(type) {
	case float64:
		return fmt.Sprintf("%.6f", f)
	default:
		return fallback
	}
}

func formatUint(v any, fallback string, pattern string) string {
	switch n := v.(type) {
	case uint64:
		return fmt.Sprintf(pattern, n)
	case float64:
		return fmt.Sprintf(pattern, uint64(n))
	default:
		return fallback
	}
}
