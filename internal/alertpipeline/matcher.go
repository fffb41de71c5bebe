// Package alertpipeline turns a decoded event into zero or more
// persisted alerts by walking matching subscriptions through threshold,
// hysteresis and cooldown gates (spec §4.4–§4.8). Grounded on
// engine/src/{matcher,processor}.rs.
package alertpipeline

import (
	"strconv"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

// valueFields is the ordered list of decoded_data keys probed for the
// event's primary numeric value (spec §4.5, matcher.rs's extract_value).
var valueFields = []string{"value", "price", "amount", "cr", "vote_power"}

// EvaluateThreshold reports whether event satisfies subscription's
// threshold configuration. A subscription with no threshold fields set
// always matches — useful for "notify on any event of this type"
// subscriptions (spec §4.5).
func EvaluateThreshold(sub chain.Subscription, event chain.DecodedEvent) bool {
	cfg := sub.ThresholdConfig

	if cfg.MinValue == nil && cfg.MaxValue == nil && cfg.DeviationPct == nil {
		return true
	}

	value, ok := extractValue(event.DecodedData)
	if !ok {
		return false
	}

	if cfg.MinValue != nil && value < *cfg.MinValue {
		return true
	}
	if cfg.MaxValue != nil && value > *cfg.MaxValue {
		return true
	}
	if cfg.DeviationPct != nil {
		if baseline, ok := extractFloat(event.DecodedData["baseline"]); ok && baseline != 0 {
			deviation := absFloat((value-baseline)/baseline) * 100
			if deviation >= *cfg.DeviationPct {
				return true
			}
		}
	}

	return false
}

func extractValue(data map[string]any) (float64, bool) {
	for _, key := range valueFields {
		if v, ok := extractFloat(data[key]); ok {
			return v, true
		}
	}
	return 0, false
}

func extractFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
