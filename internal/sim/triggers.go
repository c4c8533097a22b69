package sim

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/meanrev-lab/margin-replay/internal/types"
)

// Trigger identifies which forced-exit condition fires on a bar.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerPositionStopLoss
	TriggerMarginLiquidation
)

// resolveTrigger picks at most one forced-exit condition for an open position
// on the current bar and returns the threshold price the position settles at.
//
// Forced exits are modeled from intrabar price action: price is assumed to move
// monotonically down from open toward low before any bounce, so when both
// thresholds are reachable the one with the higher price is hit first. An exact
// tie resolves to margin liquidation, the broker-level trigger.
//
// Both thresholds can only fire on bars strictly after the entry bar; the entry
// fill price already reflects the entry bar's action. Non-finite thresholds are
// unreachable. This function has no side effects; settlement belongs to the
// simulator.
func resolveTrigger(maintenancePrice float64, stopPrice optional.Option[float64], bar types.MarketBar, afterEntryBar bool) (Trigger, float64) {
	if !afterEntryBar {
		return TriggerNone, 0
	}

	maintenanceReachable := !math.IsInf(maintenancePrice, 0) &&
		!math.IsNaN(maintenancePrice) &&
		bar.Low <= maintenancePrice

	stopReachable := false
	stop := 0.0

	if stopPrice.IsSome() {
		stop = stopPrice.Unwrap()
		stopReachable = !math.IsInf(stop, 0) && !math.IsNaN(stop) && bar.Low <= stop
	}

	switch {
	case maintenanceReachable && stopReachable:
		// Higher threshold is reached first on the way down; ties are the broker's.
		if stop > maintenancePrice {
			return TriggerPositionStopLoss, stop
		}

		return TriggerMarginLiquidation, maintenancePrice
	case maintenanceReachable:
		return TriggerMarginLiquidation, maintenancePrice
	case stopReachable:
		return TriggerPositionStopLoss, stop
	default:
		return TriggerNone, 0
	}
}
