// Package overlay contains the derivative replays: a leveraged buy-and-hold
// simulation and a Black-Scholes call overlay. Both reuse the simulator's
// equity-evolution fold with a different position-valuation function; neither
// models margin calls.
package overlay

import (
	"math"

	"github.com/meanrev-lab/margin-replay/internal/sim"
	"github.com/meanrev-lab/margin-replay/internal/types"
)

// flooredCapital clamps the starting capital a no-op replay reports to zero,
// treating non-finite values as zero.
func flooredCapital(initialCapital float64) float64 {
	if math.IsNaN(initialCapital) || math.IsInf(initialCapital, 0) {
		return 0
	}

	return math.Max(0, initialCapital)
}

// BuyHoldConfig parameterizes the leveraged buy-and-hold replay.
type BuyHoldConfig struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	Leverage       float64 `yaml:"leverage" json:"leverage"`
}

// BuyHoldResult is the buy-and-hold equity curve and final value.
type BuyHoldResult struct {
	Equity     []types.EquityPoint
	FinalValue float64
}

// SimulateBuyHold compounds the bar-over-bar percentage return of the
// underlying, multiplied by a constant leverage factor, from the first bar to
// the last. The position value is floored at zero; a wiped-out account stays
// at zero for the rest of the series.
func SimulateBuyHold(bars []types.MarketBar, cfg BuyHoldConfig) BuyHoldResult {
	if len(bars) == 0 || cfg.Leverage <= 0 ||
		math.IsNaN(cfg.InitialCapital) || math.IsInf(cfg.InitialCapital, 0) ||
		math.IsNaN(cfg.Leverage) || math.IsInf(cfg.Leverage, 0) {
		return BuyHoldResult{
			Equity:     []types.EquityPoint{},
			FinalValue: flooredCapital(cfg.InitialCapital),
		}
	}

	value := flooredCapital(cfg.InitialCapital)

	equity := sim.RunEquityFold(bars, func(i int, bar types.MarketBar) (float64, bool) {
		if i == 0 {
			return value, false
		}

		prevClose := bars[i-1].Close
		if prevClose > 0 {
			barReturn := bar.Close/prevClose - 1
			value = math.Max(0, value*(1+cfg.Leverage*barReturn))
		}

		return value, false
	})

	return BuyHoldResult{
		Equity:     equity,
		FinalValue: equity[len(equity)-1].Value,
	}
}
