package sim

import (
	"math"

	"github.com/meanrev-lab/margin-replay/internal/types"
)

// Step computes the total account value on one bar. Returning halt stops the
// fold after the current bar's equity point has been recorded.
type Step func(i int, bar types.MarketBar) (value float64, halt bool)

// RunEquityFold walks the bar series in order, asking step for each bar's total
// value and tracking drawdown against the running peak. The peak only moves up.
//
// This is the single equity-evolution primitive shared by the leveraged
// lifecycle simulator and the derivative replays; they differ only in the
// valuation logic inside step.
func RunEquityFold(bars []types.MarketBar, step Step) []types.EquityPoint {
	points := make([]types.EquityPoint, 0, len(bars))
	peak := math.Inf(-1)

	for i, bar := range bars {
		value, halt := step(i, bar)

		if value > peak {
			peak = value
		}

		drawdown := 0.0
		if peak > 0 {
			drawdown = (peak - value) / peak * 100
		}

		points = append(points, types.EquityPoint{
			Date:            bar.Date,
			Value:           value,
			DrawdownPercent: drawdown,
		})

		if halt {
			break
		}
	}

	return points
}
