package overlay

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/meanrev-lab/margin-replay/internal/types"
)

// tradingDaysPerYear annualizes daily realized volatility.
const tradingDaysPerYear = 252

// RollingVolatility computes the trailing annualized realized volatility of
// close-to-close log returns for each bar, over a window of prior returns,
// scaled by the configured adjustment percentage. Bars before the window fills
// get 0 so callers can tell "no estimate yet" apart from a real value.
func RollingVolatility(bars []types.MarketBar, window int, adjustmentPct float64) []float64 {
	vols := make([]float64, len(bars))
	if window <= 1 || len(bars) < 2 {
		return vols
	}

	logReturns := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close > 0 && bars[i].Close > 0 {
			logReturns[i] = math.Log(bars[i].Close / bars[i-1].Close)
		}
	}

	scale := math.Sqrt(tradingDaysPerYear) * (1 + adjustmentPct/100)

	for i := window; i < len(bars); i++ {
		sample := logReturns[i-window+1 : i+1]

		stdDev, err := stats.StandardDeviationSample(sample)
		if err != nil {
			continue
		}

		vols[i] = stdDev * scale
	}

	return vols
}
