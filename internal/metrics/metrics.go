// Package metrics derives aggregate performance statistics from a simulation's
// trade ledger and equity curve. Calculate is pure and stateless; every numeric
// path is total, so degenerate inputs produce zeros (or a documented +Inf for
// the profit factor), never NaN.
package metrics

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/meanrev-lab/margin-replay/internal/types"
)

// breakevenEpsilon is the pnl band treated as breakeven: trades within
// [-0.01, 0.01] count in neither wins nor losses.
const breakevenEpsilon = 0.01

// periodsPerYear annualizes daily-bar return ratios.
const periodsPerYear = 252

// daysPerYear converts calendar spans to years for CAGR.
const daysPerYear = 365.25

// Calculate computes the performance metrics for one simulation run.
func Calculate(trades []types.RealizedTrade, equity []types.EquityPoint, initialCapital float64) types.PerformanceMetrics {
	m := types.PerformanceMetrics{}
	m.TotalTrades = len(trades)

	grossProfit := decimal.Zero
	grossLoss := decimal.Zero
	totalPnL := decimal.Zero

	for _, trade := range trades {
		pnlDec := decimal.NewFromFloat(trade.PnL)
		totalPnL = totalPnL.Add(pnlDec)

		switch {
		case trade.PnL > breakevenEpsilon:
			m.WinningTrades++
			grossProfit = grossProfit.Add(pnlDec)
		case trade.PnL < -breakevenEpsilon:
			m.LosingTrades++
			grossLoss = grossLoss.Add(pnlDec)
		default:
			m.BreakevenTrades++
		}
	}

	m.GrossProfit, _ = grossProfit.Float64()
	m.GrossLoss, _ = grossLoss.Abs().Float64()
	m.TotalPnL, _ = totalPnL.Float64()

	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	}

	if m.WinningTrades > 0 {
		m.AverageWin = m.GrossProfit / float64(m.WinningTrades)
	}

	if m.LosingTrades > 0 {
		m.AverageLoss = -m.GrossLoss / float64(m.LosingTrades)
	}

	m.ProfitFactor = profitFactor(m.GrossProfit, m.GrossLoss)

	if len(equity) > 0 {
		m.FinalValue = equity[len(equity)-1].Value
		m.CAGR = cagr(equity, initialCapital)
		m.MaxDrawdown = maxDrawdown(equity)
		m.SharpeRatio, m.SortinoRatio = riskAdjustedRatios(equity)
	}

	return m
}

// profitFactor is grossProfit/grossLoss, with the zero-loss cases pinned:
// +Inf when there are profits and no losses, 0 when there are neither.
func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss != 0 {
		return grossProfit / grossLoss
	}

	if grossProfit > 0 {
		return math.Inf(1)
	}

	return 0
}

// cagr is the compound annual growth rate in percent over the equity curve's
// calendar span, using 365.25-day years. Zero-length spans and non-positive
// starting capital return 0, never NaN or Inf.
func cagr(equity []types.EquityPoint, initialCapital float64) float64 {
	if initialCapital <= 0 {
		return 0
	}

	first := equity[0].Date
	last := equity[len(equity)-1].Date

	years := last.Sub(first).Hours() / 24 / daysPerYear
	if years <= 0 {
		return 0
	}

	finalValue := equity[len(equity)-1].Value
	if finalValue < 0 {
		finalValue = 0
	}

	return (math.Pow(finalValue/initialCapital, 1/years) - 1) * 100
}

// maxDrawdown is the largest percentage decline from the running peak.
func maxDrawdown(equity []types.EquityPoint) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0

	for _, point := range equity {
		if point.Value > peak {
			peak = point.Value
		}

		if peak > 0 {
			dd := (peak - point.Value) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// riskAdjustedRatios derives annualized Sharpe and Sortino ratios from the
// per-period return series of consecutive equity values. Series with zero
// variance (or zero downside deviation) yield ratio 0.
func riskAdjustedRatios(equity []types.EquityPoint) (sharpe, sortino float64) {
	returns := make([]float64, 0, len(equity))

	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev <= 0 {
			continue
		}

		returns = append(returns, equity[i].Value/prev-1)
	}

	if len(returns) < 2 {
		return 0, 0
	}

	mean, err := stats.Mean(returns)
	if err != nil {
		return 0, 0
	}

	stdDev, err := stats.StandardDeviationSample(returns)
	if err != nil {
		return 0, 0
	}

	annualize := math.Sqrt(periodsPerYear)

	if stdDev > 0 {
		sharpe = mean / stdDev * annualize
	}

	downside := downsideDeviation(returns)
	if downside > 0 {
		sortino = mean / downside * annualize
	}

	return sharpe, sortino
}

// downsideDeviation is the root mean square of negative returns only.
func downsideDeviation(returns []float64) float64 {
	sumSquares := 0.0

	for _, r := range returns {
		if r < 0 {
			sumSquares += r * r
		}
	}

	return math.Sqrt(sumSquares / float64(len(returns)))
}
