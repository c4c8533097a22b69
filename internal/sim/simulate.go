package sim

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/meanrev-lab/margin-replay/internal/sim/commission"
	"github.com/meanrev-lab/margin-replay/internal/types"
)

// Result is everything a leveraged replay produces: the trade ledger, the
// equity curve (one point per processed bar), the forced-liquidation events,
// and the final account value.
type Result struct {
	Trades     []types.RealizedTrade
	Equity     []types.EquityPoint
	RiskEvents []types.RiskEvent
	FinalValue float64
}

// activePosition is the runtime-only state of the single open position. It
// exists between the entry bar and the close/liquidation bar and is owned
// exclusively by the Simulate loop.
type activePosition struct {
	template    types.TradeTemplate
	entryIndex  int
	entryDate   time.Time
	entryPrice  float64
	quantity    float64
	marginUsed  float64
	borrowed    float64
	plannedExit time.Time
}

// Simulate replays a stream of pre-resolved unlevered trade templates against
// a daily bar series using borrowed capital. It is a pure function of its
// inputs: same bars, templates, and config produce bit-identical outputs, and
// independent calls may run concurrently.
//
// Degenerate parameters (non-positive leverage, empty bar series, non-finite
// numbers) yield an empty result with FinalValue = max(0, InitialCapital)
// rather than an error. Structural template violations are expected to be
// rejected at the boundary via types.ValidateTemplates before calling.
func Simulate(bars []types.MarketBar, templates []types.TradeTemplate, cfg Config) Result {
	if len(bars) == 0 || degenerateConfig(cfg) {
		return Result{
			Trades:     []types.RealizedTrade{},
			Equity:     []types.EquityPoint{},
			RiskEvents: []types.RiskEvent{},
			FinalValue: flooredCapital(cfg.InitialCapital),
		}
	}

	var (
		cash       = cfg.InitialCapital
		pos        *activePosition
		cursor     = 0
		halted     = false
		trades     = []types.RealizedTrade{}
		riskEvents = []types.RiskEvent{}
	)

	fee := commission.GetCommissionFeeHandler(cfg.Broker)
	maintenanceFraction := cfg.MaintenanceMarginPct / 100

	equity := RunEquityFold(bars, func(i int, bar types.MarketBar) (float64, bool) {
		// Entry check. The template cursor is monotonic: templates whose entry
		// date is skipped past without a match are permanently dropped, there
		// are no retroactive fills.
		if pos == nil {
			for cursor < len(templates) && templates[cursor].EntryDate.Before(bar.Date) &&
				!types.SameDay(templates[cursor].EntryDate, bar.Date) {
				cursor++
			}

			if cursor < len(templates) && types.SameDay(templates[cursor].EntryDate, bar.Date) {
				tpl := templates[cursor]
				cursor++

				marginBudget := cash * cfg.CapitalUsagePct / 100
				desiredNotional := marginBudget * cfg.Leverage
				quantity := math.Floor(desiredNotional / tpl.EntryPrice)

				// quantity == 0 means insufficient capital: skip, cash unchanged.
				if quantity > 0 {
					notional := quantity * tpl.EntryPrice
					marginUsed := notional / cfg.Leverage

					cash -= marginUsed
					cash = math.Max(0, cash-fee.Calculate(quantity))

					pos = &activePosition{
						template:    tpl,
						entryIndex:  i,
						entryDate:   bar.Date,
						entryPrice:  tpl.EntryPrice,
						quantity:    quantity,
						marginUsed:  marginUsed,
						borrowed:    notional - marginUsed,
						plannedExit: tpl.ExitDate,
					}
				}
			}
		}

		// Exit / liquidation check.
		if pos != nil {
			maintenancePrice := maintenanceLiquidationPrice(pos.borrowed, pos.quantity, pos.entryPrice, maintenanceFraction)
			stopPrice := pos.stopLossPrice(cfg)

			trigger, thresholdPrice := resolveTrigger(maintenancePrice, stopPrice, bar, i > pos.entryIndex)

			switch {
			case trigger != TriggerNone:
				// Forced close settles at the threshold price itself, not the
				// bar low: the threshold is the assumed forced-close price.
				positionEquity, pnl, pnlPct := settle(pos, thresholdPrice)
				cash += positionEquity
				cash = math.Max(0, cash-fee.Calculate(pos.quantity))

				reason := types.ExitReasonPositionStopLoss
				if trigger == TriggerMarginLiquidation {
					reason = types.ExitReasonMarginLiquidation
				}

				trades = append(trades, realizedTrade(pos, bar.Date, thresholdPrice, pnl, pnlPct, reason, cfg.Leverage, cash))

				if trigger == TriggerMarginLiquidation {
					riskEvents = append(riskEvents, types.RiskEvent{
						Type:                 types.RiskEventMaintenanceMargin,
						Date:                 bar.Date,
						TriggerPrice:         thresholdPrice,
						BarLow:               bar.Low,
						RemainingCapital:     cash,
						ThresholdPct:         cfg.MaintenanceMarginPct,
						PositionDropPct:      dropPercent(pos.entryPrice, thresholdPrice),
						MarginRatioAtTrigger: marginRatio(pos, thresholdPrice),
					})

					if cfg.StopAfterLiquidation {
						halted = true
					}
				}

				pos = nil

			case types.SameDay(bar.Date, pos.plannedExit):
				// The upstream signal's exit decision is trusted: settle at the
				// template's own exit price verbatim.
				positionEquity, pnl, pnlPct := settle(pos, pos.template.ExitPrice)
				cash += positionEquity
				cash = math.Max(0, cash-fee.Calculate(pos.quantity))

				reason := pos.template.ExitReason
				if reason == "" {
					reason = types.ExitReasonPlannedExit
				}

				trades = append(trades, realizedTrade(pos, bar.Date, pos.template.ExitPrice, pnl, pnlPct, reason, cfg.Leverage, cash))
				pos = nil
			}
		}

		totalValue := cash
		if pos != nil {
			totalValue += markToMarket(pos, bar.Close)
		}

		return totalValue, halted
	})

	finalValue := flooredCapital(cfg.InitialCapital)
	if len(equity) > 0 {
		finalValue = equity[len(equity)-1].Value
	}

	return Result{
		Trades:     trades,
		Equity:     equity,
		RiskEvents: riskEvents,
		FinalValue: finalValue,
	}
}

// maintenanceLiquidationPrice is the analytic price at which position equity
// falls to the maintenance fraction of notional, clamped to [0, entryPrice].
// A non-positive denominator makes the price unreachable (+Inf).
func maintenanceLiquidationPrice(borrowed, quantity, entryPrice, maintenanceFraction float64) float64 {
	denominator := quantity * (1 - maintenanceFraction)
	if denominator <= 0 {
		return math.Inf(1)
	}

	price := borrowed / denominator
	if price < 0 {
		return 0
	}

	if price > entryPrice {
		return entryPrice
	}

	return price
}

// stopLossPrice is the configured stop-loss threshold below entry, if any.
func (p *activePosition) stopLossPrice(cfg Config) optional.Option[float64] {
	if cfg.PositionStopLossPct.IsNone() {
		return optional.None[float64]()
	}

	pct := cfg.PositionStopLossPct.Unwrap()

	return optional.Some(p.entryPrice * (1 - pct/100))
}

// settle closes the position at exitPrice and returns the equity released back
// to cash, the pnl against margin, and the pnl percentage. Proceeds first repay
// the borrowed amount; the trader's equity is floored at zero because losses
// beyond margin belong to the broker, not the account.
func settle(p *activePosition, exitPrice float64) (positionEquity, pnl, pnlPct float64) {
	proceedsDec := decimal.NewFromFloat(p.quantity).Mul(decimal.NewFromFloat(exitPrice))
	equityDec := proceedsDec.Sub(decimal.NewFromFloat(p.borrowed))

	if equityDec.IsNegative() {
		equityDec = decimal.Zero
	}

	pnlDec := equityDec.Sub(decimal.NewFromFloat(p.marginUsed))

	positionEquity, _ = equityDec.Float64()
	pnl, _ = pnlDec.Float64()

	if p.marginUsed > 0 {
		pnlPct = pnl / p.marginUsed * 100
	}

	return positionEquity, pnl, pnlPct
}

// markToMarket values the open position at the bar close, floored at zero.
func markToMarket(p *activePosition, closePrice float64) float64 {
	return math.Max(0, p.quantity*closePrice-p.borrowed)
}

func realizedTrade(p *activePosition, exitDate time.Time, exitPrice, pnl, pnlPct float64, reason types.ExitReason, leverage, capitalAfter float64) types.RealizedTrade {
	return types.RealizedTrade{
		TemplateID:     p.template.ID,
		EntryDate:      p.entryDate,
		ExitDate:       exitDate,
		EntryPrice:     p.entryPrice,
		ExitPrice:      exitPrice,
		Quantity:       p.quantity,
		PnL:            pnl,
		PnLPercent:     pnlPct,
		DurationDays:   int(exitDate.Sub(p.entryDate).Hours() / 24),
		ExitReason:     reason,
		Leverage:       leverage,
		MarginUsed:     p.marginUsed,
		BorrowedAmount: p.borrowed,
		CapitalAfter:   capitalAfter,
	}
}

func dropPercent(entryPrice, triggerPrice float64) float64 {
	if entryPrice <= 0 {
		return 0
	}

	return (entryPrice - triggerPrice) / entryPrice * 100
}

// marginRatio is position equity as a fraction of notional at the trigger price.
func marginRatio(p *activePosition, triggerPrice float64) float64 {
	notional := p.quantity * triggerPrice
	if notional <= 0 {
		return 0
	}

	return math.Max(0, notional-p.borrowed) / notional
}

// flooredCapital is the account value a no-op replay reports: the starting
// capital clamped to zero, with non-finite values treated as zero.
func flooredCapital(initialCapital float64) float64 {
	if math.IsNaN(initialCapital) || math.IsInf(initialCapital, 0) {
		return 0
	}

	return math.Max(0, initialCapital)
}

// degenerateConfig reports parameters the replay cannot meaningfully run with.
// These are tolerated as a no-op rather than rejected.
func degenerateConfig(cfg Config) bool {
	if cfg.Leverage <= 0 {
		return true
	}

	values := []float64{cfg.InitialCapital, cfg.Leverage, cfg.MaintenanceMarginPct, cfg.CapitalUsagePct}
	if cfg.PositionStopLossPct.IsSome() {
		values = append(values, cfg.PositionStopLossPct.Unwrap())
	}

	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}

	return false
}
