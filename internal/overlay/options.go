package overlay

import (
	"math"
	"time"

	"github.com/meanrev-lab/margin-replay/internal/sim"
	"github.com/meanrev-lab/margin-replay/internal/types"
)

const (
	// contractMultiplier is the number of underlying shares per option contract.
	contractMultiplier = 100
	// minTick floors every model price so deep out-of-the-money contracts still
	// produce a fillable trade.
	minTick = 0.01
)

// OptionsConfig parameterizes the call-overlay replay.
type OptionsConfig struct {
	InitialCapital  float64 `yaml:"initial_capital" json:"initial_capital"`
	CapitalUsagePct float64 `yaml:"capital_usage_pct" json:"capital_usage_pct"`
	// StrikePct is the strike offset above spot at entry, in percent.
	StrikePct float64 `yaml:"strike_pct" json:"strike_pct"`
	// WeeksToExpiry fixes each contract's lifetime at entry.
	WeeksToExpiry int `yaml:"weeks_to_expiry" json:"weeks_to_expiry"`
	// VolatilityWindow is the number of prior bars feeding the realized-volatility estimate.
	VolatilityWindow int `yaml:"volatility_window" json:"volatility_window"`
	// VolatilityAdjustmentPct scales the realized volatility estimate, in percent.
	VolatilityAdjustmentPct float64 `yaml:"volatility_adjustment_pct" json:"volatility_adjustment_pct"`
	// RiskFreeRate is the annualized risk-free rate as a fraction.
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
}

// DefaultOptionsConfig mirrors the simulator's neutral defaults: full capital
// usage, 5% out-of-the-money strikes, four-week contracts, a 20-bar
// volatility window, and a 4% risk-free rate.
func DefaultOptionsConfig() OptionsConfig {
	return OptionsConfig{
		InitialCapital:          10000,
		CapitalUsagePct:         100,
		StrikePct:               5,
		WeeksToExpiry:           4,
		VolatilityWindow:        20,
		VolatilityAdjustmentPct: 0,
		RiskFreeRate:            0.04,
	}
}

// OptionsResult is the overlay's trade ledger, equity curve, and final value.
type OptionsResult struct {
	Trades     []types.RealizedTrade
	Equity     []types.EquityPoint
	FinalValue float64
}

// optionPosition is the runtime state of the single open contract lot.
type optionPosition struct {
	templateID string
	entryDate  time.Time
	strike     float64
	contracts  float64
	premium    float64
	expiry     time.Time
	closeBy    time.Time
}

// SimulateOptions replays trade templates as out-of-the-money call purchases.
// At each qualifying entry the strike is set above spot, volatility comes from
// the trailing realized-volatility estimate, and the position is marked to the
// Black-Scholes model each bar. Contracts are force-closed at expiry or at the
// underlying template's exit date, whichever comes first.
func SimulateOptions(bars []types.MarketBar, templates []types.TradeTemplate, cfg OptionsConfig) OptionsResult {
	if len(bars) == 0 || cfg.WeeksToExpiry <= 0 || degenerateOptionsConfig(cfg) {
		return OptionsResult{
			Trades:     []types.RealizedTrade{},
			Equity:     []types.EquityPoint{},
			FinalValue: flooredCapital(cfg.InitialCapital),
		}
	}

	vols := RollingVolatility(bars, cfg.VolatilityWindow, cfg.VolatilityAdjustmentPct)

	var (
		cash   = math.Max(0, cfg.InitialCapital)
		pos    *optionPosition
		cursor = 0
		trades = []types.RealizedTrade{}
	)

	equity := sim.RunEquityFold(bars, func(i int, bar types.MarketBar) (float64, bool) {
		if pos == nil {
			for cursor < len(templates) && templates[cursor].EntryDate.Before(bar.Date) &&
				!types.SameDay(templates[cursor].EntryDate, bar.Date) {
				cursor++
			}

			if cursor < len(templates) && types.SameDay(templates[cursor].EntryDate, bar.Date) {
				tpl := templates[cursor]
				cursor++

				pos = openOptionPosition(tpl, bar, vols[i], cfg, &cash)
			}
		}

		if pos != nil {
			expiryYears := yearsBetween(bar.Date, pos.expiry)
			price := math.Max(minTick, CallPrice(bar.Close, pos.strike, expiryYears, vols[i], cfg.RiskFreeRate))

			if !bar.Date.Before(pos.closeBy) {
				proceeds := pos.contracts * contractMultiplier * price
				cash += proceeds

				cost := pos.contracts * contractMultiplier * pos.premium
				pnl := proceeds - cost

				pnlPct := 0.0
				if cost > 0 {
					pnlPct = pnl / cost * 100
				}

				trades = append(trades, types.RealizedTrade{
					TemplateID:   pos.templateID,
					EntryDate:    pos.entryDate,
					ExitDate:     bar.Date,
					EntryPrice:   pos.premium,
					ExitPrice:    price,
					Quantity:     pos.contracts,
					PnL:          pnl,
					PnLPercent:   pnlPct,
					DurationDays: int(bar.Date.Sub(pos.entryDate).Hours() / 24),
					ExitReason:   types.ExitReasonPlannedExit,
					Leverage:     1,
					MarginUsed:   cost,
					CapitalAfter: cash,
				})

				pos = nil

				return cash, false
			}

			return cash + pos.contracts*contractMultiplier*price, false
		}

		return cash, false
	})

	return OptionsResult{
		Trades:     trades,
		Equity:     equity,
		FinalValue: equity[len(equity)-1].Value,
	}
}

func openOptionPosition(tpl types.TradeTemplate, bar types.MarketBar, volatility float64, cfg OptionsConfig, cash *float64) *optionPosition {
	spot := tpl.EntryPrice
	strike := spot * (1 + cfg.StrikePct/100)
	expiry := bar.Date.AddDate(0, 0, cfg.WeeksToExpiry*7)

	premium := math.Max(minTick, CallPrice(spot, strike, yearsBetween(bar.Date, expiry), volatility, cfg.RiskFreeRate))

	budget := *cash * cfg.CapitalUsagePct / 100
	contracts := math.Floor(budget / (premium * contractMultiplier))

	if contracts <= 0 {
		return nil
	}

	*cash -= contracts * contractMultiplier * premium

	closeBy := expiry
	if tpl.ExitDate.Before(expiry) {
		closeBy = tpl.ExitDate
	}

	return &optionPosition{
		templateID: tpl.ID,
		entryDate:  bar.Date,
		strike:     strike,
		contracts:  contracts,
		premium:    premium,
		expiry:     expiry,
		closeBy:    closeBy,
	}
}

func yearsBetween(from, to time.Time) float64 {
	if !to.After(from) {
		return 0
	}

	return to.Sub(from).Hours() / 24 / 365.25
}

func degenerateOptionsConfig(cfg OptionsConfig) bool {
	values := []float64{
		cfg.InitialCapital, cfg.CapitalUsagePct, cfg.StrikePct,
		cfg.VolatilityAdjustmentPct, cfg.RiskFreeRate,
	}

	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}

	return false
}
