package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PerformanceMetrics holds the aggregate statistics derived from a simulation's
// trade ledger and equity curve.
type PerformanceMetrics struct {
	// Count of all realized trades.
	TotalTrades int `yaml:"total_trades"`
	// Count of trades with pnl above the breakeven epsilon.
	WinningTrades int `yaml:"winning_trades"`
	// Count of trades with pnl below the negative breakeven epsilon.
	LosingTrades int `yaml:"losing_trades"`
	// Count of trades within the breakeven band; counted in neither wins nor losses.
	BreakevenTrades int `yaml:"breakeven_trades"`
	// Win rate in percent over all trades.
	WinRate float64 `yaml:"win_rate"`
	// Sum of winning trades' pnl.
	GrossProfit float64 `yaml:"gross_profit"`
	// Absolute sum of losing trades' pnl.
	GrossLoss float64 `yaml:"gross_loss"`
	// GrossProfit / GrossLoss. +Inf when there are profits but no losses, 0 when neither.
	ProfitFactor float64 `yaml:"profit_factor"`
	// Net pnl over all trades.
	TotalPnL float64 `yaml:"total_pnl"`
	// Average pnl of winning trades.
	AverageWin float64 `yaml:"average_win"`
	// Average pnl of losing trades (negative).
	AverageLoss float64 `yaml:"average_loss"`
	// Compound annual growth rate in percent, on 365.25-day years.
	CAGR float64 `yaml:"cagr"`
	// Maximum peak-to-trough drawdown of the equity curve, in percent.
	MaxDrawdown float64 `yaml:"max_drawdown"`
	// Annualized Sharpe ratio of per-period equity returns.
	SharpeRatio float64 `yaml:"sharpe_ratio"`
	// Annualized Sortino ratio of per-period equity returns.
	SortinoRatio float64 `yaml:"sortino_ratio"`
	// Final equity value.
	FinalValue float64 `yaml:"final_value"`
}

// Summary is the per-run report written alongside the trade and equity files.
type Summary struct {
	// ID is the unique identifier for this simulation run.
	ID string `yaml:"id"`
	// Timestamp is when this run was executed.
	Timestamp time.Time `yaml:"timestamp"`
	// Symbol of the simulated instrument.
	Symbol string `yaml:"symbol"`
	// InitialCapital the run started with.
	InitialCapital float64 `yaml:"initial_capital"`
	// Leverage multiplier used for position sizing.
	Leverage float64 `yaml:"leverage"`
	// Metrics derived from the run's outputs.
	Metrics PerformanceMetrics `yaml:"metrics"`
	// RiskEventCount is the number of forced liquidations during the run.
	RiskEventCount int `yaml:"risk_event_count"`
	// TradesFilePath is the path to the trades CSV file.
	TradesFilePath string `yaml:"trades_file_path"`
	// EquityFilePath is the path to the equity curve CSV file.
	EquityFilePath string `yaml:"equity_file_path"`
	// RiskEventsFilePath is the path to the risk events CSV file.
	RiskEventsFilePath string `yaml:"risk_events_file_path"`
	// DataPath is the path to the market data file used for this run.
	DataPath string `yaml:"data_path"`
	// TemplatesPath is the path to the trade template file used for this run.
	TemplatesPath string `yaml:"templates_path"`
	// BuyHoldFinalValue is the final value of the leveraged buy-and-hold
	// replay, when that replay was enabled for the run.
	BuyHoldFinalValue *float64 `yaml:"buy_hold_final_value,omitempty"`
	// OptionsFinalValue is the final value of the call-overlay replay, when
	// that replay was enabled for the run.
	OptionsFinalValue *float64 `yaml:"options_final_value,omitempty"`
}

// WriteSummary writes the run summary to a YAML file.
func WriteSummary(path string, summary Summary) error {
	// Marshal the struct to YAML
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary to YAML: %w", err)
	}

	// Write the YAML data to the file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary to file: %w", err)
	}

	return nil
}
