package engine

import (
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/meanrev-lab/margin-replay/internal/types"
	"github.com/meanrev-lab/margin-replay/pkg/errors"
)

const resultDateLayout = "2006-01-02"

// Result file names inside a run folder.
const (
	TradesFileName        = "trades.csv"
	EquityFileName        = "equity.csv"
	RiskEventsFileName    = "risk_events.csv"
	SummaryFileName       = "summary.yaml"
	BuyHoldEquityFileName = "buyhold_equity.csv"
	OptionsTradesFileName = "options_trades.csv"
	OptionsEquityFileName = "options_equity.csv"
)

// tradeRecord is the csv row shape for realized trades. Dates are formatted
// here so the files stay readable without a spreadsheet's date handling.
type tradeRecord struct {
	TemplateID     string  `csv:"template_id"`
	EntryDate      string  `csv:"entry_date"`
	ExitDate       string  `csv:"exit_date"`
	EntryPrice     float64 `csv:"entry_price"`
	ExitPrice      float64 `csv:"exit_price"`
	Quantity       float64 `csv:"quantity"`
	PnL            float64 `csv:"pnl"`
	PnLPercent     float64 `csv:"pnl_percent"`
	DurationDays   int     `csv:"duration_days"`
	ExitReason     string  `csv:"exit_reason"`
	Leverage       float64 `csv:"leverage"`
	MarginUsed     float64 `csv:"margin_used"`
	BorrowedAmount float64 `csv:"borrowed_amount"`
	CapitalAfter   float64 `csv:"capital_after"`
}

type equityRecord struct {
	Date            string  `csv:"date"`
	Value           float64 `csv:"value"`
	DrawdownPercent float64 `csv:"drawdown_percent"`
}

type riskEventRecord struct {
	Type                 string  `csv:"type"`
	Date                 string  `csv:"date"`
	TriggerPrice         float64 `csv:"trigger_price"`
	BarLow               float64 `csv:"bar_low"`
	RemainingCapital     float64 `csv:"remaining_capital"`
	ThresholdPct         float64 `csv:"threshold_pct"`
	PositionDropPct      float64 `csv:"position_drop_pct"`
	MarginRatioAtTrigger float64 `csv:"margin_ratio_at_trigger"`
}

// WriteTrades writes a trade ledger to a csv file in the run folder.
func WriteTrades(folder, fileName string, trades []types.RealizedTrade) (string, error) {
	records := make([]tradeRecord, 0, len(trades))
	for _, t := range trades {
		records = append(records, tradeRecord{
			TemplateID:     t.TemplateID,
			EntryDate:      t.EntryDate.Format(resultDateLayout),
			ExitDate:       t.ExitDate.Format(resultDateLayout),
			EntryPrice:     t.EntryPrice,
			ExitPrice:      t.ExitPrice,
			Quantity:       t.Quantity,
			PnL:            t.PnL,
			PnLPercent:     t.PnLPercent,
			DurationDays:   t.DurationDays,
			ExitReason:     string(t.ExitReason),
			Leverage:       t.Leverage,
			MarginUsed:     t.MarginUsed,
			BorrowedAmount: t.BorrowedAmount,
			CapitalAfter:   t.CapitalAfter,
		})
	}

	return writeCSV(filepath.Join(folder, fileName), &records)
}

// WriteEquity writes an equity curve to a csv file in the run folder.
func WriteEquity(folder, fileName string, equity []types.EquityPoint) (string, error) {
	records := make([]equityRecord, 0, len(equity))
	for _, p := range equity {
		records = append(records, equityRecord{
			Date:            p.Date.Format(resultDateLayout),
			Value:           p.Value,
			DrawdownPercent: p.DrawdownPercent,
		})
	}

	return writeCSV(filepath.Join(folder, fileName), &records)
}

// WriteRiskEvents writes the forced-liquidation events to a csv file in the run folder.
func WriteRiskEvents(folder string, events []types.RiskEvent) (string, error) {
	records := make([]riskEventRecord, 0, len(events))
	for _, e := range events {
		records = append(records, riskEventRecord{
			Type:                 string(e.Type),
			Date:                 e.Date.Format(resultDateLayout),
			TriggerPrice:         e.TriggerPrice,
			BarLow:               e.BarLow,
			RemainingCapital:     e.RemainingCapital,
			ThresholdPct:         e.ThresholdPct,
			PositionDropPct:      e.PositionDropPct,
			MarginRatioAtTrigger: e.MarginRatioAtTrigger,
		})
	}

	return writeCSV(filepath.Join(folder, RiskEventsFileName), &records)
}

func writeCSV(path string, records interface{}) (string, error) {
	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create %s", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(records, file); err != nil {
		return "", errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to write %s", path)
	}

	return path, nil
}
