package types

import "time"

// RealizedTrade is a settled leveraged trade produced by the simulator.
// It carries the originating template's fields plus the simulated sizing and
// margin context at the time of settlement.
type RealizedTrade struct {
	TemplateID string    `yaml:"template_id" json:"template_id"`
	EntryDate  time.Time `yaml:"entry_date" json:"entry_date"`
	ExitDate   time.Time `yaml:"exit_date" json:"exit_date"`
	EntryPrice float64   `yaml:"entry_price" json:"entry_price"`
	ExitPrice  float64   `yaml:"exit_price" json:"exit_price"`
	// Quantity is the simulated share count, not the template's unlevered quantity.
	Quantity   float64    `yaml:"quantity" json:"quantity"`
	PnL        float64    `yaml:"pnl" json:"pnl"`
	PnLPercent float64    `yaml:"pnl_percent" json:"pnl_percent"`
	// DurationDays is the calendar-day span between entry and exit.
	DurationDays int        `yaml:"duration_days" json:"duration_days"`
	ExitReason   ExitReason `yaml:"exit_reason" json:"exit_reason"`

	// Margin context at settlement.
	Leverage       float64 `yaml:"leverage" json:"leverage"`
	MarginUsed     float64 `yaml:"margin_used" json:"margin_used"`
	BorrowedAmount float64 `yaml:"borrowed_amount" json:"borrowed_amount"`
	// CapitalAfter is the account cash balance after this trade settled.
	CapitalAfter float64 `yaml:"capital_after" json:"capital_after"`
}
