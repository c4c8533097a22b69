package types

import "time"

// RiskEventType classifies a risk event.
type RiskEventType string

const (
	// RiskEventMaintenanceMargin is emitted when a position is force-closed by
	// the broker maintenance-margin rule.
	RiskEventMaintenanceMargin RiskEventType = "maintenance_margin"
)

// RiskEvent describes a broker-forced liquidation detected from intrabar price
// action. At most one event is emitted per liquidated position.
type RiskEvent struct {
	Type RiskEventType `yaml:"type" json:"type"`
	Date time.Time     `yaml:"date" json:"date"`
	// TriggerPrice is the analytic maintenance-liquidation price the position
	// was settled at.
	TriggerPrice float64 `yaml:"trigger_price" json:"trigger_price"`
	// BarLow is the low of the bar on which the breach was detected.
	BarLow float64 `yaml:"bar_low" json:"bar_low"`
	// RemainingCapital is the account cash balance after the forced close.
	RemainingCapital float64 `yaml:"remaining_capital" json:"remaining_capital"`
	// ThresholdPct is the configured maintenance margin percentage.
	ThresholdPct float64 `yaml:"threshold_pct" json:"threshold_pct"`
	// PositionDropPct is the percentage decline from entry price to trigger price.
	PositionDropPct float64 `yaml:"position_drop_pct" json:"position_drop_pct"`
	// MarginRatioAtTrigger is the position equity as a fraction of position
	// notional at the trigger price.
	MarginRatioAtTrigger float64 `yaml:"margin_ratio_at_trigger" json:"margin_ratio_at_trigger"`
}
