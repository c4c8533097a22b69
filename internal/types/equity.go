package types

import "time"

// EquityPoint is one point of the simulated equity curve. The curve has exactly
// one point per bar, monotonically dated. DrawdownPercent is measured against
// the running peak of Value; the peak only ever moves up.
type EquityPoint struct {
	Date            time.Time `yaml:"date" json:"date"`
	Value           float64   `yaml:"value" json:"value"`
	DrawdownPercent float64   `yaml:"drawdown_percent" json:"drawdown_percent"`
}
