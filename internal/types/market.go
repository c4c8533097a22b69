package types

import "time"

// MarketBar is a single daily OHLCV record for one instrument.
// Bar series are supplied sorted ascending by date. Duplicate dates are a
// data-quality warning surfaced by the data source; the simulator never
// corrects them.
type MarketBar struct {
	Date   time.Time `csv:"date" yaml:"date"`
	Open   float64   `csv:"open" yaml:"open"`
	High   float64   `csv:"high" yaml:"high"`
	Low    float64   `csv:"low" yaml:"low"`
	Close  float64   `csv:"close" yaml:"close"`
	Volume float64   `csv:"volume" yaml:"volume"`
}

// SameDay reports whether two timestamps fall on the same calendar day in UTC.
// Daily bars carry midnight timestamps but template dates may arrive with a
// time component, so date comparisons go through here instead of Equal.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()

	return ay == by && am == bm && ad == bd
}
