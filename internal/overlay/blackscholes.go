package overlay

import "math"

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// CallPrice values a European call with the Black-Scholes formula.
//
// Degenerate inputs collapse to the arbitrage bounds instead of NaN: expired
// options are worth intrinsic value, and zero volatility prices the discounted
// forward payoff.
func CallPrice(spot, strike, timeYears, volatility, riskFreeRate float64) float64 {
	if spot <= 0 || strike <= 0 {
		return math.Max(0, spot-strike)
	}

	if timeYears <= 0 {
		return math.Max(0, spot-strike)
	}

	if volatility <= 0 {
		return math.Max(0, spot-strike*math.Exp(-riskFreeRate*timeYears))
	}

	sqrtT := math.Sqrt(timeYears)
	d1 := (math.Log(spot/strike) + (riskFreeRate+volatility*volatility/2)*timeYears) / (volatility * sqrtT)
	d2 := d1 - volatility*sqrtT

	return spot*normCDF(d1) - strike*math.Exp(-riskFreeRate*timeYears)*normCDF(d2)
}
