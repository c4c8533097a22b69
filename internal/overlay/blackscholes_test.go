package overlay

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type BlackScholesTestSuite struct {
	suite.Suite
}

func TestBlackScholesSuite(t *testing.T) {
	suite.Run(t, new(BlackScholesTestSuite))
}

func (suite *BlackScholesTestSuite) TestKnownValue() {
	// Canonical textbook case: S=100, K=100, T=1y, vol=20%, r=5%.
	price := CallPrice(100, 100, 1, 0.20, 0.05)

	suite.InDelta(10.4506, price, 0.001)
}

func (suite *BlackScholesTestSuite) TestArbitrageBounds() {
	tests := []struct {
		name string
		spot float64
		k    float64
		t    float64
		vol  float64
		r    float64
	}{
		{name: "at the money", spot: 100, k: 100, t: 0.5, vol: 0.3, r: 0.04},
		{name: "deep in the money", spot: 150, k: 100, t: 0.25, vol: 0.2, r: 0.04},
		{name: "deep out of the money", spot: 50, k: 100, t: 0.25, vol: 0.2, r: 0.04},
		{name: "long dated", spot: 100, k: 110, t: 3, vol: 0.4, r: 0.02},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			price := CallPrice(tc.spot, tc.k, tc.t, tc.vol, tc.r)

			lower := math.Max(0, tc.spot-tc.k*math.Exp(-tc.r*tc.t))
			suite.GreaterOrEqual(price, lower)
			suite.LessOrEqual(price, tc.spot)
			suite.False(math.IsNaN(price))
		})
	}
}

func (suite *BlackScholesTestSuite) TestExpiredIsIntrinsic() {
	suite.InDelta(10.0, CallPrice(110, 100, 0, 0.2, 0.05), 1e-9)
	suite.InDelta(0.0, CallPrice(90, 100, 0, 0.2, 0.05), 1e-9)
	suite.InDelta(10.0, CallPrice(110, 100, -0.1, 0.2, 0.05), 1e-9)
}

func (suite *BlackScholesTestSuite) TestZeroVolatilityIsDiscountedForward() {
	price := CallPrice(110, 100, 1, 0, 0.05)

	suite.InDelta(110-100*math.Exp(-0.05), price, 1e-9)
}

func (suite *BlackScholesTestSuite) TestMonotonicInVolatility() {
	low := CallPrice(100, 105, 0.5, 0.1, 0.04)
	mid := CallPrice(100, 105, 0.5, 0.3, 0.04)
	high := CallPrice(100, 105, 0.5, 0.6, 0.04)

	suite.Less(low, mid)
	suite.Less(mid, high)
}

func (suite *BlackScholesTestSuite) TestDegenerateSpotAndStrike() {
	suite.Equal(0.0, CallPrice(0, 100, 1, 0.2, 0.05))
	suite.Equal(0.0, CallPrice(-5, 100, 1, 0.2, 0.05))
	suite.InDelta(100.0, CallPrice(100, 0, 1, 0.2, 0.05), 1e-9)
}
