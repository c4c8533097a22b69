package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/meanrev-lab/margin-replay/internal/types"
)

type VolatilityTestSuite struct {
	suite.Suite
}

func TestVolatilitySuite(t *testing.T) {
	suite.Run(t, new(VolatilityTestSuite))
}

func barsFromCloses(start time.Time, closes ...float64) []types.MarketBar {
	bars := make([]types.MarketBar, 0, len(closes))
	for i, c := range closes {
		bars = append(bars, types.MarketBar{
			Date:  start.AddDate(0, 0, i),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		})
	}

	return bars
}

func (suite *VolatilityTestSuite) TestZeroBeforeWindowFills() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := barsFromCloses(start, 100, 102, 99, 103, 101, 104)

	vols := RollingVolatility(bars, 3, 0)

	suite.Len(vols, len(bars))
	for i := 0; i < 3; i++ {
		suite.Zero(vols[i])
	}
	for i := 3; i < len(bars); i++ {
		suite.Greater(vols[i], 0.0)
	}
}

func (suite *VolatilityTestSuite) TestFlatSeriesHasZeroVolatility() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := barsFromCloses(start, 100, 100, 100, 100, 100)

	vols := RollingVolatility(bars, 3, 0)

	for _, v := range vols {
		suite.Zero(v)
	}
}

func (suite *VolatilityTestSuite) TestAdjustmentScalesEstimate() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := barsFromCloses(start, 100, 105, 98, 107, 101, 109)

	base := RollingVolatility(bars, 3, 0)
	doubled := RollingVolatility(bars, 3, 100)
	halved := RollingVolatility(bars, 3, -50)

	for i := range bars {
		suite.InDelta(base[i]*2, doubled[i], 1e-12)
		suite.InDelta(base[i]*0.5, halved[i], 1e-12)
	}
}

func (suite *VolatilityTestSuite) TestDegenerateInputs() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	suite.Run("window of one", func() {
		bars := barsFromCloses(start, 100, 101, 102)
		suite.Equal([]float64{0, 0, 0}, RollingVolatility(bars, 1, 0))
	})

	suite.Run("series shorter than two bars", func() {
		bars := barsFromCloses(start, 100)
		suite.Equal([]float64{0}, RollingVolatility(bars, 5, 0))
	})

	suite.Run("window larger than series", func() {
		bars := barsFromCloses(start, 100, 101, 103)
		suite.Equal([]float64{0, 0, 0}, RollingVolatility(bars, 10, 0))
	})

	suite.Run("empty series", func() {
		suite.Empty(RollingVolatility(nil, 3, 0))
	})
}
