// Package datasource loads daily bar series and trade templates from disk.
// The replay engine only ever sees ordered, validated slices; everything about
// file formats and storage stays behind this package.
package datasource

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/meanrev-lab/margin-replay/internal/logger"
	"github.com/meanrev-lab/margin-replay/internal/types"
)

type DataSource interface {
	// Initialize points the data source at the given bar file (csv or parquet).
	Initialize(path string) error
	// LoadBars returns the bar series ordered by date ascending, optionally
	// restricted to an inclusive date range.
	LoadBars(start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.MarketBar, error)
	// Count returns the number of bars, optionally restricted to a date range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases any resources held by the data source.
	Close() error
}

// InMemoryDataSource serves a bar slice that is already in memory. It sorts
// the bars by date on construction and logs duplicate calendar days rather
// than rejecting them; the replay processes every bar it is handed.
type InMemoryDataSource struct {
	bars   []types.MarketBar
	logger *logger.Logger
}

func NewInMemoryDataSource(bars []types.MarketBar, logger *logger.Logger) *InMemoryDataSource {
	sorted := make([]types.MarketBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for i := 1; i < len(sorted); i++ {
		if types.SameDay(sorted[i-1].Date, sorted[i].Date) {
			logger.Warn("duplicate bar date in series",
				zap.Time("date", sorted[i].Date),
			)
		}
	}

	return &InMemoryDataSource{bars: sorted, logger: logger}
}

// Initialize implements DataSource. The in-memory source has no backing file.
func (s *InMemoryDataSource) Initialize(path string) error {
	return nil
}

// LoadBars implements DataSource.
func (s *InMemoryDataSource) LoadBars(start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.MarketBar, error) {
	out := make([]types.MarketBar, 0, len(s.bars))

	for _, bar := range s.bars {
		if start.IsSome() && bar.Date.Before(start.Unwrap()) {
			continue
		}

		if end.IsSome() && bar.Date.After(end.Unwrap()) {
			continue
		}

		out = append(out, bar)
	}

	return out, nil
}

// Count implements DataSource.
func (s *InMemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	bars, err := s.LoadBars(start, end)
	if err != nil {
		return 0, err
	}

	return len(bars), nil
}

// Close implements DataSource.
func (s *InMemoryDataSource) Close() error {
	return nil
}
