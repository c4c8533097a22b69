package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/meanrev-lab/margin-replay/internal/logger"
	"github.com/meanrev-lab/margin-replay/internal/types"
	"github.com/meanrev-lab/margin-replay/pkg/errors"
)

// DuckDBDataSource serves bar series straight from csv or parquet files via an
// embedded DuckDB instance. The file is never copied into the database; a view
// over the file keeps initialization cheap no matter how large the series is.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBDataSource opens an in-memory DuckDB instance. Call Initialize to
// point it at a bar file before reading.
func NewDuckDBDataSource(logger *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource. The file format is picked by extension.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("initializing duckdb data source", zap.String("path", path))

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		reader = "read_csv_auto"
	case ".parquet":
		reader = "read_parquet"
	default:
		return errors.Newf(errors.ErrCodeParseFailed, "unsupported bar file extension: %s", path)
	}

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// Squirrel does not support CREATE VIEW, so this one statement stays raw.
	query := fmt.Sprintf(`CREATE VIEW market_data AS SELECT * FROM %s('%s');`, reader, path)
	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to create view over %s", path)
	}

	return nil
}

// LoadBars implements DataSource.
func (d *DuckDBDataSource) LoadBars(start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.MarketBar, error) {
	builder := d.sq.
		Select("date", "open", "high", "low", "close", "volume").
		From("market_data").
		OrderBy("date ASC")

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"date": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"date": end.Unwrap()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build bar query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err)
	}
	defer rows.Close()

	bars := []types.MarketBar{}

	for rows.Next() {
		var bar types.MarketBar

		if err := rows.Scan(&bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeParseFailed, "failed to scan bar row", err)
		}

		if len(bars) > 0 && types.SameDay(bars[len(bars)-1].Date, bar.Date) {
			d.logger.Warn("duplicate bar date in series", zap.Time("date", bar.Date))
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate bar rows", err)
	}

	return bars, nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	builder := d.sq.Select("COUNT(*)").From("market_data")

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"date": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"date": end.Unwrap()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}
