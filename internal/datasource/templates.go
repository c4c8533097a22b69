package datasource

import (
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meanrev-lab/margin-replay/internal/logger"
	"github.com/meanrev-lab/margin-replay/internal/types"
	"github.com/meanrev-lab/margin-replay/pkg/errors"
)

const templateDateLayout = "2006-01-02"

// templateRecord is the csv row shape for trade templates. Dates stay as
// strings here so the loader owns the layout instead of gocsv.
type templateRecord struct {
	ID         string  `csv:"id"`
	EntryDate  string  `csv:"entry_date"`
	ExitDate   string  `csv:"exit_date"`
	EntryPrice float64 `csv:"entry_price"`
	ExitPrice  float64 `csv:"exit_price"`
	Quantity   float64 `csv:"quantity"`
	ExitReason string  `csv:"exit_reason"`
}

// LoadTemplates reads trade templates from a csv file, sorted as stored.
// Rows without an id get a generated one. Structural violations in any row
// fail the whole load; a template stream with a bad row is not trustworthy.
func LoadTemplates(path string, logger *logger.Logger) ([]types.TradeTemplate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to open template file %s", path)
	}
	defer file.Close()

	records := []templateRecord{}
	if err := gocsv.UnmarshalFile(file, &records); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "failed to parse template file %s", path)
	}

	templates := make([]types.TradeTemplate, 0, len(records))

	for i, rec := range records {
		tpl, err := rec.toTemplate()
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "template row %d", i+1)
		}

		templates = append(templates, tpl)
	}

	if err := types.ValidateTemplates(templates); err != nil {
		return nil, err
	}

	logger.Debug("loaded trade templates",
		zap.String("path", path),
		zap.Int("count", len(templates)),
	)

	return templates, nil
}

func (r templateRecord) toTemplate() (types.TradeTemplate, error) {
	entryDate, err := time.Parse(templateDateLayout, r.EntryDate)
	if err != nil {
		return types.TradeTemplate{}, errors.Wrapf(errors.ErrCodeParseFailed, err, "invalid entry date %q", r.EntryDate)
	}

	exitDate, err := time.Parse(templateDateLayout, r.ExitDate)
	if err != nil {
		return types.TradeTemplate{}, errors.Wrapf(errors.ErrCodeParseFailed, err, "invalid exit date %q", r.ExitDate)
	}

	id := r.ID
	if id == "" {
		id = uuid.New().String()
	}

	return types.TradeTemplate{
		ID:         id,
		EntryDate:  entryDate,
		ExitDate:   exitDate,
		EntryPrice: r.EntryPrice,
		ExitPrice:  r.ExitPrice,
		Quantity:   r.Quantity,
		ExitReason: types.ExitReason(r.ExitReason),
	}, nil
}
