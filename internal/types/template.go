package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/meanrev-lab/margin-replay/pkg/errors"
)

// ExitReason classifies how a position was closed.
type ExitReason string

const (
	// ExitReasonPlannedExit means the position was closed on the template's own exit date.
	ExitReasonPlannedExit ExitReason = "planned_exit"
	// ExitReasonPositionStopLoss means the configured per-position stop-loss threshold was hit.
	ExitReasonPositionStopLoss ExitReason = "position_stop_loss"
	// ExitReasonMarginLiquidation means the broker maintenance-margin threshold was breached.
	ExitReasonMarginLiquidation ExitReason = "margin_liquidation"
)

// TradeTemplate is an already-resolved unlevered trade produced by an external
// strategy-signal evaluator. The simulator consumes templates verbatim and never
// derives new signals from them.
type TradeTemplate struct {
	ID         string     `yaml:"id" json:"id"`
	EntryDate  time.Time  `yaml:"entry_date" json:"entry_date" validate:"required"`
	ExitDate   time.Time  `yaml:"exit_date" json:"exit_date" validate:"required"`
	EntryPrice float64    `yaml:"entry_price" json:"entry_price" validate:"gt=0"`
	ExitPrice  float64    `yaml:"exit_price" json:"exit_price" validate:"gt=0"`
	Quantity   float64    `yaml:"quantity" json:"quantity" validate:"gte=0"`
	ExitReason ExitReason `yaml:"exit_reason" json:"exit_reason"`
}

var templateValidator = validator.New()

// Validate rejects structurally invalid templates. A template whose entry date
// is after its exit date is the one fatal condition; it must be caught here at
// the boundary, never mid-simulation.
func (t TradeTemplate) Validate() error {
	if err := templateValidator.Struct(t); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidTemplate, err, "template %s failed validation", t.ID)
	}

	if t.EntryDate.After(t.ExitDate) {
		return errors.Newf(errors.ErrCodeInvalidTemplate,
			"template %s has entry date %s after exit date %s",
			t.ID, t.EntryDate.Format("2006-01-02"), t.ExitDate.Format("2006-01-02"))
	}

	return nil
}

// ValidateTemplates validates every template in a stream and returns the first
// structural violation found.
func ValidateTemplates(templates []TradeTemplate) error {
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	return nil
}
