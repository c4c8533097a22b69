package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/meanrev-lab/margin-replay/pkg/errors"
)

type TemplateTestSuite struct {
	suite.Suite
}

func TestTemplateSuite(t *testing.T) {
	suite.Run(t, new(TemplateTestSuite))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (suite *TemplateTestSuite) TestValidate() {
	tests := []struct {
		name          string
		template      TradeTemplate
		expectedError bool
	}{
		{
			name: "valid template",
			template: TradeTemplate{
				ID:         "t1",
				EntryDate:  date(2024, 1, 1),
				ExitDate:   date(2024, 1, 3),
				EntryPrice: 100,
				ExitPrice:  110,
				Quantity:   1,
				ExitReason: ExitReasonPlannedExit,
			},
			expectedError: false,
		},
		{
			name: "entry date equal to exit date",
			template: TradeTemplate{
				ID:         "t2",
				EntryDate:  date(2024, 1, 1),
				ExitDate:   date(2024, 1, 1),
				EntryPrice: 100,
				ExitPrice:  100,
				Quantity:   1,
			},
			expectedError: false,
		},
		{
			name: "entry date after exit date",
			template: TradeTemplate{
				ID:         "t3",
				EntryDate:  date(2024, 1, 5),
				ExitDate:   date(2024, 1, 1),
				EntryPrice: 100,
				ExitPrice:  110,
				Quantity:   1,
			},
			expectedError: true,
		},
		{
			name: "non-positive entry price",
			template: TradeTemplate{
				ID:         "t4",
				EntryDate:  date(2024, 1, 1),
				ExitDate:   date(2024, 1, 3),
				EntryPrice: 0,
				ExitPrice:  110,
				Quantity:   1,
			},
			expectedError: true,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := tc.template.Validate()
			if tc.expectedError {
				suite.Error(err)
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidTemplate))
			} else {
				suite.NoError(err)
			}
		})
	}
}

func (suite *TemplateTestSuite) TestValidateTemplates() {
	valid := TradeTemplate{
		ID: "ok", EntryDate: date(2024, 1, 1), ExitDate: date(2024, 1, 2),
		EntryPrice: 100, ExitPrice: 101, Quantity: 1,
	}
	invalid := TradeTemplate{
		ID: "bad", EntryDate: date(2024, 1, 5), ExitDate: date(2024, 1, 1),
		EntryPrice: 100, ExitPrice: 101, Quantity: 1,
	}

	suite.NoError(ValidateTemplates([]TradeTemplate{valid}))
	suite.NoError(ValidateTemplates(nil))

	err := ValidateTemplates([]TradeTemplate{valid, invalid})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTemplate))
}
