package datasource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/meanrev-lab/margin-replay/internal/logger"
	"github.com/meanrev-lab/margin-replay/internal/types"
	"github.com/meanrev-lab/margin-replay/pkg/errors"
)

type TemplatesTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

func TestTemplatesSuite(t *testing.T) {
	suite.Run(t, new(TemplatesTestSuite))
}

func (suite *TemplatesTestSuite) SetupTest() {
	suite.logger = logger.NewNopLogger()
}

func (suite *TemplatesTestSuite) writeTemplateCSV(content string) string {
	path := filepath.Join(suite.T().TempDir(), "templates.csv")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	return path
}

func (suite *TemplatesTestSuite) TestLoadTemplates() {
	path := suite.writeTemplateCSV(
		"id,entry_date,exit_date,entry_price,exit_price,quantity,exit_reason\n" +
			"tpl-1,2024-01-05,2024-01-10,100.5,104,10,planned_exit\n" +
			"tpl-2,2024-02-01,2024-02-03,98,95,5,planned_exit\n")

	templates, err := LoadTemplates(path, suite.logger)
	suite.Require().NoError(err)
	suite.Require().Len(templates, 2)

	first := templates[0]
	suite.Equal("tpl-1", first.ID)
	suite.True(first.EntryDate.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
	suite.True(first.ExitDate.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	suite.InDelta(100.5, first.EntryPrice, 1e-9)
	suite.InDelta(104.0, first.ExitPrice, 1e-9)
	suite.InDelta(10.0, first.Quantity, 1e-9)
	suite.Equal(types.ExitReasonPlannedExit, first.ExitReason)
}

func (suite *TemplatesTestSuite) TestBlankIDGetsGenerated() {
	path := suite.writeTemplateCSV(
		"id,entry_date,exit_date,entry_price,exit_price,quantity,exit_reason\n" +
			",2024-01-05,2024-01-10,100,104,10,planned_exit\n")

	templates, err := LoadTemplates(path, suite.logger)
	suite.Require().NoError(err)
	suite.Require().Len(templates, 1)
	suite.NotEmpty(templates[0].ID)
}

func (suite *TemplatesTestSuite) TestInvalidDateFailsLoad() {
	path := suite.writeTemplateCSV(
		"id,entry_date,exit_date,entry_price,exit_price,quantity,exit_reason\n" +
			"tpl-1,05/01/2024,2024-01-10,100,104,10,planned_exit\n")

	_, err := LoadTemplates(path, suite.logger)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeParseFailed))
}

func (suite *TemplatesTestSuite) TestEntryAfterExitFailsLoad() {
	path := suite.writeTemplateCSV(
		"id,entry_date,exit_date,entry_price,exit_price,quantity,exit_reason\n" +
			"tpl-1,2024-01-10,2024-01-05,100,104,10,planned_exit\n")

	_, err := LoadTemplates(path, suite.logger)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTemplate))
}

func (suite *TemplatesTestSuite) TestMissingFile() {
	_, err := LoadTemplates(filepath.Join(suite.T().TempDir(), "missing.csv"), suite.logger)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}
