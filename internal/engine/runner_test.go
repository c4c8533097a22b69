package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	"github.com/meanrev-lab/margin-replay/internal/datasource"
	"github.com/meanrev-lab/margin-replay/internal/logger"
	"github.com/meanrev-lab/margin-replay/internal/types"
	"github.com/meanrev-lab/margin-replay/pkg/errors"
)

type RunnerTestSuite struct {
	suite.Suite
	workDir string
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func (suite *RunnerTestSuite) SetupTest() {
	suite.workDir = suite.T().TempDir()
}

const runnerConfig = `
simulation:
  initial_capital: 10000
  leverage: 2
  maintenance_margin_pct: 25
  capital_usage_pct: 100
buy_hold:
  leverage: 2
`

func (suite *RunnerTestSuite) writeDataFile(name string, days int) string {
	dataDir := filepath.Join(suite.workDir, "data")
	suite.Require().NoError(os.MkdirAll(dataDir, 0o755))

	path := filepath.Join(dataDir, name)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	content := "date,open,high,low,close,volume\n"
	for i := 0; i < days; i++ {
		price := 100.0 + float64(i)
		content += fmt.Sprintf("%s,%g,%g,%g,%g,1000\n",
			start.AddDate(0, 0, i).Format("2006-01-02"), price, price+1, price-1, price)
	}

	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	return path
}

func (suite *RunnerTestSuite) writeTemplateFile() string {
	path := filepath.Join(suite.workDir, "templates.csv")
	content := "id,entry_date,exit_date,entry_price,exit_price,quantity,exit_reason\n" +
		"tpl-1,2024-01-03,2024-01-07,102,106,10,planned_exit\n"

	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	return path
}

func (suite *RunnerTestSuite) newEngine(dataPath, templatesPath, resultsFolder string) Engine {
	eng := NewReplayEngineV1()
	suite.Require().NoError(eng.Initialize(runnerConfig))
	suite.Require().NoError(eng.SetDataPath(dataPath))
	suite.Require().NoError(eng.SetTemplatesPath(templatesPath))
	suite.Require().NoError(eng.SetResultsFolder(resultsFolder))

	source, err := datasource.NewDuckDBDataSource(logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.T().Cleanup(func() { source.Close() })
	suite.Require().NoError(eng.SetDataSource(source))

	return eng
}

func (suite *RunnerTestSuite) TestPreRunChecks() {
	eng := NewReplayEngineV1()

	err := eng.Run(context.Background(), LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeEngineNotInitialized))

	suite.Require().NoError(eng.Initialize(runnerConfig))
	err = eng.Run(context.Background(), LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeEngineNoDataPath))

	dataPath := suite.writeDataFile("bars.csv", 10)
	suite.Require().NoError(eng.SetDataPath(dataPath))
	err = eng.Run(context.Background(), LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeEngineNoTemplates))

	suite.Require().NoError(eng.SetTemplatesPath(suite.writeTemplateFile()))
	err = eng.Run(context.Background(), LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeEngineNoResultsDir))

	suite.Require().NoError(eng.SetResultsFolder(filepath.Join(suite.workDir, "results")))
	err = eng.Run(context.Background(), LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
}

func (suite *RunnerTestSuite) TestInvalidConfig() {
	eng := NewReplayEngineV1()

	err := eng.Initialize("simulation:\n  initial_capital: 10000\n  leverage: -1\n")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *RunnerTestSuite) TestMissingDataFile() {
	eng := NewReplayEngineV1()
	suite.Require().NoError(eng.Initialize(runnerConfig))

	err := eng.SetDataPath(filepath.Join(suite.workDir, "missing.csv"))
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *RunnerTestSuite) TestEndToEndRun() {
	dataPath := suite.writeDataFile("acme.csv", 10)
	resultsFolder := filepath.Join(suite.workDir, "results")
	eng := suite.newEngine(dataPath, suite.writeTemplateFile(), resultsFolder)

	var (
		startedRuns  int
		finishedRuns int
		runFolder    string
	)

	onRunStart := OnRunStartCallback(func(runID string, dataFileIndex int, dataFilePath string, totalBars int) error {
		startedRuns++

		suite.NotEmpty(runID)
		suite.Equal(dataPath, dataFilePath)
		suite.Equal(10, totalBars)

		return nil
	})
	onRunEnd := OnRunEndCallback(func(dataFileIndex int, dataFilePath string, resultFolderPath string) {
		finishedRuns++
		runFolder = resultFolderPath
	})

	err := eng.Run(context.Background(), LifecycleCallbacks{
		OnRunStart: &onRunStart,
		OnRunEnd:   &onRunEnd,
	})
	suite.Require().NoError(err)
	suite.Equal(1, startedRuns)
	suite.Equal(1, finishedRuns)

	for _, name := range []string{TradesFileName, EquityFileName, RiskEventsFileName, SummaryFileName, BuyHoldEquityFileName} {
		_, statErr := os.Stat(filepath.Join(runFolder, name))
		suite.NoError(statErr, name)
	}

	content, err := os.ReadFile(filepath.Join(runFolder, SummaryFileName))
	suite.Require().NoError(err)

	var summary types.Summary
	suite.Require().NoError(yaml.Unmarshal(content, &summary))

	suite.Equal("acme", summary.Symbol)
	suite.InDelta(10000.0, summary.InitialCapital, 1e-9)
	suite.InDelta(2.0, summary.Leverage, 1e-9)
	suite.Equal(1, summary.Metrics.TotalTrades)
	suite.NotNil(summary.BuyHoldFinalValue)
	suite.Nil(summary.OptionsFinalValue)
	suite.Equal(dataPath, summary.DataPath)
}

func (suite *RunnerTestSuite) TestRunOverMultipleDataFiles() {
	suite.writeDataFile("aaa.csv", 10)
	suite.writeDataFile("bbb.csv", 10)
	resultsFolder := filepath.Join(suite.workDir, "results")
	eng := suite.newEngine(filepath.Join(suite.workDir, "data", "*.csv"), suite.writeTemplateFile(), resultsFolder)

	var total int

	onReplayStart := OnReplayStartCallback(func(totalDataFiles int) error {
		total = totalDataFiles

		return nil
	})

	err := eng.Run(context.Background(), LifecycleCallbacks{OnReplayStart: &onReplayStart})
	suite.Require().NoError(err)
	suite.Equal(2, total)

	entries, err := os.ReadDir(resultsFolder)
	suite.Require().NoError(err)
	suite.Len(entries, 2)
}

func (suite *RunnerTestSuite) TestCancelledContext() {
	dataPath := suite.writeDataFile("acme.csv", 10)
	eng := suite.newEngine(dataPath, suite.writeTemplateFile(), filepath.Join(suite.workDir, "results"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var endErr error

	onReplayEnd := OnReplayEndCallback(func(err error) {
		endErr = err
	})

	err := eng.Run(ctx, LifecycleCallbacks{OnReplayEnd: &onReplayEnd})
	suite.Require().Error(err)
	suite.ErrorIs(err, context.Canceled)
	suite.ErrorIs(endErr, context.Canceled)
}
