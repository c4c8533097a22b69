package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/meanrev-lab/margin-replay/internal/datasource"
	"github.com/meanrev-lab/margin-replay/internal/logger"
	"github.com/meanrev-lab/margin-replay/internal/metrics"
	"github.com/meanrev-lab/margin-replay/internal/overlay"
	"github.com/meanrev-lab/margin-replay/internal/sim"
	"github.com/meanrev-lab/margin-replay/internal/sim/commission"
	"github.com/meanrev-lab/margin-replay/internal/types"
	"github.com/meanrev-lab/margin-replay/pkg/errors"
)

// ReplayEngineV1Config is the full engine configuration: the simulation
// parameters plus the optional derivative replays and an optional date range
// restricting the bar series.
type ReplayEngineV1Config struct {
	Simulation sim.Config                 `yaml:"simulation" json:"simulation" jsonschema:"title=Simulation,description=Leveraged replay parameters"`
	BuyHold    *overlay.BuyHoldConfig     `yaml:"buy_hold" json:"buy_hold,omitempty" jsonschema:"title=Buy and Hold,description=Optional leveraged buy-and-hold replay"`
	Options    *overlay.OptionsConfig     `yaml:"options" json:"options,omitempty" jsonschema:"title=Options Overlay,description=Optional Black-Scholes call overlay replay"`
	StartDate  optional.Option[time.Time] `yaml:"start_date" json:"start_date" jsonschema:"title=Start Date,description=Inclusive lower bound on bar dates (YYYY-MM-DD)"`
	EndDate    optional.Option[time.Time] `yaml:"end_date" json:"end_date" jsonschema:"title=End Date,description=Inclusive upper bound on bar dates (YYYY-MM-DD)"`
}

// UnmarshalYAML implements custom unmarshaling for ReplayEngineV1Config.
func (c *ReplayEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type config struct {
		Simulation sim.Config             `yaml:"simulation"`
		BuyHold    *overlay.BuyHoldConfig `yaml:"buy_hold"`
		Options    *overlay.OptionsConfig `yaml:"options"`
		StartDate  *string                `yaml:"start_date"`
		EndDate    *string                `yaml:"end_date"`
	}

	var parsed config
	if err := unmarshal(&parsed); err != nil {
		return err
	}

	c.Simulation = parsed.Simulation
	c.BuyHold = parsed.BuyHold
	c.Options = parsed.Options

	var err error

	c.StartDate, err = parseOptionalDate(parsed.StartDate)
	if err != nil {
		return err
	}

	c.EndDate, err = parseOptionalDate(parsed.EndDate)
	if err != nil {
		return err
	}

	return nil
}

func parseOptionalDate(value *string) (optional.Option[time.Time], error) {
	if value == nil || *value == "" {
		return optional.None[time.Time](), nil
	}

	t, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return optional.None[time.Time](), errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid date %q", *value)
	}

	return optional.Some(t), nil
}

// ReplayEngineV1 is the file-driven implementation of Engine.
type ReplayEngineV1 struct {
	config        ReplayEngineV1Config
	dataPaths     []string
	templatesPath string
	resultsFolder string
	log           *logger.Logger
	datasource    datasource.DataSource
	initialized   bool
}

func NewReplayEngineV1() Engine {
	return &ReplayEngineV1{
		config:        ReplayEngineV1Config{Simulation: sim.DefaultConfig()},
		dataPaths:     nil,
		templatesPath: "",
		resultsFolder: "",
		log:           nil,
		datasource:    nil,
		initialized:   false,
	}
}

// Initialize implements Engine.
func (e *ReplayEngineV1) Initialize(config string) error {
	if err := yaml.Unmarshal([]byte(config), &e.config); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse engine config", err)
	}

	if err := e.config.Simulation.Validate(); err != nil {
		return err
	}

	var loggerError error

	e.log, loggerError = logger.NewLogger()
	if loggerError != nil {
		return loggerError
	}

	// Derivative replays inherit the simulation's capital and leverage unless
	// the config section overrides them.
	if e.config.BuyHold != nil {
		if e.config.BuyHold.InitialCapital == 0 {
			e.config.BuyHold.InitialCapital = e.config.Simulation.InitialCapital
		}

		if e.config.BuyHold.Leverage == 0 {
			e.config.BuyHold.Leverage = e.config.Simulation.Leverage
		}
	}

	if e.config.Options != nil && e.config.Options.InitialCapital == 0 {
		e.config.Options.InitialCapital = e.config.Simulation.InitialCapital
	}

	e.initialized = true

	e.log.Debug("replay engine initialized",
		zap.Float64("initial_capital", e.config.Simulation.InitialCapital),
		zap.Float64("leverage", e.config.Simulation.Leverage),
	)

	return nil
}

// SetDataPath implements Engine.
func (e *ReplayEngineV1) SetDataPath(path string) error {
	matches, err := filepath.Glob(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid data path pattern %s", path)
	}

	if len(matches) == 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "no data files match %s", path)
	}

	e.dataPaths = matches

	return nil
}

// SetTemplatesPath implements Engine.
func (e *ReplayEngineV1) SetTemplatesPath(path string) error {
	e.templatesPath = path

	return nil
}

// SetResultsFolder implements Engine.
func (e *ReplayEngineV1) SetResultsFolder(folder string) error {
	e.resultsFolder = folder

	return nil
}

// SetDataSource implements Engine.
func (e *ReplayEngineV1) SetDataSource(dataSource datasource.DataSource) error {
	e.datasource = dataSource

	return nil
}

func (e *ReplayEngineV1) preRunCheck() error {
	if !e.initialized || e.log == nil {
		return errors.New(errors.ErrCodeEngineNotInitialized, "engine is not initialized")
	}

	if len(e.dataPaths) == 0 {
		return errors.New(errors.ErrCodeEngineNoDataPath, "no data path set")
	}

	if e.templatesPath == "" {
		return errors.New(errors.ErrCodeEngineNoTemplates, "no templates path set")
	}

	if e.resultsFolder == "" {
		return errors.New(errors.ErrCodeEngineNoResultsDir, "no results folder set")
	}

	if e.datasource == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "no data source set")
	}

	return nil
}

// Run implements Engine.
func (e *ReplayEngineV1) Run(ctx context.Context, callbacks LifecycleCallbacks) (err error) {
	if err = e.preRunCheck(); err != nil {
		return err
	}

	defer func() {
		if callbacks.OnReplayEnd != nil {
			(*callbacks.OnReplayEnd)(err)
		}
	}()

	// Results from a previous run are stale the moment a new one starts.
	if _, statErr := os.Stat(e.resultsFolder); statErr == nil {
		os.RemoveAll(e.resultsFolder)
	}

	if err = os.MkdirAll(e.resultsFolder, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create results folder %s", e.resultsFolder)
	}

	templates, err := datasource.LoadTemplates(e.templatesPath, e.log)
	if err != nil {
		return err
	}

	if callbacks.OnReplayStart != nil {
		if err = (*callbacks.OnReplayStart)(len(e.dataPaths)); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "replay start callback failed", err)
		}
	}

	for i, dataPath := range e.dataPaths {
		select {
		case <-ctx.Done():
			err = ctx.Err()

			return err
		default:
		}

		if err = e.runOne(i, dataPath, templates, callbacks); err != nil {
			return err
		}
	}

	return nil
}

func (e *ReplayEngineV1) runOne(index int, dataPath string, templates []types.TradeTemplate, callbacks LifecycleCallbacks) error {
	runID := uuid.New().String()

	if err := e.datasource.Initialize(dataPath); err != nil {
		return err
	}

	bars, err := e.datasource.LoadBars(e.config.StartDate, e.config.EndDate)
	if err != nil {
		return err
	}

	if len(bars) == 0 {
		return errors.Newf(errors.ErrCodeInsufficientData, "no bars in %s for the configured date range", dataPath)
	}

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, index, dataPath, len(bars)); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "run start callback failed", err)
		}
	}

	e.log.Debug("running replay",
		zap.String("run_id", runID),
		zap.String("data", dataPath),
		zap.Int("bars", len(bars)),
		zap.Int("templates", len(templates)),
	)

	result := sim.Simulate(bars, templates, e.config.Simulation)
	runMetrics := metrics.Calculate(result.Trades, result.Equity, e.config.Simulation.InitialCapital)

	symbol := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))
	resultFolder := filepath.Join(e.resultsFolder, fmt.Sprintf("%s_%s", symbol, runID))

	if err := os.MkdirAll(resultFolder, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create run folder %s", resultFolder)
	}

	tradesPath, err := WriteTrades(resultFolder, TradesFileName, result.Trades)
	if err != nil {
		return err
	}

	equityPath, err := WriteEquity(resultFolder, EquityFileName, result.Equity)
	if err != nil {
		return err
	}

	riskEventsPath, err := WriteRiskEvents(resultFolder, result.RiskEvents)
	if err != nil {
		return err
	}

	summary := types.Summary{
		ID:                 runID,
		Timestamp:          time.Now().UTC(),
		Symbol:             symbol,
		InitialCapital:     e.config.Simulation.InitialCapital,
		Leverage:           e.config.Simulation.Leverage,
		Metrics:            runMetrics,
		RiskEventCount:     len(result.RiskEvents),
		TradesFilePath:     tradesPath,
		EquityFilePath:     equityPath,
		RiskEventsFilePath: riskEventsPath,
		DataPath:           dataPath,
		TemplatesPath:      e.templatesPath,
	}

	if e.config.BuyHold != nil {
		buyHold := overlay.SimulateBuyHold(bars, *e.config.BuyHold)
		if _, err := WriteEquity(resultFolder, BuyHoldEquityFileName, buyHold.Equity); err != nil {
			return err
		}

		summary.BuyHoldFinalValue = &buyHold.FinalValue
	}

	if e.config.Options != nil {
		options := overlay.SimulateOptions(bars, templates, *e.config.Options)
		if _, err := WriteTrades(resultFolder, OptionsTradesFileName, options.Trades); err != nil {
			return err
		}

		if _, err := WriteEquity(resultFolder, OptionsEquityFileName, options.Equity); err != nil {
			return err
		}

		summary.OptionsFinalValue = &options.FinalValue
	}

	if err := types.WriteSummary(filepath.Join(resultFolder, SummaryFileName), summary); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to write summary", err)
	}

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(index, dataPath, resultFolder)
	}

	return nil
}

// GetConfigSchema implements Engine.
func (e *ReplayEngineV1) GetConfigSchema() (string, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[float64]" {
				return &jsonschema.Schema{Type: "number"}
			}
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{Type: "string"}
			}
			if strings.Contains(t.String(), "commission.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission.AllBrokers,
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(&e.config)
	schema.Title = "replay-engine-config"
	schema.Description = "Configuration schema for the replay engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
