package sim

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"

	"github.com/meanrev-lab/margin-replay/internal/sim/commission"
	"github.com/meanrev-lab/margin-replay/pkg/errors"
)

// Config holds the leveraged replay parameters.
//
// Validate enforces the documented ranges at the boundary; Simulate itself
// degrades gracefully on degenerate numeric values instead of erroring, so a
// caller that skips validation still gets a well-defined empty result.
type Config struct {
	InitialCapital       float64                  `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital in USD,minimum=0" validate:"gte=0"`
	Leverage             float64                  `yaml:"leverage" json:"leverage" jsonschema:"title=Leverage,description=Position sizing multiplier applied to the margin budget" validate:"gt=0"`
	MaintenanceMarginPct float64                  `yaml:"maintenance_margin_pct" json:"maintenance_margin_pct" jsonschema:"title=Maintenance Margin,description=Minimum equity percentage of position notional before forced liquidation,minimum=1,maximum=95" validate:"gte=1,lte=95"`
	CapitalUsagePct      float64                  `yaml:"capital_usage_pct" json:"capital_usage_pct" jsonschema:"title=Capital Usage,description=Percentage of cash committed as margin per entry,minimum=0,maximum=100" validate:"gte=0,lte=100"`
	PositionStopLossPct  optional.Option[float64] `yaml:"position_stop_loss_pct" json:"position_stop_loss_pct" jsonschema:"title=Position Stop Loss,description=Optional per-position stop-loss percentage below entry price"`
	StopAfterLiquidation bool                     `yaml:"stop_after_liquidation" json:"stop_after_liquidation" jsonschema:"title=Stop After Liquidation,description=Halt the replay at the liquidation bar instead of continuing with the surviving cash"`
	Broker               commission.Broker        `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=The broker to use for commission calculations"`
}

// UnmarshalYAML implements custom unmarshaling for Config
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type config struct {
		InitialCapital       float64           `yaml:"initial_capital"`
		Leverage             float64           `yaml:"leverage"`
		MaintenanceMarginPct float64           `yaml:"maintenance_margin_pct"`
		CapitalUsagePct      float64           `yaml:"capital_usage_pct"`
		PositionStopLossPct  *float64          `yaml:"position_stop_loss_pct"`
		StopAfterLiquidation bool              `yaml:"stop_after_liquidation"`
		Broker               commission.Broker `yaml:"broker"`
	}

	var parsed config
	if err := unmarshal(&parsed); err != nil {
		return err
	}

	c.InitialCapital = parsed.InitialCapital
	c.Leverage = parsed.Leverage
	c.MaintenanceMarginPct = parsed.MaintenanceMarginPct
	c.CapitalUsagePct = parsed.CapitalUsagePct
	c.StopAfterLiquidation = parsed.StopAfterLiquidation
	c.Broker = parsed.Broker

	if parsed.PositionStopLossPct != nil {
		c.PositionStopLossPct = optional.Some(*parsed.PositionStopLossPct)
	} else {
		c.PositionStopLossPct = optional.None[float64]()
	}

	return nil
}

var configValidator = validator.New()

// Validate checks the documented parameter ranges. This is the boundary check
// for callers feeding user-supplied configuration into the engine.
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "simulation config failed validation", err)
	}

	if c.PositionStopLossPct.IsSome() {
		stop := c.PositionStopLossPct.Unwrap()
		if stop <= 0 || stop >= 100 {
			return errors.Newf(errors.ErrCodeInvalidConfiguration,
				"position_stop_loss_pct must be in (0, 100), got %v", stop)
		}
	}

	return nil
}

// GenerateSchema generates a JSON schema for the Config
func (c *Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[float64]" {
				return &jsonschema.Schema{
					Type: "number",
				}
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

	schema := reflector.Reflect(c)

	schema.Title = "simulation-config"
	schema.Description = "Configuration schema for the leveraged replay simulator"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates a JSON schema string for the Config
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema := c.GenerateSchema()

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// DefaultConfig returns a Config with neutral defaults: unlevered, full capital
// usage, zero commission, no stop loss.
func DefaultConfig() Config {
	return Config{
		InitialCapital:       10000,
		Leverage:             1,
		MaintenanceMarginPct: 25,
		CapitalUsagePct:      100,
		PositionStopLossPct:  optional.None[float64](),
		StopAfterLiquidation: false,
		Broker:               commission.BrokerZero,
	}
}
