package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/meanrev-lab/margin-replay/internal/datasource"
	"github.com/meanrev-lab/margin-replay/internal/engine"
	"github.com/meanrev-lab/margin-replay/internal/logger"
)

// replayAction is the core logic executed by the CLI command. It reads the
// engine configuration, wires the data source, and runs the replay with a
// progress bar over the data files.
func replayAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	templatesPath := cmd.String("templates")
	outputFolder := cmd.String("output")

	config, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	replayEngine := engine.NewReplayEngineV1()

	if err := replayEngine.Initialize(string(config)); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	if err := replayEngine.SetDataPath(dataPath); err != nil {
		return err
	}

	if err := replayEngine.SetTemplatesPath(templatesPath); err != nil {
		return err
	}

	if err := replayEngine.SetResultsFolder(outputFolder); err != nil {
		return err
	}

	engineLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	source, err := datasource.NewDuckDBDataSource(engineLogger)
	if err != nil {
		return err
	}
	defer source.Close()

	if err := replayEngine.SetDataSource(source); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onReplayStart := engine.OnReplayStartCallback(func(totalDataFiles int) error {
		bar = progressbar.Default(int64(totalDataFiles))

		return nil
	})
	onRunEnd := engine.OnRunEndCallback(func(dataFileIndex int, dataFilePath string, resultFolderPath string) {
		if bar != nil {
			_ = bar.Add(1)
		}

		log.Printf("Finished %s -> %s", dataFilePath, resultFolderPath)
	})

	return replayEngine.Run(ctx, engine.LifecycleCallbacks{
		OnReplayStart: &onReplayStart,
		OnRunEnd:      &onRunEnd,
	})
}

// schemaAction prints the engine configuration JSON schema.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	schema, err := engine.NewReplayEngineV1().GetConfigSchema()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "replay",
		Usage: "Replay trade templates against daily bars with borrowed capital",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the replay over one or more data files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the engine configuration YAML file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path or glob to the daily bar files (csv or parquet)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "templates",
						Aliases:  []string{"t"},
						Usage:    "Path to the trade template csv file",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path to the results output directory",
						Value:   "results",
					},
				},
				Action: replayAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the engine configuration JSON schema",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
