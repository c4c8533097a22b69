// Package engine orchestrates replay runs: it loads bar series and trade
// templates, drives the simulator and the metrics calculator, and persists
// per-run results. The simulation core stays pure; everything with a side
// effect lives here.
package engine

import (
	"context"

	"github.com/meanrev-lab/margin-replay/internal/datasource"
)

// Lifecycle callback types for replay phases.
// All callbacks with an error return can abort execution by returning one.

// OnReplayStartCallback is called once before any data file is processed.
type OnReplayStartCallback func(totalDataFiles int) error

// OnReplayEndCallback is called when the whole replay completes (always called via defer).
type OnReplayEndCallback func(err error)

// OnRunStartCallback is called when processing of a data file begins.
// runID is a unique identifier for the run, generated before processing starts.
type OnRunStartCallback func(runID string, dataFileIndex int, dataFilePath string, totalBars int) error

// OnRunEndCallback is called when processing of a data file ends.
type OnRunEndCallback func(dataFileIndex int, dataFilePath string, resultFolderPath string)

// LifecycleCallbacks holds the lifecycle callback functions for the replay
// engine. All fields are pointers; nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnReplayStart *OnReplayStartCallback
	OnReplayEnd   *OnReplayEndCallback
	OnRunStart    *OnRunStartCallback
	OnRunEnd      *OnRunEndCallback
}

type Engine interface {
	// Initialize the engine with the given configuration content.
	Initialize(config string) error
	// SetDataPath sets the path to the daily bar file. Accepts glob patterns
	// for batch replays over multiple files (e.g. "data/*.csv").
	SetDataPath(path string) error
	// SetTemplatesPath sets the path to the trade template csv file.
	SetTemplatesPath(path string) error
	// SetResultsFolder sets the output directory for run results. Each data
	// file gets its own subfolder named <file>_<runID>.
	SetResultsFolder(folder string) error
	// SetDataSource sets the bar data source for the engine.
	SetDataSource(dataSource datasource.DataSource) error
	// Run replays every template stream against every data file. The context
	// can be used to cancel the replay between data files.
	Run(ctx context.Context, callbacks LifecycleCallbacks) error
	// GetConfigSchema returns the JSON schema of the engine configuration.
	GetConfigSchema() (string, error)
}
