// Package runlog builds the process logger for bank runs.
// This package implements:
// - Append-only run-log files for simulation result lines
// - Console mirroring for interactive use
// - No-op logging when neither sink is wanted
package runlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultFile is where run logs land when no path is configured.
const DefaultFile = "bank_run.log"

// Options control where run logs go.
type Options struct {
	// Save appends every line to File.
	Save bool
	// File is the run-log path. Empty means DefaultFile.
	File string
	// Console mirrors lines to stderr.
	Console bool
}

// New builds the run logger. With both sinks off the returned logger
// discards everything, so callers never need a nil check.
func New(opts Options) (*zap.Logger, error) {
	var paths []string
	if opts.Save {
		file := opts.File
		if file == "" {
			file = DefaultFile
		}
		paths = append(paths, file)
	}
	if opts.Console {
		paths = append(paths, "stderr")
	}
	if len(paths) == 0 {
		return zap.NewNop(), nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = paths
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg.Build()
}
