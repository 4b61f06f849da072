// Package logging builds the zap logger for a harvest run.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how the run logger is assembled.
type Options struct {
	// Development switches to the colored console level encoder.
	Development bool
	// FilePath, when set, mirrors all entries into a per-day log file.
	FilePath string
	// Extra cores are teed in as-is (the run-log buffer core).
	Extra []zapcore.Core
}

// New builds a logger that writes to stdout, optionally to a log file, and
// to any extra cores. The file handle is owned by the returned closer.
func New(opts Options) (*zap.Logger, func() error, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	if opts.Development {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), zapcore.InfoLevel),
	}

	closer := func() error { return nil }
	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o750); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		fileCfg := encCfg
		fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(fileCfg), zapcore.Lock(f), zapcore.InfoLevel,
		))
		closer = f.Close
	}
	cores = append(cores, opts.Extra...)

	return zap.New(zapcore.NewTee(cores...)), closer, nil
}
