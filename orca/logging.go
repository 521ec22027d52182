package orca

import (
	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newNopLogger returns a logger that discards everything, used when the
// caller does not supply one via WithLogger/WithLogFile.
func newNopLogger() *zap.Logger {
	return zap.NewNop()
}

// WithLogger installs a caller-supplied structured logger. The simulator
// logs step summaries at debug level and LP-infeasibility fallbacks at
// warn level. The fallback warning is the only per-agent log call; it is
// made after the solver returns, never inside the per-neighbor plane loop
// or the solver itself.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithLogFile wires a rotating file sink (lumberjack) behind a JSON zap
// core, for long-running hosts that want step diagnostics on disk. It
// replaces any logger installed by an earlier option (e.g. WithLogger), so
// the simulator's own logs then go only to the file.
func WithLogFile(path string, maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(s *Simulator) {
		sink := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
		}
		encoderCfg := zap.NewProductionEncoderConfig()
		core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(sink), zap.DebugLevel)
		s.logger = zap.New(core)
	}
}
