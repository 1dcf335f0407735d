// Package logging builds the process-wide logger. Every component receives a
// named child of the logger returned here, so log lines carry their origin
// ("detection", "alarm", "session") the same way across the whole program.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to stderr. With debug enabled the
// level drops to Debug and caller annotations are kept, otherwise output is
// the plain Info-and-up stream meant for interactive use.
func New(debug bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true

	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		cfg.DisableCaller = true
	}

	return zap.Must(cfg.Build()).Sugar()
}
