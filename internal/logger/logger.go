// Package logger builds the zap logger shared by docqa binaries.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console-encoded logger writing to path. The TUI owns the
// terminal, so an empty path yields a no-op logger rather than stdout.
func New(path string, debug bool) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return NewWithWriter(file, debug, false), nil
}

// NewWithWriter builds the logger on top of w. Color level names are only
// worth it when w is a terminal.
func NewWithWriter(w io.Writer, debug, color bool) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if color {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)

	return zap.New(core, zap.AddCaller())
}
