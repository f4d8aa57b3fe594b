// ABOUTME: Structured logger construction for colony
// ABOUTME: Tees warnings to the terminal and everything at the chosen level to a JSON log file

package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "info"

// Options controls where and how much colony logs.
type Options struct {
	// File is the JSON log file. Empty disables file logging.
	File string
	// Level is the file log level: debug, info, warn, or error.
	Level string
	// Verbose lowers the terminal threshold from warn to debug.
	Verbose bool
}

// ParseLevel converts a level name to a zap level, defaulting to info.
func ParseLevel(name string) (zapcore.Level, error) {
	if name == "" {
		name = DefaultLevel
	}
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("parse log level %q: %w", name, err)
	}
	return level, nil
}

// New builds a logger writing to stderr and, when configured, a log file.
// The returned close function syncs the logger and closes the file.
func New(opts Options) (*zap.Logger, func(), error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	termLevel := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if opts.Verbose {
		termLevel = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	consoleEncoder := zapcore.NewConsoleEncoder(config.EncoderConfig)
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), termLevel),
	}

	var file *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0750); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err = os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		jsonEncoder := zapcore.NewJSONEncoder(config.EncoderConfig)
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(file), zap.NewAtomicLevelAt(level)))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	closeFn := func() {
		_ = logger.Sync()
		if file != nil {
			_ = file.Close()
		}
	}
	return logger, closeFn, nil
}
