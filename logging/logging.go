// Package logging builds the zap logger shared by the pendingtx packages.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for file output.
const (
	MaxSizeMB  = 50
	MaxBackups = 5
	MaxAgeDays = 30
)

// Options selects the level and destination of the logger.
type Options struct {
	Level string // debug, info, warn or error; empty means info
	File  string // empty logs to stderr
}

// New returns a JSON logger writing to stderr, or to a rotated file when
// opts.File is set.
func New(opts Options) (*zap.Logger, error) {
	if opts.File == "" {
		return NewWithWriter(opts.Level, zapcore.Lock(os.Stderr))
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
		return nil, fmt.Errorf("logging: create log directory: %w", err)
	}
	return NewWithWriter(opts.Level, zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    MaxSizeMB,
		MaxBackups: MaxBackups,
		MaxAge:     MaxAgeDays,
		Compress:   true,
	}))
}

// NewWithWriter returns a JSON logger writing to w.
func NewWithWriter(level string, w zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), w, zap.NewAtomicLevelAt(lvl))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// ParseLevel maps a case-insensitive level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("logging: %w", err)
	}
	return lvl, nil
}
