// Package logger holds the process-wide zap logger used by the feedgen
// server and CLI.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// L is the global sugared logger.
	L *zap.SugaredLogger
	// Z is the global structured logger.
	Z *zap.Logger
	// file is the rotating log file, if one is configured.
	file *lumberjack.Logger
)

func init() {
	z, _ := zap.NewProduction()
	Z = z
	L = z.Sugar()
}

// Config selects the log level, encoding and optional file output.
type Config struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // console or json
	File       string `yaml:"file"`        // empty logs to stderr only
	MaxSize    int    `yaml:"max_size"`    // megabytes
	MaxBackups int    `yaml:"max_backups"` // rotated files kept
	MaxAge     int    `yaml:"max_age"`     // days
}

// ParseLevel maps a level name to a zap level. An empty name is info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unsupported log level: %s", level)
	}
}

// New builds a logger from cfg writing to stderr and, when cfg.File is set,
// to a rotating file. The returned closer releases the file.
func New(cfg Config) (*zap.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	default:
		return nil, nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	var output io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSize, 64),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAge, 7),
			Compress:   true,
		}
		output = io.MultiWriter(os.Stderr, rotating)
		closer = rotating
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(output), level)
	return zap.New(core), closer, nil
}

// Init replaces the global loggers with one built from cfg.
func Init(cfg Config) error {
	z, closer, err := New(cfg)
	if err != nil {
		return err
	}

	if file != nil {
		_ = file.Close()
		file = nil
	}
	if rotating, ok := closer.(*lumberjack.Logger); ok {
		file = rotating
	}

	Z = z
	L = Z.Sugar()
	return nil
}

// Sync flushes buffered log entries and closes the log file. Call it before
// the program exits.
func Sync() {
	if Z != nil {
		_ = Z.Sync()
	}
	if file != nil {
		_ = file.Close()
		file = nil
	}
}

// Debugf logs a formatted debug message.
func Debugf(template string, args ...interface{}) { L.Debugf(template, args...) }

// Infof logs a formatted info message.
func Infof(template string, args ...interface{}) { L.Infof(template, args...) }

// Warnf logs a formatted warning.
func Warnf(template string, args ...interface{}) { L.Warnf(template, args...) }

// Errorf logs a formatted error.
func Errorf(template string, args ...interface{}) { L.Errorf(template, args...) }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
