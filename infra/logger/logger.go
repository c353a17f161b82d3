package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	corelogger "github.com/kilianp07/chargeplan/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a Logger for the given component writing to the process
// output chosen by Output.
func New(component string) Logger {
	return NewZerologLoggerWithWriter(component, Output())
}

var (
	outputOnce sync.Once
	output     io.Writer
)

// Output resolves the shared log destination once per process:
//
//   - LOG_FILE set: JSON lines into that file, rotated at LOG_MAX_SIZE_MB
//     (default 20) with three backups kept.
//   - APP_ENV=dev: human readable console output on stdout.
//   - otherwise JSON lines on stdout.
func Output() io.Writer {
	outputOnce.Do(func() { output = resolveOutput(os.Getenv) })
	return output
}

func resolveOutput(getenv func(string) string) io.Writer {
	if path := getenv("LOG_FILE"); path != "" {
		size := 20
		if v, err := parsePositive(getenv("LOG_MAX_SIZE_MB")); err == nil {
			size = v
		}
		return &lumberjack.Logger{Filename: path, MaxSize: size, MaxBackups: 3, Compress: true}
	}
	if strings.ToLower(getenv("APP_ENV")) == "dev" {
		return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return os.Stdout
}
