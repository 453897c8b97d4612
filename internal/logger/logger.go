// Package logger provides structured JSON logging and metrics tracking for fixtures-ics.
//
// Log lines are JSON objects written by zap. Every line carries a timestamp,
// level and message; structured fields are nested under "fields" and an
// error, when given, is rendered under "error".
//
// Example usage:
//
//	logger.Info("Fetched fixtures page", logger.Fields{
//	    "subject": "team/atletico-mineiro-1683",
//	    "bytes":   52311,
//	})
//
//	logger.Warn("Cache unavailable, treating as miss", logger.Fields{
//	    "key": "team/atletico-mineiro-1683",
//	}, err)
//
//	logger.DefaultMetrics().IncrCounter(logger.MetricCacheHit)
//	logger.DefaultMetrics().RecordTiming(logger.MetricFetchTiming, duration)
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// ParseLevel accepts debug, info, warn (or warning) and error in any case
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) zap() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger provides structured logging
type Logger struct {
	zap  *zap.Logger
	base Fields
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(New(LevelInfo, os.Stdout))
}

// New creates a logger writing JSON lines to output.
// Messages below level are discarded.
func New(level Level, output io.Writer) *Logger {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		NameKey:        zapcore.OmitKey,
		CallerKey:      zapcore.OmitKey,
		FunctionKey:    zapcore.OmitKey,
		StacktraceKey:  zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(output)),
		level.zap(),
	)
	return &Logger{zap: zap.New(core)}
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// Default returns the package-level logger
func Default() *Logger {
	return defaultLogger.Load()
}

// SetDefault sets the default package-level logger used by the convenience functions
// (Debug, Info, Warn, Error). A nil logger silences them.
func SetDefault(logger *Logger) {
	if logger == nil {
		logger = NewNop()
	}
	defaultLogger.Store(logger)
}

// With returns a logger that adds fields to every line
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{zap: l.zap, base: merge(l.base, fields)}
}

// merge returns a new map holding base overlaid with extra
func merge(base, extra Fields) Fields {
	if len(base) == 0 {
		return extra
	}
	out := make(Fields, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Sync flushes buffered output
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

func (l *Logger) log(level Level, message string, fields Fields, err error) {
	ce := l.zap.Check(level.zap(), message)
	if ce == nil {
		return
	}

	fields = merge(l.base, fields)
	out := make([]zap.Field, 0, len(fields)+2)
	if err != nil {
		out = append(out, zap.String("error", err.Error()))
	}
	if len(fields) > 0 {
		out = append(out, zap.Namespace("fields"))
		out = append(out, zapFields(fields)...)
	}
	ce.Write(out...)
}

// zapFields converts fields in key order so output is stable
func zapFields(fields Fields) []zap.Field {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := fields[k].(error); ok {
			out = append(out, zap.String(k, err.Error()))
			continue
		}
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

// Debug logs a debug message with optional structured fields.
func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

// Info logs an informational message with optional structured fields.
func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn logs a warning. An optional error is recorded alongside the fields.
func (l *Logger) Warn(message string, fields Fields, err ...error) {
	l.log(LevelWarn, message, fields, firstErr(err))
}

// Error logs an error message with optional structured fields and an error object.
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}

func firstErr(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

// Package-level convenience functions using default logger

func Debug(message string, fields Fields) {
	Default().Debug(message, fields)
}

func Info(message string, fields Fields) {
	Default().Info(message, fields)
}

func Warn(message string, fields Fields, err ...error) {
	Default().Warn(message, fields, err...)
}

func Error(message string, fields Fields, err error) {
	Default().Error(message, fields, err)
}
