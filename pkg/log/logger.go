// Package log provides structured logging for the aimcal training pipeline,
// backed by zerolog.
//
// Components obtain a named logger with GetLoggerWithName and attach
// contextual fields with With. Log calls take alternating key/value pairs
// using the key constants defined in this package, so that log output stays
// machine-filterable across the whole pipeline:
//
//	logger := log.GetLoggerWithName("piecewise").With(
//		log.ComponentKey, "piecewise",
//	)
//	logger.Info("Bracket fitted",
//		log.BracketKey, bi,
//		log.SamplesKey, n,
//	)
//
// SetupLogger configures the process-wide sink; GetLogger exposes the raw
// zerolog.Logger for call sites that need the full fluent API.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Structured logging field keys.
const (
	ModelNameKey  = "model"
	ComponentKey  = "component"
	OperationKey  = "operation"
	PhaseKey      = "phase"
	SamplesKey    = "samples"
	FeaturesKey   = "features"
	TermsKey      = "terms"
	BracketKey    = "bracket"
	SplitKey      = "split"
	DroppedKey    = "dropped"
	RetainedKey   = "retained"
	DurationMsKey = "duration_ms"
	PredsKey      = "predictions"
	RMSEKey       = "rmse"
	R2Key         = "r_squared"
	MAEKey        = "mae"
	PathKey       = "path"
)

// Operation values for OperationKey.
const (
	OperationLoad    = "load"
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationSearch  = "search"
	OperationEmit    = "emit"
)

// Phase values for PhaseKey.
const (
	PhaseLoading   = "loading"
	PhaseTraining  = "training"
	PhaseInference = "inference"
	PhaseEmission  = "emission"
)

// Logger is the keyvals-style logging interface used by estimators and the
// trainer. Keys must be strings; values may be anything zerolog can encode.
type Logger interface {
	// With returns a child logger with the given key/value pairs attached
	// to every subsequent log entry.
	With(keyvals ...interface{}) Logger

	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

var (
	mu     sync.RWMutex
	global = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
)

// SetupLogger configures the process-wide logger with the given level
// ("debug", "info", "warn", "error"). Unknown levels fall back to info.
func SetupLogger(level string) {
	lvl := zerolog.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "info":
		lvl = zerolog.InfoLevel
	case "warn", "warning":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}

	mu.Lock()
	defer mu.Unlock()
	global = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

// GetLogger returns the process-wide zerolog.Logger for call sites that
// want the fluent API directly.
func GetLogger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// GetLoggerWithName returns a named Logger. The name is attached as the
// "logger" field on every entry.
func GetLoggerWithName(name string) Logger {
	return &zlLogger{base: GetLogger().With().Str("logger", name).Logger()}
}

// LogError logs err at error level with a message, using the process-wide
// logger.
func LogError(err error, msg string) {
	l := GetLogger()
	l.Error().Err(err).Msg(msg)
}

type zlLogger struct {
	base zerolog.Logger
}

func (l *zlLogger) With(keyvals ...interface{}) Logger {
	ctx := l.base.With()
	for k, v := range pairs(keyvals) {
		ctx = ctx.Interface(k, v)
	}
	return &zlLogger{base: ctx.Logger()}
}

func (l *zlLogger) Debug(msg string, keyvals ...interface{}) {
	emit(l.base.Debug(), msg, keyvals)
}

func (l *zlLogger) Info(msg string, keyvals ...interface{}) {
	emit(l.base.Info(), msg, keyvals)
}

func (l *zlLogger) Warn(msg string, keyvals ...interface{}) {
	emit(l.base.Warn(), msg, keyvals)
}

func (l *zlLogger) Error(msg string, keyvals ...interface{}) {
	emit(l.base.Error(), msg, keyvals)
}

func emit(ev *zerolog.Event, msg string, keyvals []interface{}) {
	for k, v := range pairs(keyvals) {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// pairs converts alternating key/value arguments into a map. A trailing key
// without a value is recorded with a nil value rather than dropped.
func pairs(keyvals []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		if i+1 < len(keyvals) {
			out[key] = keyvals[i+1]
		} else {
			out[key] = nil
		}
	}
	return out
}
