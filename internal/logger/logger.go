// Package logger provides a context-aware structured logger backed by zap.
package logger

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents a logging level.
type Level = zapcore.Level

// Supported levels.
const (
	LevelDebug Level = zapcore.DebugLevel
	LevelInfo  Level = zapcore.InfoLevel
	LevelWarn  Level = zapcore.WarnLevel
	LevelError Level = zapcore.ErrorLevel
)

// TraceIDFn extracts a trace id from the context. An empty result is not logged.
type TraceIDFn func(ctx context.Context) string

// LoggerInterface is the logging contract used across the application.
// Every method takes the request context first, followed by the message and
// alternating key/value pairs.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// The c variants skip extra stack frames when reporting the caller,
	// for helpers that log on behalf of their caller.
	Debugc(ctx context.Context, caller int, msg string, args ...any)
	Infoc(ctx context.Context, caller int, msg string, args ...any)
	Warnc(ctx context.Context, caller int, msg string, args ...any)
	Errorc(ctx context.Context, caller int, msg string, args ...any)
}

var _ LoggerInterface = (*Logger)(nil)

// frames between the public method and zap: the method itself and write.
const baseCallerSkip = 2

// Logger writes JSON records through zap.
type Logger struct {
	base      *zap.Logger
	traceIDFn TraceIDFn
}

// New constructs a Logger writing to w at the given minimum level.
// service is attached to every record; traceIDFn may be nil.
func New(w io.Writer, minLevel Level, service string, traceIDFn TraceIDFn) *Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "file",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(minLevel),
	)

	base := zap.New(core, zap.AddCaller()).With(zap.String("service", service))

	return &Logger{
		base:      base,
		traceIDFn: traceIDFn,
	}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{base: zap.NewNop()}
}

// ParseLevel converts a config string into a Level. Unknown values map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelDebug, 0, msg, args...)
}

// Debugc logs at debug level, skipping caller extra frames.
func (l *Logger) Debugc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelDebug, caller, msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelInfo, 0, msg, args...)
}

// Infoc logs at info level, skipping caller extra frames.
func (l *Logger) Infoc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelInfo, caller, msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelWarn, 0, msg, args...)
}

// Warnc logs at warn level, skipping caller extra frames.
func (l *Logger) Warnc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelWarn, caller, msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelError, 0, msg, args...)
}

// Errorc logs at error level, skipping caller extra frames.
func (l *Logger) Errorc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelError, caller, msg, args...)
}

// Sync flushes buffered records.
func (l *Logger) Sync() error {
	return l.base.Sync()
}

func (l *Logger) write(ctx context.Context, level Level, caller int, msg string, args ...any) {
	zl := l.base.WithOptions(zap.AddCallerSkip(baseCallerSkip + caller))
	if !zl.Core().Enabled(level) {
		return
	}

	fields := make([]zap.Field, 0, len(args)/2+1)
	if l.traceIDFn != nil && ctx != nil {
		if id := l.traceIDFn(ctx); id != "" {
			fields = append(fields, zap.String("trace_id", id))
		}
	}
	fields = append(fields, toFields(args)...)

	if ce := zl.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

// toFields converts alternating key/value pairs into zap fields. A trailing
// key without a value is reported under "!BADKEY".
func toFields(args []any) []zap.Field {
	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields = append(fields, zap.Any("!BADKEY", args[i]))
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if err, isErr := args[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}
