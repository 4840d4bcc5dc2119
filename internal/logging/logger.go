package logging

import (
	"go.uber.org/zap"

	"github.com/eugenenazirov/rse-logconf/internal/severity"
)

// Logger emits records with the five document severities.
type Logger struct {
	z *zap.Logger
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.z.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.z.Info(msg, fields...)
}

func (l *Logger) Warning(msg string, fields ...zap.Field) {
	l.z.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.z.Error(msg, fields...)
}

// Critical logs at the highest severity. It neither panics nor exits.
func (l *Logger) Critical(msg string, fields ...zap.Field) {
	l.z.DPanic(msg, fields...)
}

// Log emits msg at lvl.
func (l *Logger) Log(lvl severity.Level, msg string, fields ...zap.Field) {
	if ce := l.z.Check(lvl.Zap(), msg); ce != nil {
		ce.Write(fields...)
	}
}

// Named returns a child logger; names are joined with dots.
func (l *Logger) Named(name string) *Logger {
	return &Logger{z: l.z.Named(name)}
}

// With attaches context fields. Template formatters do not render them.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

// Zap exposes the underlying zap logger for libraries that expect one.
func (l *Logger) Zap() *zap.Logger {
	return l.z.WithOptions(zap.AddCallerSkip(-1))
}

func (l *Logger) Sync() error {
	return l.z.Sync()
}
