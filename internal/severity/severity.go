// Package severity defines the ordered record severities used by logging
// documents and maps them onto zap levels.
package severity

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Level is the ordinal importance of a record.
type Level int

const (
	Debug Level = iota + 1
	Info
	Warning
	Error
	Critical
)

var names = map[Level]string{
	Debug:    "DEBUG",
	Info:     "INFO",
	Warning:  "WARNING",
	Error:    "ERROR",
	Critical: "CRITICAL",
}

// Parse resolves a severity name. Matching is case-insensitive and accepts
// the WARN and FATAL aliases.
func Parse(raw string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DEBUG":
		return Debug, nil
	case "INFO":
		return Info, nil
	case "WARNING", "WARN":
		return Warning, nil
	case "ERROR":
		return Error, nil
	case "CRITICAL", "FATAL":
		return Critical, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", raw)
	}
}

// String returns the canonical upper-case name.
func (l Level) String() string {
	if name, ok := names[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// Zap maps the level onto zap. CRITICAL uses DPanic, which only panics in
// development loggers.
func (l Level) Zap() zapcore.Level {
	switch l {
	case Debug:
		return zapcore.DebugLevel
	case Warning:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	case Critical:
		return zapcore.DPanicLevel
	default:
		return zapcore.InfoLevel
	}
}

// FromZap is the inverse of Zap. Panic and Fatal collapse into Critical.
func FromZap(lvl zapcore.Level) Level {
	switch {
	case lvl <= zapcore.DebugLevel:
		return Debug
	case lvl == zapcore.InfoLevel:
		return Info
	case lvl == zapcore.WarnLevel:
		return Warning
	case lvl == zapcore.ErrorLevel:
		return Error
	default:
		return Critical
	}
}

// Name renders a zap level with the severity vocabulary.
func Name(lvl zapcore.Level) string {
	return FromZap(lvl).String()
}
