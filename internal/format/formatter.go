// Package format compiles formatter definitions into reusable rendering rules
// and exposes them to zap as encoders.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
	"go.uber.org/zap/zapcore"

	"github.com/eugenenazirov/rse-logconf/internal/severity"
)

// DefaultTimeLayout renders timestamps when no datefmt is configured.
const DefaultTimeLayout = "2006-01-02 15:04:05,000"

// RootLoggerName is rendered for records emitted by the unnamed root logger.
const RootLoggerName = "root"

// Record is the view of a log entry a template renders.
type Record struct {
	Time     time.Time
	Level    zapcore.Level
	Logger   string
	Message  string
	Line     int
	Function string
	PID      int
}

// Formatter renders records with a compiled template and date format.
type Formatter struct {
	template *Template
	datefmt  *strftime.Strftime
}

// New compiles a formatter. datefmt is a strftime pattern; %L renders
// milliseconds.
func New(template, datefmt string) (*Formatter, error) {
	tmpl, err := ParseTemplate(template)
	if err != nil {
		return nil, err
	}
	f := &Formatter{template: tmpl}
	if datefmt != "" {
		f.datefmt, err = strftime.New(datefmt, strftime.WithMilliseconds('L'))
		if err != nil {
			return nil, fmt.Errorf("datefmt %q: %w", datefmt, err)
		}
	}
	return f, nil
}

// Template returns the compiled template.
func (f *Formatter) Template() *Template {
	return f.template
}

// Format renders r without a trailing newline.
func (f *Formatter) Format(r Record) string {
	return string(f.AppendFormat(nil, r))
}

// AppendFormat appends the rendering of r to b.
func (f *Formatter) AppendFormat(b []byte, r Record) []byte {
	for _, seg := range f.template.segments {
		if seg.field == 0 {
			b = append(b, seg.literal...)
			continue
		}
		b = pad(b, f.value(seg.field, r), seg.width, seg.left)
	}
	return b
}

func (f *Formatter) value(field Field, r Record) string {
	switch field {
	case FieldTimestamp:
		if f.datefmt != nil {
			return f.datefmt.FormatString(r.Time)
		}
		return r.Time.Format(DefaultTimeLayout)
	case FieldProcess:
		return strconv.Itoa(r.PID)
	case FieldLevel:
		return severity.Name(r.Level)
	case FieldLogger:
		if r.Logger == "" {
			return RootLoggerName
		}
		return r.Logger
	case FieldMessage:
		return r.Message
	case FieldLine:
		return strconv.Itoa(r.Line)
	case FieldFunction:
		return shortFunction(r.Function)
	}
	return ""
}

// shortFunction trims a fully qualified Go function down to its final name.
func shortFunction(fn string) string {
	if fn == "" {
		return "?"
	}
	if i := strings.LastIndexByte(fn, '.'); i >= 0 {
		return fn[i+1:]
	}
	return fn
}
