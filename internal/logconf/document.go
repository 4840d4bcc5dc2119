// Package logconf loads and validates declarative logging documents:
// formatters, handlers, the root logger and optional named loggers.
package logconf

import "time"

// SupportedVersion is the only document version this loader understands.
const SupportedVersion = 1

// DefaultFilename is the watched-file target when a handler omits filename.
const DefaultFilename = "/var/log/rse/rse.log"

// Document is the top-level aggregate parsed from a logging document. It is
// built once and treated as read-only afterwards.
type Document struct {
	Version                int                      `yaml:"version"`
	DisableExistingLoggers *bool                    `yaml:"disable_existing_loggers"`
	Root                   LoggerSpec               `yaml:"root"`
	Loggers                map[string]LoggerSpec    `yaml:"loggers"`
	Handlers               map[string]HandlerSpec   `yaml:"handlers"`
	Formatters             map[string]FormatterSpec `yaml:"formatters"`
}

// DisablesExisting reports whether previously installed handlers are
// deactivated on apply. An absent flag means true.
func (d *Document) DisablesExisting() bool {
	if d.DisableExistingLoggers == nil {
		return true
	}
	return *d.DisableExistingLoggers
}

// FormatterSpec is a named output template.
type FormatterSpec struct {
	Format  string `yaml:"format"`
	Datefmt string `yaml:"datefmt"`
}

// LoggerSpec configures the root logger or a named logger. Propagate is
// ignored on the root.
type LoggerSpec struct {
	Level     string   `yaml:"level"`
	Handlers  []string `yaml:"handlers"`
	Propagate *bool    `yaml:"propagate"`
}

// Propagates reports whether records continue to ancestor loggers.
func (l LoggerSpec) Propagates() bool {
	return l.Propagate == nil || *l.Propagate
}

// HandlerSpec is a handler definition. Which parameters apply depends on
// Class.
type HandlerSpec struct {
	Class     string `yaml:"class"`
	Formatter string `yaml:"formatter"`
	Level     string `yaml:"level"`

	// console
	Stream string `yaml:"stream"`

	// watched file
	Filename      string        `yaml:"filename"`
	Mode          string        `yaml:"mode"`
	Delay         bool          `yaml:"delay"`
	CheckInterval time.Duration `yaml:"check_interval"`

	// syslog
	Address  string `yaml:"address"`
	SockType string `yaml:"socktype"`
	Facility string `yaml:"facility"`
	Tag      string `yaml:"tag"`
}

// Kind resolves the handler class. Unknown classes yield KindUnknown.
func (h HandlerSpec) Kind() HandlerKind {
	kind, _ := ParseHandlerKind(h.Class)
	return kind
}

// File returns the effective target path of a watched-file handler.
func (h HandlerSpec) File() string {
	if h.Filename == "" {
		return DefaultFilename
	}
	return h.Filename
}
