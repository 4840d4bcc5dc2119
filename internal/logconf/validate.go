package logconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/eugenenazirov/rse-logconf/internal/format"
	"github.com/eugenenazirov/rse-logconf/internal/severity"
)

// DefaultRootLevel applies when the root logger omits its level.
const DefaultRootLevel = severity.Warning

var (
	// ErrUnsupportedVersion is wrapped when the version marker is unknown.
	ErrUnsupportedVersion = errors.New("unsupported version")
	// ErrUndefinedFormatter is wrapped when a handler names a missing formatter.
	ErrUndefinedFormatter = errors.New("undefined formatter")
	// ErrUndefinedHandler is wrapped when a logger names a missing handler.
	ErrUndefinedHandler = errors.New("undefined handler")
	// ErrDuplicateHandler is wrapped when a logger lists a handler twice.
	ErrDuplicateHandler = errors.New("duplicate handler")
	// ErrInvalidParameter is wrapped for malformed kind-specific parameters.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Validate checks the version marker, formatter templates, handler
// definitions and every logger reference, stopping at the first failure.
// Entries are visited in name order so the reported failure is stable.
// Validate never touches the handlers' target resources.
func Validate(doc *Document) error {
	if doc == nil {
		return &ValidationError{Section: "document", Err: errors.New("nil document")}
	}
	if doc.Version != SupportedVersion {
		return &ValidationError{
			Section: "version",
			Err:     fmt.Errorf("%w %d (want %d)", ErrUnsupportedVersion, doc.Version, SupportedVersion),
		}
	}

	for _, name := range sortedKeys(doc.Formatters) {
		spec := doc.Formatters[name]
		if _, err := format.New(spec.Format, spec.Datefmt); err != nil {
			return &ValidationError{Section: "formatter", Name: name, Err: err}
		}
	}

	for _, name := range sortedKeys(doc.Handlers) {
		if err := validateHandler(doc, doc.Handlers[name]); err != nil {
			return &ValidationError{Section: "handler", Name: name, Err: err}
		}
	}

	if err := validateLogger(doc, doc.Root); err != nil {
		return &ValidationError{Section: "root", Err: err}
	}
	for _, name := range sortedKeys(doc.Loggers) {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Section: "logger", Name: name, Err: errors.New("logger name must not be empty")}
		}
		if err := validateLogger(doc, doc.Loggers[name]); err != nil {
			return &ValidationError{Section: "logger", Name: name, Err: err}
		}
	}
	return nil
}

func validateHandler(doc *Document, spec HandlerSpec) error {
	kind, err := ParseHandlerKind(spec.Class)
	if err != nil {
		return err
	}
	if spec.Formatter == "" {
		return fmt.Errorf("%w: formatter is required", ErrUndefinedFormatter)
	}
	if _, ok := doc.Formatters[spec.Formatter]; !ok {
		return fmt.Errorf("%w %q", ErrUndefinedFormatter, spec.Formatter)
	}
	if spec.Level != "" {
		if _, err := severity.Parse(spec.Level); err != nil {
			return err
		}
	}
	if err := checkForeignParams(kind, spec); err != nil {
		return err
	}

	switch kind {
	case KindConsole:
		if _, err := ParseStream(spec.Stream); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
	case KindWatchedFile:
		path := spec.File()
		if strings.HasSuffix(path, string(os.PathSeparator)) || filepath.Base(filepath.Clean(path)) == "." {
			return fmt.Errorf("%w: filename %q is not a file path", ErrInvalidParameter, path)
		}
		switch spec.Mode {
		case "", "a", "w":
		default:
			return fmt.Errorf("%w: mode %q (want a or w)", ErrInvalidParameter, spec.Mode)
		}
		if spec.CheckInterval < 0 {
			return fmt.Errorf("%w: check_interval must be >= 0", ErrInvalidParameter)
		}
	case KindSyslog:
		if _, err := ParseFacility(spec.Facility); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
		if _, _, err := spec.SyslogTarget(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
	}
	return nil
}

// checkForeignParams rejects parameters that belong to another handler kind.
func checkForeignParams(kind HandlerKind, spec HandlerSpec) error {
	set := map[string]bool{
		"stream":         spec.Stream != "",
		"filename":       spec.Filename != "",
		"mode":           spec.Mode != "",
		"delay":          spec.Delay,
		"check_interval": spec.CheckInterval != 0,
		"address":        spec.Address != "",
		"socktype":       spec.SockType != "",
		"facility":       spec.Facility != "",
		"tag":            spec.Tag != "",
	}
	allowed := map[HandlerKind][]string{
		KindConsole:     {"stream"},
		KindWatchedFile: {"filename", "mode", "delay", "check_interval"},
		KindSyslog:      {"address", "socktype", "facility", "tag"},
	}
	for _, param := range allowed[kind] {
		delete(set, param)
	}
	for _, param := range sortedKeys(set) {
		if set[param] {
			return fmt.Errorf("%w: %s does not apply to %s handlers", ErrInvalidParameter, param, kind)
		}
	}
	return nil
}

func validateLogger(doc *Document, spec LoggerSpec) error {
	if spec.Level != "" {
		if _, err := severity.Parse(spec.Level); err != nil {
			return err
		}
	}
	seen := make(map[string]struct{}, len(spec.Handlers))
	for _, name := range spec.Handlers {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w %q", ErrDuplicateHandler, name)
		}
		seen[name] = struct{}{}
		if _, ok := doc.Handlers[name]; !ok {
			return fmt.Errorf("%w %q", ErrUndefinedHandler, name)
		}
	}
	return nil
}

// RootLevel returns the effective root severity of a validated document.
func (d *Document) RootLevel() severity.Level {
	if d.Root.Level == "" {
		return DefaultRootLevel
	}
	lvl, err := severity.Parse(d.Root.Level)
	if err != nil {
		return DefaultRootLevel
	}
	return lvl
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
