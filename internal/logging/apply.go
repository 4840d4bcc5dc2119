package logging

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/eugenenazirov/rse-logconf/internal/format"
	"github.com/eugenenazirov/rse-logconf/internal/logconf"
	"github.com/eugenenazirov/rse-logconf/internal/severity"
)

// DiagnosticsLogger names the logger Apply reports degraded handlers on.
const DiagnosticsLogger = "logconf"

// Apply validates doc and installs its pipeline. Validation failures return
// before any handler target is touched. Resource failures follow the
// context's Policy: PolicyAbort releases everything acquired by this call and
// keeps the previous pipeline; PolicyDegrade drops the failing handlers and
// warns about each one through the installed pipeline.
func (c *Context) Apply(doc *logconf.Document) error {
	if err := logconf.Validate(doc); err != nil {
		return err
	}

	formatters := make(map[string]*format.Formatter, len(doc.Formatters))
	for name, spec := range doc.Formatters {
		f, err := format.New(spec.Format, spec.Datefmt)
		if err != nil {
			return &logconf.ValidationError{Section: "formatter", Name: name, Err: err}
		}
		formatters[name] = f
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	built := make(map[string]*handler, len(doc.Handlers))
	var skipped []*logconf.ResourceError
	for _, name := range sortedNames(doc.Handlers) {
		spec := doc.Handlers[name]
		h, err := c.buildHandler(name, spec, formatters[spec.Formatter])
		if err != nil {
			rerr := &logconf.ResourceError{Handler: name, Kind: spec.Kind(), Err: err}
			if c.policy == PolicyAbort {
				if relErr := releaseAll(built); relErr != nil {
					return errors.Join(rerr, relErr)
				}
				return rerr
			}
			skipped = append(skipped, rerr)
			continue
		}
		built[name] = h
	}

	exclusive := doc.DisablesExisting()
	next := composePipeline(c.state.Load(), doc, built, exclusive)
	if len(skipped) > 0 && len(next.root.handlers) == 0 {
		fb, err := c.fallbackHandler()
		if err != nil {
			return errors.Join(err, releaseAll(built))
		}
		built[fb.name] = fb
		next.handlers[fb.name] = fb
		next.root.handlers = []string{fb.name}
	}
	next.computeMinLevel()

	// Swap routing before retiring handlers so no record is routed to a
	// handler that is being closed.
	c.state.Store(next)
	retireErr := c.handlers.Install(built, exclusive)

	for _, rerr := range skipped {
		c.warn(fmt.Sprintf("handler %q not installed, continuing without it: %v", rerr.Handler, rerr.Err))
	}
	if retireErr != nil {
		c.warn(fmt.Sprintf("closing replaced handlers: %v", retireErr))
	}
	return nil
}

// warn delivers a WARNING from the diagnostics logger to every handler on its
// route regardless of logger levels, and to stderr when there is none.
func (c *Context) warn(msg string) {
	ent := zapcore.Entry{
		LoggerName: DiagnosticsLogger,
		Level:      zapcore.WarnLevel,
		Time:       time.Now(),
		Message:    msg,
	}
	delivered := false
	for _, h := range c.state.Load().route(DiagnosticsLogger).handlers {
		if h.closed.Load() {
			continue
		}
		if err := h.write(ent, nil); err == nil {
			delivered = true
		}
	}
	if !delivered {
		fmt.Fprintf(c.stderr, "%s: WARNING: %s\n", DiagnosticsLogger, msg)
	}
}

// composePipeline builds the routing snapshot for doc. When exclusive is
// false the previous handlers, named loggers and root handlers are kept and
// the document's definitions are layered on top.
func composePipeline(prev *pipeline, doc *logconf.Document, built map[string]*handler, exclusive bool) *pipeline {
	rootLevel := doc.RootLevel().Zap()
	next := &pipeline{
		root:     loggerConfig{level: &rootLevel},
		loggers:  make(map[string]loggerConfig),
		handlers: make(map[string]*handler),
	}

	if !exclusive {
		for name, h := range prev.handlers {
			next.handlers[name] = h
		}
		for name, l := range prev.loggers {
			next.loggers[name] = l
		}
	}
	for name, h := range built {
		next.handlers[name] = h
	}

	if !exclusive {
		next.root.handlers = appendKnown(next.root.handlers, prev.root.handlers, next.handlers)
	}
	next.root.handlers = appendKnown(next.root.handlers, doc.Root.Handlers, next.handlers)

	for name, spec := range doc.Loggers {
		cfg := loggerConfig{
			handlers:  appendKnown(nil, spec.Handlers, next.handlers),
			propagate: spec.Propagates(),
		}
		if spec.Level != "" {
			if lvl, err := severity.Parse(spec.Level); err == nil {
				z := lvl.Zap()
				cfg.level = &z
			}
		}
		next.loggers[name] = cfg
	}
	return next
}

// appendKnown appends the names present in installed, skipping duplicates.
func appendKnown(dst, names []string, installed map[string]*handler) []string {
	for _, n := range names {
		if _, ok := installed[n]; !ok || slices.Contains(dst, n) {
			continue
		}
		dst = append(dst, n)
	}
	return dst
}

func releaseAll(handlers map[string]*handler) error {
	var errs []error
	for _, h := range handlers {
		if err := h.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EffectiveLevel reports the minimum severity a logger name currently emits.
func (c *Context) EffectiveLevel(name string) severity.Level {
	return severity.FromZap(c.state.Load().route(name).level)
}
