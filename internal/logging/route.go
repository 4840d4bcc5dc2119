package logging

import (
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"

	"github.com/eugenenazirov/rse-logconf/internal/logconf"
)

// loggerConfig is a root or named logger with handler names resolved against
// the owning pipeline. A nil level inherits from the nearest ancestor.
type loggerConfig struct {
	level     *zapcore.Level
	handlers  []string
	propagate bool
}

// pipeline is an immutable snapshot of installed routing.
type pipeline struct {
	root     loggerConfig
	loggers  map[string]loggerConfig
	handlers map[string]*handler
	minLevel zapcore.Level
	routes   sync.Map
}

type route struct {
	level    zapcore.Level
	handlers []*handler
}

func emptyPipeline() *pipeline {
	lvl := logconf.DefaultRootLevel.Zap()
	return &pipeline{
		root:     loggerConfig{level: &lvl},
		loggers:  map[string]loggerConfig{},
		handlers: map[string]*handler{},
		minLevel: lvl,
	}
}

func (p *pipeline) computeMinLevel() {
	p.minLevel = *p.root.level
	for _, l := range p.loggers {
		if l.level != nil && *l.level < p.minLevel {
			p.minLevel = *l.level
		}
	}
}

// route resolves the effective level and handler set for a dotted logger
// name. Handlers are collected from the most specific configured ancestor
// up to the root until one stops propagation; each handler appears once.
func (p *pipeline) route(name string) *route {
	if r, ok := p.routes.Load(name); ok {
		return r.(*route)
	}

	r := &route{level: *p.root.level}
	levelSet := false
	stopped := false
	seen := make(map[string]bool)
	add := func(names []string) {
		for _, n := range names {
			if h, ok := p.handlers[n]; ok && !seen[n] {
				seen[n] = true
				r.handlers = append(r.handlers, h)
			}
		}
	}

	for n := name; n != ""; n = parentName(n) {
		cfg, ok := p.loggers[n]
		if !ok {
			continue
		}
		if !levelSet && cfg.level != nil {
			r.level = *cfg.level
			levelSet = true
		}
		if !stopped {
			add(cfg.handlers)
			stopped = !cfg.propagate
		}
	}
	if !stopped {
		add(p.root.handlers)
	}

	actual, _ := p.routes.LoadOrStore(name, r)
	return actual.(*route)
}

func parentName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}

func (p *pipeline) sync() error {
	var errs []error
	for _, h := range p.handlers {
		if err := h.sink.Sync(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// routingCore is the zapcore.Core behind every Logger. It consults the
// context's current pipeline for each entry.
type routingCore struct {
	ctx    *Context
	fields []zapcore.Field
}

func (c *routingCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.ctx.state.Load().minLevel
}

func (c *routingCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &routingCore{ctx: c.ctx, fields: merged}
}

func (c *routingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	r := c.ctx.state.Load().route(ent.LoggerName)
	if ent.Level < r.level {
		return ce
	}
	for _, h := range r.handlers {
		if h.enabled(ent.Level) {
			return ce.AddCore(ent, c)
		}
	}
	return ce
}

func (c *routingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	r := c.ctx.state.Load().route(ent.LoggerName)
	if ent.Level < r.level {
		return nil
	}
	if len(c.fields) > 0 {
		fields = append(append(make([]zapcore.Field, 0, len(c.fields)+len(fields)), c.fields...), fields...)
	}
	var errs []error
	for _, h := range r.handlers {
		if !h.enabled(ent.Level) {
			continue
		}
		if err := h.write(ent, fields); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *routingCore) Sync() error {
	return c.ctx.state.Load().sync()
}
